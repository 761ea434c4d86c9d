// Package llm drives text generation against an external chat-completion
// service, classifying failures and retrying only transient overload.
package llm

import (
	"context"
	"fmt"

	"github.com/eduassistant/go-agent/config"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Client performs a single generation call. Implementations classify
// service-reported failures as *OverloadedError or *ServiceError; anything
// else surfaces as a plain wrapped error.
type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// OverloadedError reports temporary unavailability of the generation service.
// It is the only error class eligible for retry.
type OverloadedError struct {
	Status  int
	Message string
}

func (e *OverloadedError) Error() string {
	return fmt.Sprintf("generation service overloaded (%d): %s", e.Status, e.Message)
}

// ServiceError reports any other service-side failure (bad request, auth,
// missing model). Never retried.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("generation service error (%d): %s", e.Status, e.Message)
}

type Options struct {
	Provider string
	Model    string

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

func NewClient(cfg config.Config) (Client, error) {
	opts := Options{
		Provider:      cfg.LLM.Provider,
		Model:         cfg.LLM.Model,
		OllamaHost:    cfg.OllamaHost,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
	}

	switch opts.Provider {
	case config.ProviderOllama:
		return NewOllamaClient(opts), nil
	case config.ProviderOpenAI:
		if opts.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
		}
		return NewOpenAIClient(opts), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", opts.Provider)
	}
}
