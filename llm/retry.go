package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// MaxAttempts bounds generation tries per call: the first attempt plus two
// retries, matching the overload remediation guidance below.
const MaxAttempts = 3

const overloadRemediation = "Сервис генерации перегружен или недоступен.\n\n" +
	"Попробуйте:\n" +
	"• Подождать 10-30 секунд и повторить запрос\n" +
	"• Проверить, что Ollama запущен: `ollama list`\n" +
	"• Перезапустить сервис Ollama"

// BackOffFactory builds a fresh backoff schedule per Generate call. Tests
// inject a zero-wait schedule to exercise the retry bound without sleeping.
type BackOffFactory func() backoff.BackOff

// defaultBackOff waits 2s then 5s between attempts: strictly increasing, no
// jitter, mirroring the grow-with-attempt policy for an overloaded service.
func defaultBackOff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	policy.Multiplier = 2.5
	policy.RandomizationFactor = 0
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 0
	return policy
}

// Generator wraps a Client with bounded retry. Only *OverloadedError is
// retried; every other failure surfaces after exactly one attempt. The wait
// between attempts suspends only the calling goroutine, so concurrent
// questions keep flowing.
type Generator struct {
	client     Client
	logger     *log.Logger
	newBackOff BackOffFactory
}

func NewGenerator(client Client, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{
		client:     client,
		logger:     logger,
		newBackOff: defaultBackOff,
	}
}

// NewGeneratorWithBackOff is NewGenerator with an explicit backoff schedule.
func NewGeneratorWithBackOff(client Client, logger *log.Logger, factory BackOffFactory) *Generator {
	generator := NewGenerator(client, logger)
	if factory != nil {
		generator.newBackOff = factory
	}
	return generator
}

func (g *Generator) Generate(ctx context.Context, messages []Message) (string, error) {
	var answer string
	attempt := 0

	operation := func() error {
		attempt++
		result, err := g.client.Generate(ctx, messages)
		if err == nil {
			answer = result
			return nil
		}

		var overloaded *OverloadedError
		if errors.As(err, &overloaded) {
			g.logger.Printf("generation overloaded, attempt %d/%d: %v", attempt, MaxAttempts, err)
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(g.newBackOff(), MaxAttempts-1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		var overloaded *OverloadedError
		if errors.As(err, &overloaded) {
			return "", fmt.Errorf("%s: %w", overloadRemediation, err)
		}
		return "", err
	}

	return answer, nil
}
