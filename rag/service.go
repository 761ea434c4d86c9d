// Package rag wires retrieval, prompt assembly and generation into the
// answer pipeline consumed by the conversational front-end.
package rag

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/eduassistant/go-agent/embeddings"
	"github.com/eduassistant/go-agent/llm"
	"github.com/eduassistant/go-agent/vectorstore"
)

// maxDisplaySources caps the provenance list attached to an answer.
const maxDisplaySources = 3

// Generator is the generation capability consumed by the orchestrator;
// satisfied by *llm.Generator.
type Generator interface {
	Generate(ctx context.Context, messages []llm.Message) (string, error)
}

// Answer pairs the generated text with the passages it was grounded on and a
// de-duplicated, order-preserving source list for display.
type Answer struct {
	Text     string
	Passages []vectorstore.Result
	Sources  []string
}

// Service is stateless between calls; concurrent questions are independent.
type Service struct {
	store      vectorstore.Store
	embedder   embeddings.Embedder
	generator  Generator
	collection string
	topK       int
	logger     *log.Logger
}

func NewService(store vectorstore.Store, embedder embeddings.Embedder, generator Generator, collection string, topK int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if topK <= 0 {
		topK = 4
	}
	return &Service{
		store:      store,
		embedder:   embedder,
		generator:  generator,
		collection: collection,
		topK:       topK,
		logger:     logger,
	}
}

// Retrieve embeds the query with the ingestion-time embedder and returns the
// index's nearest passages in the index's own ranking order.
func (s *Service) Retrieve(ctx context.Context, query string, topK int) ([]vectorstore.Result, error) {
	if topK <= 0 {
		topK = s.topK
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}

	return s.store.Query(ctx, s.collection, vectors[0], topK)
}

// GenerateAnswer runs retrieve, prompt build and generate in strict order.
// Retrieval and generation failures propagate unmodified; no retry happens
// at this layer.
func (s *Service) GenerateAnswer(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, fmt.Errorf("question cannot be empty")
	}

	passages, err := s.Retrieve(ctx, question, s.topK)
	if err != nil {
		return Answer{}, err
	}
	if len(passages) == 0 {
		s.logger.Printf("no context retrieved for question")
	}

	systemMsg, userMsg := BuildPrompt(question, passages)

	text, err := s.generator.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemMsg},
		{Role: llm.RoleUser, Content: userMsg},
	})
	if err != nil {
		return Answer{}, err
	}

	return Answer{
		Text:     strings.TrimSpace(text),
		Passages: passages,
		Sources:  collectSources(passages),
	}, nil
}

func collectSources(passages []vectorstore.Result) []string {
	seen := make(map[string]struct{}, len(passages))
	sources := make([]string, 0, maxDisplaySources)
	for _, passage := range passages {
		source := passage.Metadata.Source
		if source == "" {
			continue
		}
		if _, ok := seen[source]; ok {
			continue
		}
		seen[source] = struct{}{}
		sources = append(sources, source)
		if len(sources) == maxDisplaySources {
			break
		}
	}
	return sources
}
