package rag

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eduassistant/go-agent/documents"
	"github.com/eduassistant/go-agent/ingestion"
	"github.com/eduassistant/go-agent/splitter"
	"github.com/eduassistant/go-agent/vectorstore"
)

// wordEmbedder is a deterministic bag-of-words embedding: texts sharing more
// vocabulary land closer in L2 space. Good enough to exercise the full
// ingest-retrieve-answer path without a model.
type wordEmbedder struct{}

func (wordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	const dimension = 64
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, dimension)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			word = strings.Trim(word, ".,?!«»\"'()")
			if word == "" {
				continue
			}
			var h uint32
			for _, r := range word {
				h = h*31 + uint32(r)
			}
			vec[h%dimension]++
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm > 0 {
			inv := float32(1 / math.Sqrt(norm))
			for j := range vec {
				vec[j] *= inv
			}
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func ingestCorpus(t *testing.T, store vectorstore.Store, files map[string]string) int {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	loader := documents.NewLoader(testLogger())
	svc := ingestion.NewService(loader, splitter.New(800, 200), wordEmbedder{}, store, "edu_assistant", testLogger())
	count, err := svc.Ingest(context.Background(), dir, false)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	return count
}

func TestEndToEndSingleChunkRoundTrip(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	count := ingestCorpus(t, store, map[string]string{
		"cells.txt": "The mitochondria is the powerhouse of the cell.",
	})
	if count != 1 {
		t.Fatalf("expected exactly 1 chunk, got %d", count)
	}

	generator := &stubGenerator{answer: "Митохондрия."}
	svc := NewService(store, wordEmbedder{}, generator, "edu_assistant", 1, testLogger())

	passages, err := svc.Retrieve(context.Background(), "What is the powerhouse of the cell?", 1)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(passages) != 1 {
		t.Fatalf("expected the single chunk back, got %d passages", len(passages))
	}
	if passages[0].Text != "The mitochondria is the powerhouse of the cell." {
		t.Fatalf("unexpected passage text: %q", passages[0].Text)
	}
	if passages[0].Metadata.Source != "cells.txt" {
		t.Fatalf("source metadata did not round-trip: %q", passages[0].Metadata.Source)
	}

	answer, err := svc.GenerateAnswer(context.Background(), "What is the powerhouse of the cell?")
	if err != nil {
		t.Fatalf("generate answer: %v", err)
	}
	if len(answer.Sources) != 1 || answer.Sources[0] != "cells.txt" {
		t.Fatalf("unexpected sources: %v", answer.Sources)
	}
}

func TestEndToEndRetrievalOrdering(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	ingestCorpus(t, store, map[string]string{
		"energy.txt":  "The mitochondria is the powerhouse of the cell.",
		"history.txt": "The French Revolution began in seventeen eighty nine.",
	})

	svc := NewService(store, wordEmbedder{}, &stubGenerator{answer: "x"}, "edu_assistant", 2, testLogger())

	passages, err := svc.Retrieve(context.Background(), "Which organelle is the powerhouse of the cell?", 2)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(passages) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(passages))
	}
	if !strings.Contains(passages[0].Text, "mitochondria") {
		t.Fatalf("closest passage ranked second: %q", passages[0].Text)
	}
	if passages[0].Distance > passages[1].Distance {
		t.Fatalf("distances not ascending: %f, %f", passages[0].Distance, passages[1].Distance)
	}
}
