package rag

import (
	"strings"
	"testing"

	"github.com/eduassistant/go-agent/vectorstore"
)

func passage(text, source string, distance float64) vectorstore.Result {
	return vectorstore.Result{
		Text:     text,
		Metadata: vectorstore.Metadata{Source: source, Filename: source},
		Distance: distance,
	}
}

func TestBuildPromptInterleavesSourcesInRankOrder(t *testing.T) {
	passages := []vectorstore.Result{
		passage("Mitochondria produce ATP.", "bio/cells.md", 0.1),
		passage("Chloroplasts capture light.", "bio/plants.md", 0.4),
	}

	systemMsg, userMsg := BuildPrompt("Что делает митохондрия?", passages)

	if !strings.Contains(systemMsg, "ТОЛЬКО на русском") {
		t.Fatalf("system instruction lost language rule: %q", systemMsg)
	}
	if !strings.Contains(systemMsg, "Не выдумывай факты") {
		t.Fatalf("system instruction lost grounding rule: %q", systemMsg)
	}

	first := strings.Index(userMsg, "[bio/cells.md] Mitochondria produce ATP.")
	second := strings.Index(userMsg, "[bio/plants.md] Chloroplasts capture light.")
	if first < 0 || second < 0 {
		t.Fatalf("context passages missing from user message: %q", userMsg)
	}
	if first > second {
		t.Fatal("passages are not in retrieval rank order")
	}
	if !strings.Contains(userMsg, "Что делает митохондрия?") {
		t.Fatalf("question missing from user message: %q", userMsg)
	}
}

func TestBuildPromptNoPassagesUsesPlaceholder(t *testing.T) {
	_, userMsg := BuildPrompt("Вопрос без контекста", nil)
	if !strings.Contains(userMsg, "Контекст не найден.") {
		t.Fatalf("placeholder missing: %q", userMsg)
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	passages := []vectorstore.Result{passage("Text.", "a.txt", 0.2)}

	system1, user1 := BuildPrompt("Вопрос", passages)
	system2, user2 := BuildPrompt("Вопрос", passages)
	if system1 != system2 || user1 != user2 {
		t.Fatal("prompt is not deterministic for identical inputs")
	}
}

func TestBuildPromptUnknownSourceTag(t *testing.T) {
	_, userMsg := BuildPrompt("Вопрос", []vectorstore.Result{passage("Orphan text.", "", 0.3)})
	if !strings.Contains(userMsg, "[unknown] Orphan text.") {
		t.Fatalf("missing fallback source tag: %q", userMsg)
	}
}
