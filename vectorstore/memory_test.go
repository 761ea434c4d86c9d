package vectorstore

import (
	"context"
	"errors"
	"testing"
)

func entry(id string, vec []float32, text, source string, index int) Entry {
	return Entry{
		ID:        id,
		Embedding: vec,
		Text:      text,
		Metadata:  Metadata{Source: source, Filename: source, ChunkIndex: index},
	}
}

func TestMemoryStoreQueryOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.Upsert(ctx, "col", []Entry{
		entry("far", []float32{10, 10}, "far text", "far.txt", 0),
		entry("near", []float32{1, 1}, "near text", "near.txt", 0),
		entry("mid", []float32{4, 4}, "mid text", "mid.txt", 0),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	results, err := store.Query(ctx, "col", []float32{0, 0}, 2)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected top 2 results, got %d", len(results))
	}
	if results[0].Text != "near text" || results[1].Text != "mid text" {
		t.Fatalf("unexpected ranking: %q, %q", results[0].Text, results[1].Text)
	}
	if results[0].Distance >= results[1].Distance {
		t.Fatalf("distances not ascending: %f, %f", results[0].Distance, results[1].Distance)
	}
}

func TestMemoryStoreUpsertReplacesById(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Upsert(ctx, "col", []Entry{entry("a", []float32{1}, "old", "a.txt", 0)}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := store.Upsert(ctx, "col", []Entry{entry("a", []float32{2}, "new", "a.txt", 0)}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	count, err := store.Count(ctx, "col")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 entry after replacing upsert, got %d", count)
	}

	results, err := store.Query(ctx, "col", []float32{2}, 1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if results[0].Text != "new" {
		t.Fatalf("upsert did not overwrite text: %q", results[0].Text)
	}
}

func TestMemoryStoreResetLeavesEmptyCollection(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Upsert(ctx, "col", []Entry{entry("a", []float32{1}, "text", "a.txt", 0)}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.Reset(ctx, "col"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	count, err := store.Count(ctx, "col")
	if err != nil {
		t.Fatalf("count after reset: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty collection after reset, got %d entries", count)
	}

	// Collection still exists: querying it is not a corruption error.
	results, err := store.Query(ctx, "col", []float32{1}, 4)
	if err != nil {
		t.Fatalf("query after reset: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no stale results after reset, got %d", len(results))
	}
}

func TestMemoryStoreQueryUnknownCollection(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Query(context.Background(), "missing", []float32{1}, 4)
	if err == nil {
		t.Fatal("expected error for unknown collection")
	}
	var corrupted *CorruptedError
	if !errors.As(err, &corrupted) {
		t.Fatalf("expected CorruptedError, got %T: %v", err, err)
	}
	if corrupted.Collection != "missing" {
		t.Fatalf("unexpected collection in error: %q", corrupted.Collection)
	}
}
