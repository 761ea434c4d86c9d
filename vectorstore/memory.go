package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is a process-local Store with the same L2 metric as the
// Postgres adapter. It backs tests and quick local experiments; nothing
// persists across restarts.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]Entry)}
}

func (s *MemoryStore) Upsert(_ context.Context, collection string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.collections[collection]
	for _, entry := range entries {
		replaced := false
		for i := range existing {
			if existing[i].ID == entry.ID {
				existing[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, entry)
		}
	}
	s.collections[collection] = existing
	return nil
}

func (s *MemoryStore) Query(_ context.Context, collection string, embedding []float32, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = 4
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.collections[collection]
	if !ok {
		return nil, &CorruptedError{Collection: collection}
	}

	results := make([]Result, 0, len(entries))
	for _, entry := range entries {
		results = append(results, Result{
			Text:     entry.Text,
			Metadata: entry.Metadata,
			Distance: l2Distance(embedding, entry.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func (s *MemoryStore) Reset(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = []Entry{}
	return nil
}

func (s *MemoryStore) Count(_ context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection]), nil
}

func l2Distance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.MaxFloat64
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

var _ Store = (*MemoryStore)(nil)
