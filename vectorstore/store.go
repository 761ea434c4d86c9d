// Package vectorstore persists chunk vectors and answers nearest-neighbor
// queries through a pluggable backend.
package vectorstore

import "context"

// Metadata is the provenance carried alongside every stored chunk.
type Metadata struct {
	Source     string
	Filename   string
	ChunkIndex int
}

// Entry is one chunk ready for persistence: a stable id, its vector, the raw
// text and provenance. Ids are caller-assigned; upserting an existing id
// overwrites its vector, text and metadata.
type Entry struct {
	ID        string
	Embedding []float32
	Text      string
	Metadata  Metadata
}

// Result is one passage returned by a similarity query. Distance follows the
// backend's metric (L2 for both shipped adapters); lower means more similar
// and results arrive in ascending order.
type Result struct {
	Text     string
	Metadata Metadata
	Distance float64
}

// Store is the vector index capability consumed by ingestion and retrieval.
// A collection groups one corpus; it survives process restarts on durable
// backends.
type Store interface {
	Upsert(ctx context.Context, collection string, entries []Entry) error
	Query(ctx context.Context, collection string, embedding []float32, topK int) ([]Result, error)
	// Reset drops and recreates the collection: afterwards it exists and
	// holds zero entries. Destructive and irreversible.
	Reset(ctx context.Context, collection string) error
	Count(ctx context.Context, collection string) (int, error)
}

// CorruptedError reports an index that cannot be opened or read. It is fatal
// for the current operation and is never retried; recovery is re-ingesting
// with reset.
type CorruptedError struct {
	Collection string
	Err        error
}

func (e *CorruptedError) Error() string {
	return "хранилище знаний повреждено или не инициализировано. Выполните повторную загрузку: edu-agent ingest -reset"
}

func (e *CorruptedError) Unwrap() error {
	return e.Err
}
