// Package ingestion turns a directory of source documents into indexed,
// embedded chunks.
package ingestion

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/eduassistant/go-agent/documents"
	"github.com/eduassistant/go-agent/embeddings"
	"github.com/eduassistant/go-agent/splitter"
	"github.com/eduassistant/go-agent/vectorstore"
)

// Service orchestrates load, split, embed and upsert for one collection.
type Service struct {
	loader     *documents.Loader
	split      splitter.Splitter
	embedder   embeddings.Embedder
	store      vectorstore.Store
	collection string
	logger     *log.Logger
}

func NewService(loader *documents.Loader, split splitter.Splitter, embedder embeddings.Embedder, store vectorstore.Store, collection string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		loader:     loader,
		split:      split,
		embedder:   embedder,
		store:      store,
		collection: collection,
		logger:     logger,
	}
}

// Ingest loads every supported document under dir, splits it, embeds all
// chunk texts in one batched call and upserts them under deterministic ids.
// With reset the collection is emptied first (destructive). An empty corpus
// is not an error: the count is 0 and nothing is upserted.
func (s *Service) Ingest(ctx context.Context, dir string, reset bool) (int, error) {
	if s.embedder == nil {
		return 0, fmt.Errorf("embedder not configured")
	}
	if s.store == nil {
		return 0, fmt.Errorf("vector store not configured")
	}

	if reset {
		if err := s.store.Reset(ctx, s.collection); err != nil {
			return 0, fmt.Errorf("reset collection: %w", err)
		}
		s.logger.Printf("collection %s reset", s.collection)
	}

	docs, err := s.loader.LoadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("load documents: %w", err)
	}
	if len(docs) == 0 {
		s.logger.Printf("no documents found in %s", dir)
		return 0, nil
	}

	chunks := make([]splitter.Chunk, 0)
	for _, doc := range docs {
		chunks = append(chunks, s.split.SplitDocument(doc)...)
	}
	if len(chunks) == 0 {
		s.logger.Printf("no chunks produced from %d documents", len(docs))
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("generate embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: have %d chunks, %d embeddings", len(chunks), len(vectors))
	}

	entries := make([]vectorstore.Entry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = vectorstore.Entry{
			ID:        chunkID(chunk.Metadata.Source, chunk.Metadata.ChunkIndex, i),
			Embedding: vectors[i],
			Text:      chunk.Text,
			Metadata: vectorstore.Metadata{
				Source:     chunk.Metadata.Source,
				Filename:   chunk.Metadata.Filename,
				ChunkIndex: chunk.Metadata.ChunkIndex,
			},
		}
	}

	if err := s.store.Upsert(ctx, s.collection, entries); err != nil {
		return 0, fmt.Errorf("upsert chunks: %w", err)
	}

	s.logger.Printf("ingested %d chunks from %d documents into collection %s", len(entries), len(docs), s.collection)
	return len(entries), nil
}

// chunkID derives a stable id from the chunk's provenance and its ordinal in
// the ingestion batch, so re-running over unchanged input upserts in place
// instead of duplicating. The ordinal depends on document load order; after
// adding or removing source files, re-ingest with reset.
func chunkID(source string, chunkIndex, ordinal int) string {
	raw := fmt.Sprintf("%s::%d::%d", source, chunkIndex, ordinal)
	return uuid.NewMD5(uuid.NameSpaceOID, []byte(raw)).String()
}
