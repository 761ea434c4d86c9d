package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresStore keeps chunks in a single rag_chunks table keyed by
// (collection, id), with pgvector handling similarity ordering.
type PostgresStore struct {
	pool      *pgxpool.Pool
	dimension int
}

func NewPostgresStore(pool *pgxpool.Pool, dimension int) *PostgresStore {
	return &PostgresStore{pool: pool, dimension: dimension}
}

// EnsureSchema creates the vector extension, table and indexes if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if s.dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS rag_chunks (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			source TEXT NOT NULL,
			filename TEXT NOT NULL,
			chunk_index INT NOT NULL,
			content TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (collection, id)
		)`, s.dimension),
		"CREATE INDEX IF NOT EXISTS idx_rag_chunks_collection ON rag_chunks(collection)",
		"CREATE INDEX IF NOT EXISTS idx_rag_chunks_embedding ON rag_chunks USING ivfflat (embedding vector_l2_ops)",
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}

	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, collection string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := s.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, entry := range entries {
		if s.dimension > 0 && len(entry.Embedding) != s.dimension {
			err = fmt.Errorf("entry %s: embedding dimension mismatch: expected %d, got %d", entry.ID, s.dimension, len(entry.Embedding))
			return err
		}
		if _, err = tx.Exec(ctx, `
			INSERT INTO rag_chunks (collection, id, source, filename, chunk_index, content, embedding, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
			ON CONFLICT (collection, id) DO UPDATE SET
				source = EXCLUDED.source,
				filename = EXCLUDED.filename,
				chunk_index = EXCLUDED.chunk_index,
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding,
				updated_at = NOW()
		`, collection, entry.ID, entry.Metadata.Source, entry.Metadata.Filename, entry.Metadata.ChunkIndex, entry.Text, pgvector.NewVector(entry.Embedding)); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", entry.ID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, collection string, embedding []float32, topK int) ([]Result, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}
	if topK <= 0 {
		topK = 4
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	probes := topK * 10
	if probes < 10 {
		probes = 10
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET ivfflat.probes = %d", probes)); err != nil {
		return nil, fmt.Errorf("set ivfflat probes: %w", err)
	}

	rows, err := conn.Query(ctx, `
		SELECT content, source, filename, chunk_index, (embedding <-> $2::vector) AS distance
		FROM rag_chunks
		WHERE collection = $1
		ORDER BY embedding <-> $2::vector
		LIMIT $3
	`, collection, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, classifyQueryError(collection, err)
	}
	defer rows.Close()

	results := make([]Result, 0, topK)
	for rows.Next() {
		var item Result
		if scanErr := rows.Scan(&item.Text, &item.Metadata.Source, &item.Metadata.Filename, &item.Metadata.ChunkIndex, &item.Distance); scanErr != nil {
			return nil, fmt.Errorf("scan similar chunk: %w", scanErr)
		}
		results = append(results, item)
	}
	if rows.Err() != nil {
		return nil, classifyQueryError(collection, rows.Err())
	}

	return results, nil
}

func (s *PostgresStore) Reset(ctx context.Context, collection string) error {
	if err := s.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if _, err := s.pool.Exec(ctx, "DELETE FROM rag_chunks WHERE collection = $1", collection); err != nil {
		return fmt.Errorf("reset collection %s: %w", collection, err)
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context, collection string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM rag_chunks WHERE collection = $1", collection).Scan(&count)
	if err != nil {
		return 0, classifyQueryError(collection, err)
	}
	return count, nil
}

// classifyQueryError separates unreadable-index failures, which are fatal and
// require re-ingestion, from ordinary query errors.
func classifyQueryError(collection string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UndefinedTable, pgerrcode.UndefinedObject, pgerrcode.UndefinedColumn,
			pgerrcode.DataCorrupted, pgerrcode.IndexCorrupted:
			return &CorruptedError{Collection: collection, Err: err}
		}
	}
	return fmt.Errorf("query vector store: %w", err)
}

var _ Store = (*PostgresStore)(nil)
