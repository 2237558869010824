package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// EmbeddingStore implements domain.EmbeddingStore using PostgreSQL with the
// pgvector extension.
type EmbeddingStore struct {
	pool *pgxpool.Pool
}

// NewEmbeddingStore creates a new EmbeddingStore backed by the given pool.
func NewEmbeddingStore(pool *pgxpool.Pool) *EmbeddingStore {
	return &EmbeddingStore{pool: pool}
}

// UpsertBatch writes one embedding per event, replacing existing rows for the
// same (platform, event_id) key. Batches go through a single pgx.Batch round
// trip.
func (s *EmbeddingStore) UpsertBatch(ctx context.Context, platform domain.Platform, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	const query = `
		INSERT INTO event_embeddings (platform, event_id, embedding, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (platform, event_id)
		DO UPDATE SET embedding = EXCLUDED.embedding, updated_at = NOW()`

	batch := &pgx.Batch{}
	for eventID, vec := range vectors {
		batch.Queue(query, string(platform), eventID, pgvector.NewVector(vec))
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range vectors {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert embeddings for %s: %w", platform, err)
		}
	}
	return nil
}

// LoadAll returns every stored embedding for a platform keyed by event id.
func (s *EmbeddingStore) LoadAll(ctx context.Context, platform domain.Platform) (map[string][]float32, error) {
	const query = `SELECT event_id, embedding FROM event_embeddings WHERE platform = $1`

	rows, err := s.pool.Query(ctx, query, string(platform))
	if err != nil {
		return nil, fmt.Errorf("postgres: load embeddings for %s: %w", platform, err)
	}
	defer rows.Close()

	out := make(map[string][]float32)
	for rows.Next() {
		var eventID string
		var vec pgvector.Vector
		if err := rows.Scan(&eventID, &vec); err != nil {
			return nil, fmt.Errorf("postgres: scan embedding: %w", err)
		}
		out[eventID] = vec.Slice()
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load embeddings rows: %w", err)
	}
	return out, nil
}
