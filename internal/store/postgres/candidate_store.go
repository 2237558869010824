package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// CandidateStore implements domain.CandidateStore using PostgreSQL.
type CandidateStore struct {
	pool *pgxpool.Pool
}

// NewCandidateStore creates a new CandidateStore backed by the given pool.
func NewCandidateStore(pool *pgxpool.Pool) *CandidateStore {
	return &CandidateStore{pool: pool}
}

// InsertBatch stores the ranked candidate list of one run. Rank follows slice
// order, so callers pass candidates already sorted by similarity.
func (s *CandidateStore) InsertBatch(ctx context.Context, runID string, cands []domain.SimilarityCandidate) error {
	if len(cands) == 0 {
		return nil
	}

	const query = `
		INSERT INTO candidates (
			run_id, rank,
			kalshi_event_id, kalshi_title, kalshi_subtitle, kalshi_category,
			poly_event_id, poly_title, poly_subtitle, poly_category,
			similarity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	batch := &pgx.Batch{}
	for i, c := range cands {
		batch.Queue(query,
			runID, i,
			c.EventA.ID, c.EventA.Title, c.EventA.Subtitle, c.EventA.Category,
			c.EventB.ID, c.EventB.Title, c.EventB.Subtitle, c.EventB.Category,
			c.Similarity,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range cands {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres: insert candidates for run %s: %w", runID, err)
		}
	}
	return nil
}

// ListByRun returns the candidates of a run in rank order.
func (s *CandidateStore) ListByRun(ctx context.Context, runID string) ([]domain.SimilarityCandidate, error) {
	const query = `
		SELECT kalshi_event_id, kalshi_title, kalshi_subtitle, kalshi_category,
		       poly_event_id, poly_title, poly_subtitle, poly_category,
		       similarity
		FROM candidates WHERE run_id = $1 ORDER BY rank`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list candidates for run %s: %w", runID, err)
	}
	defer rows.Close()

	var cands []domain.SimilarityCandidate
	for rows.Next() {
		c := domain.SimilarityCandidate{
			EventA: domain.EventRef{Platform: domain.PlatformKalshi},
			EventB: domain.EventRef{Platform: domain.PlatformPolymarket},
		}
		if err := rows.Scan(
			&c.EventA.ID, &c.EventA.Title, &c.EventA.Subtitle, &c.EventA.Category,
			&c.EventB.ID, &c.EventB.Title, &c.EventB.Subtitle, &c.EventB.Category,
			&c.Similarity,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan candidate: %w", err)
		}
		cands = append(cands, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list candidates rows: %w", err)
	}
	return cands, nil
}
