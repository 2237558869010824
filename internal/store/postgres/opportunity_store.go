package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates a new OpportunityStore backed by the given pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const opportunitySelectCols = `id, strategy, kalshi_market_ticker, polymarket_market_id,
	relationship, notes, kalshi_price, kalshi_fee, poly_price, poly_fee,
	total_cost, profit, detected_at`

// InsertBatch stores the evaluated opportunities of one run.
func (s *OpportunityStore) InsertBatch(ctx context.Context, runID string, opps []domain.ArbitrageOpportunity) error {
	if len(opps) == 0 {
		return nil
	}

	const query = `
		INSERT INTO opportunities (
			id, run_id, strategy, kalshi_market_ticker, polymarket_market_id,
			relationship, notes, kalshi_price, kalshi_fee, poly_price, poly_fee,
			total_cost, profit, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id, run_id) DO NOTHING`

	batch := &pgx.Batch{}
	for _, opp := range opps {
		batch.Queue(query,
			opp.ID, runID, string(opp.Strategy),
			opp.Pair.KalshiTicker, opp.Pair.PolymarketID,
			string(opp.Pair.Relationship), opp.Pair.Notes,
			opp.KalshiPrice, opp.KalshiFee, opp.PolyPrice, opp.PolyFee,
			opp.TotalCost, opp.Profit, opp.DetectedAt,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range opps {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres: insert opportunities for run %s: %w", runID, err)
		}
	}
	return nil
}

// ListRecent returns the most recent opportunities ordered by detection time.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.ArbitrageOpportunity, error) {
	query := `SELECT ` + opportunitySelectCols + ` FROM opportunities ORDER BY detected_at DESC, profit DESC`
	args := []any{}

	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities: %w", err)
	}
	defer rows.Close()

	var opps []domain.ArbitrageOpportunity
	for rows.Next() {
		var opp domain.ArbitrageOpportunity
		var strategy, relationship string
		if err := rows.Scan(
			&opp.ID, &strategy, &opp.Pair.KalshiTicker, &opp.Pair.PolymarketID,
			&relationship, &opp.Pair.Notes,
			&opp.KalshiPrice, &opp.KalshiFee, &opp.PolyPrice, &opp.PolyFee,
			&opp.TotalCost, &opp.Profit, &opp.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		opp.Strategy = domain.HedgeStrategy(strategy)
		opp.Pair.Relationship = domain.MatchRelationship(relationship)
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities rows: %w", err)
	}
	return opps, nil
}
