package arb

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/alitto/pond"
	"github.com/google/uuid"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// opportunityNS namespaces the deterministic opportunity IDs so the same
// pair and strategy always map to the same UUID across runs.
var opportunityNS = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("arbscan.opportunity"))

// Books holds the current contract snapshot keyed the way matched pairs
// reference markets: Kalshi by ticker, Polymarket by market id.
type Books struct {
	Kalshi     map[string]domain.Contract
	Polymarket map[string]domain.Contract
}

// BooksFrom indexes contract snapshots for pair lookup.
func BooksFrom(kalshi, polymarket []domain.Contract) Books {
	b := Books{
		Kalshi:     make(map[string]domain.Contract, len(kalshi)),
		Polymarket: make(map[string]domain.Contract, len(polymarket)),
	}
	for _, c := range kalshi {
		b.Kalshi[c.Ticker] = c
	}
	for _, c := range polymarket {
		b.Polymarket[c.Ticker] = c
	}
	return b
}

// Skip records a matched pair that could not be priced and why.
type Skip struct {
	Pair   domain.MatchedMarketPair
	Reason string
}

// Config controls the evaluator. Zero values fall back to defaults.
type Config struct {
	// FeeRate is the Kalshi trading fee rate. Defaults to DefaultKalshiFeeRate.
	FeeRate float64
	// Workers bounds the evaluation pool. Defaults to GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// Evaluator prices both hedge strategies for each matched pair and keeps
// the ones that lock in a profit at settlement.
type Evaluator struct {
	feeRate float64
	workers int
	logger  *slog.Logger
	now     func() time.Time
}

func NewEvaluator(cfg Config) *Evaluator {
	if cfg.FeeRate <= 0 {
		cfg.FeeRate = DefaultKalshiFeeRate
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Evaluator{
		feeRate: cfg.FeeRate,
		workers: cfg.Workers,
		logger:  cfg.Logger.With(slog.String("component", "arb_evaluator")),
		now:     time.Now,
	}
}

// Evaluate prices both strategies for one pair. It returns zero, one, or
// two opportunities depending on which hedges clear a profit after fees.
// Pairs whose markets are missing from the books, or whose needed sides
// have no tradeable price, produce no opportunities.
func (e *Evaluator) Evaluate(pair domain.MatchedMarketPair, books Books) ([]domain.ArbitrageOpportunity, *Skip) {
	kc, ok := books.Kalshi[pair.KalshiTicker]
	if !ok {
		return nil, &Skip{Pair: pair, Reason: fmt.Sprintf("kalshi ticker %s not in snapshot", pair.KalshiTicker)}
	}
	pc, ok := books.Polymarket[pair.PolymarketID]
	if !ok {
		return nil, &Skip{Pair: pair, Reason: fmt.Sprintf("polymarket market %s not in snapshot", pair.PolymarketID)}
	}

	kalshiYes, kalshiNo := kc.YesPrice, kc.NoPrice
	polyYes, polyNo := pc.YesPrice, pc.NoPrice
	if kalshiYes == nil && kalshiNo == nil {
		return nil, &Skip{Pair: pair, Reason: fmt.Sprintf("kalshi ticker %s has no tradeable side", pair.KalshiTicker)}
	}
	if polyYes == nil && polyNo == nil {
		return nil, &Skip{Pair: pair, Reason: fmt.Sprintf("polymarket market %s has no tradeable side", pair.PolymarketID)}
	}

	detected := e.now().UTC()
	var opps []domain.ArbitrageOpportunity
	if polyYes != nil && kalshiNo != nil {
		if opp, ok := e.price(pair, domain.StrategyBuyYesPolyNoKalshi, *kalshiNo, *polyYes, detected); ok {
			opps = append(opps, opp)
		}
	}
	if polyNo != nil && kalshiYes != nil {
		if opp, ok := e.price(pair, domain.StrategyBuyNoPolyYesKalshi, *kalshiYes, *polyNo, detected); ok {
			opps = append(opps, opp)
		}
	}
	return opps, nil
}

// price costs one hedge: one contract on each platform, a guaranteed $1
// payout at settlement, Kalshi's fee on its leg and none on Polymarket's.
func (e *Evaluator) price(pair domain.MatchedMarketPair, strategy domain.HedgeStrategy, kalshiPrice, polyPrice float64, detected time.Time) (domain.ArbitrageOpportunity, bool) {
	fee := KalshiFee(e.feeRate, kalshiPrice)
	total := kalshiPrice + fee + polyPrice
	profit := 1.0 - total
	if profit <= 0 {
		return domain.ArbitrageOpportunity{}, false
	}
	key := fmt.Sprintf("%s|%s|%s", pair.KalshiTicker, pair.PolymarketID, strategy)
	return domain.ArbitrageOpportunity{
		ID:          uuid.NewSHA1(opportunityNS, []byte(key)).String(),
		Pair:        pair,
		Strategy:    strategy,
		KalshiPrice: kalshiPrice,
		KalshiFee:   fee,
		PolyPrice:   polyPrice,
		PolyFee:     0,
		TotalCost:   total,
		Profit:      profit,
		DetectedAt:  detected,
	}, true
}

// EvaluateAll prices every pair concurrently and returns the surviving
// opportunities sorted by profit, highest first. Ties keep input order.
// Unpriceable pairs are logged and returned as skips rather than failing
// the batch.
func (e *Evaluator) EvaluateAll(ctx context.Context, pairs []domain.MatchedMarketPair, books Books) ([]domain.ArbitrageOpportunity, []Skip) {
	if len(pairs) == 0 {
		return nil, nil
	}

	oppRows := make([][]domain.ArbitrageOpportunity, len(pairs))
	skipRows := make([]*Skip, len(pairs))

	pool := pond.New(e.workers, len(pairs), pond.Context(ctx))
	for i, pair := range pairs {
		i, pair := i, pair
		pool.Submit(func() {
			oppRows[i], skipRows[i] = e.Evaluate(pair, books)
		})
	}
	pool.StopAndWait()

	var opps []domain.ArbitrageOpportunity
	var skips []Skip
	for i := range pairs {
		opps = append(opps, oppRows[i]...)
		if skipRows[i] != nil {
			skips = append(skips, *skipRows[i])
		}
	}
	for _, s := range skips {
		e.logger.Warn("skipping matched pair",
			slog.String("kalshi_ticker", s.Pair.KalshiTicker),
			slog.String("polymarket_id", s.Pair.PolymarketID),
			slog.String("reason", s.Reason))
	}

	sort.SliceStable(opps, func(a, b int) bool {
		return opps[a].Profit > opps[b].Profit
	})

	e.logger.Info("evaluated matched pairs",
		slog.Int("pairs", len(pairs)),
		slog.Int("opportunities", len(opps)),
		slog.Int("skipped", len(skips)))
	return opps, skips
}
