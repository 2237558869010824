package arb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

func testEvaluator() *Evaluator {
	e := NewEvaluator(Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	e.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return e
}

func f(v float64) *float64 { return &v }

func kalshiContract(ticker string, yesCents, noCents float64) domain.Contract {
	yes, no := KalshiQuote{YesAskCents: yesCents, NoAskCents: noCents}.Prices()
	return domain.Contract{Platform: domain.PlatformKalshi, Ticker: ticker, YesPrice: yes, NoPrice: no}
}

func polyContract(id string, bid, ask *float64) domain.Contract {
	yes, no := PolymarketQuote{BestBid: bid, BestAsk: ask}.Prices()
	return domain.Contract{Platform: domain.PlatformPolymarket, Ticker: id, YesPrice: yes, NoPrice: no}
}

func TestKalshiFee(t *testing.T) {
	assert.InDelta(t, 0.02, KalshiFee(DefaultKalshiFeeRate, 0.50), 1e-9)
	assert.InDelta(t, 0.01, KalshiFee(DefaultKalshiFeeRate, 0.13), 1e-9)
	assert.Zero(t, KalshiFee(DefaultKalshiFeeRate, 0))
	assert.Zero(t, KalshiFee(DefaultKalshiFeeRate, 1))
	assert.Zero(t, KalshiFee(DefaultKalshiFeeRate, -0.5))
	assert.Zero(t, KalshiFee(DefaultKalshiFeeRate, 1.2))
}

func TestKalshiQuotePrices(t *testing.T) {
	yes, no := KalshiQuote{YesAskCents: 60, NoAskCents: 45}.Prices()
	require.NotNil(t, yes)
	require.NotNil(t, no)
	assert.InDelta(t, 0.60, *yes, 1e-9)
	assert.InDelta(t, 0.45, *no, 1e-9)

	yes, no = KalshiQuote{YesAskCents: 0, NoAskCents: 100}.Prices()
	assert.Nil(t, yes)
	assert.Nil(t, no)
}

func TestPolymarketQuotePrices(t *testing.T) {
	yes, no := PolymarketQuote{BestBid: f(0.65), BestAsk: f(0.70)}.Prices()
	require.NotNil(t, yes)
	require.NotNil(t, no)
	assert.InDelta(t, 0.70, *yes, 1e-9)
	assert.InDelta(t, 0.35, *no, 1e-9)

	yes, no = PolymarketQuote{}.Prices()
	assert.Nil(t, yes)
	assert.Nil(t, no)

	yes, no = PolymarketQuote{BestBid: f(0), BestAsk: f(1)}.Prices()
	assert.Nil(t, yes)
	assert.Nil(t, no)
}

func pair(ticker, polyID string) domain.MatchedMarketPair {
	return domain.MatchedMarketPair{
		KalshiTicker: ticker,
		PolymarketID: polyID,
		Relationship: domain.RelationSameOutcome,
	}
}

func TestBooksFrom(t *testing.T) {
	books := BooksFrom(
		[]domain.Contract{kalshiContract("K1", 60, 45)},
		[]domain.Contract{polyContract("P1", f(0.65), f(0.70))},
	)
	assert.Len(t, books.Kalshi, 1)
	assert.Len(t, books.Polymarket, 1)
	assert.Contains(t, books.Kalshi, "K1")
	assert.Contains(t, books.Polymarket, "P1")
}

func TestEvaluateSingleOpportunity(t *testing.T) {
	e := testEvaluator()
	books := BooksFrom(
		[]domain.Contract{kalshiContract("KXTEST-26", 60, 45)},
		[]domain.Contract{polyContract("0xabc", f(0.65), f(0.70))},
	)

	opps, skip := e.Evaluate(pair("KXTEST-26", "0xabc"), books)
	require.Nil(t, skip)
	require.Len(t, opps, 1)

	// Buy NO on Polymarket at 1-0.65, buy YES on Kalshi at 0.60 plus the
	// 0.02 fee. The YES-Poly/NO-Kalshi hedge costs 0.70+0.45+0.02 and loses.
	opp := opps[0]
	assert.Equal(t, domain.StrategyBuyNoPolyYesKalshi, opp.Strategy)
	assert.InDelta(t, 0.60, opp.KalshiPrice, 1e-9)
	assert.InDelta(t, 0.02, opp.KalshiFee, 1e-9)
	assert.InDelta(t, 0.35, opp.PolyPrice, 1e-9)
	assert.Zero(t, opp.PolyFee)
	assert.InDelta(t, 0.97, opp.TotalCost, 1e-9)
	assert.InDelta(t, 0.03, opp.Profit, 1e-9)
	assert.NotEmpty(t, opp.ID)
}

func TestEvaluateBothStrategies(t *testing.T) {
	e := testEvaluator()
	// Both sides cheap enough that each hedge clears a profit on its own.
	books := BooksFrom(
		[]domain.Contract{kalshiContract("K", 40, 40)},
		[]domain.Contract{polyContract("P", f(0.60), f(0.40))},
	)

	opps, skip := e.Evaluate(pair("K", "P"), books)
	require.Nil(t, skip)
	require.Len(t, opps, 2)
	assert.NotEqual(t, opps[0].Strategy, opps[1].Strategy)
	assert.NotEqual(t, opps[0].ID, opps[1].ID)
}

func TestEvaluateNoOpportunity(t *testing.T) {
	e := testEvaluator()
	books := BooksFrom(
		[]domain.Contract{kalshiContract("K", 55, 55)},
		[]domain.Contract{polyContract("P", f(0.50), f(0.55))},
	)

	opps, skip := e.Evaluate(pair("K", "P"), books)
	assert.Nil(t, skip)
	assert.Empty(t, opps)
}

func TestEvaluateSkipsMissingMarkets(t *testing.T) {
	e := testEvaluator()
	books := BooksFrom(
		[]domain.Contract{kalshiContract("K", 40, 40)},
		[]domain.Contract{polyContract("P", f(0.60), f(0.40))},
	)

	_, skip := e.Evaluate(pair("MISSING", "P"), books)
	require.NotNil(t, skip)
	assert.Contains(t, skip.Reason, "MISSING")

	_, skip = e.Evaluate(pair("K", "0xmissing"), books)
	require.NotNil(t, skip)
	assert.Contains(t, skip.Reason, "0xmissing")
}

func TestEvaluateSkipsEmptyBook(t *testing.T) {
	e := testEvaluator()
	books := BooksFrom(
		[]domain.Contract{kalshiContract("K", 0, 0)},
		[]domain.Contract{polyContract("P", f(0.60), f(0.40))},
	)

	_, skip := e.Evaluate(pair("K", "P"), books)
	require.NotNil(t, skip)
	assert.Contains(t, skip.Reason, "no tradeable side")
}

func TestEvaluateAllSortsByProfit(t *testing.T) {
	e := testEvaluator()
	books := BooksFrom(
		[]domain.Contract{
			kalshiContract("K1", 60, 99), // profit 0.03 against P1
			kalshiContract("K2", 40, 99), // profit 0.23 against P2
		},
		[]domain.Contract{
			polyContract("P1", f(0.65), nil),
			polyContract("P2", f(0.65), nil),
		},
	)
	pairs := []domain.MatchedMarketPair{
		pair("K1", "P1"),
		pair("K2", "P2"),
		pair("GONE", "P1"),
	}

	opps, skips := e.EvaluateAll(context.Background(), pairs, books)
	require.Len(t, opps, 2)
	require.Len(t, skips, 1)
	assert.Equal(t, "K2", opps[0].Pair.KalshiTicker)
	assert.Equal(t, "K1", opps[1].Pair.KalshiTicker)
	assert.GreaterOrEqual(t, opps[0].Profit, opps[1].Profit)
	assert.Equal(t, "GONE", skips[0].Pair.KalshiTicker)
}

func TestEvaluateAllIdempotent(t *testing.T) {
	e := testEvaluator()
	var kalshi, poly []domain.Contract
	var pairs []domain.MatchedMarketPair
	for i := 0; i < 8; i++ {
		ticker := fmt.Sprintf("K%d", i)
		kalshi = append(kalshi, kalshiContract(ticker, float64(30+i), 99))
		poly = append(poly, polyContract("0x"+ticker, f(0.70), nil))
		pairs = append(pairs, pair(ticker, "0x"+ticker))
	}
	books := BooksFrom(kalshi, poly)

	first, _ := e.EvaluateAll(context.Background(), pairs, books)
	second, _ := e.EvaluateAll(context.Background(), pairs, books)
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestEvaluateAllEmpty(t *testing.T) {
	e := testEvaluator()
	opps, skips := e.EvaluateAll(context.Background(), nil, Books{})
	assert.Nil(t, opps)
	assert.Nil(t, skips)
}
