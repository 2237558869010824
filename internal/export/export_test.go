package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbscan/internal/domain"
	"github.com/alanyoungcy/arbscan/internal/match"
)

func testCandidates() []domain.SimilarityCandidate {
	return []domain.SimilarityCandidate{
		{
			EventA:     domain.EventRef{Platform: domain.PlatformKalshi, ID: "KXNBA-26", Title: "NBA Champion", Category: "Basketball"},
			EventB:     domain.EventRef{Platform: domain.PlatformPolymarket, ID: "101", Title: "NBA Champion 2026", Category: "Sports"},
			Similarity: 0.93,
		},
		{
			EventA:     domain.EventRef{Platform: domain.PlatformKalshi, ID: "KXBTC-26", Title: "Bitcoin, above \"250k\""},
			EventB:     domain.EventRef{Platform: domain.PlatformPolymarket, ID: "102", Title: "BTC $250k"},
			Similarity: 0.88,
		},
	}
}

func TestCandidatesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCandidates(&buf, testCandidates()))

	got, err := ReadCandidates(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "KXNBA-26", got[0].EventA.ID)
	assert.Equal(t, "Basketball", got[0].EventA.Category)
	assert.InDelta(t, 0.93, got[0].Similarity, 1e-6)
	// Quoting and commas survive the format.
	assert.Equal(t, "Bitcoin, above \"250k\"", got[1].EventA.Title)
}

func TestReadCandidatesMissingColumn(t *testing.T) {
	_, err := ReadCandidates(strings.NewReader("kalshi_ticker,polymarket_id\nKXA,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "similarity")
}

func TestWritePrompts(t *testing.T) {
	desc := domain.PairDescription{
		Candidate:       testCandidates()[0],
		KalshiEvent:     domain.Event{Platform: domain.PlatformKalshi, ID: "KXNBA-26", Title: "NBA Champion"},
		PolymarketEvent: domain.Event{Platform: domain.PlatformPolymarket, ID: "101", Title: "NBA Champion 2026"},
		KalshiContracts: []domain.Contract{{Ticker: "KXNBA-26-LAL", Title: "Lakers"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePrompts(&buf, []domain.PairDescription{desc}))

	out := buf.String()
	assert.Contains(t, out, "kalshi_markets_count")
	assert.Contains(t, out, "Kalshi Event: KXNBA-26")
	assert.Contains(t, out, "could_have_arbitrage")
}

func TestResultsRoundTrip(t *testing.T) {
	cand := testCandidates()[0]
	results := []match.Result{
		{
			Description: domain.PairDescription{
				Candidate:       cand,
				KalshiEvent:     domain.Event{ID: cand.EventA.ID, Title: cand.EventA.Title},
				PolymarketEvent: domain.Event{ID: cand.EventB.ID, Title: cand.EventB.Title},
			},
			Verdict: domain.Verdict{
				CouldHaveArbitrage: true,
				Reasons:            "same outcome",
				RawResponse:        `{"could_have_arbitrage": true}`,
				Pairs: []domain.MatchedMarketPair{
					{
						Candidate:    cand,
						KalshiTicker: "KXNBA-26-LAL",
						PolymarketID: "m101",
						Relationship: domain.RelationSameOutcome,
						Notes:        "check early close",
					},
				},
			},
		},
		{
			Description: domain.PairDescription{Candidate: testCandidates()[1]},
			Verdict:     domain.Verdict{ParseError: "empty_response"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, results))

	reg, err := ReadResults(&buf)
	require.NoError(t, err)
	require.Equal(t, 2, reg.Len())

	v, ok := reg.Get("KXNBA-26", "101")
	require.True(t, ok)
	assert.True(t, v.CouldHaveArbitrage)
	require.Len(t, v.Pairs, 1)
	assert.Equal(t, "KXNBA-26-LAL", v.Pairs[0].KalshiTicker)
	assert.Equal(t, domain.RelationSameOutcome, v.Pairs[0].Relationship)
	assert.Equal(t, "check early close", v.Pairs[0].Notes)

	broken, ok := reg.Get("KXBTC-26", "102")
	require.True(t, ok)
	assert.False(t, broken.OK())
	assert.Empty(t, broken.Pairs)

	pairs := reg.Pairs()
	require.Len(t, pairs, 1)
}

func TestWriteOpportunitiesAndSummary(t *testing.T) {
	opps := []domain.ArbitrageOpportunity{
		{
			ID:          "op-1",
			Pair:        domain.MatchedMarketPair{KalshiTicker: "KXNBA-26-LAL", PolymarketID: "m101"},
			Strategy:    domain.StrategyBuyNoPolyYesKalshi,
			KalshiPrice: 0.60,
			KalshiFee:   0.02,
			PolyPrice:   0.35,
			TotalCost:   0.97,
			Profit:      0.03,
			DetectedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteOpportunities(&buf, opps))
	out := buf.String()
	assert.Contains(t, out, "buy_no_poly_yes_kalshi")
	assert.Contains(t, out, "0.0300")
	assert.Contains(t, out, "2026-01-02T03:04:05Z")

	var table bytes.Buffer
	require.NoError(t, PrintSummary(&table, opps, 10))
	assert.Contains(t, table.String(), "KXNBA-26-LAL")
	assert.Contains(t, table.String(), "3.00%")
}
