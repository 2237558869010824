package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

func TestShouldExclude_DateVariant(t *testing.T) {
	f := New(nil)

	// Same series base (cadence marker stripped), different date codes.
	assert.True(t, f.ShouldExclude("KXUSDJPY-25DEC1010", "KXUSDJPYH-25DEC1009"))
	assert.True(t, f.ShouldExclude("KXEURUSDH-25DEC1014", "KXEURUSDH-25DEC1013"))
}

func TestShouldExclude_SameDateCodeKept(t *testing.T) {
	f := New(nil)

	// Identical date codes mean the same instant, not a variant series.
	assert.False(t, f.ShouldExclude("KXBALANCE-29", "KXBALANCE-29"))
	assert.False(t, f.ShouldExclude("KXBALANCEH-25DEC1010", "KXBALANCE-25DEC1010"))
}

func TestShouldExclude_NoDateCodeKept(t *testing.T) {
	f := New(nil)

	// Bare numeric suffixes are not date codes.
	assert.False(t, f.ShouldExclude("KXBALANCE-29", "KXBALANCE-30"))
}

func TestShouldExclude_LeagueMismatch(t *testing.T) {
	f := New(nil)

	assert.True(t, f.ShouldExclude("KXNBA-LAL", "KXNFL-DAL"))
	assert.True(t, f.ShouldExclude("KXNHL-BOS", "KXMBL-NYY"))
	// Same league is fine.
	assert.False(t, f.ShouldExclude("KXNBA-LAL", "KXNBA-BOS"))
	// Only one side known is fine.
	assert.False(t, f.ShouldExclude("KXNBA-LAL", "KXBTC-25DEC31"))
}

func TestShouldExclude_ExtraLeagues(t *testing.T) {
	f := New(map[string]string{"KXEPL": "soccer"})

	assert.True(t, f.ShouldExclude("KXEPL-ARS", "KXNBA-LAL"))
}

func TestLeagueOf_LongestPrefixWins(t *testing.T) {
	// "KXN" overlaps the built-in "KXNBA"; the longer, more specific prefix
	// must classify KXNBA tickers regardless of map iteration order.
	f := New(map[string]string{"KXN": "generic"})

	assert.Equal(t, "basketball", f.leagueOf("KXNBA-LAL"))
	assert.Equal(t, "generic", f.leagueOf("KXNZZ-FOO"))
	assert.False(t, f.ShouldExclude("KXNBA-LAL", "KXNBA-BOS"))
}

func TestApplyRanked_PreservesOrderAndStopsAtTarget(t *testing.T) {
	f := New(nil)

	cand := func(a, b string, sim float64) domain.SimilarityCandidate {
		return domain.SimilarityCandidate{
			EventA:     domain.EventRef{Platform: domain.PlatformKalshi, ID: a},
			EventB:     domain.EventRef{Platform: domain.PlatformKalshi, ID: b},
			Similarity: sim,
		}
	}

	ranked := []domain.SimilarityCandidate{
		cand("KXBTC-A", "KXBTCPRICE-B", 0.95),
		cand("KXNBA-LAL", "KXNFL-DAL", 0.93), // excluded
		cand("KXETH-A", "KXETHPRICE-B", 0.91),
		cand("KXUSDJPY-25DEC1010", "KXUSDJPYH-25DEC1009", 0.90), // excluded
		cand("KXGOLD-A", "KXSILVER-B", 0.88),
		cand("KXOIL-A", "KXGAS-B", 0.85),
	}

	got := f.ApplyRanked(ranked, 3)

	assert.Len(t, got, 3)
	assert.Equal(t, "KXBTC-A", got[0].EventA.ID)
	assert.Equal(t, "KXETH-A", got[1].EventA.ID)
	assert.Equal(t, "KXGOLD-A", got[2].EventA.ID)
}

func TestApplyRanked_FewerSurvivorsThanTarget(t *testing.T) {
	f := New(nil)

	ranked := []domain.SimilarityCandidate{
		{EventA: domain.EventRef{ID: "KXNBA-LAL"}, EventB: domain.EventRef{ID: "KXNFL-DAL"}},
	}
	assert.Empty(t, f.ApplyRanked(ranked, 5))
	assert.Nil(t, f.ApplyRanked(ranked, 0))
}
