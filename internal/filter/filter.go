// Package filter removes similarity candidates that are structurally
// useless for arbitrage before they are spent on expensive semantic
// matching: recurring series listed at two different instants, and events
// from different sports leagues that embeddings nevertheless score as
// similar.
package filter

import (
	"regexp"
	"sort"
	"strings"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

var (
	// dateSuffixRe matches trailing date codes like "-25DEC1014".
	dateSuffixRe = regexp.MustCompile(`-(\d+[A-Z]+\d+)$`)
	// numSuffixRe matches bare numeric suffixes like "-26".
	numSuffixRe = regexp.MustCompile(`-\d+$`)
)

// cadenceMarkers are single-letter series suffixes that denote a faster
// cadence of the same underlying series, e.g. KXUSDJPYH is the hourly
// variant of KXUSDJPY. Stripping arbitrary trailing capitals would mangle
// ordinary tickers, so only known markers are removed.
var cadenceMarkers = []string{"H"}

// defaultLeagues maps known ticker prefixes to a coarse sport category.
var defaultLeagues = map[string]string{
	"KXNBA":  "basketball",
	"KXNFL":  "football",
	"KXNCAA": "college",
	"KXMBL":  "baseball",
	"KXNHL":  "hockey",
}

// Filter applies the exclusion rules to ranked candidate lists. The rule
// set is heuristic and tunable, not a fixed contract: extra league
// prefixes can be layered on top of the built-in ones via config.
type Filter struct {
	leagues  map[string]string
	prefixes []string // longest first, so overlapping prefixes match deterministically
}

// New creates a Filter with the built-in league table plus any extra
// prefix -> category entries.
func New(extraLeagues map[string]string) *Filter {
	leagues := make(map[string]string, len(defaultLeagues)+len(extraLeagues))
	for k, v := range defaultLeagues {
		leagues[k] = v
	}
	for k, v := range extraLeagues {
		leagues[strings.ToUpper(k)] = v
	}

	prefixes := make([]string, 0, len(leagues))
	for p := range leagues {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool {
		if len(prefixes[i]) != len(prefixes[j]) {
			return len(prefixes[i]) > len(prefixes[j])
		}
		return prefixes[i] < prefixes[j]
	})

	return &Filter{leagues: leagues, prefixes: prefixes}
}

// ShouldExclude reports whether a candidate pair is structurally unusable.
// Both rules are language-free pattern rules over the raw identifiers.
func (f *Filter) ShouldExclude(tickerA, tickerB string) bool {
	return f.isDateVariant(tickerA, tickerB) || f.isLeagueMismatch(tickerA, tickerB)
}

// isDateVariant detects the same recurring series listed at two different
// instants, e.g. KXUSDJPY-25DEC1010 vs KXUSDJPYH-25DEC1009. Those resolve
// at different times and can never hedge each other.
func (f *Filter) isDateVariant(tickerA, tickerB string) bool {
	if tickerA == tickerB {
		return false
	}
	if normalizeBase(tickerA) != normalizeBase(tickerB) {
		return false
	}
	dateA := extractDateCode(tickerA)
	dateB := extractDateCode(tickerB)
	return dateA != "" && dateB != "" && dateA != dateB
}

// isLeagueMismatch fires when both tickers carry known league prefixes
// that map to different sports.
func (f *Filter) isLeagueMismatch(tickerA, tickerB string) bool {
	leagueA := f.leagueOf(tickerA)
	leagueB := f.leagueOf(tickerB)
	return leagueA != "" && leagueB != "" && leagueA != leagueB
}

// leagueOf returns the category of the longest matching prefix.
func (f *Filter) leagueOf(ticker string) string {
	for _, prefix := range f.prefixes {
		if strings.HasPrefix(ticker, prefix) {
			return f.leagues[prefix]
		}
	}
	return ""
}

// normalizeBase strips the date code, any bare numeric suffix, and a
// single-letter cadence marker, leaving the series base.
func normalizeBase(ticker string) string {
	base := dateSuffixRe.ReplaceAllString(ticker, "")
	base = numSuffixRe.ReplaceAllString(base, "")
	for _, m := range cadenceMarkers {
		if trimmed := strings.TrimSuffix(base, m); trimmed != base && trimmed != "" {
			return trimmed
		}
	}
	return base
}

// extractDateCode returns the trailing date code, "" when absent.
func extractDateCode(ticker string) string {
	m := dateSuffixRe.FindStringSubmatch(ticker)
	if m == nil {
		return ""
	}
	return m[1]
}

// ApplyRanked walks a similarity-ranked candidate list in order, drops
// excluded pairs, and stops once target survivors are collected. Upstream
// oversampling, not re-querying, compensates for the filtered-out share;
// this keeps "most similar first" ordering in the final output while
// bounding work.
func (f *Filter) ApplyRanked(cands []domain.SimilarityCandidate, target int) []domain.SimilarityCandidate {
	if target <= 0 {
		return nil
	}
	kept := make([]domain.SimilarityCandidate, 0, target)
	for _, c := range cands {
		if f.ShouldExclude(c.EventA.ID, c.EventB.ID) {
			continue
		}
		kept = append(kept, c)
		if len(kept) >= target {
			break
		}
	}
	return kept
}
