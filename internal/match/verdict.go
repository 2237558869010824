package match

import (
	"encoding/json"
	"strings"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// rawVerdict mirrors the JSON shape the prompt demands.
type rawVerdict struct {
	CouldHaveArbitrage *bool     `json:"could_have_arbitrage"`
	Reasons            string    `json:"reasons"`
	MatchedMarketPairs []rawPair `json:"matched_market_pairs"`
}

type rawPair struct {
	KalshiMarketTicker *string `json:"kalshi_market_ticker"`
	PolymarketMarketID *string `json:"polymarket_market_id"`
	Relationship       string  `json:"relationship"`
	Notes              string  `json:"notes"`
}

// ParseVerdict parses the raw model output into a Verdict. Models wrap
// JSON in commentary or code fences, so the parser takes the slice from
// the first '{' to the last '}' and decodes that. Malformed output never
// fails the run: it yields a Verdict with ParseError set and no pairs.
func ParseVerdict(cand domain.SimilarityCandidate, raw string) domain.Verdict {
	v := domain.Verdict{RawResponse: raw}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		v.ParseError = "empty_response"
		return v
	}

	first := strings.Index(trimmed, "{")
	last := strings.LastIndex(trimmed, "}")
	if first != -1 && last > first {
		trimmed = trimmed[first : last+1]
	}

	var rv rawVerdict
	if err := json.Unmarshal([]byte(trimmed), &rv); err != nil {
		v.ParseError = "json_error: " + err.Error()
		return v
	}

	if rv.CouldHaveArbitrage != nil {
		v.CouldHaveArbitrage = *rv.CouldHaveArbitrage
	}
	v.Reasons = rv.Reasons
	for _, rp := range rv.MatchedMarketPairs {
		v.Pairs = append(v.Pairs, domain.MatchedMarketPair{
			Candidate:    cand,
			KalshiTicker: deref(rp.KalshiMarketTicker),
			PolymarketID: deref(rp.PolymarketMarketID),
			Relationship: parseRelationship(rp.Relationship),
			Notes:        rp.Notes,
		})
	}
	return v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func parseRelationship(s string) domain.MatchRelationship {
	switch domain.MatchRelationship(strings.ToLower(strings.TrimSpace(s))) {
	case domain.RelationSameOutcome:
		return domain.RelationSameOutcome
	case domain.RelationInverse:
		return domain.RelationInverse
	case domain.RelationCompound:
		return domain.RelationCompound
	default:
		return domain.RelationOther
	}
}
