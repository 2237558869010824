package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/alanyoungcy/arbscan/internal/domain"
	"github.com/alanyoungcy/arbscan/internal/match"
)

var resultHeader = []string{
	"kalshi_ticker",
	"polymarket_id",
	"similarity",
	"kalshi_title",
	"polymarket_title",
	"llm_raw_response",
	"could_have_arbitrage",
	"reasons",
	"matched_market_pairs_json",
	"parse_error",
}

// resultPair is the JSON row shape inside matched_market_pairs_json.
type resultPair struct {
	KalshiMarketTicker string `json:"kalshi_market_ticker"`
	PolymarketMarketID string `json:"polymarket_market_id"`
	Relationship       string `json:"relationship"`
	Notes              string `json:"notes"`
}

// WriteResults writes one row per candidate pair with the parsed verdict
// alongside the raw model output, so evaluation can re-run from the file
// alone.
func WriteResults(w io.Writer, results []match.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultHeader); err != nil {
		return fmt.Errorf("export: write results header: %w", err)
	}
	for _, res := range results {
		cand := res.Description.Candidate
		v := res.Verdict

		pairsJSON := ""
		if len(v.Pairs) > 0 {
			rows := make([]resultPair, len(v.Pairs))
			for i, p := range v.Pairs {
				rows[i] = resultPair{
					KalshiMarketTicker: p.KalshiTicker,
					PolymarketMarketID: p.PolymarketID,
					Relationship:       string(p.Relationship),
					Notes:              p.Notes,
				}
			}
			encoded, err := json.Marshal(rows)
			if err != nil {
				return fmt.Errorf("export: encode matched pairs: %w", err)
			}
			pairsJSON = string(encoded)
		}

		row := []string{
			cand.EventA.ID,
			cand.EventB.ID,
			strconv.FormatFloat(cand.Similarity, 'f', 6, 64),
			res.Description.KalshiEvent.Title,
			res.Description.PolymarketEvent.Title,
			v.RawResponse,
			strconv.FormatBool(v.CouldHaveArbitrage),
			v.Reasons,
			pairsJSON,
			v.ParseError,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write result row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadResults rebuilds the verdict registry from a results file. Rows
// with a broken matched_market_pairs_json keep their verdict but lose
// the pairs, mirroring how a malformed model answer is treated.
func ReadResults(r io.Reader) (*match.Registry, error) {
	rows, err := readAll(r, resultHeader)
	if err != nil {
		return nil, fmt.Errorf("export: read results: %w", err)
	}

	reg := match.NewRegistry()
	for _, row := range rows {
		sim, _ := strconv.ParseFloat(row["similarity"], 64)
		cand := domain.SimilarityCandidate{
			EventA: domain.EventRef{
				Platform: domain.PlatformKalshi,
				ID:       row["kalshi_ticker"],
				Title:    row["kalshi_title"],
			},
			EventB: domain.EventRef{
				Platform: domain.PlatformPolymarket,
				ID:       row["polymarket_id"],
				Title:    row["polymarket_title"],
			},
			Similarity: sim,
		}

		v := domain.Verdict{
			CouldHaveArbitrage: row["could_have_arbitrage"] == "true",
			Reasons:            row["reasons"],
			ParseError:         row["parse_error"],
			RawResponse:        row["llm_raw_response"],
		}

		if encoded := row["matched_market_pairs_json"]; encoded != "" {
			var pairs []resultPair
			if err := json.Unmarshal([]byte(encoded), &pairs); err == nil {
				for _, p := range pairs {
					v.Pairs = append(v.Pairs, domain.MatchedMarketPair{
						Candidate:    cand,
						KalshiTicker: p.KalshiMarketTicker,
						PolymarketID: p.PolymarketMarketID,
						Relationship: domain.MatchRelationship(p.Relationship),
						Notes:        p.Notes,
					})
				}
			}
		}

		reg.Put(cand.EventA.ID, cand.EventB.ID, v)
	}
	return reg, nil
}
