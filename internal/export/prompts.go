package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/alanyoungcy/arbscan/internal/domain"
	"github.com/alanyoungcy/arbscan/internal/match"
)

var promptHeader = []string{
	"kalshi_ticker",
	"polymarket_id",
	"similarity",
	"kalshi_title",
	"polymarket_title",
	"kalshi_markets_count",
	"polymarket_markets_count",
	"prompt",
}

// WritePrompts renders and writes the matcher prompt for each candidate
// description, one row per candidate pair.
func WritePrompts(w io.Writer, descs []domain.PairDescription) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(promptHeader); err != nil {
		return fmt.Errorf("export: write prompts header: %w", err)
	}
	for _, d := range descs {
		row := []string{
			d.Candidate.EventA.ID,
			d.Candidate.EventB.ID,
			strconv.FormatFloat(d.Candidate.Similarity, 'f', 6, 64),
			d.KalshiEvent.Title,
			d.PolymarketEvent.Title,
			strconv.Itoa(len(d.KalshiContracts)),
			strconv.Itoa(len(d.PolymarketContracts)),
			match.BuildPrompt(d),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write prompt row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
