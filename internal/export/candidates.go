// Package export reads and writes the flat run artifacts: ranked
// candidates, matcher prompts, matcher results, and evaluated
// opportunities. CSV is the interchange format so runs can be split
// across invocations and inspected with ordinary tooling.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

var candidateHeader = []string{
	"kalshi_ticker",
	"polymarket_id",
	"similarity",
	"kalshi_title",
	"kalshi_sub_title",
	"kalshi_category",
	"polymarket_title",
	"polymarket_category",
}

// WriteCandidates writes the ranked candidate list, preserving order.
func WriteCandidates(w io.Writer, cands []domain.SimilarityCandidate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(candidateHeader); err != nil {
		return fmt.Errorf("export: write candidates header: %w", err)
	}
	for _, c := range cands {
		row := []string{
			c.EventA.ID,
			c.EventB.ID,
			strconv.FormatFloat(c.Similarity, 'f', 6, 64),
			c.EventA.Title,
			c.EventA.Subtitle,
			c.EventA.Category,
			c.EventB.Title,
			c.EventB.Category,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write candidate row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCandidates reads a candidate list written by WriteCandidates, in
// file order. Rows with an unparsable similarity get similarity 0.
func ReadCandidates(r io.Reader) ([]domain.SimilarityCandidate, error) {
	rows, err := readAll(r, candidateHeader)
	if err != nil {
		return nil, fmt.Errorf("export: read candidates: %w", err)
	}

	cands := make([]domain.SimilarityCandidate, 0, len(rows))
	for _, row := range rows {
		sim, _ := strconv.ParseFloat(row["similarity"], 64)
		cands = append(cands, domain.SimilarityCandidate{
			EventA: domain.EventRef{
				Platform: domain.PlatformKalshi,
				ID:       row["kalshi_ticker"],
				Title:    row["kalshi_title"],
				Subtitle: row["kalshi_sub_title"],
				Category: row["kalshi_category"],
			},
			EventB: domain.EventRef{
				Platform: domain.PlatformPolymarket,
				ID:       row["polymarket_id"],
				Title:    row["polymarket_title"],
				Category: row["polymarket_category"],
			},
			Similarity: sim,
		})
	}
	return cands, nil
}

// readAll decodes a headered CSV into one map per row. Columns beyond
// the expected header are kept; missing expected columns fail.
func readAll(r io.Reader, expected []string) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range expected {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var rows []map[string]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make(map[string]string, len(header))
		for name, i := range index {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}
}
