package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

var opportunityHeader = []string{
	"id",
	"strategy",
	"kalshi_market_ticker",
	"polymarket_market_id",
	"relationship",
	"kalshi_price",
	"kalshi_fee",
	"poly_price",
	"poly_fee",
	"total_cost",
	"profit",
	"profit_pct",
	"detected_at",
}

// WriteOpportunities writes evaluated opportunities in their ranked
// order, best profit first.
func WriteOpportunities(w io.Writer, opps []domain.ArbitrageOpportunity) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(opportunityHeader); err != nil {
		return fmt.Errorf("export: write opportunities header: %w", err)
	}
	for _, o := range opps {
		row := []string{
			o.ID,
			string(o.Strategy),
			o.Pair.KalshiTicker,
			o.Pair.PolymarketID,
			string(o.Pair.Relationship),
			strconv.FormatFloat(o.KalshiPrice, 'f', 4, 64),
			strconv.FormatFloat(o.KalshiFee, 'f', 4, 64),
			strconv.FormatFloat(o.PolyPrice, 'f', 4, 64),
			strconv.FormatFloat(o.PolyFee, 'f', 4, 64),
			strconv.FormatFloat(o.TotalCost, 'f', 4, 64),
			strconv.FormatFloat(o.Profit, 'f', 4, 64),
			strconv.FormatFloat(o.Profit*100, 'f', 2, 64),
			o.DetectedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write opportunity row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// PrintSummary renders the top opportunities as a console table.
func PrintSummary(w io.Writer, opps []domain.ArbitrageOpportunity, limit int) error {
	if limit <= 0 || limit > len(opps) {
		limit = len(opps)
	}

	fmt.Fprintf(w, "\n%d arbitrage opportunities, showing top %d\n", len(opps), limit)
	if limit == 0 {
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Strategy", "Kalshi", "Polymarket", "K price", "K fee", "P price", "Cost", "Profit")
	for i, o := range opps[:limit] {
		table.Append(
			strconv.Itoa(i+1),
			string(o.Strategy),
			o.Pair.KalshiTicker,
			o.Pair.PolymarketID,
			fmt.Sprintf("$%.2f", o.KalshiPrice),
			fmt.Sprintf("$%.2f", o.KalshiFee),
			fmt.Sprintf("$%.2f", o.PolyPrice),
			fmt.Sprintf("$%.2f", o.TotalCost),
			fmt.Sprintf("%.2f%%", o.Profit*100),
		)
	}
	table.Render()
	return nil
}
