// Package match asks an external reasoning service which contracts inside
// two similar events resolve on the same proposition, and turns its answer
// into structured matched pairs.
package match

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// promptInstructions is the fixed preamble. The required JSON shape is
// spelled out verbatim so the parser can rely on it.
const promptInstructions = `You are an expert in prediction markets and event interpretation across exchanges (Kalshi and Polymarket).

Above, you see a pair of events (one from each platform) and summaries of their active markets, described without any prices. Focus only on the semantics of the events and markets (titles/questions, rules, resolution conditions, and timing).

Your job is to decide whether there exist markets across these two events that *could* form an arbitrage opportunity if the prices were favorable. In other words, you are checking for structural/semantic compatibility, not current profitability.

Respond ONLY in the following JSON format (and nothing else):

{
  "could_have_arbitrage": true | false,
  "reasons": "<short natural-language explanation>",
  "matched_market_pairs": [
    {
      "kalshi_market_ticker": "<kalshi market ticker or null>",
      "polymarket_market_id": "<polymarket market id/slug or null>",
      "relationship": "same_outcome|inverse|compound|other",
      "notes": "<any important caveats about resolution differences>"
    }
  ]
}`

// titleLimit caps contract titles in the description block. Rules and
// descriptions are never truncated: small wording differences decide
// resolution equivalence.
const titleLimit = 120

// BuildPrompt renders the full prompt for one candidate pair. The
// description block carries identifiers, titles, rules, and timing, and
// deliberately no prices.
func BuildPrompt(desc domain.PairDescription) string {
	var b strings.Builder

	b.WriteString(promptInstructions)
	b.WriteString("\n\nEvent Pair:\n")
	fmt.Fprintf(&b, "  Event Similarity: %.4f\n", desc.Candidate.Similarity)

	fmt.Fprintf(&b, "  Kalshi Event: %s\n", desc.Candidate.EventA.ID)
	writeEventHeader(&b, desc.KalshiEvent)
	writeContracts(&b, desc.KalshiContracts)

	fmt.Fprintf(&b, "  Polymarket Event: %s\n", desc.Candidate.EventB.ID)
	writeEventHeader(&b, desc.PolymarketEvent)
	writeContracts(&b, desc.PolymarketContracts)

	return b.String()
}

func writeEventHeader(b *strings.Builder, ev domain.Event) {
	if ev.Title != "" {
		fmt.Fprintf(b, "    Title: %s\n", ev.Title)
	}
	if ev.Subtitle != "" {
		fmt.Fprintf(b, "    Subtitle: %s\n", ev.Subtitle)
	}
	if ev.Category != "" {
		fmt.Fprintf(b, "    Category: %s\n", ev.Category)
	}
	if ev.Description != "" {
		fmt.Fprintf(b, "    Description: %s\n", ev.Description)
	}
	if ev.StartTime != "" {
		fmt.Fprintf(b, "    Timing: start=%s\n", ev.StartTime)
	}
	if ev.EndTime != "" {
		fmt.Fprintf(b, "    Timing: end=%s\n", ev.EndTime)
	}
}

func writeContracts(b *strings.Builder, contracts []domain.Contract) {
	fmt.Fprintf(b, "    Markets: %d\n", len(contracts))
	if len(contracts) == 0 {
		return
	}
	b.WriteString("    Markets (no prices):\n")
	for _, c := range contracts {
		if title := truncate(c.Title, titleLimit); title != "" {
			fmt.Fprintf(b, "      %s: %s\n", c.Ticker, title)
		} else {
			fmt.Fprintf(b, "      %s\n", c.Ticker)
		}
		if c.Rules != "" {
			fmt.Fprintf(b, "        Rules: %s\n", c.Rules)
		}
	}
}

// truncate shortens s to at most limit bytes, cutting on a rune boundary so
// multi-byte titles never yield invalid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
