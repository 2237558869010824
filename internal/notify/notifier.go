// Package notify announces evaluated arbitrage opportunities over one or
// more channels (Telegram, Discord). Delivery is best-effort: a failing
// channel never blocks the scan pipeline.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// maxAnnounced caps how many opportunities one message lists.
const maxAnnounced = 10

// Notifier dispatches opportunity announcements to one or more Senders.
// Opportunities below the minimum profit threshold are dropped before
// formatting.
type Notifier struct {
	senders   []Sender
	minProfit float64
	logger    *slog.Logger
}

// NewNotifier creates a Notifier that delivers to the given senders. Only
// opportunities with Profit >= minProfit are announced.
func NewNotifier(senders []Sender, minProfit float64, logger *slog.Logger) *Notifier {
	return &Notifier{
		senders:   senders,
		minProfit: minProfit,
		logger:    logger.With(slog.String("component", "notifier")),
	}
}

// AnnounceOpportunities formats the given opportunities into a single message
// and sends it to every channel. Batches are expected to be sorted by profit
// descending; only the first maxAnnounced above the threshold are listed.
// With no qualifying opportunities nothing is sent.
func (n *Notifier) AnnounceOpportunities(ctx context.Context, opps []domain.ArbitrageOpportunity) error {
	qualified := make([]domain.ArbitrageOpportunity, 0, len(opps))
	for _, opp := range opps {
		if opp.Profit >= n.minProfit {
			qualified = append(qualified, opp)
		}
	}
	if len(qualified) == 0 {
		n.logger.DebugContext(ctx, "no opportunities above notify threshold",
			slog.Int("evaluated", len(opps)),
			slog.Float64("min_profit", n.minProfit),
		)
		return nil
	}

	title := fmt.Sprintf("%d arbitrage opportunities", len(qualified))
	return n.dispatch(ctx, title, formatOpportunities(qualified))
}

// formatOpportunities renders one line per opportunity, capped at
// maxAnnounced.
func formatOpportunities(opps []domain.ArbitrageOpportunity) string {
	var b strings.Builder
	for i, opp := range opps {
		if i >= maxAnnounced {
			fmt.Fprintf(&b, "... and %d more\n", len(opps)-maxAnnounced)
			break
		}
		fmt.Fprintf(&b, "%s <-> %s (%s): cost $%.2f, profit $%.2f\n",
			opp.Pair.KalshiTicker, opp.Pair.PolymarketID, opp.Strategy,
			opp.TotalCost, opp.Profit,
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

// dispatch iterates over all senders and sends the notification. Errors from
// individual senders are collected and returned as a combined error; a single
// sender failure does not prevent delivery to the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("title", title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
