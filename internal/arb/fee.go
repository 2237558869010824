// Package arb evaluates matched contract pairs against live quotes and
// reports every hedge whose combined cost, including fees, stays under the
// $1 payout.
package arb

import "math"

// DefaultKalshiFeeRate is Kalshi's published 7% trading fee rate.
// Polymarket charges no trading fee.
const DefaultKalshiFeeRate = 0.07

// KalshiFee returns the per-contract trading fee in dollars for a fill at
// the given price: ceil(100 * rate * P * (1-P)) / 100, always rounded up
// to the next cent. Degenerate prices (P <= 0 or P >= 1) are not
// tradeable and carry no fee.
func KalshiFee(rate, price float64) float64 {
	if price <= 0 || price >= 1 {
		return 0
	}
	return math.Ceil(rate*price*(1-price)*100) / 100
}
