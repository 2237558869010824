package domain

import "time"

// HedgeStrategy identifies which direction the two legs are bought in.
type HedgeStrategy string

const (
	// StrategyBuyYesPolyNoKalshi buys YES on Polymarket and NO on Kalshi.
	StrategyBuyYesPolyNoKalshi HedgeStrategy = "buy_yes_poly_no_kalshi"
	// StrategyBuyNoPolyYesKalshi buys NO on Polymarket and YES on Kalshi.
	StrategyBuyNoPolyYesKalshi HedgeStrategy = "buy_no_poly_yes_kalshi"
)

// ArbitrageOpportunity is one profitable hedge across a matched contract
// pair. Both legs pay out $1 on the same proposition, so buying opposite
// sides for a combined cost under $1 locks in the difference. Created
// fresh per evaluation and never mutated; batches are ordered by Profit
// descending.
type ArbitrageOpportunity struct {
	ID       string
	Pair     MatchedMarketPair
	Strategy HedgeStrategy

	KalshiPrice float64 // price of the Kalshi leg in dollars
	KalshiFee   float64
	PolyPrice   float64 // price of the Polymarket leg in dollars
	PolyFee     float64 // always 0, kept explicit in the output rows

	TotalCost float64 // kalshi price + fee + poly price + fee
	Profit    float64 // 1.0 - TotalCost, > 0 by construction

	DetectedAt time.Time
}
