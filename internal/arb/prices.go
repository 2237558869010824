package arb

// KalshiQuote is the raw top-of-book ask pair as the trade API reports it,
// in cents.
type KalshiQuote struct {
	YesAskCents float64
	NoAskCents  float64
}

// Prices converts the cent asks to dollar buy prices. An ask outside
// (0, 100) means that side has no resting offers and yields nil.
func (q KalshiQuote) Prices() (yes, no *float64) {
	return centsToDollars(q.YesAskCents), centsToDollars(q.NoAskCents)
}

func centsToDollars(cents float64) *float64 {
	if cents <= 0 || cents >= 100 {
		return nil
	}
	d := cents / 100
	return &d
}

// PolymarketQuote is the raw top-of-book for a binary market's YES token.
// Polymarket books only the YES side, so the NO buy price is derived from
// the YES bid.
type PolymarketQuote struct {
	BestBid *float64
	BestAsk *float64
}

// Prices returns the dollar cost of buying each side: YES fills against
// the best ask, NO fills by selling into the best bid, costing 1 - bid.
// A missing or degenerate level yields nil for that side.
func (q PolymarketQuote) Prices() (yes, no *float64) {
	if q.BestAsk != nil && *q.BestAsk > 0 && *q.BestAsk < 1 {
		v := *q.BestAsk
		yes = &v
	}
	if q.BestBid != nil && *q.BestBid > 0 && *q.BestBid < 1 {
		v := 1 - *q.BestBid
		no = &v
	}
	return yes, no
}
