package kalshi

import (
	"github.com/alanyoungcy/arbscan/internal/arb"
	"github.com/alanyoungcy/arbscan/internal/domain"
)

// APIEvent represents an event as returned by the Kalshi events endpoint.
type APIEvent struct {
	EventTicker  string `json:"event_ticker"`
	SeriesTicker string `json:"series_ticker"`
	Title        string `json:"title"`
	SubTitle     string `json:"sub_title"`
	Category     string `json:"category"`
	StrikeDate   string `json:"strike_date"`
	StrikePeriod string `json:"strike_period"`
}

// ToDomainEvent converts an APIEvent to a domain.Event.
func (e *APIEvent) ToDomainEvent() domain.Event {
	return domain.Event{
		Platform:  domain.PlatformKalshi,
		ID:        e.EventTicker,
		Title:     e.Title,
		Subtitle:  e.SubTitle,
		Category:  e.Category,
		StartTime: e.StrikeDate,
	}
}

// APIMarket represents a market as returned by the Kalshi markets
// endpoint. Ask prices are in cents.
type APIMarket struct {
	Ticker         string  `json:"ticker"`
	EventTicker    string  `json:"event_ticker"`
	Title          string  `json:"title"`
	Subtitle       string  `json:"subtitle"`
	YesSubTitle    string  `json:"yes_sub_title"`
	NoSubTitle     string  `json:"no_sub_title"`
	Status         string  `json:"status"`
	RulesPrimary   string  `json:"rules_primary"`
	RulesSecondary string  `json:"rules_secondary"`
	OpenTime       string  `json:"open_time"`
	CloseTime      string  `json:"close_time"`
	YesAsk         float64 `json:"yes_ask"`
	NoAsk          float64 `json:"no_ask"`
}

// ToDomainContract converts an APIMarket to a domain.Contract, turning
// the cent asks into dollar buy prices.
func (m *APIMarket) ToDomainContract() domain.Contract {
	yes, no := arb.KalshiQuote{YesAskCents: m.YesAsk, NoAskCents: m.NoAsk}.Prices()

	c := domain.Contract{
		Platform: domain.PlatformKalshi,
		Ticker:   m.Ticker,
		EventID:  m.EventTicker,
		Title:    m.Title,
		Rules:    m.RulesPrimary,
		YesPrice: yes,
		NoPrice:  no,
	}

	switch m.Status {
	case "active", "open":
		c.Status = domain.ContractStatusOpen
	case "closed":
		c.Status = domain.ContractStatusClosed
	case "settled", "finalized":
		c.Status = domain.ContractStatusSettled
	default:
		c.Status = domain.ContractStatus(m.Status)
	}

	return c
}
