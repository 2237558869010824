package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/alanyoungcy/arbscan/internal/arb"
	"github.com/alanyoungcy/arbscan/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma
// API responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from JSON number or numeric string. Gamma sends
// quote fields both ways depending on the endpoint. Absent or unparsable
// values stay nil.
type flexFloat struct {
	Value *float64
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		f.Value = &n
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		f.Value = &v
	}
	return nil
}

// APIEvent represents an event as returned by the Gamma API. An event
// groups one or more related markets.
type APIEvent struct {
	ID          string      `json:"id"`
	Ticker      string      `json:"ticker"`
	Slug        string      `json:"slug"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	StartDate   string      `json:"startDate"`
	EndDate     string      `json:"endDate"`
	Active      flexBool    `json:"active"`
	Closed      flexBool    `json:"closed"`
	Tags        []APITag    `json:"tags"`
	Markets     []APIMarket `json:"markets"`
}

// APITag is one category label attached to an event.
type APITag struct {
	Label string `json:"label"`
}

// APIMarket represents a market as returned by the Gamma API, with the
// current top of the YES book.
type APIMarket struct {
	ID          string    `json:"id"`
	Question    string    `json:"question"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Outcomes    string    `json:"outcomes"` // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	Active      flexBool  `json:"active"`
	Closed      flexBool  `json:"closed"`
	EndDate     string    `json:"endDate"`
	BestBid     flexFloat `json:"bestBid"`
	BestAsk     flexFloat `json:"bestAsk"`
}

// ToEventMarkets converts an APIEvent and its embedded markets into
// domain types.
func (e *APIEvent) ToEventMarkets() EventMarkets {
	ev := domain.Event{
		Platform:    domain.PlatformPolymarket,
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		StartTime:   e.StartDate,
		EndTime:     e.EndDate,
	}
	if len(e.Tags) > 0 {
		ev.Category = e.Tags[0].Label
	}

	contracts := make([]domain.Contract, 0, len(e.Markets))
	for i := range e.Markets {
		contracts = append(contracts, e.Markets[i].ToDomainContract(e.ID))
	}
	return EventMarkets{Event: ev, Contracts: contracts}
}

// ToDomainContract converts an APIMarket to a domain.Contract. The YES
// buy price is the best ask; the NO buy price is derived from the best
// bid, since Gamma only books the YES side.
func (m *APIMarket) ToDomainContract(eventID string) domain.Contract {
	yes, no := arb.PolymarketQuote{BestBid: m.BestBid.Value, BestAsk: m.BestAsk.Value}.Prices()

	c := domain.Contract{
		Platform: domain.PlatformPolymarket,
		Ticker:   m.ID,
		EventID:  eventID,
		Title:    m.Question,
		Rules:    m.Description,
		YesPrice: yes,
		NoPrice:  no,
	}

	switch {
	case bool(m.Closed):
		c.Status = domain.ContractStatusClosed
	case bool(m.Active):
		c.Status = domain.ContractStatusOpen
	default:
		c.Status = domain.ContractStatusSettled
	}

	return c
}
