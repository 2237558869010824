package domain

// Platform identifies a prediction-market exchange.
type Platform string

const (
	PlatformKalshi     Platform = "kalshi"
	PlatformPolymarket Platform = "polymarket"
)

// Event is one listed event on a platform. An event groups one or more
// binary contracts (markets). Identity is (Platform, ID); events are
// immutable for the duration of one scan run.
type Event struct {
	Platform    Platform
	ID          string // Kalshi event ticker or Polymarket event ID
	Title       string
	Subtitle    string
	Category    string
	Description string
	StartTime   string
	EndTime     string
}

// EmbeddingText returns the text that is embedded for similarity search.
// Title carries most of the signal; subtitle and category disambiguate
// recurring series.
func (e Event) EmbeddingText() string {
	s := e.Title
	if e.Subtitle != "" {
		s += " " + e.Subtitle
	}
	if e.Category != "" {
		s += " (" + e.Category + ")"
	}
	return s
}

// ContractStatus represents the lifecycle state of a contract.
type ContractStatus string

const (
	ContractStatusOpen    ContractStatus = "open"
	ContractStatusClosed  ContractStatus = "closed"
	ContractStatusSettled ContractStatus = "settled"
)

// Contract is a single binary YES/NO market inside an event, with a
// point-in-time price snapshot. YesPrice and NoPrice are in the [0,1]
// dollar domain; nil means the leg is not currently tradeable.
type Contract struct {
	Platform Platform
	Ticker   string // Kalshi market ticker or Polymarket market ID
	EventID  string
	Title    string
	Rules    string
	Status   ContractStatus
	YesPrice *float64
	NoPrice  *float64
}
