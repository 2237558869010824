package domain

// EventRef is a lightweight reference to an event used in candidate pairs.
type EventRef struct {
	Platform Platform
	ID       string
	Title    string
	Subtitle string
	Category string
}

// Ref extracts an EventRef from a full Event.
func (e Event) Ref() EventRef {
	return EventRef{
		Platform: e.Platform,
		ID:       e.ID,
		Title:    e.Title,
		Subtitle: e.Subtitle,
		Category: e.Category,
	}
}

// SimilarityCandidate is a pair of events whose embeddings scored above the
// similarity threshold. Candidates are derived, never authoritative: each
// run regenerates them from the current snapshot.
type SimilarityCandidate struct {
	EventA     EventRef // Kalshi side for cross-platform search
	EventB     EventRef // Polymarket side for cross-platform search
	Similarity float64
}

// MatchRelationship describes how two matched contracts relate.
type MatchRelationship string

const (
	RelationSameOutcome MatchRelationship = "same_outcome"
	RelationInverse     MatchRelationship = "inverse"
	RelationCompound    MatchRelationship = "compound"
	RelationOther       MatchRelationship = "other"
)

// MatchedMarketPair is one contract-to-contract match inside a candidate
// event pair, as decided by the external semantic matcher. The engine
// treats it as input and never mutates it.
type MatchedMarketPair struct {
	Candidate    SimilarityCandidate
	KalshiTicker string // empty when the matcher could not name a contract
	PolymarketID string
	Relationship MatchRelationship
	Notes        string
}

// Verdict is the validated response of the semantic matcher for one
// candidate pair. Exactly one of Pairs / ParseError is meaningful: a
// non-empty ParseError means the raw response was not well-formed and the
// candidate contributes zero matched pairs downstream.
type Verdict struct {
	CouldHaveArbitrage bool
	Reasons            string
	Pairs              []MatchedMarketPair
	ParseError         string
	RawResponse        string
}

// OK reports whether the verdict parsed cleanly.
func (v Verdict) OK() bool { return v.ParseError == "" }
