package domain

import (
	"context"
	"io"
)

// Embedder turns a batch of strings into fixed-length float vectors, one
// per input and in input order. Batch size limits are the implementation's
// concern.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// PairDescription is the fixed request shape handed to the semantic
// matcher: both events and their contracts, deliberately without any
// current prices so the semantic judgment is not biased by the quotes.
type PairDescription struct {
	Candidate           SimilarityCandidate
	KalshiEvent         Event
	PolymarketEvent     Event
	KalshiContracts     []Contract
	PolymarketContracts []Contract
}

// SemanticMatcher decides which specific contracts inside two similar
// events correspond to the same outcome. Implementations wrap an external
// reasoning service; the engine only consumes the structured Verdict.
type SemanticMatcher interface {
	Evaluate(ctx context.Context, desc PairDescription) (Verdict, error)
}

// EmbeddingStore persists per-event embedding vectors so repeated runs can
// skip re-embedding unchanged events.
type EmbeddingStore interface {
	UpsertBatch(ctx context.Context, platform Platform, vectors map[string][]float32) error
	LoadAll(ctx context.Context, platform Platform) (map[string][]float32, error)
}

// CandidateStore persists the ranked candidate list of one run.
type CandidateStore interface {
	InsertBatch(ctx context.Context, runID string, cands []SimilarityCandidate) error
	ListByRun(ctx context.Context, runID string) ([]SimilarityCandidate, error)
}

// OpportunityStore persists evaluated arbitrage opportunities.
type OpportunityStore interface {
	InsertBatch(ctx context.Context, runID string, opps []ArbitrageOpportunity) error
	ListRecent(ctx context.Context, limit int) ([]ArbitrageOpportunity, error)
}

// SnapshotCache holds recently fetched events and contracts so a re-run
// within the TTL does not hit the exchange APIs again.
type SnapshotCache interface {
	SetEvents(ctx context.Context, platform Platform, events []Event) error
	GetEvents(ctx context.Context, platform Platform) ([]Event, error)
	SetContracts(ctx context.Context, platform Platform, eventID string, contracts []Contract) error
	GetContracts(ctx context.Context, platform Platform, eventID string) ([]Contract, error)
}

// BlobWriter uploads run artifacts to object storage. Put is for small
// objects; PutMultipart streams large ones in parts.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, contentType string) error
}
