package snapshot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbscan/internal/domain"
	"github.com/alanyoungcy/arbscan/internal/platform/polymarket"
	"github.com/alanyoungcy/arbscan/internal/vector"
)

type fakeKalshi struct {
	events      []domain.Event
	contracts   map[string][]domain.Contract
	failMarkets map[string]bool
	eventCalls  atomic.Int32
	marketCalls atomic.Int32
}

func (f *fakeKalshi) GetOpenEvents(context.Context) ([]domain.Event, error) {
	f.eventCalls.Add(1)
	return f.events, nil
}

func (f *fakeKalshi) GetMarketsForEvent(_ context.Context, ticker string) ([]domain.Contract, error) {
	f.marketCalls.Add(1)
	if f.failMarkets[ticker] {
		return nil, errors.New("boom")
	}
	return f.contracts[ticker], nil
}

type fakePoly struct {
	bundles []polymarket.EventMarkets
	calls   atomic.Int32
}

func (f *fakePoly) GetOpenEvents(context.Context) ([]polymarket.EventMarkets, error) {
	f.calls.Add(1)
	return f.bundles, nil
}

// fakeEmbedder returns a fixed-dimension vector derived from the text
// length so results are deterministic.
type fakeEmbedder struct {
	calls atomic.Int32
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls.Add(1)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1, 0}
	}
	return out, nil
}

type memCache struct {
	mu        sync.Mutex
	events    map[domain.Platform][]domain.Event
	contracts map[string][]domain.Contract
}

func newMemCache() *memCache {
	return &memCache{
		events:    make(map[domain.Platform][]domain.Event),
		contracts: make(map[string][]domain.Contract),
	}
}

func (m *memCache) SetEvents(_ context.Context, p domain.Platform, evs []domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[p] = evs
	return nil
}

func (m *memCache) GetEvents(_ context.Context, p domain.Platform) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[p], nil
}

func (m *memCache) SetContracts(_ context.Context, p domain.Platform, eventID string, cs []domain.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[string(p)+"/"+eventID] = cs
	return nil
}

func (m *memCache) GetContracts(_ context.Context, p domain.Platform, eventID string) ([]domain.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contracts[string(p)+"/"+eventID], nil
}

type memEmbeddings struct {
	mu   sync.Mutex
	vecs map[domain.Platform]map[string][]float32
}

func newMemEmbeddings() *memEmbeddings {
	return &memEmbeddings{vecs: make(map[domain.Platform]map[string][]float32)}
}

func (m *memEmbeddings) UpsertBatch(_ context.Context, p domain.Platform, vectors map[string][]float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vecs[p] == nil {
		m.vecs[p] = make(map[string][]float32)
	}
	for id, v := range vectors {
		m.vecs[p][id] = v
	}
	return nil
}

func (m *memEmbeddings) LoadAll(_ context.Context, p domain.Platform) (map[string][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]float32, len(m.vecs[p]))
	for id, v := range m.vecs[p] {
		out[id] = v
	}
	return out, nil
}

func yes(v float64) *float64 { return &v }

func testFixtures() (*fakeKalshi, *fakePoly) {
	kalshi := &fakeKalshi{
		events: []domain.Event{
			{Platform: domain.PlatformKalshi, ID: "KXNBA-26", Title: "NBA Champion"},
			{Platform: domain.PlatformKalshi, ID: "KXBTC-26", Title: "Bitcoin 250k"},
		},
		contracts: map[string][]domain.Contract{
			"KXNBA-26": {{Platform: domain.PlatformKalshi, Ticker: "KXNBA-26-LAL", EventID: "KXNBA-26", YesPrice: yes(0.60)}},
			"KXBTC-26": {{Platform: domain.PlatformKalshi, Ticker: "KXBTC-26-250", EventID: "KXBTC-26", YesPrice: yes(0.10)}},
		},
	}
	poly := &fakePoly{
		bundles: []polymarket.EventMarkets{
			{
				Event:     domain.Event{Platform: domain.PlatformPolymarket, ID: "101", Title: "NBA Champion 2026"},
				Contracts: []domain.Contract{{Platform: domain.PlatformPolymarket, Ticker: "m101", EventID: "101", YesPrice: yes(0.70)}},
			},
		},
	}
	return kalshi, poly
}

func newTestBuilder(k KalshiSource, p PolymarketSource, cache domain.SnapshotCache, store domain.EmbeddingStore) *Builder {
	return NewBuilder(BuilderConfig{
		Kalshi:     k,
		Polymarket: p,
		Embedder:   &fakeEmbedder{},
		Cache:      cache,
		Embeddings: store,
		Workers:    2,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestBuildSnapshot(t *testing.T) {
	kalshi, poly := testFixtures()
	snap, err := newTestBuilder(kalshi, poly, nil, nil).Build(context.Background())
	require.NoError(t, err)

	assert.Len(t, snap.KalshiEvents, 2)
	assert.Len(t, snap.PolyEvents, 1)
	assert.Equal(t, 2, snap.KalshiVectors.Len())
	assert.Equal(t, 1, snap.PolyVectors.Len())

	books := snap.Books()
	assert.Contains(t, books.Kalshi, "KXNBA-26-LAL")
	assert.Contains(t, books.Polymarket, "m101")

	ev, ok := snap.Event(domain.PlatformKalshi, "KXNBA-26")
	require.True(t, ok)
	assert.Equal(t, "NBA Champion", ev.Title)
}

func TestBuildDropsEventOnMarketFailure(t *testing.T) {
	kalshi, poly := testFixtures()
	kalshi.failMarkets = map[string]bool{"KXBTC-26": true}

	snap, err := newTestBuilder(kalshi, poly, nil, nil).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.KalshiEvents, 1)
	assert.Equal(t, "KXNBA-26", snap.KalshiEvents[0].ID)
	assert.Equal(t, 1, snap.KalshiVectors.Len())
}

func TestBuildUsesCacheOnSecondRun(t *testing.T) {
	kalshi, poly := testFixtures()
	cache := newMemCache()
	b := newTestBuilder(kalshi, poly, cache, nil)

	_, err := b.Build(context.Background())
	require.NoError(t, err)
	_, err = b.Build(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 1, kalshi.eventCalls.Load())
	assert.EqualValues(t, 2, kalshi.marketCalls.Load())
	assert.EqualValues(t, 1, poly.calls.Load())
}

func TestBuildReusesStoredEmbeddings(t *testing.T) {
	kalshi, poly := testFixtures()
	store := newMemEmbeddings()
	embedder := &fakeEmbedder{}
	b := NewBuilder(BuilderConfig{
		Kalshi:     kalshi,
		Polymarket: poly,
		Embedder:   embedder,
		Embeddings: store,
		Workers:    2,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	_, err := b.Build(context.Background())
	require.NoError(t, err)
	firstCalls := embedder.calls.Load()
	require.Positive(t, firstCalls)

	_, err = b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, firstCalls, embedder.calls.Load(), "second run should hit the embedding store")
}

func TestCandidatesAndDescribe(t *testing.T) {
	kalshi, poly := testFixtures()
	snap, err := newTestBuilder(kalshi, poly, nil, nil).Build(context.Background())
	require.NoError(t, err)

	matches := []vector.Match{
		{IDA: "KXNBA-26", IDB: "101", Similarity: 0.93},
		{IDA: "KXNBA-26", IDB: "gone", Similarity: 0.91},
	}
	cands := snap.Candidates(matches)
	require.Len(t, cands, 1)
	assert.Equal(t, "KXNBA-26", cands[0].EventA.ID)
	assert.Equal(t, "101", cands[0].EventB.ID)

	desc, err := snap.Describe(cands[0])
	require.NoError(t, err)
	assert.Equal(t, "NBA Champion", desc.KalshiEvent.Title)
	require.Len(t, desc.KalshiContracts, 1)
	require.Len(t, desc.PolymarketContracts, 1)

	_, err = snap.Describe(domain.SimilarityCandidate{
		EventA: domain.EventRef{ID: "gone"},
		EventB: domain.EventRef{ID: "101"},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
