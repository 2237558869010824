package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/alitto/pond"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbscan/internal/domain"
	"github.com/alanyoungcy/arbscan/internal/platform/polymarket"
	"github.com/alanyoungcy/arbscan/internal/vector"
)

// KalshiSource is the Kalshi client surface the builder needs.
type KalshiSource interface {
	GetOpenEvents(ctx context.Context) ([]domain.Event, error)
	GetMarketsForEvent(ctx context.Context, eventTicker string) ([]domain.Contract, error)
}

// PolymarketSource is the Polymarket client surface the builder needs.
type PolymarketSource interface {
	GetOpenEvents(ctx context.Context) ([]polymarket.EventMarkets, error)
}

// BuilderConfig configures the snapshot builder. Cache and Embeddings
// are optional: a nil cache means every run refetches, a nil embedding
// store means every run re-embeds.
type BuilderConfig struct {
	Kalshi     KalshiSource
	Polymarket PolymarketSource
	Embedder   domain.Embedder
	Cache      domain.SnapshotCache
	Embeddings domain.EmbeddingStore
	Workers    int
	Logger     *slog.Logger
}

// Builder fetches both platforms and produces an immutable Snapshot.
type Builder struct {
	cfg    BuilderConfig
	logger *slog.Logger
}

func NewBuilder(cfg BuilderConfig) *Builder {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Builder{
		cfg:    cfg,
		logger: cfg.Logger.With(slog.String("component", "snapshot_builder")),
	}
}

// Build assembles the snapshot: events and contracts from both platforms
// (through the cache when one is wired), then embedding vectors for every
// event, reusing stored vectors where available. Individual events whose
// markets cannot be fetched are dropped with a warning; a platform that
// cannot be listed at all fails the build.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		KalshiContracts: make(map[string][]domain.Contract),
		PolyContracts:   make(map[string][]domain.Contract),
		TakenAt:         time.Now().UTC(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.loadKalshi(gctx, snap) })
	g.Go(func() error { return b.loadPolymarket(gctx, snap) })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	snap.index()

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		store, err := b.vectorize(gctx, domain.PlatformKalshi, snap.KalshiEvents)
		snap.KalshiVectors = store
		return err
	})
	g.Go(func() error {
		store, err := b.vectorize(gctx, domain.PlatformPolymarket, snap.PolyEvents)
		snap.PolyVectors = store
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.logger.Info("snapshot built",
		slog.Int("kalshi_events", len(snap.KalshiEvents)),
		slog.Int("polymarket_events", len(snap.PolyEvents)))
	return snap, nil
}

func (b *Builder) loadKalshi(ctx context.Context, snap *Snapshot) error {
	events, fromCache, err := b.cachedEvents(ctx, domain.PlatformKalshi, b.cfg.Kalshi.GetOpenEvents)
	if err != nil {
		return fmt.Errorf("snapshot: kalshi events: %w", err)
	}
	snap.KalshiEvents = events

	// Markets are fetched per event; a single failing event is dropped,
	// not fatal.
	var mu sync.Mutex
	kept := make([]domain.Event, 0, len(events))
	pool := pond.New(b.cfg.Workers, len(events), pond.Context(ctx))
	for _, ev := range events {
		ev := ev
		pool.Submit(func() {
			contracts, err := b.cachedContracts(ctx, ev, fromCache)
			if err != nil {
				b.logger.Warn("dropping kalshi event",
					slog.String("event", ev.ID),
					slog.String("error", err.Error()))
				return
			}
			mu.Lock()
			snap.KalshiContracts[ev.ID] = contracts
			mu.Unlock()
		})
	}
	pool.StopAndWait()

	for _, ev := range events {
		if _, ok := snap.KalshiContracts[ev.ID]; ok {
			kept = append(kept, ev)
		}
	}
	snap.KalshiEvents = kept
	return nil
}

func (b *Builder) cachedContracts(ctx context.Context, ev domain.Event, tryCache bool) ([]domain.Contract, error) {
	if b.cfg.Cache != nil && tryCache {
		if contracts, err := b.cfg.Cache.GetContracts(ctx, ev.Platform, ev.ID); err == nil && contracts != nil {
			return contracts, nil
		}
	}
	contracts, err := b.cfg.Kalshi.GetMarketsForEvent(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	if b.cfg.Cache != nil {
		if err := b.cfg.Cache.SetContracts(ctx, ev.Platform, ev.ID, contracts); err != nil {
			b.logger.Warn("cache contracts", slog.String("event", ev.ID), slog.String("error", err.Error()))
		}
	}
	return contracts, nil
}

func (b *Builder) loadPolymarket(ctx context.Context, snap *Snapshot) error {
	if b.cfg.Cache != nil {
		events, err := b.cfg.Cache.GetEvents(ctx, domain.PlatformPolymarket)
		if err == nil && len(events) > 0 {
			hit := true
			contracts := make(map[string][]domain.Contract, len(events))
			for _, ev := range events {
				cs, err := b.cfg.Cache.GetContracts(ctx, domain.PlatformPolymarket, ev.ID)
				if err != nil || cs == nil {
					hit = false
					break
				}
				contracts[ev.ID] = cs
			}
			if hit {
				snap.PolyEvents = events
				snap.PolyContracts = contracts
				return nil
			}
		}
	}

	bundles, err := b.cfg.Polymarket.GetOpenEvents(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: polymarket events: %w", err)
	}
	events := make([]domain.Event, 0, len(bundles))
	for _, em := range bundles {
		events = append(events, em.Event)
		snap.PolyContracts[em.Event.ID] = em.Contracts
	}
	snap.PolyEvents = events

	if b.cfg.Cache != nil {
		if err := b.cfg.Cache.SetEvents(ctx, domain.PlatformPolymarket, events); err != nil {
			b.logger.Warn("cache polymarket events", slog.String("error", err.Error()))
		}
		for _, em := range bundles {
			if err := b.cfg.Cache.SetContracts(ctx, domain.PlatformPolymarket, em.Event.ID, em.Contracts); err != nil {
				b.logger.Warn("cache polymarket contracts",
					slog.String("event", em.Event.ID), slog.String("error", err.Error()))
			}
		}
	}
	return nil
}

func (b *Builder) cachedEvents(ctx context.Context, platform domain.Platform, fetch func(context.Context) ([]domain.Event, error)) ([]domain.Event, bool, error) {
	if b.cfg.Cache != nil {
		if events, err := b.cfg.Cache.GetEvents(ctx, platform); err == nil && len(events) > 0 {
			return events, true, nil
		}
	}
	events, err := fetch(ctx)
	if err != nil {
		return nil, false, err
	}
	if b.cfg.Cache != nil {
		if err := b.cfg.Cache.SetEvents(ctx, platform, events); err != nil {
			b.logger.Warn("cache events", slog.String("platform", string(platform)), slog.String("error", err.Error()))
		}
	}
	return events, false, nil
}

// vectorize produces one vector per event, reusing persisted embeddings
// and calling the embedder only for events it has not seen.
func (b *Builder) vectorize(ctx context.Context, platform domain.Platform, events []domain.Event) (*vector.Store, error) {
	stored := map[string][]float32{}
	if b.cfg.Embeddings != nil {
		var err error
		stored, err = b.cfg.Embeddings.LoadAll(ctx, platform)
		if err != nil {
			b.logger.Warn("load stored embeddings",
				slog.String("platform", string(platform)), slog.String("error", err.Error()))
			stored = map[string][]float32{}
		}
	}

	var missing []domain.Event
	for _, ev := range events {
		if _, ok := stored[ev.ID]; !ok {
			missing = append(missing, ev)
		}
	}

	if len(missing) > 0 {
		texts := make([]string, len(missing))
		for i, ev := range missing {
			texts[i] = ev.EmbeddingText()
		}
		vecs, err := b.cfg.Embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("snapshot: embed %s events: %w", platform, err)
		}
		if len(vecs) != len(missing) {
			return nil, fmt.Errorf("snapshot: embed %s events: got %d vectors for %d texts", platform, len(vecs), len(missing))
		}
		fresh := make(map[string][]float32, len(missing))
		for i, ev := range missing {
			stored[ev.ID] = vecs[i]
			fresh[ev.ID] = vecs[i]
		}
		if b.cfg.Embeddings != nil {
			if err := b.cfg.Embeddings.UpsertBatch(ctx, platform, fresh); err != nil {
				b.logger.Warn("persist embeddings",
					slog.String("platform", string(platform)), slog.String("error", err.Error()))
			}
		}
	}

	store := vector.NewStore()
	for _, ev := range events {
		vec, ok := stored[ev.ID]
		if !ok {
			continue
		}
		if !store.Add(ev.ID, vec) {
			b.logger.Warn("dropping embedding",
				slog.String("platform", string(platform)), slog.String("event", ev.ID))
		}
	}
	return store, nil
}
