package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alanyoungcy/arbscan/internal/arb"
	"github.com/alanyoungcy/arbscan/internal/domain"
	"github.com/alanyoungcy/arbscan/internal/export"
	"github.com/alanyoungcy/arbscan/internal/filter"
	"github.com/alanyoungcy/arbscan/internal/match"
	"github.com/alanyoungcy/arbscan/internal/snapshot"
	"github.com/alanyoungcy/arbscan/internal/vector"
)

// Artifact filenames inside the export directory. Fixed names let evaluate
// mode pick up the results of an earlier match run without extra plumbing.
const (
	candidatesFile    = "candidates.csv"
	promptsFile       = "prompts.csv"
	resultsFile       = "results.csv"
	opportunitiesFile = "opportunities.csv"
)

// runLockTTL bounds how long a crashed scanner can block the next run.
const runLockTTL = 30 * time.Minute

// MatchMode takes a full market snapshot, generates ranked candidate pairs,
// sends them through the semantic matcher, and writes the candidate, prompt,
// and result artifacts. Pricing is left to a later evaluate run.
func (a *App) MatchMode(ctx context.Context, deps *Dependencies) error {
	unlock, err := a.acquireRunLock(ctx, deps)
	if err != nil {
		return err
	}
	defer unlock()

	id := newRunID()

	snap, err := a.takeSnapshot(ctx, deps)
	if err != nil {
		return fmt.Errorf("match mode: %w", err)
	}

	descs, err := a.generateCandidates(ctx, deps, snap, id)
	if err != nil {
		return fmt.Errorf("match mode: %w", err)
	}

	if _, err := a.runMatcher(ctx, deps, descs); err != nil {
		return fmt.Errorf("match mode: %w", err)
	}

	a.archiveRun(ctx, deps, id, nil)
	return nil
}

// EvaluateMode loads the semantic-match results written by a previous match
// run, refetches current prices for the matched markets only, and evaluates
// both hedge directions on every pair.
func (a *App) EvaluateMode(ctx context.Context, deps *Dependencies) error {
	id := newRunID()

	path := filepath.Join(a.cfg.Export.Dir, resultsFile)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("evaluate mode: open results %s: %w", path, err)
	}
	registry, err := export.ReadResults(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("evaluate mode: read results: %w", err)
	}

	pairs := registry.Pairs()
	a.logger.InfoContext(ctx, "loaded match results",
		slog.String("path", path),
		slog.Int("verdicts", registry.Len()),
		slog.Int("matched_pairs", len(pairs)),
	)

	books := a.fetchBooks(ctx, deps, pairs)
	return a.evaluateAndReport(ctx, deps, pairs, books, id)
}

// FullMode runs the entire pipeline in one process: snapshot, candidate
// generation, semantic matching, and price evaluation against the same
// snapshot the candidates came from.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	unlock, err := a.acquireRunLock(ctx, deps)
	if err != nil {
		return err
	}
	defer unlock()

	id := newRunID()

	snap, err := a.takeSnapshot(ctx, deps)
	if err != nil {
		return fmt.Errorf("full mode: %w", err)
	}

	descs, err := a.generateCandidates(ctx, deps, snap, id)
	if err != nil {
		return fmt.Errorf("full mode: %w", err)
	}

	results, err := a.runMatcher(ctx, deps, descs)
	if err != nil {
		return fmt.Errorf("full mode: %w", err)
	}

	pairs := match.RegistryFromResults(results).Pairs()
	return a.evaluateAndReport(ctx, deps, pairs, snap.Books(), id)
}

// ---------------------------------------------------------------------------
// Pipeline stages
// ---------------------------------------------------------------------------

// takeSnapshot fetches open events and contracts from both platforms and
// embeds every event.
func (a *App) takeSnapshot(ctx context.Context, deps *Dependencies) (*snapshot.Snapshot, error) {
	builder := snapshot.NewBuilder(snapshot.BuilderConfig{
		Kalshi:     deps.Kalshi,
		Polymarket: deps.Gamma,
		Embedder:   deps.Embedder,
		Cache:      deps.Cache,
		Embeddings: deps.Embeddings,
		Workers:    a.cfg.Matching.Workers,
		Logger:     a.logger,
	})
	return builder.Build(ctx)
}

// generateCandidates ranks cross-platform event pairs by embedding
// similarity, filters structurally unusable pairs, persists and exports the
// survivors, and returns their full pair descriptions.
func (a *App) generateCandidates(ctx context.Context, deps *Dependencies, snap *snapshot.Snapshot, runID string) ([]domain.PairDescription, error) {
	matcher := vector.NewMatcher(a.cfg.Matching.Workers, a.logger)
	matches := matcher.FindTopK(snap.KalshiVectors, snap.PolyVectors, vector.Options{
		TopK:                  a.cfg.Matching.TopK,
		MinSimilarity:         a.cfg.Matching.MinSimilarity,
		ExcludeNearDuplicates: true,
	})

	cands := snap.Candidates(matches)
	cands = filter.New(a.cfg.Matching.ExtraLeagues).ApplyRanked(cands, a.cfg.Matching.TargetCandidates)

	a.logger.InfoContext(ctx, "candidates generated",
		slog.Int("raw_matches", len(matches)),
		slog.Int("candidates", len(cands)),
	)

	if deps.Candidates != nil {
		if err := deps.Candidates.InsertBatch(ctx, runID, cands); err != nil {
			a.logger.WarnContext(ctx, "store candidates failed", slog.String("error", err.Error()))
		}
	}

	descs := make([]domain.PairDescription, 0, len(cands))
	for _, cand := range cands {
		desc, err := snap.Describe(cand)
		if err != nil {
			a.logger.WarnContext(ctx, "describe candidate failed",
				slog.String("kalshi_event", cand.EventA.ID),
				slog.String("poly_event", cand.EventB.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		descs = append(descs, desc)
	}

	if err := a.writeArtifact(candidatesFile, func(w io.Writer) error {
		return export.WriteCandidates(w, cands)
	}); err != nil {
		return nil, err
	}
	if err := a.writeArtifact(promptsFile, func(w io.Writer) error {
		return export.WritePrompts(w, descs)
	}); err != nil {
		return nil, err
	}

	return descs, nil
}

// runMatcher evaluates every candidate pair with the semantic matcher and
// writes the results artifact.
func (a *App) runMatcher(ctx context.Context, deps *Dependencies, descs []domain.PairDescription) ([]match.Result, error) {
	runner := match.NewRunner(deps.Matcher, a.cfg.Matcher.Workers, a.logger)
	results := runner.EvaluateAll(ctx, descs)

	if err := a.writeArtifact(resultsFile, func(w io.Writer) error {
		return export.WriteResults(w, results)
	}); err != nil {
		return nil, err
	}
	return results, nil
}

// fetchBooks refetches current contracts for only the events referenced by
// the matched pairs. A failed event fetch drops that event's markets from the
// books; the evaluator reports the affected pairs as skipped.
func (a *App) fetchBooks(ctx context.Context, deps *Dependencies, pairs []domain.MatchedMarketPair) arb.Books {
	kalshiEvents := make(map[string]bool)
	polyEvents := make(map[string]bool)
	for _, p := range pairs {
		kalshiEvents[p.Candidate.EventA.ID] = true
		polyEvents[p.Candidate.EventB.ID] = true
	}

	var kalshiContracts, polyContracts []domain.Contract
	for ticker := range kalshiEvents {
		contracts, err := deps.Kalshi.GetMarketsForEvent(ctx, ticker)
		if err != nil {
			a.logger.WarnContext(ctx, "fetch kalshi markets failed",
				slog.String("event", ticker),
				slog.String("error", err.Error()),
			)
			continue
		}
		kalshiContracts = append(kalshiContracts, contracts...)
	}
	for id := range polyEvents {
		bundle, err := deps.Gamma.GetEvent(ctx, id)
		if err != nil {
			a.logger.WarnContext(ctx, "fetch polymarket event failed",
				slog.String("event", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		polyContracts = append(polyContracts, bundle.Contracts...)
	}

	a.logger.InfoContext(ctx, "price books fetched",
		slog.Int("kalshi_events", len(kalshiEvents)),
		slog.Int("poly_events", len(polyEvents)),
		slog.Int("kalshi_contracts", len(kalshiContracts)),
		slog.Int("poly_contracts", len(polyContracts)),
	)

	return arb.BooksFrom(kalshiContracts, polyContracts)
}

// evaluateAndReport prices both hedge directions on every pair, then writes,
// prints, stores, announces, and archives the resulting opportunities.
func (a *App) evaluateAndReport(ctx context.Context, deps *Dependencies, pairs []domain.MatchedMarketPair, books arb.Books, runID string) error {
	evaluator := arb.NewEvaluator(arb.Config{
		FeeRate: a.cfg.Arbitrage.KalshiFeeRate,
		Workers: a.cfg.Arbitrage.Workers,
		Logger:  a.logger,
	})
	opps, skips := evaluator.EvaluateAll(ctx, pairs, books)
	a.logger.InfoContext(ctx, "evaluation finished",
		slog.Int("pairs", len(pairs)),
		slog.Int("opportunities", len(opps)),
		slog.Int("skipped", len(skips)),
	)

	if err := a.writeArtifact(opportunitiesFile, func(w io.Writer) error {
		return export.WriteOpportunities(w, opps)
	}); err != nil {
		return err
	}

	if a.cfg.Export.SummaryLimit > 0 && len(opps) > 0 {
		if err := export.PrintSummary(os.Stdout, opps, a.cfg.Export.SummaryLimit); err != nil {
			a.logger.WarnContext(ctx, "print summary failed", slog.String("error", err.Error()))
		}
	}

	if deps.Opportunities != nil {
		if err := deps.Opportunities.InsertBatch(ctx, runID, opps); err != nil {
			a.logger.WarnContext(ctx, "store opportunities failed", slog.String("error", err.Error()))
		}
	}

	if err := deps.Notifier.AnnounceOpportunities(ctx, opps); err != nil {
		a.logger.WarnContext(ctx, "notify failed", slog.String("error", err.Error()))
	}

	a.archiveRun(ctx, deps, runID, opps)
	return nil
}

// archiveRun uploads the export directory and, when given, the opportunity
// JSONL to object storage. Best-effort: archive failures never fail the run.
func (a *App) archiveRun(ctx context.Context, deps *Dependencies, runID string, opps []domain.ArbitrageOpportunity) {
	if deps.Archiver == nil {
		return
	}

	if n, err := deps.Archiver.ArchiveRunDir(ctx, runID, a.cfg.Export.Dir); err != nil {
		a.logger.WarnContext(ctx, "archive run dir failed", slog.String("error", err.Error()))
	} else {
		a.logger.InfoContext(ctx, "run artifacts archived",
			slog.String("run_id", runID),
			slog.Int("files", n),
		)
	}

	if len(opps) > 0 {
		if err := deps.Archiver.ArchiveOpportunities(ctx, runID, opps); err != nil {
			a.logger.WarnContext(ctx, "archive opportunities failed", slog.String("error", err.Error()))
		}
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// acquireRunLock takes the cross-process scan lock when Redis is wired. The
// returned unlock function is always safe to call.
func (a *App) acquireRunLock(ctx context.Context, deps *Dependencies) (func(), error) {
	if deps.RunLock == nil {
		return func() {}, nil
	}
	unlock, err := deps.RunLock.Acquire(ctx, "scan", runLockTTL)
	if err != nil {
		return nil, fmt.Errorf("app: acquire run lock: %w", err)
	}
	return unlock, nil
}

// writeArtifact creates a file inside the export directory and streams the
// given writer function into it.
func (a *App) writeArtifact(name string, write func(io.Writer) error) error {
	if err := os.MkdirAll(a.cfg.Export.Dir, 0o755); err != nil {
		return fmt.Errorf("app: create export dir: %w", err)
	}

	path := filepath.Join(a.cfg.Export.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("app: create artifact %s: %w", path, err)
	}

	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("app: write artifact %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("app: close artifact %s: %w", path, err)
	}

	a.logger.Info("artifact written", slog.String("path", path))
	return nil
}

// newRunID returns a timestamp-based identifier shared by all artifacts of
// one run.
func newRunID() string {
	return time.Now().UTC().Format("20060102T150405Z")
}
