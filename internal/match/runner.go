package match

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/alitto/pond"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// Result pairs one candidate's description with the verdict the matcher
// returned for it. Results keep the input order of the candidates.
type Result struct {
	Description domain.PairDescription
	Verdict     domain.Verdict
}

// Runner fans candidate pairs out to the semantic matcher. One failing
// pair never aborts the batch: transport errors are folded into the
// verdict as an llm_error marker and the batch continues.
type Runner struct {
	matcher domain.SemanticMatcher
	workers int
	logger  *slog.Logger
}

func NewRunner(matcher domain.SemanticMatcher, workers int, logger *slog.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		matcher: matcher,
		workers: workers,
		logger:  logger.With(slog.String("component", "match_runner")),
	}
}

func (r *Runner) EvaluateAll(ctx context.Context, descs []domain.PairDescription) []Result {
	if len(descs) == 0 {
		return nil
	}

	results := make([]Result, len(descs))
	pool := pond.New(r.workers, len(descs), pond.Context(ctx))
	for i, desc := range descs {
		i, desc := i, desc
		pool.Submit(func() {
			verdict, err := r.matcher.Evaluate(ctx, desc)
			if err != nil {
				r.logger.Warn("matcher call failed",
					slog.String("kalshi_event", desc.Candidate.EventA.ID),
					slog.String("polymarket_event", desc.Candidate.EventB.ID),
					slog.String("error", err.Error()))
				verdict = domain.Verdict{ParseError: "llm_error: " + err.Error()}
			}
			results[i] = Result{Description: desc, Verdict: verdict}
		})
	}
	pool.StopAndWait()

	var clean, positive int
	for _, res := range results {
		if res.Verdict.OK() {
			clean++
			if res.Verdict.CouldHaveArbitrage {
				positive++
			}
		}
	}
	r.logger.Info("evaluated candidate pairs",
		slog.Int("candidates", len(descs)),
		slog.Int("parsed", clean),
		slog.Int("positive", positive))
	return results
}

// MatchedPairs flattens the contract pairs from every clean, positive
// verdict, in result order.
func MatchedPairs(results []Result) []domain.MatchedMarketPair {
	var pairs []domain.MatchedMarketPair
	for _, res := range results {
		if !res.Verdict.OK() || !res.Verdict.CouldHaveArbitrage {
			continue
		}
		pairs = append(pairs, res.Verdict.Pairs...)
	}
	return pairs
}
