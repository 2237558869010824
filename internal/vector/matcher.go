package vector

import (
	"log/slog"
	"math"
	"runtime"
	"sort"

	"github.com/alitto/pond"
)

// nearDuplicateSim is the similarity at or above which two events are
// treated as the same underlying listing rather than a tradeable pair.
// 0.9999 instead of 1.0 absorbs floating point noise.
const nearDuplicateSim = 0.9999

// Match is one scored identifier pair. IDA comes from the first store,
// IDB from the second (or the same store for intra-platform search).
type Match struct {
	IDA        string
	IDB        string
	Similarity float64
}

// Options controls a top-k similarity search.
type Options struct {
	TopK                  int
	MinSimilarity         float64
	ExcludeNearDuplicates bool
}

// Matcher computes all-pairs cosine similarity between embedding stores.
// The full |A|x|B| score matrix is the dominant cost of the whole scan, so
// rows are dispatched to a worker pool instead of a scalar double loop.
type Matcher struct {
	workers int
	logger  *slog.Logger
}

// NewMatcher creates a Matcher running on up to workers goroutines.
// workers <= 0 selects GOMAXPROCS.
func NewMatcher(workers int, logger *slog.Logger) *Matcher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Matcher{
		workers: workers,
		logger:  logger.With(slog.String("component", "similarity_matcher")),
	}
}

// FindTopK returns the top-k most similar cross-store pairs, ordered by
// similarity descending with ties kept in input order. Empty stores or a
// dimension mismatch yield an empty result, never an error: no candidates
// is a valid outcome.
func (m *Matcher) FindTopK(a, b *Store, opts Options) []Match {
	if a == nil || b == nil || a.Len() == 0 || b.Len() == 0 {
		return nil
	}
	if a.Dim() != b.Dim() {
		m.logger.Warn("embedding dimension mismatch, no candidates",
			slog.Int("dim_a", a.Dim()),
			slog.Int("dim_b", b.Dim()),
		)
		return nil
	}

	an := a.normalized()
	bn := b.normalized()

	// One result slice per row of A keeps workers from sharing state and
	// makes the merged order row-major, hence deterministic.
	rows := make([][]Match, a.Len())
	pool := pond.New(m.workers, a.Len())
	for i := range an {
		i := i
		pool.Submit(func() {
			rows[i] = scanRow(a.ids[i], an[i], b.ids, bn, 0, opts)
		})
	}
	pool.StopAndWait()

	return rank(rows, opts.TopK)
}

// FindTopKIntra searches for similar pairs within a single store, walking
// the upper triangle only: no self-pairs and no duplicate unordered pairs.
func (m *Matcher) FindTopKIntra(a *Store, opts Options) []Match {
	if a == nil || a.Len() < 2 {
		return nil
	}

	an := a.normalized()
	rows := make([][]Match, a.Len())
	pool := pond.New(m.workers, a.Len())
	for i := range an {
		i := i
		pool.Submit(func() {
			rows[i] = scanRow(a.ids[i], an[i], a.ids, an, i+1, opts)
		})
	}
	pool.StopAndWait()

	return rank(rows, opts.TopK)
}

// scanRow scores one normalized row vector against columns [from, len).
func scanRow(idA string, row []float32, ids []string, cols [][]float32, from int, opts Options) []Match {
	var out []Match
	for j := from; j < len(cols); j++ {
		sim := dot(row, cols[j])
		if sim < opts.MinSimilarity {
			continue
		}
		if opts.ExcludeNearDuplicates && sim >= nearDuplicateSim {
			continue
		}
		out = append(out, Match{IDA: idA, IDB: ids[j], Similarity: sim})
	}
	return out
}

// rank merges per-row results, sorts by similarity descending (stable, so
// ties keep row-major input order), and caps the list at k.
func rank(rows [][]Match, k int) []Match {
	var all []Match
	for _, r := range rows {
		all = append(all, r...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Similarity > all[j].Similarity
	})
	if k > 0 && len(all) > k {
		all = all[:k]
	}
	return all
}

// dot accumulates in float64 so long vectors do not lose precision.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Cosine returns the cosine similarity of two raw vectors. Zero-length,
// mismatched, or zero-norm inputs score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dotp, na, nb float64
	for i := range a {
		dotp += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dotp / (math.Sqrt(na) * math.Sqrt(nb))
}
