package match

import (
	"github.com/alanyoungcy/arbscan/internal/domain"
)

// Registry indexes verdicts by candidate event pair. It is built either
// from live matcher results or from a previously exported results file,
// so the evaluation stage can run without re-querying the matcher.
type Registry struct {
	verdicts map[registryKey]domain.Verdict
	order    []registryKey
}

type registryKey struct {
	kalshiEventID string
	polyEventID   string
}

func NewRegistry() *Registry {
	return &Registry{verdicts: make(map[registryKey]domain.Verdict)}
}

// RegistryFromResults builds a registry from a batch of matcher results.
func RegistryFromResults(results []Result) *Registry {
	r := NewRegistry()
	for _, res := range results {
		r.Put(res.Description.Candidate.EventA.ID, res.Description.Candidate.EventB.ID, res.Verdict)
	}
	return r
}

// Put records the verdict for one candidate pair, replacing any earlier
// verdict for the same pair.
func (r *Registry) Put(kalshiEventID, polyEventID string, v domain.Verdict) {
	k := registryKey{kalshiEventID: kalshiEventID, polyEventID: polyEventID}
	if _, seen := r.verdicts[k]; !seen {
		r.order = append(r.order, k)
	}
	r.verdicts[k] = v
}

// Get returns the verdict for a candidate pair.
func (r *Registry) Get(kalshiEventID, polyEventID string) (domain.Verdict, bool) {
	v, ok := r.verdicts[registryKey{kalshiEventID: kalshiEventID, polyEventID: polyEventID}]
	return v, ok
}

// Len reports the number of recorded candidate pairs.
func (r *Registry) Len() int { return len(r.order) }

// Pairs flattens the contract pairs from every clean, positive verdict,
// in insertion order.
func (r *Registry) Pairs() []domain.MatchedMarketPair {
	var pairs []domain.MatchedMarketPair
	for _, k := range r.order {
		v := r.verdicts[k]
		if !v.OK() || !v.CouldHaveArbitrage {
			continue
		}
		pairs = append(pairs, v.Pairs...)
	}
	return pairs
}
