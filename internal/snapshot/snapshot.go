// Package snapshot assembles a point-in-time view of both platforms:
// open events, their contracts, and the embedding vectors used for
// similarity search. A snapshot is built once per run and read-only
// afterwards; every downstream stage works off the same view.
package snapshot

import (
	"fmt"
	"time"

	"github.com/alanyoungcy/arbscan/internal/arb"
	"github.com/alanyoungcy/arbscan/internal/domain"
	"github.com/alanyoungcy/arbscan/internal/vector"
)

// Snapshot is the immutable input of one scan run.
type Snapshot struct {
	KalshiEvents []domain.Event
	PolyEvents   []domain.Event

	// Contracts keyed by event ID.
	KalshiContracts map[string][]domain.Contract
	PolyContracts   map[string][]domain.Contract

	KalshiVectors *vector.Store
	PolyVectors   *vector.Store

	TakenAt time.Time

	kalshiByID map[string]domain.Event
	polyByID   map[string]domain.Event
}

// index builds the event lookup maps. Called once by the builder.
func (s *Snapshot) index() {
	s.kalshiByID = make(map[string]domain.Event, len(s.KalshiEvents))
	for _, ev := range s.KalshiEvents {
		s.kalshiByID[ev.ID] = ev
	}
	s.polyByID = make(map[string]domain.Event, len(s.PolyEvents))
	for _, ev := range s.PolyEvents {
		s.polyByID[ev.ID] = ev
	}
}

// Event returns the event with the given platform and ID.
func (s *Snapshot) Event(platform domain.Platform, id string) (domain.Event, bool) {
	switch platform {
	case domain.PlatformKalshi:
		ev, ok := s.kalshiByID[id]
		return ev, ok
	case domain.PlatformPolymarket:
		ev, ok := s.polyByID[id]
		return ev, ok
	}
	return domain.Event{}, false
}

// Candidates maps raw similarity matches onto event references. Matches
// whose IDs are no longer in the snapshot are dropped.
func (s *Snapshot) Candidates(matches []vector.Match) []domain.SimilarityCandidate {
	cands := make([]domain.SimilarityCandidate, 0, len(matches))
	for _, m := range matches {
		ka, okA := s.kalshiByID[m.IDA]
		pb, okB := s.polyByID[m.IDB]
		if !okA || !okB {
			continue
		}
		cands = append(cands, domain.SimilarityCandidate{
			EventA:     ka.Ref(),
			EventB:     pb.Ref(),
			Similarity: m.Similarity,
		})
	}
	return cands
}

// Describe builds the matcher request for one candidate pair.
func (s *Snapshot) Describe(cand domain.SimilarityCandidate) (domain.PairDescription, error) {
	ka, ok := s.kalshiByID[cand.EventA.ID]
	if !ok {
		return domain.PairDescription{}, fmt.Errorf("snapshot: kalshi event %s: %w", cand.EventA.ID, domain.ErrNotFound)
	}
	pb, ok := s.polyByID[cand.EventB.ID]
	if !ok {
		return domain.PairDescription{}, fmt.Errorf("snapshot: polymarket event %s: %w", cand.EventB.ID, domain.ErrNotFound)
	}
	return domain.PairDescription{
		Candidate:           cand,
		KalshiEvent:         ka,
		PolymarketEvent:     pb,
		KalshiContracts:     s.KalshiContracts[cand.EventA.ID],
		PolymarketContracts: s.PolyContracts[cand.EventB.ID],
	}, nil
}

// Books flattens every contract into the lookup shape the evaluator
// wants.
func (s *Snapshot) Books() arb.Books {
	var kalshi, poly []domain.Contract
	for _, ev := range s.KalshiEvents {
		kalshi = append(kalshi, s.KalshiContracts[ev.ID]...)
	}
	for _, ev := range s.PolyEvents {
		poly = append(poly, s.PolyContracts[ev.ID]...)
	}
	return arb.BooksFrom(kalshi, poly)
}
