// Package vector implements the embedding store and the batched cosine
// similarity search used to pair up events across platforms.
package vector

import "math"

// Store holds per-event dense embedding vectors for one platform, indexed
// by event identifier. Insertion order is preserved so similarity results
// are deterministic across runs with identical inputs. A Store is built
// once per snapshot and read-only afterwards.
type Store struct {
	ids   []string
	vecs  [][]float32
	index map[string]int
	dim   int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Add inserts a vector under the given identifier. The first vector fixes
// the store dimension; later vectors with a different length are dropped,
// as are empty identifiers, empty vectors, and duplicate identifiers.
// A dropped vector is not an error: the event simply cannot be matched.
func (s *Store) Add(id string, vec []float32) bool {
	if id == "" || len(vec) == 0 {
		return false
	}
	if _, dup := s.index[id]; dup {
		return false
	}
	if s.dim == 0 {
		s.dim = len(vec)
	} else if len(vec) != s.dim {
		return false
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
	s.vecs = append(s.vecs, vec)
	return true
}

// Len returns the number of stored vectors.
func (s *Store) Len() int { return len(s.ids) }

// Dim returns the vector dimension, 0 when the store is empty.
func (s *Store) Dim() int { return s.dim }

// IDs returns the identifiers in insertion order. The returned slice is
// shared; callers must not mutate it.
func (s *Store) IDs() []string { return s.ids }

// Get returns the vector stored under id.
func (s *Store) Get(id string) ([]float32, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.vecs[i], true
}

// normalized returns a copy of every vector scaled to unit L2 norm.
// Zero-norm vectors come back as zero rows, which dot to similarity 0
// against everything instead of dividing by zero.
func (s *Store) normalized() [][]float32 {
	out := make([][]float32, len(s.vecs))
	for i, v := range s.vecs {
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		row := make([]float32, len(v))
		if sum > 0 {
			inv := 1 / math.Sqrt(sum)
			for j, x := range v {
				row[j] = float32(float64(x) * inv)
			}
		}
		out[i] = row
	}
	return out
}
