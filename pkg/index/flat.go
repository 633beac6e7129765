package index

import (
	"sort"
	"sync"

	"github.com/thewizster/mysse/pkg/vec"
)

// Flat implements exact brute-force search: every query scores every
// stored vector. O(n) per query, but it guarantees the true nearest
// neighbors and serves as the recall baseline for the HNSW graph.
type Flat struct {
	mu      sync.RWMutex
	dim     int
	ids     []string // insertion order; breaks score ties deterministically
	vectors map[string][]float32
}

// NewFlat creates a brute-force index for vectors of the given dimension.
func NewFlat(dim int) *Flat {
	return &Flat{
		dim:     dim,
		vectors: make(map[string][]float32),
	}
}

// Insert stores a vector by reference. Re-inserting an id replaces its
// vector and keeps its original position in insertion order.
func (f *Flat) Insert(id string, vector []float32) error {
	if len(vector) != f.dim {
		return ErrDimensionMismatch
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.vectors[id]; !exists {
		f.ids = append(f.ids, id)
	}
	f.vectors[id] = vector
	return nil
}

// Search returns the k highest-scoring vectors by dot product (cosine
// similarity on unit-norm inputs), sorted by score descending. Ties are
// broken by insertion order.
func (f *Flat) Search(query []float32, k int) []Result {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.vectors) == 0 || k <= 0 {
		return []Result{}
	}

	scored := make([]Result, 0, len(f.ids))
	for _, id := range f.ids {
		scored = append(scored, Result{ID: id, Score: vec.DotProduct(query, f.vectors[id])})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// Delete removes id. Returns false when absent.
func (f *Flat) Delete(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.vectors[id]; !exists {
		return false
	}
	delete(f.vectors, id)
	for i, v := range f.ids {
		if v == id {
			f.ids = append(f.ids[:i], f.ids[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of stored vectors.
func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

// Clear drops all vectors.
func (f *Flat) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = nil
	f.vectors = make(map[string][]float32)
}
