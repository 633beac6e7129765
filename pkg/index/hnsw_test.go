package index

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/thewizster/mysse/pkg/vec"
)

func randomUnitVectors(n, dim int, seed int64) [][]float32 {
	rng := rand.New(rand.NewSource(seed))
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, dim)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}
		out[i] = vec.Normalize(v)
	}
	return out
}

// checkGraph validates the structural invariants of the HNSW graph:
// bidirectional edges, cardinality caps, no self-loops, neighbor ids
// that exist, and a consistent entry point.
func checkGraph(t *testing.T, h *HNSW) {
	t.Helper()

	if len(h.nodes) == 0 {
		if h.entryPoint != "" || h.maxLayer != 0 {
			t.Fatalf("empty graph has entry point %q, maxLayer %d", h.entryPoint, h.maxLayer)
		}
		return
	}

	ep, ok := h.nodes[h.entryPoint]
	if !ok {
		t.Fatalf("entry point %q not in graph", h.entryPoint)
	}
	if ep.level != h.maxLayer {
		t.Fatalf("entry point level %d != maxLayer %d", ep.level, h.maxLayer)
	}

	for id, node := range h.nodes {
		if node.level > h.maxLayer {
			t.Fatalf("node %q level %d exceeds maxLayer %d", id, node.level, h.maxLayer)
		}
		for l, neighbors := range node.neighbors {
			limit := h.m
			if l == 0 {
				limit = h.mMax0
			}
			if len(neighbors) > limit {
				t.Fatalf("node %q layer %d has %d neighbors, cap %d", id, l, len(neighbors), limit)
			}
			seen := make(map[string]bool)
			for _, nid := range neighbors {
				if nid == id {
					t.Fatalf("node %q has self-loop at layer %d", id, l)
				}
				if seen[nid] {
					t.Fatalf("node %q has duplicate neighbor %q at layer %d", id, nid, l)
				}
				seen[nid] = true

				other, ok := h.nodes[nid]
				if !ok {
					t.Fatalf("node %q links to missing node %q", id, nid)
				}
				back := false
				if l < len(other.neighbors) {
					for _, bid := range other.neighbors[l] {
						if bid == id {
							back = true
							break
						}
					}
				}
				if !back {
					t.Fatalf("edge %q->%q at layer %d is not bidirectional", id, nid, l)
				}
			}
		}
	}
}

func TestHNSWBasic(t *testing.T) {
	h := NewHNSW(4, 16, 40, 1)

	vectors := []struct {
		id  string
		vec []float32
	}{
		{"vec1", vec.Normalize([]float32{1.0, 0.0, 0.0, 0.0})},
		{"vec2", vec.Normalize([]float32{0.0, 1.0, 0.0, 0.0})},
		{"vec3", vec.Normalize([]float32{0.0, 0.0, 1.0, 0.0})},
		{"vec4", vec.Normalize([]float32{0.5, 0.5, 0.0, 0.0})},
		{"vec5", vec.Normalize([]float32{0.5, 0.0, 0.5, 0.0})},
	}
	for _, v := range vectors {
		if err := h.Insert(v.id, v.vec); err != nil {
			t.Fatalf("failed to insert %s: %v", v.id, err)
		}
	}

	if h.Len() != 5 {
		t.Errorf("expected size 5, got %d", h.Len())
	}
	checkGraph(t, h)

	query := vec.Normalize([]float32{0.9, 0.1, 0.0, 0.0})
	results := h.Search(query, 3, 50)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].ID != "vec1" {
		t.Errorf("expected first result vec1, got %s", results[0].ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Error("scores not in descending order")
		}
	}
	for _, r := range results {
		if r.Score < -1 || r.Score > 1 {
			t.Errorf("score %f out of [-1, 1]", r.Score)
		}
	}
}

func TestHNSWDuplicateInsert(t *testing.T) {
	h := NewHNSW(2, 4, 10, 1)
	v := vec.Normalize([]float32{1, 1})
	if err := h.Insert("a", v); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := h.Insert("a", v); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestHNSWDimensionMismatch(t *testing.T) {
	h := NewHNSW(4, 4, 10, 1)
	if err := h.Insert("a", []float32{1, 0}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestHNSWEmptySearch(t *testing.T) {
	h := NewHNSW(2, 4, 10, 1)
	if results := h.Search([]float32{1, 0}, 5, 10); len(results) != 0 {
		t.Errorf("expected empty result, got %d", len(results))
	}
}

func TestHNSWSelfRecall(t *testing.T) {
	dim := 16
	vectors := randomUnitVectors(200, dim, 7)
	h := NewHNSW(dim, 16, 40, 1)
	for i, v := range vectors {
		if err := h.Insert(fmt.Sprintf("d%d", i), v); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	checkGraph(t, h)

	for i, v := range vectors {
		results := h.Search(v, 1, 64)
		if len(results) == 0 {
			t.Fatalf("no result for indexed vector %d", i)
		}
		if results[0].ID != fmt.Sprintf("d%d", i) {
			t.Errorf("self-recall miss for d%d: got %s (score %f)", i, results[0].ID, results[0].Score)
		}
		if results[0].Score < 0.99 {
			t.Errorf("self score %f < 0.99 for d%d", results[0].Score, i)
		}
	}
}

func TestHNSWDelete(t *testing.T) {
	dim := 8
	vectors := randomUnitVectors(50, dim, 3)
	h := NewHNSW(dim, 8, 20, 1)
	for i, v := range vectors {
		if err := h.Insert(fmt.Sprintf("d%d", i), v); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	if !h.Delete("d25") {
		t.Fatal("delete of existing id returned false")
	}
	if h.Delete("d25") {
		t.Error("delete of missing id returned true")
	}
	if h.Len() != 49 {
		t.Errorf("expected 49 nodes, got %d", h.Len())
	}
	if h.Contains("d25") {
		t.Error("deleted id still present")
	}
	checkGraph(t, h)

	results := h.Search(vectors[25], 50, 64)
	for _, r := range results {
		if r.ID == "d25" {
			t.Error("deleted id returned from search")
		}
	}
}

func TestHNSWDeleteEntryPoint(t *testing.T) {
	dim := 8
	vectors := randomUnitVectors(30, dim, 11)
	h := NewHNSW(dim, 8, 20, 1)
	for i, v := range vectors {
		if err := h.Insert(fmt.Sprintf("d%d", i), v); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	// Deleting the entry point must promote a surviving node.
	for h.Len() > 0 {
		ep := h.entryPoint
		if !h.Delete(ep) {
			t.Fatalf("failed to delete entry point %q", ep)
		}
		checkGraph(t, h)
	}
	if h.entryPoint != "" || h.maxLayer != 0 {
		t.Errorf("drained graph has entry point %q, maxLayer %d", h.entryPoint, h.maxLayer)
	}
}

func TestHNSWClear(t *testing.T) {
	h := NewHNSW(2, 4, 10, 1)
	_ = h.Insert("a", vec.Normalize([]float32{1, 0}))
	_ = h.Insert("b", vec.Normalize([]float32{0, 1}))

	h.Clear()
	if h.Len() != 0 {
		t.Errorf("expected empty index, got %d", h.Len())
	}
	checkGraph(t, h)

	// Insert after clear starts a fresh graph.
	if err := h.Insert("a", vec.Normalize([]float32{1, 0})); err != nil {
		t.Fatalf("insert after clear: %v", err)
	}
	if h.Len() != 1 {
		t.Errorf("expected 1 node, got %d", h.Len())
	}
}

func TestHNSWInvariantsUnderChurn(t *testing.T) {
	dim := 8
	vectors := randomUnitVectors(120, dim, 19)
	h := NewHNSW(dim, 6, 20, 1)

	for i := 0; i < 60; i++ {
		if err := h.Insert(fmt.Sprintf("d%d", i), vectors[i]); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	for i := 0; i < 30; i += 2 {
		h.Delete(fmt.Sprintf("d%d", i))
	}
	for i := 60; i < 120; i++ {
		if err := h.Insert(fmt.Sprintf("d%d", i), vectors[i]); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	checkGraph(t, h)

	if h.Len() != 105 {
		t.Errorf("expected 105 nodes, got %d", h.Len())
	}
}

func TestHNSWRecallAgainstExact(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping recall measurement in short mode")
	}

	dim := 32
	n := 2000
	vectors := randomUnitVectors(n+20, dim, 5)

	h := NewHNSW(dim, 16, 40, 1)
	f := NewFlat(dim)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("d%d", i)
		if err := h.Insert(id, vectors[i]); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if err := f.Insert(id, vectors[i]); err != nil {
			t.Fatalf("flat insert %d: %v", i, err)
		}
	}

	k := 10
	var hits, total int
	for q := 0; q < 20; q++ {
		query := vectors[n+q]
		exact := f.Search(query, k)
		approx := h.Search(query, k, 64)

		truth := make(map[string]bool, k)
		for _, r := range exact {
			truth[r.ID] = true
		}
		for _, r := range approx {
			if truth[r.ID] {
				hits++
			}
		}
		total += len(exact)
	}

	recall := float64(hits) / float64(total)
	t.Logf("recall@%d over 20 queries: %.3f", k, recall)
	if recall < 0.92 {
		t.Errorf("recall %.3f below 0.92 target", recall)
	}
}

func TestHNSWDeterministicConstruction(t *testing.T) {
	dim := 8
	vectors := randomUnitVectors(100, dim, 23)

	build := func() *HNSW {
		h := NewHNSW(dim, 8, 20, 1)
		for i, v := range vectors {
			if err := h.Insert(fmt.Sprintf("d%d", i), v); err != nil {
				t.Fatalf("insert %d: %v", i, err)
			}
		}
		return h
	}

	a := build()
	b := build()

	query := randomUnitVectors(1, dim, 99)[0]
	ra := a.Search(query, 10, 64)
	rb := b.Search(query, 10, 64)
	if len(ra) != len(rb) {
		t.Fatalf("result lengths differ: %d vs %d", len(ra), len(rb))
	}
	for i := range ra {
		if ra[i] != rb[i] {
			t.Errorf("result %d differs: %+v vs %+v", i, ra[i], rb[i])
		}
	}
}
