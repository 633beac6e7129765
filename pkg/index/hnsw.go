package index

import (
	"container/heap"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/thewizster/mysse/pkg/vec"
)

// hnswNode is a node in the HNSW graph. Vectors are held by reference;
// the graph never copies them per layer.
type hnswNode struct {
	id        string
	vector    []float32
	level     int
	neighbors [][]string // neighbor ids per layer, 0..level
}

// HNSW implements a Hierarchical Navigable Small World graph over
// unit-norm vectors. Nodes live in a map keyed by external id and edges
// are id sets, so deletion is a symmetric set operation.
//
// Edges are bidirectional: if y is a neighbor of x at layer l, then x is
// a neighbor of y at layer l. Layer 0 holds at most 2*M neighbors per
// node, upper layers at most M.
type HNSW struct {
	mu sync.RWMutex

	dim            int
	m              int // max neighbors on layers >= 1
	mMax0          int // max neighbors on layer 0 (2*M)
	efConstruction int
	ml             float64 // level multiplier, 1/ln(M)

	nodes      map[string]*hnswNode
	entryPoint string
	maxLayer   int

	rng *rand.Rand
}

// NewHNSW creates an HNSW index for vectors of the given dimension.
// An m below 2 falls back to 16 and a non-positive efConstruction to 40. The seed
// drives level assignment; a fixed seed makes graph construction
// reproducible for a fixed insertion order.
func NewHNSW(dim, m, efConstruction int, seed int64) *HNSW {
	if m <= 1 {
		m = 16
	}
	if efConstruction <= 0 {
		efConstruction = 40
	}
	return &HNSW{
		dim:            dim,
		m:              m,
		mMax0:          m * 2,
		efConstruction: efConstruction,
		ml:             1.0 / math.Log(float64(m)),
		nodes:          make(map[string]*hnswNode),
		rng:            rand.New(rand.NewSource(seed)),
	}
}

// randomLevel draws the topmost layer for a new node from a geometric
// distribution: floor(-ln(U) * mL) with U uniform on (0, 1].
func (h *HNSW) randomLevel() int {
	u := 1.0 - h.rng.Float64() // Float64 is [0,1); shift to (0,1]
	return int(math.Floor(-math.Log(u) * h.ml))
}

// Insert adds a vector under id. It returns ErrDuplicateID if the id is
// already present and ErrDimensionMismatch for wrong-length vectors.
// The vector is stored by reference and must already be unit-norm.
func (h *HNSW) Insert(id string, vector []float32) error {
	if len(vector) != h.dim {
		return ErrDimensionMismatch
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.nodes[id]; exists {
		return ErrDuplicateID
	}

	level := h.randomLevel()
	node := &hnswNode{
		id:        id,
		vector:    vector,
		level:     level,
		neighbors: make([][]string, level+1),
	}
	for i := range node.neighbors {
		node.neighbors[i] = make([]string, 0, h.m)
	}

	if len(h.nodes) == 0 {
		h.nodes[id] = node
		h.entryPoint = id
		h.maxLayer = level
		return nil
	}

	// Registered before wiring so back-edge bookkeeping can resolve it;
	// nothing links to the node yet, so layer searches cannot reach it.
	h.nodes[id] = node

	top := h.maxLayer
	eps := []candidate{{
		id:   h.entryPoint,
		dist: vec.CosineDistance(vector, h.nodes[h.entryPoint].vector),
	}}

	// Phase 1: greedy descent to the node's top layer.
	for l := top; l > level; l-- {
		eps = h.searchLayer(vector, eps, 1, l)
	}

	// Phase 2: connect on each layer from min(level, top) down to 0.
	for l := minInt(level, top); l >= 0; l-- {
		candidates := h.searchLayer(vector, eps, h.efConstruction, l)

		maxConn := h.m
		if l == 0 {
			maxConn = h.mMax0
		}

		// Simple selector: nearest-first, no diversity heuristic.
		selected := candidates
		if len(selected) > maxConn {
			selected = selected[:maxConn]
		}

		for _, c := range selected {
			node.neighbors[l] = append(node.neighbors[l], c.id)
			h.connect(c.id, id, l, maxConn)
		}

		eps = selected
	}

	if level > top {
		h.entryPoint = id
		h.maxLayer = level
	}

	return nil
}

// connect adds a back-edge from -> to at the given layer, pruning the
// neighbor list down to the maxConn nearest when it overflows its cap.
func (h *HNSW) connect(from, to string, layer, maxConn int) {
	node := h.nodes[from]
	if layer >= len(node.neighbors) {
		return
	}
	for _, nid := range node.neighbors[layer] {
		if nid == to {
			return
		}
	}
	node.neighbors[layer] = append(node.neighbors[layer], to)

	if len(node.neighbors[layer]) <= maxConn {
		return
	}

	type distPair struct {
		id   string
		dist float64
	}
	pairs := make([]distPair, len(node.neighbors[layer]))
	for i, nid := range node.neighbors[layer] {
		pairs[i] = distPair{id: nid, dist: vec.CosineDistance(node.vector, h.nodes[nid].vector)}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].dist < pairs[j].dist })

	kept := make([]string, maxConn)
	keptSet := make(map[string]struct{}, maxConn)
	for i := 0; i < maxConn; i++ {
		kept[i] = pairs[i].id
		keptSet[pairs[i].id] = struct{}{}
	}

	// Dropped edges lose their reverse direction too, keeping the graph
	// bidirectional.
	for _, nid := range node.neighbors[layer] {
		if _, ok := keptSet[nid]; !ok {
			h.dropEdge(nid, from, layer)
		}
	}
	node.neighbors[layer] = kept
}

// dropEdge removes to from from's neighbor list at layer.
func (h *HNSW) dropEdge(from, to string, layer int) {
	node, ok := h.nodes[from]
	if !ok || layer >= len(node.neighbors) {
		return
	}
	list := node.neighbors[layer]
	for i, nid := range list {
		if nid == to {
			node.neighbors[layer] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// candidate pairs an id with its distance to the current query.
type candidate struct {
	id   string
	dist float64
}

// searchLayer returns up to ef nearest neighbors of query on a single
// layer, seeded from the entry set, sorted by distance ascending.
func (h *HNSW) searchLayer(query []float32, entries []candidate, ef, layer int) []candidate {
	visited := make(map[string]struct{}, ef*4)

	candidates := &minDistHeap{}
	found := &maxDistHeap{}

	for _, e := range entries {
		if _, ok := visited[e.id]; ok {
			continue
		}
		visited[e.id] = struct{}{}
		heap.Push(candidates, e)
		heap.Push(found, e)
	}
	for found.Len() > ef {
		heap.Pop(found)
	}

	for candidates.Len() > 0 {
		closest := heap.Pop(candidates).(candidate)

		if found.Len() >= ef && closest.dist > (*found)[0].dist {
			break
		}

		node := h.nodes[closest.id]
		if layer >= len(node.neighbors) {
			continue
		}

		for _, nid := range node.neighbors[layer] {
			if _, ok := visited[nid]; ok {
				continue
			}
			visited[nid] = struct{}{}

			dist := vec.CosineDistance(query, h.nodes[nid].vector)
			if found.Len() < ef || dist < (*found)[0].dist {
				heap.Push(candidates, candidate{id: nid, dist: dist})
				heap.Push(found, candidate{id: nid, dist: dist})
				if found.Len() > ef {
					heap.Pop(found)
				}
			}
		}
	}

	result := make([]candidate, found.Len())
	for i := found.Len() - 1; i >= 0; i-- {
		result[i] = heap.Pop(found).(candidate)
	}
	return result
}

// Search returns the k nearest neighbors of query as (id, score) with
// score = 1 - cosine distance, sorted by score descending. The beam on
// layer 0 is max(ef, k). An empty graph yields an empty result.
func (h *HNSW) Search(query []float32, k, ef int) []Result {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.nodes) == 0 || k <= 0 {
		return []Result{}
	}

	eps := []candidate{{
		id:   h.entryPoint,
		dist: vec.CosineDistance(query, h.nodes[h.entryPoint].vector),
	}}

	for l := h.maxLayer; l > 0; l-- {
		eps = h.searchLayer(query, eps, 1, l)
	}

	beam := ef
	if k > beam {
		beam = k
	}
	candidates := h.searchLayer(query, eps, beam, 0)

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	results := make([]Result, len(candidates))
	for i, c := range candidates {
		results[i] = Result{ID: c.id, Score: 1.0 - c.dist}
	}
	return results
}

// Delete removes id from the graph, stripping its edges from every
// neighbor. Returns false when the id is absent. If the entry point is
// removed, the surviving node of highest level becomes the new entry
// point (ties broken by smallest id, which is deterministic). Deletion
// does not repair navigability around the removed node; the remaining
// bidirectional edges preserve the small-world structure.
func (h *HNSW) Delete(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	node, exists := h.nodes[id]
	if !exists {
		return false
	}

	for l := 0; l <= node.level; l++ {
		for _, nid := range node.neighbors[l] {
			h.dropEdge(nid, id, l)
		}
	}
	delete(h.nodes, id)

	if h.entryPoint == id {
		h.entryPoint = ""
		h.maxLayer = 0
		best := -1
		for nid, n := range h.nodes {
			if n.level > best || (n.level == best && nid < h.entryPoint) {
				best = n.level
				h.entryPoint = nid
			}
		}
		if best >= 0 {
			h.maxLayer = best
		}
	}

	return true
}

// Contains reports whether id is indexed.
func (h *HNSW) Contains(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.nodes[id]
	return ok
}

// Len returns the number of indexed vectors.
func (h *HNSW) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.nodes)
}

// Clear drops every node and resets the entry point.
func (h *HNSW) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nodes = make(map[string]*hnswNode)
	h.entryPoint = ""
	h.maxLayer = 0
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// minDistHeap pops the closest candidate first.
type minDistHeap []candidate

func (q minDistHeap) Len() int            { return len(q) }
func (q minDistHeap) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q minDistHeap) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *minDistHeap) Push(x interface{}) { *q = append(*q, x.(candidate)) }
func (q *minDistHeap) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// maxDistHeap keeps the farthest candidate on top so the working set can
// be trimmed to ef.
type maxDistHeap []candidate

func (q maxDistHeap) Len() int            { return len(q) }
func (q maxDistHeap) Less(i, j int) bool  { return q[i].dist > q[j].dist }
func (q maxDistHeap) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *maxDistHeap) Push(x interface{}) { *q = append(*q, x.(candidate)) }
func (q *maxDistHeap) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
