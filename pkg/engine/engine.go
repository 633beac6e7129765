// Package engine implements the retrieval coordinator of the semantic
// search engine: an in-memory document store, adaptive routing between
// exact brute-force search and an HNSW graph, export/import of the full
// state, and the powers pipeline that hooks into every operation.
//
// All public operations are atomic with respect to one another; a
// single reader/writer lock protects the full engine. Power hooks run
// under that lock and must not call back into the engine.
package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/thewizster/mysse/pkg/embed"
	"github.com/thewizster/mysse/pkg/index"
)

// Engine is the in-memory semantic search engine. Construct one with
// New; the zero value is not usable.
type Engine struct {
	mu sync.RWMutex

	cfg      config
	log      Logger
	embedder Embedder

	docs  map[string]*storedDoc
	order []string // insertion order; drives export order and tie-breaks

	ann  *index.HNSW
	flat *index.Flat

	powers []*Power

	annSearches   uint64
	exactSearches uint64
}

// New creates an engine. Without options it indexes 384-dimensional
// vectors from the built-in hashing embedder, keeps an HNSW graph
// (M=16, efConstruction=40, efSearch=64), and routes searches to it
// once the store exceeds 2000 documents.
func New(opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.embedder == nil {
		cfg.embedder = embed.NewHash(cfg.dimensions)
	}
	cfg.dimensions = cfg.embedder.Dimensions()

	return &Engine{
		cfg:      cfg,
		log:      cfg.logger,
		embedder: cfg.embedder,
		docs:     make(map[string]*storedDoc),
		ann:      index.NewHNSW(cfg.dimensions, cfg.m, cfg.efConstruction, cfg.seed),
		flat:     index.NewFlat(cfg.dimensions),
	}
}

// Add indexes a batch of documents: beforeAdd hooks, one embedder call
// for the whole batch, store + index writes in input order, then
// afterAdd hooks. A document with an empty id is assigned a UUID. An
// existing id is overwritten (the old vector leaves the indexes) and
// keeps its original position in insertion order.
func (e *Engine) Add(ctx context.Context, docs []Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	for _, p := range e.powers {
		if p.BeforeAdd != nil {
			if docs, err = p.BeforeAdd(ctx, docs); err != nil {
				return wrapError("add", err)
			}
		}
	}
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := e.embedBatch(ctx, texts)
	if err != nil {
		return wrapError("add", err)
	}
	if len(vectors) != len(docs) {
		return wrapError("add", ErrEmbedderMismatch)
	}

	final := make([]Document, 0, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		if err := e.insertLocked(doc, vectors[i]); err != nil {
			return wrapError("add", err)
		}
		final = append(final, doc)
	}

	for _, p := range e.powers {
		if p.AfterAdd != nil {
			if err := p.AfterAdd(ctx, final); err != nil {
				return wrapError("add", err)
			}
		}
	}

	e.log.Debug("documents added", "count", len(final), "size", len(e.docs))
	return nil
}

// insertLocked writes one document and its vector into the store and
// both indexes. Caller holds the lock.
func (e *Engine) insertLocked(doc Document, vector []float32) error {
	if len(vector) != e.cfg.dimensions {
		return ErrDimensionMismatch
	}

	if _, exists := e.docs[doc.ID]; exists {
		if e.cfg.useANN {
			e.ann.Delete(doc.ID)
		}
	} else {
		e.order = append(e.order, doc.ID)
	}

	e.docs[doc.ID] = &storedDoc{content: doc.Content, metadata: doc.Metadata, vector: vector}
	if err := e.flat.Insert(doc.ID, vector); err != nil {
		return err
	}
	if e.cfg.useANN {
		return e.ann.Insert(doc.ID, vector)
	}
	return nil
}

// Search embeds the query and returns the topK most similar documents,
// scores descending. A non-positive topK defaults to 10. The
// beforeSearch chain runs first and may short-circuit with its own
// results; the afterSearch chain re-ranks or filters the list last.
func (e *Engine) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sc := &SearchContext{Query: query, TopK: topK}
	for _, p := range e.powers {
		if p.BeforeSearch != nil {
			if err := p.BeforeSearch(ctx, sc); err != nil {
				return nil, wrapError("search", err)
			}
			if sc.ShortCircuit {
				e.log.Debug("search short-circuited", "query", sc.Query, "power", p.Name)
				return sc.Results, nil
			}
		}
	}

	vectors, err := e.embedBatch(ctx, []string{sc.Query})
	if err != nil {
		return nil, wrapError("search", err)
	}
	queryVec := vectors[0]
	if len(queryVec) != e.cfg.dimensions {
		return nil, wrapError("search", ErrDimensionMismatch)
	}

	var hits []index.Result
	if e.cfg.useANN && len(e.docs) > e.cfg.annThreshold {
		ef := e.cfg.efSearch
		if sc.TopK > ef {
			ef = sc.TopK
		}
		hits = e.ann.Search(queryVec, sc.TopK, ef)
		e.annSearches++
	} else {
		hits = e.flat.Search(queryVec, sc.TopK)
		e.exactSearches++
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		d := e.docs[h.ID]
		results = append(results, Result{ID: h.ID, Content: d.content, Metadata: d.metadata, Score: h.Score})
	}

	for _, p := range e.powers {
		if p.AfterSearch != nil {
			if results, err = p.AfterSearch(ctx, sc, results); err != nil {
				return nil, wrapError("search", err)
			}
		}
	}
	return results, nil
}

// Delete removes a document from the store and both indexes, then
// fires onDelete hooks. Returns false when the id is absent (and no
// hooks fire).
func (e *Engine) Delete(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.docs[id]; !exists {
		return false
	}

	delete(e.docs, id)
	for i, v := range e.order {
		if v == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.flat.Delete(id)
	if e.cfg.useANN {
		e.ann.Delete(id)
	}

	for _, p := range e.powers {
		if p.OnDelete != nil {
			p.OnDelete(id)
		}
	}
	e.log.Debug("document deleted", "id", id, "size", len(e.docs))
	return true
}

// Clear wipes the store and indexes, then fires onClear hooks.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearLocked()
	e.log.Debug("engine cleared")
}

func (e *Engine) clearLocked() {
	e.docs = make(map[string]*storedDoc)
	e.order = nil
	e.flat.Clear()
	e.ann.Clear()
	for _, p := range e.powers {
		if p.OnClear != nil {
			p.OnClear()
		}
	}
}

// Size returns the number of stored documents.
func (e *Engine) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docs)
}

// Get returns the document stored under id.
func (e *Engine) Get(id string) (Document, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	d, ok := e.docs[id]
	if !ok {
		return Document{}, false
	}
	return Document{ID: id, Content: d.content, Metadata: d.metadata}, true
}

// Export snapshots the engine as an ordered sequence of entries, one
// per document in insertion order, embeddings included.
func (e *Engine) Export() []ExportEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entries := make([]ExportEntry, 0, len(e.order))
	for _, id := range e.order {
		d := e.docs[id]
		embedding := make([]float32, len(d.vector))
		copy(embedding, d.vector)
		entries = append(entries, ExportEntry{
			ID:        id,
			Content:   d.content,
			Metadata:  d.metadata,
			Embedding: embedding,
		})
	}
	return entries
}

// Import replaces the engine state with a snapshot: current state is
// cleared (onClear hooks fire), every entry is written to the store and
// indexes without re-embedding, and afterAdd hooks run once over the
// imported documents so powers rebuild their own state. Imported
// vectors are trusted to be unit-norm.
func (e *Engine) Import(ctx context.Context, entries []ExportEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clearLocked()

	docs := make([]Document, 0, len(entries))
	for _, entry := range entries {
		doc := Document{ID: entry.ID, Content: entry.Content, Metadata: entry.Metadata}
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		if err := e.insertLocked(doc, entry.Embedding); err != nil {
			return wrapError("import", err)
		}
		docs = append(docs, doc)
	}

	for _, p := range e.powers {
		if p.AfterAdd != nil {
			if err := p.AfterAdd(ctx, docs); err != nil {
				return wrapError("import", err)
			}
		}
	}

	e.log.Debug("snapshot imported", "count", len(docs))
	return nil
}

// Stats is a read-only view of the engine's state and search routing.
type Stats struct {
	Size          int      `json:"size"`
	Dimensions    int      `json:"dimensions"`
	ANNEnabled    bool     `json:"ann_enabled"`
	ANNThreshold  int      `json:"ann_threshold"`
	ANNSearches   uint64   `json:"ann_searches"`
	ExactSearches uint64   `json:"exact_searches"`
	Powers        []string `json:"powers"`
}

// Stats reports the current engine statistics.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, len(e.powers))
	for i, p := range e.powers {
		names[i] = p.Name
	}
	return Stats{
		Size:          len(e.docs),
		Dimensions:    e.cfg.dimensions,
		ANNEnabled:    e.cfg.useANN,
		ANNThreshold:  e.cfg.annThreshold,
		ANNSearches:   e.annSearches,
		ExactSearches: e.exactSearches,
		Powers:        names,
	}
}
