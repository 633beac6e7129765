package powers

import (
	"context"
	"sort"

	"github.com/thewizster/mysse/pkg/engine"
	"github.com/thewizster/mysse/pkg/sparse"
)

// HybridSearchName is the registry name of the hybrid search power.
const HybridSearchName = "hybrid-search"

// rrfK is the Reciprocal Rank Fusion constant (Cormack et al. 2009).
const rrfK = 60.0

// HybridOptions configures the hybrid search power.
type HybridOptions struct {
	// Alpha weights the semantic ranking in [0, 1]; the keyword ranking
	// gets 1-alpha. Negative values fall back to the default 0.5.
	Alpha float64

	// K1 and B are the BM25 parameters; non-positive values fall back
	// to 1.5 and 0.75.
	K1 float64
	B  float64
}

// hybridDoc is the power's own copy of a document, captured in afterAdd
// and used to hydrate keyword-only hits.
type hybridDoc struct {
	content  string
	metadata map[string]any
}

// NewHybridSearch creates a power that fuses the engine's semantic
// ranking with a BM25 keyword ranking using Reciprocal Rank Fusion.
// The power maintains its own inverted index: afterAdd indexes
// documents, onDelete removes one, onClear resets everything, and
// afterSearch performs the fusion and returns the top topK.
func NewHybridSearch(opts HybridOptions) *engine.Power {
	alpha := opts.Alpha
	if alpha < 0 {
		alpha = 0.5
	}
	if alpha > 1 {
		alpha = 1
	}

	keyword := sparse.NewBM25(opts.K1, opts.B)
	docs := make(map[string]hybridDoc)

	return &engine.Power{
		Name: HybridSearchName,
		AfterAdd: func(_ context.Context, added []engine.Document) error {
			for _, d := range added {
				keyword.Add(d.ID, d.Content)
				docs[d.ID] = hybridDoc{content: d.Content, metadata: d.Metadata}
			}
			return nil
		},
		OnDelete: func(id string) {
			keyword.Remove(id)
			delete(docs, id)
		},
		OnClear: func() {
			keyword.Clear()
			docs = make(map[string]hybridDoc)
		},
		AfterSearch: func(_ context.Context, sc *engine.SearchContext, results []engine.Result) ([]engine.Result, error) {
			return fuse(sc, results, keyword, docs, alpha), nil
		},
	}
}

// fuse combines the semantic result list with a BM25 ranking for the
// same query: fused(id) = alpha/(k+rank_sem) + (1-alpha)/(k+rank_kw),
// ranks starting at 1 on each list. With alpha=1 the fused order of the
// semantic hits equals the semantic order by construction; with alpha=0
// an exact keyword match outranks every semantic-only hit.
func fuse(sc *engine.SearchContext, semantic []engine.Result, keyword *sparse.BM25, docs map[string]hybridDoc, alpha float64) []engine.Result {
	topK := sc.TopK
	if topK <= 0 {
		topK = len(semantic)
	}

	candidateK := topK
	if candidateK < 10 {
		candidateK = 10
	}
	candidateK *= 3

	keywordHits := keyword.Search(sc.Query, candidateK)

	semRank := make(map[string]int, len(semantic))
	semHit := make(map[string]engine.Result, len(semantic))
	for i, r := range semantic {
		semRank[r.ID] = i + 1
		semHit[r.ID] = r
	}
	kwRank := make(map[string]int, len(keywordHits))
	for i, r := range keywordHits {
		kwRank[r.ID] = i + 1
	}

	type fused struct {
		id    string
		score float64
	}
	union := make([]fused, 0, len(semRank)+len(kwRank))
	seen := make(map[string]struct{}, len(semRank)+len(kwRank))

	collect := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		var score float64
		if rank, ok := semRank[id]; ok {
			score += alpha / (rrfK + float64(rank))
		}
		if rank, ok := kwRank[id]; ok {
			score += (1 - alpha) / (rrfK + float64(rank))
		}
		union = append(union, fused{id: id, score: score})
	}
	for _, r := range semantic {
		collect(r.ID)
	}
	for _, r := range keywordHits {
		collect(r.ID)
	}

	sort.SliceStable(union, func(i, j int) bool { return union[i].score > union[j].score })
	if len(union) > topK {
		union = union[:topK]
	}

	out := make([]engine.Result, 0, len(union))
	for _, f := range union {
		if hit, ok := semHit[f.id]; ok {
			hit.Score = f.score
			out = append(out, hit)
			continue
		}
		// Keyword-only hit: hydrate from the copy captured in afterAdd.
		d, ok := docs[f.id]
		if !ok {
			continue
		}
		out = append(out, engine.Result{ID: f.id, Content: d.content, Metadata: d.metadata, Score: f.score})
	}
	return out
}
