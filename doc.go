// Package mysse provides an in-memory semantic search engine: a
// process-resident index over text documents that answers top-K
// similarity queries against dense vector embeddings, optionally fused
// with sparse keyword ranking.
//
// # Key Features
//
//   - Dense retrieval over unit-norm 384-dimensional embeddings, with
//     an adaptive switch between exact brute-force scanning and an HNSW
//     graph once the store grows past a threshold.
//   - A BM25 inverted-index companion fused with the dense ranking via
//     Reciprocal Rank Fusion (the hybrid search power).
//   - "Powers": plain records of optional hooks around add, search,
//     delete, and clear, including a pluggable embedder with
//     last-writer-wins resolution.
//   - A JSON-serializable export sequence for moving an index between
//     processes.
//
// # Quick Start
//
//	eng := mysse.New()
//	_ = eng.Add(ctx, []mysse.Document{
//	    {ID: "1", Content: "How to reset your password"},
//	    {ID: "2", Content: "Changing your account email address"},
//	})
//	results, _ := eng.Search(ctx, "forgot my login credentials", 3)
//
// # Powers
//
// Powers extend the engine without subclassing; each is a record of
// optional callbacks registered with Use and removed with Eject:
//
//	_ = eng.Use(powers.NewHybridSearch(powers.HybridOptions{Alpha: 0.5}))
//	_ = eng.Use(powers.NewQueryCache(100, time.Minute))
//	_ = eng.Use(powers.NewMetadataFilter(func(meta map[string]any) bool {
//	    return meta["published"] == true
//	}))
//
// One engine per process is usually enough; Default returns a shared
// instance. Independent engines are fully supported and tests use
// ResetDefault to start from a clean slate.
package mysse
