// Package index provides vector indexing implementations: an exact
// brute-force index and an HNSW graph for approximate nearest-neighbor
// search. Both operate on unit-norm vectors and rank by cosine similarity.
package index

import "errors"

// Common index errors.
var (
	// ErrDimensionMismatch is returned when a vector's length does not
	// match the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrDuplicateID is returned when inserting an id that already exists.
	ErrDuplicateID = errors.New("id already exists in index")
)

// Result is a single ranked match.
type Result struct {
	ID    string
	Score float64
}
