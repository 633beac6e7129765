// Package embed provides the built-in text embedder: a deterministic
// feature-hashing encoder producing unit-norm vectors. It is a toy
// stand-in for a real embedding model and exists so the engine works out
// of the box; production deployments swap it out through a power with an
// embed capability.
package embed

import (
	"context"
	"hash/fnv"

	"github.com/thewizster/mysse/pkg/sparse"
	"github.com/thewizster/mysse/pkg/vec"
)

// DefaultDimensions is the embedding width the engine expects.
const DefaultDimensions = 384

// Hash is a deterministic hashing embedder. Each token (and each
// consecutive token bigram, at half weight) is hashed into one of the
// output dimensions with a hash-derived sign; the result is normalized
// to unit length. Identical text always produces the identical vector.
type Hash struct {
	dims int
}

// NewHash creates a hashing embedder. Non-positive dims falls back to
// DefaultDimensions.
func NewHash(dims int) *Hash {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Hash{dims: dims}
}

// Dimensions returns the embedding width.
func (h *Hash) Dimensions() int {
	return h.dims
}

// Embed encodes a single text into a unit-norm vector.
func (h *Hash) Embed(_ context.Context, text string) ([]float32, error) {
	out := make([]float32, h.dims)

	tokens := sparse.Tokenize(text)
	for i, tok := range tokens {
		h.accumulate(out, tok, 1.0)
		if i > 0 {
			h.accumulate(out, tokens[i-1]+" "+tok, 0.5)
		}
	}

	if vec.SquaredNorm(out) == 0 {
		// Text with no tokens still needs a direction.
		out[0] = 1
		return out, nil
	}
	return vec.Normalize(out), nil
}

// EmbedBatch encodes several texts.
func (h *Hash) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := h.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (h *Hash) accumulate(out []float32, feature string, weight float32) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()

	idx := int(sum % uint64(h.dims))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	out[idx] += weight
}
