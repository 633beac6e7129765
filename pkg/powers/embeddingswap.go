package powers

import (
	"github.com/thewizster/mysse/pkg/engine"
)

// EmbeddingSwapName is the default registry name of the embedding swap
// power.
const EmbeddingSwapName = "embedding-swap"

// NewEmbeddingSwap wraps a caller-supplied embedding function as a
// power with an embed capability under the default name. The embedder
// must return one unit-norm vector per input text. When several powers
// define embed, the most recently registered one wins; registering two
// swaps therefore requires distinct names (see NewNamedEmbeddingSwap).
func NewEmbeddingSwap(fn engine.EmbedFunc) *engine.Power {
	return NewNamedEmbeddingSwap(EmbeddingSwapName, fn)
}

// NewNamedEmbeddingSwap is NewEmbeddingSwap with an explicit registry
// name, for stacking multiple embedding overrides.
func NewNamedEmbeddingSwap(name string, fn engine.EmbedFunc) *engine.Power {
	return &engine.Power{
		Name:  name,
		Embed: fn,
	}
}
