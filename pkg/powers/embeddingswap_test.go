package powers

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thewizster/mysse/pkg/engine"
)

func TestEmbeddingSwapOverridesDefault(t *testing.T) {
	ctx := context.Background()
	eng := engine.New()

	var calls int64
	require.NoError(t, eng.Use(NewEmbeddingSwap(countingEmbedder(&calls))))

	require.NoError(t, eng.Add(ctx, []engine.Document{{ID: "1", Content: "swap me"}}))
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "registered embedder must handle the add batch")

	_, err := eng.Search(ctx, "swap", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls), "registered embedder must handle the query")
}

func TestEmbeddingSwapLastWriterWins(t *testing.T) {
	ctx := context.Background()
	eng := engine.New()

	var first, second int64
	require.NoError(t, eng.Use(NewEmbeddingSwap(countingEmbedder(&first))))

	// Same constructor twice collides on the fixed name.
	err := eng.Use(NewEmbeddingSwap(countingEmbedder(&second)))
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrDuplicatePower)

	// A named swap registers cleanly and wins.
	require.NoError(t, eng.Use(NewNamedEmbeddingSwap("embedding-swap-v2", countingEmbedder(&second))))

	require.NoError(t, eng.Add(ctx, []engine.Document{{ID: "1", Content: "text"}}))
	assert.Zero(t, atomic.LoadInt64(&first))
	assert.Equal(t, int64(1), atomic.LoadInt64(&second))
}
