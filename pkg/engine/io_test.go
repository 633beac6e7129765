package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpRestore(t *testing.T) {
	ctx := context.Background()
	eng := New()

	docs := make([]Document, 8)
	for i := range docs {
		docs[i] = Document{
			ID:       fmt.Sprintf("d%d", i),
			Content:  fmt.Sprintf("snapshot document %d", i),
			Metadata: map[string]any{"even": i%2 == 0},
		}
	}
	require.NoError(t, eng.Add(ctx, docs))

	var buf bytes.Buffer
	require.NoError(t, eng.Dump(&buf))

	// The envelope carries version and count alongside the sequence.
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &envelope))
	assert.Equal(t, "1", envelope["version"])
	assert.Equal(t, float64(8), envelope["count"])

	restored := New()
	require.NoError(t, restored.Restore(ctx, bytes.NewReader(buf.Bytes())))
	require.Equal(t, 8, restored.Size())

	a, err := eng.Search(ctx, "snapshot document", 4)
	require.NoError(t, err)
	b, err := restored.Search(ctx, "snapshot document", 4)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRestoreReplacesState(t *testing.T) {
	ctx := context.Background()

	eng := New()
	require.NoError(t, eng.Add(ctx, []Document{{ID: "keep", Content: "exported corpus"}}))

	var buf bytes.Buffer
	require.NoError(t, eng.Dump(&buf))

	other := New()
	require.NoError(t, other.Add(ctx, []Document{{ID: "stale", Content: "pre-existing"}}))
	require.NoError(t, other.Restore(ctx, &buf))

	assert.Equal(t, 1, other.Size())
	_, ok := other.Get("stale")
	assert.False(t, ok, "restore must replace existing state")
	_, ok = other.Get("keep")
	assert.True(t, ok)
}

func TestRestoreInvalidJSON(t *testing.T) {
	eng := New()
	err := eng.Restore(context.Background(), bytes.NewReader([]byte("{not json")))
	require.Error(t, err)
}
