package mysse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacadeQuickStart(t *testing.T) {
	ctx := context.Background()
	eng := New()

	require.NoError(t, eng.Add(ctx, []Document{
		{ID: "1", Content: "How to reset your password"},
		{ID: "2", Content: "Changing your account email address"},
	}))

	results, err := eng.Search(ctx, "reset password", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].ID)
}

func TestDefaultEngineSingleton(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)

	a := Default()
	b := Default()
	assert.Same(t, a, b, "Default must return the shared instance")

	require.NoError(t, a.Add(context.Background(), []Document{{ID: "x", Content: "shared state"}}))
	assert.Equal(t, 1, b.Size())

	ResetDefault()
	assert.NotSame(t, a, Default(), "ResetDefault must discard the shared instance")
	assert.Equal(t, 0, Default().Size())
}
