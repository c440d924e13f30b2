package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/memomap/backend/pkg/logger"
)

func TestEnsureBucket(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	ok, err := store.BucketExists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, EnsureBucket(ctx, store, logger.Discard()))
	ok, err = store.BucketExists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// second call is a no-op
	require.NoError(t, EnsureBucket(ctx, store, logger.Discard()))
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "a.png", []byte{1, 2, 3}, "image/png"))
	data, ct, err := store.Get(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.Equal(t, "image/png", ct)

	require.NoError(t, store.Delete(ctx, "a.png"))
	_, _, err = store.Get(ctx, "a.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "a.png"), ErrObjectNotFound)
}
