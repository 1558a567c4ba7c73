package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeCacheStore struct {
	cutoff  int64
	deleted int64
	err     error
	calls   int
}

func (f *fakeCacheStore) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestCleanupCutoffIsUnixSeconds(t *testing.T) {
	store := &fakeCacheStore{deleted: 3}
	j := NewEmbeddingCacheCleanupJob(store, 30)

	require.NoError(t, j.Run(context.Background()))
	require.Equal(t, 1, store.calls)

	// cutoff must sit 30 days back on the same second-resolution clock the
	// cache rows are written with; a millisecond cutoff would be ~1000x
	// larger and match every row
	want := time.Now().Add(-30 * 24 * time.Hour).Unix()
	require.InDelta(t, want, store.cutoff, 5)

	fresh := time.Now().Unix()
	require.Less(t, store.cutoff, fresh)
}

func TestCleanupPropagatesStoreError(t *testing.T) {
	store := &fakeCacheStore{err: context.DeadlineExceeded}
	j := NewEmbeddingCacheCleanupJob(store, 7)

	require.ErrorIs(t, j.Run(context.Background()), context.DeadlineExceeded)
}
