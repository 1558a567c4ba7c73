// Package job holds the scheduled maintenance tasks.
package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type embeddingCacheStore interface {
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
}

// EmbeddingCacheCleanupJob drops persisted embeddings older than the
// configured age so stale model output does not accumulate forever.
// Cache rows carry unix-second ctimes, so the cutoff must be seconds too.
type EmbeddingCacheCleanupJob struct {
	cache  embeddingCacheStore
	maxAge time.Duration
}

func NewEmbeddingCacheCleanupJob(cache embeddingCacheStore, maxAgeDays int) *EmbeddingCacheCleanupJob {
	return &EmbeddingCacheCleanupJob{
		cache:  cache,
		maxAge: time.Duration(maxAgeDays) * 24 * time.Hour,
	}
}

func (j *EmbeddingCacheCleanupJob) Name() string {
	return "embedding_cache_cleanup"
}

func (j *EmbeddingCacheCleanupJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.maxAge).Unix()
	deleted, err := j.cache.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("embedding cache cleaned",
		zap.Int64("deleted", deleted),
		zap.Int64("cutoff", cutoff),
	)
	return nil
}
