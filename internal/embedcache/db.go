package embedcache

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kbrag/kbrag/internal/ai"
	"github.com/kbrag/kbrag/internal/model"
)

// CacheStore is the durable tier underneath the DB wrapper. The Postgres
// embedding cache repo satisfies it.
type CacheStore interface {
	Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error)
	Save(ctx context.Context, item *model.EmbeddingCache) error
}

// WrapDB puts the durable Postgres cache tier behind an embedder. Cache
// write failures are logged and swallowed; the embedding itself still flows.
// Wrap only real model output: a chain whose failures degrade to a synthetic
// fallback must keep the fallback outside this wrapper, or outage-time
// vectors get persisted under the real model's key.
func WrapDB(next ai.IEmbedder, store CacheStore) ai.IEmbedder {
	if next == nil || store == nil {
		return next
	}
	return &dbEmbedder{next: next, store: store}
}

type dbEmbedder struct {
	next  ai.IEmbedder
	store CacheStore
}

func (d *dbEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	_, contentHash := buildCacheKey(d.next.ModelName(), taskType, text)

	values, ok, err := d.store.Get(ctx, d.next.ModelName(), taskType, contentHash)
	if err != nil {
		logutil.GetLogger(ctx).Warn("embedding cache lookup failed", zap.Error(err))
	} else if ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit (db)", zap.String("task_type", taskType))
		return values, nil
	}

	res, err := d.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if err := d.store.Save(ctx, &model.EmbeddingCache{
		ModelName:   d.next.ModelName(),
		TaskType:    taskType,
		ContentHash: contentHash,
		Embedding:   res,
		Ctime:       time.Now().Unix(),
	}); err != nil {
		logutil.GetLogger(ctx).Warn("failed to cache embedding", zap.Error(err))
	}
	return res, nil
}

func (d *dbEmbedder) ModelName() string {
	return d.next.ModelName()
}
