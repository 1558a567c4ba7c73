// Package embedcache layers caching on top of an embedder: an in-process
// expirable LRU in front of a durable Postgres tier. Keys hash the model,
// task type and text together so chains and task variants never collide.
package embedcache

import (
	"crypto/sha256"
	"encoding/hex"
)

func buildCacheKey(modelName, taskType, text string) (key string, contentHash string) {
	sum := sha256.Sum256([]byte(text))
	contentHash = hex.EncodeToString(sum[:])
	key = modelName + "|" + taskType + "|" + contentHash
	return key, contentHash
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
