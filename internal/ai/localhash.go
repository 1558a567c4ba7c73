package ai

import (
	"context"
	"crypto/sha256"
	"math"
)

// DimFunc reports the target dimensionality at call time, so the fallback
// tracks whatever dimension the persisted index was built with.
type DimFunc func() int

// localHashEmbedder derives a deterministic embedding from a sha256 digest
// of the text, tiled to the target dimension and unit-normalized. The result
// is semantically inert but dimensionally valid: indexing and search stay
// mechanically functional when no remote embedding capability is reachable.
type localHashEmbedder struct {
	dim DimFunc
}

// NewLocalEmbedder builds the deterministic fallback embedder. It is wired
// directly as the tail of the embed chain rather than through the provider
// registry, because its dimension comes from the index metadata, not from
// configuration.
func NewLocalEmbedder(dim DimFunc) IEmbedder {
	return &localHashEmbedder{dim: dim}
}

func (e *localHashEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	_ = ctx
	_ = taskType
	dim := e.dim()
	if dim <= 0 {
		dim = 1536
	}

	digest := sha256.Sum256([]byte(text))
	vec := make([]float32, dim)
	var sum float64
	for i := 0; i < dim; i++ {
		v := float32(digest[i%len(digest)])
		vec[i] = v
		sum += float64(v) * float64(v)
	}
	if sum > 0 {
		inv := 1 / math.Sqrt(sum)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) * inv)
		}
	}
	return vec, nil
}

func (e *localHashEmbedder) ModelName() string {
	return "local-hash"
}
