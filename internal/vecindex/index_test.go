package vecindex

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, dim int) *Index {
	t.Helper()
	idx, err := LoadOrCreate(filepath.Join(t.TempDir(), "index.bin"), dim)
	require.NoError(t, err)
	return idx
}

func TestAddAssignsSequentialRowIDs(t *testing.T) {
	idx := newTestIndex(t, 3)

	ids, err := idx.Add([][]float32{{1, 0, 0}, {0, 1, 0}})
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1}, ids)

	ids, err = idx.Add([][]float32{{0, 0, 1}, {1, 1, 0}, {1, 0, 1}})
	require.NoError(t, err)
	require.Equal(t, []int64{2, 3, 4}, ids)
	require.Equal(t, 5, idx.Count())
}

func TestAddRejectsWrongShape(t *testing.T) {
	idx := newTestIndex(t, 3)

	_, err := idx.Add([][]float32{{1, 0, 0}, {1, 0}})
	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	require.Equal(t, 3, shapeErr.Dim)
	require.Equal(t, 2, shapeErr.Got)
	// no partial mutation
	require.Equal(t, 0, idx.Count())
}

func TestSearchExactMatchScoresOne(t *testing.T) {
	idx := newTestIndex(t, 4)

	_, err := idx.Add([][]float32{{4, 3, 0, 0}, {0, 0, 1, 2}})
	require.NoError(t, err)

	ids, scores, err := idx.Search([]float32{4, 3, 0, 0}, 1)
	require.NoError(t, err)
	require.Equal(t, []int64{0}, ids)
	require.InDelta(t, 1.0, float64(scores[0]), 1e-5)
}

func TestSearchPadsWithSentinel(t *testing.T) {
	idx := newTestIndex(t, 2)

	_, err := idx.Add([][]float32{{1, 0}, {0, 1}, {1, 1}})
	require.NoError(t, err)

	ids, scores, err := idx.Search([]float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, ids, 5)
	require.Len(t, scores, 5)

	real, sentinels := 0, 0
	for _, id := range ids {
		if id == Sentinel {
			sentinels++
			continue
		}
		real++
	}
	require.Equal(t, 3, real)
	require.Equal(t, 2, sentinels)
	require.Equal(t, Sentinel, ids[3])
	require.Equal(t, Sentinel, ids[4])
}

func TestSearchRanksByDescendingSimilarity(t *testing.T) {
	idx := newTestIndex(t, 2)

	_, err := idx.Add([][]float32{
		{0, 1},          // orthogonal
		{1, 0},          // exact
		{1, 1},          // in between
		{-1, 0},         // opposite
		{0.9, 0.00001},  // near exact
	})
	require.NoError(t, err)

	ids, scores, err := idx.Search([]float32{1, 0}, 5)
	require.NoError(t, err)
	require.Equal(t, int64(1), ids[0])
	for i := 1; i < len(scores); i++ {
		require.LessOrEqual(t, scores[i], scores[i-1])
	}
	require.Equal(t, int64(3), ids[4])
}

func TestZeroVectorStaysZero(t *testing.T) {
	idx := newTestIndex(t, 3)

	zero := []float32{0, 0, 0}
	_, err := idx.Add([][]float32{zero})
	require.NoError(t, err)
	require.Equal(t, []float32{0, 0, 0}, zero)

	ids, scores, err := idx.Search([]float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Equal(t, []int64{0}, ids)
	require.Equal(t, float32(0), scores[0])
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.bin")

	idx, err := LoadOrCreate(path, 3)
	require.NoError(t, err)
	_, err = idx.Add([][]float32{{1, 2, 3}, {3, 2, 1}})
	require.NoError(t, err)
	require.NoError(t, idx.Save())

	reloaded, err := LoadOrCreate(path, 3)
	require.NoError(t, err)
	require.Equal(t, 2, reloaded.Count())

	ids, scores, err := reloaded.Search([]float32{1, 2, 3}, 1)
	require.NoError(t, err)
	require.Equal(t, []int64{0}, ids)
	require.InDelta(t, 1.0, float64(scores[0]), 1e-5)

	// unit length survives the roundtrip
	var norm float64
	for _, x := range reloaded.vectors[0] {
		norm += float64(x) * float64(x)
	}
	require.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestLoadRejectsDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.bin")

	idx, err := LoadOrCreate(path, 8)
	require.NoError(t, err)
	_, err = idx.Add([][]float32{{1, 0, 0, 0, 0, 0, 0, 0}})
	require.NoError(t, err)
	require.NoError(t, idx.Save())

	_, err = LoadOrCreate(path, 16)
	var mismatch *DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, 16, mismatch.Expected)
	require.Equal(t, 8, mismatch.Actual)
}

func TestStoreCurrentRequiresMeta(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Current()
	require.ErrorIs(t, err, ErrNoIndex)
	require.Equal(t, DefaultDim, store.EmbeddingDim())

	require.NoError(t, store.SaveMeta(&Meta{EmbeddingDim: 4, EmbeddingModel: "test-embed"}))
	require.Equal(t, 4, store.EmbeddingDim())

	idx, err := store.Current()
	require.NoError(t, err)
	require.Equal(t, 4, idx.Dim())
	require.Equal(t, 0, idx.Count())
}

func TestStoreGetCachesSingleInstance(t *testing.T) {
	store := NewStore(t.TempDir())

	a, err := store.Get(4)
	require.NoError(t, err)
	b, err := store.Get(4)
	require.NoError(t, err)
	require.Same(t, a, b)

	_, err = store.Get(8)
	var mismatch *DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)
}
