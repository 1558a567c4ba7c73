// Package vecindex implements a flat inner-product similarity index over
// unit-length vectors, persisted as a single binary artifact. Stored and
// queried vectors are L2-normalized, so inner product equals cosine
// similarity. Row ids are assigned sequentially at insertion time and never
// reused.
package vecindex

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
)

const (
	indexMagic   uint32 = 0x4B425649 // "KBVI"
	indexVersion uint32 = 1
)

// Sentinel fills search result slots when the index holds fewer rows than
// requested. Callers must filter it out; its score slot is meaningless.
const Sentinel int64 = -1

type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector index dimension %d does not match expected %d: delete the index files and re-ingest documents", e.Actual, e.Expected)
}

type ShapeError struct {
	Dim int
	Got int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("expected vectors of dimension %d, got %d", e.Dim, e.Got)
}

// Index is a single shared mutable resource: Add and Save take the write
// lock, Search and Count the read lock.
type Index struct {
	mu      sync.RWMutex
	dim     int
	path    string
	vectors [][]float32
}

// LoadOrCreate opens the index persisted at path, validating that its
// declared dimension equals dim, or returns a new empty index when no file
// exists yet.
func LoadOrCreate(path string, dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dim)
	}
	idx := &Index{dim: dim, path: path}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic, version, fileDim uint32
	var count uint64
	for _, field := range []interface{}{&magic, &version, &fileDim, &count} {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return nil, fmt.Errorf("read index header: %w", err)
		}
	}
	if magic != indexMagic {
		return nil, fmt.Errorf("not a vector index file: %s", path)
	}
	if version != indexVersion {
		return nil, fmt.Errorf("unsupported index version %d", version)
	}
	if int(fileDim) != dim {
		return nil, &DimensionMismatchError{Expected: dim, Actual: int(fileDim)}
	}

	idx.vectors = make([][]float32, 0, count)
	for i := uint64(0); i < count; i++ {
		row := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return nil, fmt.Errorf("read index row %d: %w", i, err)
		}
		idx.vectors = append(idx.vectors, row)
	}
	return idx, nil
}

func (ix *Index) Dim() int {
	return ix.dim
}

func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

// Add normalizes each vector to unit length in place and appends it to the
// index. The returned row ids are sequential and contiguous, starting at the
// prior row count. Nothing is written to disk until Save.
func (ix *Index) Add(vectors [][]float32) ([]int64, error) {
	for _, v := range vectors {
		if len(v) != ix.dim {
			return nil, &ShapeError{Dim: ix.dim, Got: len(v)}
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	start := int64(len(ix.vectors))
	ids := make([]int64, 0, len(vectors))
	for i, v := range vectors {
		normalize(v)
		ix.vectors = append(ix.vectors, v)
		ids = append(ids, start+int64(i))
	}
	return ids, nil
}

// Search returns exactly topK slots ordered by descending similarity. When
// the index holds fewer rows than topK, the remaining slots carry the
// Sentinel row id and a zero score.
func (ix *Index) Search(query []float32, topK int) ([]int64, []float32, error) {
	if len(query) != ix.dim {
		return nil, nil, &ShapeError{Dim: ix.dim, Got: len(query)}
	}
	if topK <= 0 {
		return nil, nil, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalize(q)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	scores := make([]float32, len(ix.vectors))
	order := make([]int, len(ix.vectors))
	for i, v := range ix.vectors {
		scores[i] = dot(q, v)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	ids := make([]int64, topK)
	out := make([]float32, topK)
	for i := 0; i < topK; i++ {
		if i < len(order) {
			ids[i] = int64(order[i])
			out[i] = scores[order[i]]
			continue
		}
		ids[i] = Sentinel
		out[i] = 0
	}
	return ids, out, nil
}

// Save writes the whole index to its path, replacing any prior artifact.
// The write goes to a temp file first and is swapped in with a rename.
func (ix *Index) Save() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	tmp := ix.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create index temp file: %w", err)
	}

	w := bufio.NewWriter(f)
	header := []interface{}{indexMagic, indexVersion, uint32(ix.dim), uint64(len(ix.vectors))}
	for _, field := range header {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("write index header: %w", err)
		}
	}
	for i, row := range ix.vectors {
		if err := binary.Write(w, binary.LittleEndian, row); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("write index row %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flush index: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync index: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, ix.path)
}

// normalize scales v to unit length in place. Zero vectors stay zero.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

func dot(a, b []float32) float32 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}
