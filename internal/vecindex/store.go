package vecindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	indexFileName = "index.bin"
	metaFileName  = "meta.json"
)

// DefaultDim keeps the local fallback embedding dimensionally stable before
// any remote embedding has been observed.
const DefaultDim = 1536

var ErrNoIndex = errors.New("vector index not initialized")

// Meta records what dimension and model the persisted index was built with.
// It is the single source of truth consulted on every load and by the local
// fallback embedder.
type Meta struct {
	EmbeddingDim   int    `json:"embedding_dim"`
	EmbeddingModel string `json:"embedding_model"`
}

// Store owns the on-disk index artifacts and hands out the single shared
// Index instance.
type Store struct {
	mu    sync.Mutex
	dir   string
	index *Index
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Get returns the index, loading or creating it at the given dimension on
// first use. A cached index of a different dimension is a hard mismatch.
func (s *Store) Get(dim int) (*Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		if s.index.Dim() != dim {
			return nil, &DimensionMismatchError{Expected: dim, Actual: s.index.Dim()}
		}
		return s.index, nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	idx, err := LoadOrCreate(filepath.Join(s.dir, indexFileName), dim)
	if err != nil {
		return nil, err
	}
	s.index = idx
	return idx, nil
}

// Current returns the index at its persisted dimension, or ErrNoIndex when
// nothing has ever been ingested.
func (s *Store) Current() (*Index, error) {
	meta, err := s.Meta()
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, ErrNoIndex
	}
	return s.Get(meta.EmbeddingDim)
}

// Meta reads the persisted index metadata; a missing file yields (nil, nil).
func (s *Store) Meta() (*Meta, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, metaFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index meta: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode index meta: %w", err)
	}
	if meta.EmbeddingDim <= 0 {
		return nil, fmt.Errorf("index meta has invalid dimension %d", meta.EmbeddingDim)
	}
	return &meta, nil
}

func (s *Store) SaveMeta(meta *Meta) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, metaFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write index meta: %w", err)
	}
	return os.Rename(tmp, path)
}

// EmbeddingDim returns the persisted dimension, or DefaultDim when no index
// exists yet.
func (s *Store) EmbeddingDim() int {
	meta, err := s.Meta()
	if err != nil || meta == nil {
		return DefaultDim
	}
	return meta.EmbeddingDim
}
