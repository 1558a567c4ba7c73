package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kbrag/kbrag/internal/config"
	"github.com/kbrag/kbrag/internal/model"
	appErr "github.com/kbrag/kbrag/internal/pkg/errors"
	"github.com/kbrag/kbrag/internal/vecindex"
)

type fakeDocStore struct {
	docs    map[string]model.Document
	deleted []string
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: map[string]model.Document{}}
}

func (f *fakeDocStore) Create(ctx context.Context, doc *model.Document) error {
	f.docs[doc.ID] = *doc
	return nil
}

func (f *fakeDocStore) GetByID(ctx context.Context, docID string) (*model.Document, error) {
	doc, ok := f.docs[docID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return &doc, nil
}

func (f *fakeDocStore) ListByIDs(ctx context.Context, ids []string) ([]model.Document, error) {
	out := make([]model.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := f.docs[id]; ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *fakeDocStore) List(ctx context.Context, limit, offset uint) ([]model.Document, error) {
	out := make([]model.Document, 0, len(f.docs))
	for _, doc := range f.docs {
		out = append(out, doc)
	}
	return out, nil
}

func (f *fakeDocStore) Delete(ctx context.Context, docID string) error {
	delete(f.docs, docID)
	f.deleted = append(f.deleted, docID)
	return nil
}

type fakePassageStore struct {
	passages []model.Passage
	reversed bool
}

func (f *fakePassageStore) CreateBatch(ctx context.Context, passages []*model.Passage) error {
	for _, p := range passages {
		f.passages = append(f.passages, *p)
	}
	return nil
}

func (f *fakePassageStore) ListByVectorRowIDs(ctx context.Context, rowIDs []int64) ([]model.Passage, error) {
	wanted := map[int64]struct{}{}
	for _, id := range rowIDs {
		wanted[id] = struct{}{}
	}
	out := make([]model.Passage, 0)
	for _, p := range f.passages {
		if _, ok := wanted[p.VectorRowID]; ok {
			out = append(out, p)
		}
	}
	if f.reversed {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func (f *fakePassageStore) CountByDocumentID(ctx context.Context, docID string) (int, error) {
	count := 0
	for _, p := range f.passages {
		if p.DocumentID == docID {
			count++
		}
	}
	return count, nil
}

func (f *fakePassageStore) DeleteByDocumentID(ctx context.Context, docID string) error {
	kept := f.passages[:0]
	for _, p := range f.passages {
		if p.DocumentID != docID {
			kept = append(kept, p)
		}
	}
	f.passages = kept
	return nil
}

type fixedEmbedder struct {
	vec   []float32
	fail  error
	calls int
}

func (f *fixedEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	out := make([]float32, len(f.vec))
	copy(out, f.vec)
	return out, nil
}

func (f *fixedEmbedder) ModelName() string { return "fixed" }

type scriptedGenerator struct {
	responses []string
	calls     int
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.calls >= len(g.responses) {
		return "", fmt.Errorf("unexpected generator call %d", g.calls)
	}
	res := g.responses[g.calls]
	g.calls++
	return res, nil
}

func defaultLimits() config.LimitsConfig {
	return config.LimitsConfig{MaxTextChars: 60000, MaxChunks: 64, TopKDefault: 6, MaxTopK: 12}
}

// buildIndex persists an index over the given vectors and returns its store.
func buildIndex(t *testing.T, dim int, vectors [][]float32) *vecindex.Store {
	t.Helper()
	store := vecindex.NewStore(t.TempDir())
	index, err := store.Get(dim)
	assert.NoError(t, err)
	if len(vectors) > 0 {
		_, err = index.Add(vectors)
		assert.NoError(t, err)
		assert.NoError(t, index.Save())
	}
	assert.NoError(t, store.SaveMeta(&vecindex.Meta{EmbeddingDim: dim, EmbeddingModel: "fixed"}))
	return store
}

func TestQueryPipeline(t *testing.T) {
	// row 0 matches the query exactly, row 2 is close, row 1 is orthogonal
	store := buildIndex(t, 4, [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0.9, 0.1, 0, 0},
	})
	docs := newFakeDocStore()
	docs.docs["d1"] = model.Document{ID: "d1", Filename: "handbook.pdf"}
	passages := &fakePassageStore{reversed: true, passages: []model.Passage{
		{ID: "p0", DocumentID: "d1", ChunkIndex: 0, Content: "alpha content", VectorRowID: 0},
		{ID: "p1", DocumentID: "d1", ChunkIndex: 1, Content: "beta content", VectorRowID: 1},
		{ID: "p2", DocumentID: "d1", ChunkIndex: 2, Content: "gamma content", VectorRowID: 2},
	}}
	gen := &scriptedGenerator{responses: []string{
		"The answer is alpha [Context #1].",
		`{"confidence": 0.9, "missing_info": [], "reasoning": "fully supported"}`,
	}}
	svc := NewRAGService(docs, passages, store, &fixedEmbedder{vec: []float32{1, 0, 0, 0}}, gen, defaultLimits())

	answer, err := svc.Query(context.Background(), "what is alpha?", 3)
	assert.NoError(t, err)
	assert.Equal(t, "The answer is alpha [Context #1].", answer.Answer)
	assert.Equal(t, 0.9, answer.Confidence)
	// empty slices, not nulls, so the JSON payload always carries arrays
	assert.Equal(t, []string{}, answer.MissingInfo)
	assert.Equal(t, []model.EnrichmentSuggestion{}, answer.EnrichmentSuggestions)
	// no gaps reported, so the enrichment stage never runs
	assert.Equal(t, 2, gen.calls)

	// rank order survives the shuffled passage fetch
	assert.Len(t, answer.Citations, 3)
	assert.Equal(t, "p0", answer.Citations[0].PassageID)
	assert.Equal(t, "p2", answer.Citations[1].PassageID)
	assert.Equal(t, "p1", answer.Citations[2].PassageID)
	assert.Equal(t, "Context #1", answer.Citations[0].ContextRef)
	assert.Equal(t, "Context #3", answer.Citations[2].ContextRef)
	assert.Equal(t, "handbook.pdf", answer.Citations[0].Filename)
	assert.Equal(t, 1.0, answer.Citations[0].Similarity)
	assert.Equal(t, "alpha content", answer.Citations[0].Quote)
}

func TestQueryEnrichmentOnGaps(t *testing.T) {
	store := buildIndex(t, 4, [][]float32{{1, 0, 0, 0}})
	docs := newFakeDocStore()
	docs.docs["d1"] = model.Document{ID: "d1", Filename: "notes.txt"}
	passages := &fakePassageStore{passages: []model.Passage{
		{ID: "p0", DocumentID: "d1", ChunkIndex: 0, Content: "partial info", VectorRowID: 0},
	}}
	gen := &scriptedGenerator{responses: []string{
		"Partially answered.",
		`{"confidence": 0.6, "missing_info": ["pricing details"], "reasoning": "gaps"}`,
		`{"enrichment_suggestions": [{"type": "document", "suggestion": "upload the pricing sheet"}]}`,
	}}
	svc := NewRAGService(docs, passages, store, &fixedEmbedder{vec: []float32{1, 0, 0, 0}}, gen, defaultLimits())

	answer, err := svc.Query(context.Background(), "what does it cost?", 0)
	assert.NoError(t, err)
	assert.Equal(t, 3, gen.calls)
	assert.Equal(t, []string{"pricing details"}, answer.MissingInfo)
	assert.Len(t, answer.EnrichmentSuggestions, 1)
	assert.Equal(t, model.EnrichmentKindDocument, answer.EnrichmentSuggestions[0].Kind)
}

func TestQueryConfidenceCappedByWeakRetrieval(t *testing.T) {
	store := buildIndex(t, 4, [][]float32{{1, 0, 0, 0}})
	docs := newFakeDocStore()
	docs.docs["d1"] = model.Document{ID: "d1", Filename: "notes.txt"}
	passages := &fakePassageStore{passages: []model.Passage{
		{ID: "p0", DocumentID: "d1", ChunkIndex: 0, Content: "weak match", VectorRowID: 0},
	}}
	gen := &scriptedGenerator{responses: []string{
		"Not really sure.",
		`{"confidence": 0.95, "missing_info": [], "reasoning": "overconfident"}`,
	}}
	// similarity with the stored vector is ~0.148, under the 0.20 cap
	embedder := &fixedEmbedder{vec: []float32{0.15, 1, 0, 0}}
	svc := NewRAGService(docs, passages, store, embedder, gen, defaultLimits())

	answer, err := svc.Query(context.Background(), "anything here?", 1)
	assert.NoError(t, err)
	assert.Equal(t, 0.55, answer.Confidence)
}

func TestQueryInsufficientContext(t *testing.T) {
	// all index rows are orphans: no passage rows survive
	store := buildIndex(t, 4, [][]float32{{1, 0, 0, 0}})
	gen := &scriptedGenerator{}
	svc := NewRAGService(newFakeDocStore(), &fakePassageStore{}, store, &fixedEmbedder{vec: []float32{1, 0, 0, 0}}, gen, defaultLimits())

	answer, err := svc.Query(context.Background(), "who approves travel?", 5)
	assert.NoError(t, err)
	assert.Equal(t, 0, gen.calls)
	assert.Equal(t, 0.0, answer.Confidence)
	assert.Empty(t, answer.Citations)
	assert.Len(t, answer.MissingInfo, 1)
	assert.Len(t, answer.EnrichmentSuggestions, 1)
	assert.Equal(t, model.EnrichmentKindDocument, answer.EnrichmentSuggestions[0].Kind)
	assert.Contains(t, answer.Answer, "enough indexed context")
}

func TestQueryEmptyIndex(t *testing.T) {
	store := vecindex.NewStore(t.TempDir())
	svc := NewRAGService(newFakeDocStore(), &fakePassageStore{}, store, &fixedEmbedder{vec: []float32{1, 0, 0, 0}}, &scriptedGenerator{}, defaultLimits())

	_, err := svc.Query(context.Background(), "anything indexed?", 3)
	assert.ErrorIs(t, err, appErr.ErrEmptyIndex)
}

func TestQueryQuestionValidation(t *testing.T) {
	store := buildIndex(t, 4, [][]float32{{1, 0, 0, 0}})
	svc := NewRAGService(newFakeDocStore(), &fakePassageStore{}, store, &fixedEmbedder{vec: []float32{1, 0, 0, 0}}, &scriptedGenerator{}, defaultLimits())

	_, err := svc.Query(context.Background(), "hi", 3)
	assert.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = svc.Query(context.Background(), strings.Repeat("long ", 1200), 3)
	assert.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestMakeQuote(t *testing.T) {
	short := "line one\nline two"
	assert.Equal(t, "line one line two", makeQuote(short))

	long := strings.Repeat("a", 300)
	quote := makeQuote(long)
	assert.Equal(t, 263, len(quote))
	assert.True(t, strings.HasSuffix(quote, "..."))
}
