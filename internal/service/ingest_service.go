package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kbrag/kbrag/internal/chunker"
	"github.com/kbrag/kbrag/internal/config"
	"github.com/kbrag/kbrag/internal/extract"
	"github.com/kbrag/kbrag/internal/filestore"
	"github.com/kbrag/kbrag/internal/model"
	"github.com/kbrag/kbrag/internal/vecindex"
)

// File is what an uploaded file must expose: multipart.File satisfies it.
type File interface {
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Closer
}

type UploadFile struct {
	Name string
	Size int64
	Data File
}

type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, docID string) (*model.Document, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Document, error)
	List(ctx context.Context, limit, offset uint) ([]model.Document, error)
	Delete(ctx context.Context, docID string) error
}

type PassageStore interface {
	CreateBatch(ctx context.Context, passages []*model.Passage) error
	ListByVectorRowIDs(ctx context.Context, rowIDs []int64) ([]model.Passage, error)
	CountByDocumentID(ctx context.Context, docID string) (int, error)
	DeleteByDocumentID(ctx context.Context, docID string) error
}

type Embedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

type IngestService struct {
	docs     DocumentStore
	passages PassageStore
	index    *vecindex.Store
	embedder Embedder
	files    filestore.Store
	chunking config.ChunkingConfig
	limits   config.LimitsConfig
}

func NewIngestService(docs DocumentStore, passages PassageStore, index *vecindex.Store, embedder Embedder, files filestore.Store, chunking config.ChunkingConfig, limits config.LimitsConfig) *IngestService {
	return &IngestService{
		docs:     docs,
		passages: passages,
		index:    index,
		embedder: embedder,
		files:    files,
		chunking: chunking,
		limits:   limits,
	}
}

// IngestAll processes each file independently: a broken file reports its own
// error and rolls back its own rows without failing the rest of the batch.
func (s *IngestService) IngestAll(ctx context.Context, files []UploadFile) []model.UploadResult {
	results := make([]model.UploadResult, 0, len(files))
	for _, f := range files {
		result := s.ingestOne(ctx, f)
		results = append(results, result)
	}
	return results
}

func (s *IngestService) ingestOne(ctx context.Context, f UploadFile) model.UploadResult {
	name := filepath.Base(f.Name)
	logger := logutil.GetLogger(ctx).With(zap.String("filename", name))
	result := model.UploadResult{Filename: name}

	ext := filepath.Ext(name)
	if !extract.Supported(ext) {
		result.Error = fmt.Sprintf("unsupported file type %q, supported: %v", ext, extract.SupportedExts())
		return result
	}

	doc := &model.Document{
		ID:         newID(),
		Filename:   name,
		SourceType: model.SourceTypeUpload,
		Ctime:      time.Now().UnixMilli(),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		logger.Error("failed to create document", zap.Error(err))
		result.Error = "failed to create document record"
		return result
	}
	result.DocumentID = doc.ID
	logger = logger.With(zap.String("doc_id", doc.ID))

	chunkCount, err := s.process(ctx, logger, doc, ext, f)
	if err != nil {
		logger.Error("ingest failed, rolling back document", zap.Error(err))
		if derr := s.docs.Delete(ctx, doc.ID); derr != nil {
			logger.Error("rollback failed", zap.Error(derr))
		}
		result.DocumentID = ""
		result.Error = err.Error()
		return result
	}
	result.ChunkCount = chunkCount
	logger.Info("document ingested", zap.Int("chunks", chunkCount))
	return result
}

func (s *IngestService) process(ctx context.Context, logger *zap.Logger, doc *model.Document, ext string, f UploadFile) (int, error) {
	key := doc.ID + "_" + doc.Filename
	if err := s.files.Save(ctx, key, f.Data, f.Size); err != nil {
		return 0, fmt.Errorf("save raw file: %w", err)
	}

	text, err := extract.Text(ext, f.Data, f.Size)
	if err != nil {
		return 0, err
	}
	runes := []rune(text)
	if len(runes) > s.limits.MaxTextChars {
		logger.Warn("truncating oversized document text",
			zap.Int("chars", len(runes)), zap.Int("limit", s.limits.MaxTextChars))
		text = string(runes[:s.limits.MaxTextChars])
	}

	chunks := chunker.Chunk(text, s.chunking.SizeChars, s.chunking.OverlapChars)
	if len(chunks) == 0 {
		return 0, nil
	}
	if len(chunks) > s.limits.MaxChunks {
		logger.Warn("dropping excess chunks",
			zap.Int("chunks", len(chunks)), zap.Int("limit", s.limits.MaxChunks))
		chunks = chunks[:s.limits.MaxChunks]
	}

	vectors := make([][]float32, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := s.embedder.Embed(ctx, chunk, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return 0, fmt.Errorf("embed chunk: %w", err)
		}
		vectors = append(vectors, vec)
	}

	dim := len(vectors[0])
	index, err := s.index.Get(dim)
	if err != nil {
		return 0, err
	}
	rowIDs, err := index.Add(vectors)
	if err != nil {
		return 0, err
	}

	passages := make([]*model.Passage, 0, len(chunks))
	for i, chunk := range chunks {
		passages = append(passages, &model.Passage{
			ID:          newID(),
			DocumentID:  doc.ID,
			ChunkIndex:  i,
			Content:     chunk,
			VectorRowID: rowIDs[i],
		})
	}
	if err := s.passages.CreateBatch(ctx, passages); err != nil {
		// index rows stay behind; retrieval drops rows without a passage
		return 0, fmt.Errorf("store passages: %w", err)
	}

	if err := s.index.SaveMeta(&vecindex.Meta{EmbeddingDim: dim, EmbeddingModel: s.embedder.ModelName()}); err != nil {
		return 0, fmt.Errorf("save index meta: %w", err)
	}
	if err := index.Save(); err != nil {
		return 0, fmt.Errorf("save index: %w", err)
	}
	return len(chunks), nil
}

// ListDocuments returns documents in reverse chronological order.
func (s *IngestService) ListDocuments(ctx context.Context, limit, offset uint) ([]model.Document, error) {
	return s.docs.List(ctx, limit, offset)
}
