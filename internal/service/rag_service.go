package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kbrag/kbrag/internal/config"
	"github.com/kbrag/kbrag/internal/model"
	appErr "github.com/kbrag/kbrag/internal/pkg/errors"
	"github.com/kbrag/kbrag/internal/vecindex"
)

const (
	minQuestionChars = 3
	maxQuestionChars = 5000
	maxQuoteChars    = 260
)

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type RAGService struct {
	docs      DocumentStore
	passages  PassageStore
	index     *vecindex.Store
	embedder  Embedder
	generator Generator
	limits    config.LimitsConfig
}

func NewRAGService(docs DocumentStore, passages PassageStore, index *vecindex.Store, embedder Embedder, generator Generator, limits config.LimitsConfig) *RAGService {
	return &RAGService{
		docs:      docs,
		passages:  passages,
		index:     index,
		embedder:  embedder,
		generator: generator,
		limits:    limits,
	}
}

type retrieved struct {
	passages []model.Passage
	scores   []float64
}

// Query answers a question grounded in the indexed passages. The pipeline is
// retrieve, generate, cite, verify, then enrich when the verification stage
// reports gaps.
func (s *RAGService) Query(ctx context.Context, question string, topK int) (*model.Answer, error) {
	question = strings.TrimSpace(question)
	if n := utf8.RuneCountInString(question); n < minQuestionChars || n > maxQuestionChars {
		return nil, fmt.Errorf("%w: question must be %d-%d characters", appErr.ErrInvalid, minQuestionChars, maxQuestionChars)
	}
	if topK <= 0 {
		topK = s.limits.TopKDefault
	}
	if topK < 1 {
		topK = 1
	}
	if topK > s.limits.MaxTopK {
		topK = s.limits.MaxTopK
	}
	logger := logutil.GetLogger(ctx).With(zap.Int("top_k", topK))

	index, err := s.index.Current()
	if err != nil {
		if errors.Is(err, vecindex.ErrNoIndex) {
			return nil, appErr.ErrEmptyIndex
		}
		return nil, err
	}
	if index.Count() == 0 {
		return nil, appErr.ErrEmptyIndex
	}

	hits, err := s.retrieve(ctx, index, question, topK)
	if err != nil {
		return nil, err
	}
	if len(hits.passages) == 0 {
		logger.Info("no retrievable context for question")
		return insufficientContextAnswer(), nil
	}

	contexts := make([]string, 0, len(hits.passages))
	for _, p := range hits.passages {
		contexts = append(contexts, p.Content)
	}

	draft, err := s.generator.Generate(ctx, buildAnswerPrompt(question, contexts))
	if err != nil {
		logger.Error("answer generation failed", zap.Error(err))
		return nil, err
	}

	citations, err := s.cite(ctx, hits)
	if err != nil {
		return nil, err
	}

	completeness, err := s.verify(ctx, question, draft, contexts)
	if err != nil {
		logger.Error("answer verification failed", zap.Error(err))
		return nil, err
	}

	// complete answers keep empty slices, never null, in the payload
	missingInfo := completeness.MissingInfo
	if missingInfo == nil {
		missingInfo = []string{}
	}
	suggestions := []model.EnrichmentSuggestion{}
	if len(missingInfo) > 0 {
		suggestions, err = s.enrich(ctx, missingInfo)
		if err != nil {
			logger.Error("enrichment generation failed", zap.Error(err))
			return nil, err
		}
	}

	confidence := adjustConfidence(completeness.Confidence, hits.scores)
	logger.Info("question answered",
		zap.Int("contexts", len(contexts)),
		zap.Float64("confidence", confidence))
	return &model.Answer{
		Answer:                draft,
		Confidence:            confidence,
		Citations:             citations,
		MissingInfo:           missingInfo,
		EnrichmentSuggestions: suggestions,
	}, nil
}

// retrieve embeds the question, searches the index and maps the surviving
// row ids back to passages in rank order. Rows without a passage are dropped.
func (s *RAGService) retrieve(ctx context.Context, index *vecindex.Index, question string, topK int) (*retrieved, error) {
	qvec, err := s.embedder.Embed(ctx, question, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	ids, scores, err := index.Search(qvec, topK)
	if err != nil {
		return nil, err
	}

	rowIDs := make([]int64, 0, len(ids))
	scoreByRow := make(map[int64]float64, len(ids))
	for i, id := range ids {
		if id < 0 {
			continue
		}
		rowIDs = append(rowIDs, id)
		scoreByRow[id] = float64(scores[i])
	}
	if len(rowIDs) == 0 {
		return &retrieved{}, nil
	}

	passages, err := s.passages.ListByVectorRowIDs(ctx, rowIDs)
	if err != nil {
		return nil, err
	}
	byRow := make(map[int64]model.Passage, len(passages))
	for _, p := range passages {
		byRow[p.VectorRowID] = p
	}

	out := &retrieved{}
	for _, rowID := range rowIDs {
		p, ok := byRow[rowID]
		if !ok {
			continue
		}
		out.passages = append(out.passages, p)
		out.scores = append(out.scores, scoreByRow[rowID])
	}
	return out, nil
}

func (s *RAGService) cite(ctx context.Context, hits *retrieved) ([]model.Citation, error) {
	docIDs := make([]string, 0, len(hits.passages))
	seen := make(map[string]struct{}, len(hits.passages))
	for _, p := range hits.passages {
		if _, ok := seen[p.DocumentID]; ok {
			continue
		}
		seen[p.DocumentID] = struct{}{}
		docIDs = append(docIDs, p.DocumentID)
	}
	docs, err := s.docs.ListByIDs(ctx, docIDs)
	if err != nil {
		return nil, err
	}
	nameByID := make(map[string]string, len(docs))
	for _, d := range docs {
		nameByID[d.ID] = d.Filename
	}

	citations := make([]model.Citation, 0, len(hits.passages))
	for i, p := range hits.passages {
		filename, ok := nameByID[p.DocumentID]
		if !ok {
			filename = "unknown"
		}
		citations = append(citations, model.Citation{
			DocumentID: p.DocumentID,
			Filename:   filename,
			PassageID:  p.ID,
			ChunkIndex: p.ChunkIndex,
			ContextRef: fmt.Sprintf("Context #%d", i+1),
			Similarity: round(hits.scores[i], 4),
			Quote:      makeQuote(p.Content),
		})
	}
	return citations, nil
}

func (s *RAGService) verify(ctx context.Context, question, draft string, contexts []string) (*model.Completeness, error) {
	raw, err := s.generator.Generate(ctx, buildCompletenessPrompt(question, draft, contexts))
	if err != nil {
		return nil, err
	}
	completeness := &model.Completeness{Confidence: 0.5}
	if err := decodeStrict(raw, completeness); err != nil {
		return nil, err
	}
	return completeness, nil
}

func (s *RAGService) enrich(ctx context.Context, missingInfo []string) ([]model.EnrichmentSuggestion, error) {
	raw, err := s.generator.Generate(ctx, buildEnrichmentPrompt(missingInfo))
	if err != nil {
		return nil, err
	}
	var result model.EnrichmentResult
	if err := decodeStrict(raw, &result); err != nil {
		return nil, err
	}
	if result.EnrichmentSuggestions == nil {
		return []model.EnrichmentSuggestion{}, nil
	}
	return result.EnrichmentSuggestions, nil
}

// adjustConfidence caps the verifier's confidence when retrieval itself was
// weak, then clamps to [0, 1].
func adjustConfidence(confidence float64, scores []float64) float64 {
	if len(scores) > 0 {
		best := scores[0]
		for _, s := range scores[1:] {
			if s > best {
				best = s
			}
		}
		if best < 0.20 {
			confidence = math.Min(confidence, 0.55)
		}
		if best < 0.10 {
			confidence = math.Min(confidence, 0.40)
		}
	}
	confidence = math.Max(0.0, math.Min(1.0, confidence))
	return round(confidence, 2)
}

func insufficientContextAnswer() *model.Answer {
	return &model.Answer{
		Answer:      "I don't have enough indexed context to answer that yet. Please upload relevant documents.",
		Confidence:  0.0,
		Citations:   []model.Citation{},
		MissingInfo: []string{"Relevant documents or sections that contain the answer."},
		EnrichmentSuggestions: []model.EnrichmentSuggestion{
			{Kind: model.EnrichmentKindDocument, Suggestion: "Upload documents that cover this topic (policies, SOPs, specs, FAQs)."},
		},
	}
}

func makeQuote(content string) string {
	runes := []rune(content)
	quote := content
	if len(runes) > maxQuoteChars {
		quote = string(runes[:maxQuoteChars])
	}
	quote = strings.TrimSpace(strings.ReplaceAll(quote, "\n", " "))
	if len(runes) > maxQuoteChars {
		quote += "..."
	}
	return quote
}

func round(v float64, digits int) float64 {
	for i := 0; i < digits; i++ {
		v *= 10
	}
	v = math.Round(v)
	for i := 0; i < digits; i++ {
		v /= 10
	}
	return v
}
