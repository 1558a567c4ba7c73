package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kbrag/kbrag/internal/model"
	appErr "github.com/kbrag/kbrag/internal/pkg/errors"
)

func TestDecodeStrictPlain(t *testing.T) {
	var c model.Completeness
	err := decodeStrict(`{"confidence": 0.8, "missing_info": ["x"], "reasoning": "ok"}`, &c)
	assert.NoError(t, err)
	assert.Equal(t, 0.8, c.Confidence)
	assert.Equal(t, []string{"x"}, c.MissingInfo)
}

func TestDecodeStrictFenced(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"confidence\": 0.4, \"missing_info\": [], \"reasoning\": \"partial\"}\n```\nDone."
	var c model.Completeness
	err := decodeStrict(raw, &c)
	assert.NoError(t, err)
	assert.Equal(t, 0.4, c.Confidence)
}

func TestDecodeStrictGarbage(t *testing.T) {
	var c model.Completeness
	err := decodeStrict("no json here at all", &c)
	assert.ErrorIs(t, err, appErr.ErrParseOutput)
}

func TestDecodeStrictEnrichment(t *testing.T) {
	raw := `{"enrichment_suggestions":[{"type":"document","suggestion":"upload the pricing sheet"}]}`
	var e model.EnrichmentResult
	err := decodeStrict(raw, &e)
	assert.NoError(t, err)
	assert.Len(t, e.EnrichmentSuggestions, 1)
	assert.Equal(t, model.EnrichmentKindDocument, e.EnrichmentSuggestions[0].Kind)
}
