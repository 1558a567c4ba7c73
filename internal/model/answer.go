package model

type Citation struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	PassageID  string  `json:"passage_id"`
	ChunkIndex int     `json:"chunk_index"`
	ContextRef string  `json:"context_ref"`
	Similarity float64 `json:"similarity"`
	Quote      string  `json:"quote"`
}

const (
	EnrichmentKindDocument       = "document"
	EnrichmentKindData           = "data"
	EnrichmentKindAction         = "action"
	EnrichmentKindExternalSource = "external_source"
)

type EnrichmentSuggestion struct {
	Kind       string `json:"type"`
	Suggestion string `json:"suggestion"`
}

type Answer struct {
	Answer                string                 `json:"answer"`
	Confidence            float64                `json:"confidence"`
	Citations             []Citation             `json:"citations"`
	MissingInfo           []string               `json:"missing_info"`
	EnrichmentSuggestions []EnrichmentSuggestion `json:"enrichment_suggestions"`
}

// Completeness is the structured verdict of the answer verification stage.
type Completeness struct {
	Confidence  float64  `json:"confidence"`
	MissingInfo []string `json:"missing_info"`
	Reasoning   string   `json:"reasoning"`
}

type EnrichmentResult struct {
	EnrichmentSuggestions []EnrichmentSuggestion `json:"enrichment_suggestions"`
}
