package model

// Passage is one retrievable chunk of a document. VectorRowID is the row
// assigned by the vector index at insertion time and joins the two stores.
type Passage struct {
	ID          string `json:"id"`
	DocumentID  string `json:"document_id"`
	ChunkIndex  int    `json:"chunk_index"`
	Content     string `json:"content"`
	VectorRowID int64  `json:"vector_row_id"`
}
