package model

// UploadResult is the per-file outcome of an upload batch. Error is set and
// ChunkCount is zero when the file failed; a failed file never leaves
// document or passage rows behind.
type UploadResult struct {
	DocumentID string `json:"document_id,omitempty"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
	Error      string `json:"error,omitempty"`
}
