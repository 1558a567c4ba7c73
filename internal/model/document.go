package model

const SourceTypeUpload = "upload"

type Document struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	SourceType string `json:"source_type"`
	Ctime      int64  `json:"ctime"`
}
