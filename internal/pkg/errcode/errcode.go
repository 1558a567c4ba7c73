package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrNotFound
	ErrInvalid
	ErrTooMany
	ErrInternal
	ErrInvalidFile
	ErrUnsupportedFileType
	ErrExtractionFailed
	ErrUploadFailed
	ErrEmptyIndex
	ErrAIUnavailable
	ErrAnswerFailed
)
