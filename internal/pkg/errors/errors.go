package errors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalid         = errors.New("invalid")
	ErrTooMany         = errors.New("too many requests")
	ErrInternal        = errors.New("internal")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrExtraction      = errors.New("text extraction failed")
	ErrEmptyIndex      = errors.New("no documents indexed")
	ErrParseOutput     = errors.New("unparseable model output")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}
