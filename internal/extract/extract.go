// Package extract turns uploaded files into plain text. Each supported
// extension maps to one extraction strategy through a dispatch table; adding
// a format means registering one more strategy.
package extract

import (
	"fmt"
	"io"
	"sort"
	"strings"

	appErr "github.com/kbrag/kbrag/internal/pkg/errors"
)

// Func reads the whole file through r and returns its plain text.
type Func func(r io.ReaderAt, size int64) (string, error)

var registry = map[string]Func{}

func register(ext string, fn Func) {
	registry[strings.ToLower(ext)] = fn
}

// Supported reports whether ext (with leading dot, any case) has a
// registered extraction strategy.
func Supported(ext string) bool {
	_, ok := registry[strings.ToLower(ext)]
	return ok
}

// SupportedExts lists the registered extensions, sorted.
func SupportedExts() []string {
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Text dispatches on the file extension and extracts plain text.
func Text(ext string, r io.ReaderAt, size int64) (string, error) {
	fn, ok := registry[strings.ToLower(ext)]
	if !ok {
		return "", fmt.Errorf("%w: %q (supported: %s)", appErr.ErrUnsupportedFile, ext, strings.Join(SupportedExts(), ", "))
	}
	text, err := fn(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: %v", appErr.ErrExtraction, err)
	}
	return text, nil
}

func readAll(r io.ReaderAt, size int64) ([]byte, error) {
	return io.ReadAll(io.NewSectionReader(r, 0, size))
}

func extractPlain(r io.ReaderAt, size int64) (string, error) {
	data, err := readAll(r, size)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func init() {
	register(".txt", extractPlain)
}
