package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	appErr "github.com/kbrag/kbrag/internal/pkg/errors"
)

func readerOf(s string) (*strings.Reader, int64) {
	return strings.NewReader(s), int64(len(s))
}

func TestTextPlain(t *testing.T) {
	r, size := readerOf("hello world\nsecond line")
	text, err := Text(".txt", r, size)
	assert.NoError(t, err)
	assert.Equal(t, "hello world\nsecond line", text)
}

func TestTextMarkdown(t *testing.T) {
	src := "# Title\n\nSome *emphasized* paragraph.\n\n- item one\n- item two\n\n```\ncode line\n```\n"
	r, size := readerOf(src)
	text, err := Text(".md", r, size)
	assert.NoError(t, err)
	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "Some emphasized paragraph.")
	assert.Contains(t, text, "item one")
	assert.Contains(t, text, "code line")
	assert.NotContains(t, text, "*")
	assert.NotContains(t, text, "#")
}

func TestTextExtCaseInsensitive(t *testing.T) {
	r, size := readerOf("abc")
	text, err := Text(".TXT", r, size)
	assert.NoError(t, err)
	assert.Equal(t, "abc", text)
}

func TestTextUnsupported(t *testing.T) {
	r, size := readerOf("x")
	_, err := Text(".exe", r, size)
	assert.ErrorIs(t, err, appErr.ErrUnsupportedFile)
}

func TestSupported(t *testing.T) {
	for _, ext := range []string{".pdf", ".docx", ".txt", ".md"} {
		assert.True(t, Supported(ext), ext)
	}
	assert.False(t, Supported(".csv"))
	assert.Equal(t, []string{".docx", ".md", ".pdf", ".txt"}, SupportedExts())
}
