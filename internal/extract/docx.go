package extract

import (
	"io"
	"strings"

	"github.com/fumiama/go-docx"
)

func extractDocx(r io.ReaderAt, size int64) (string, error) {
	doc, err := docx.Parse(r, size)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			txt := strings.TrimSpace(v.String())
			if txt == "" {
				continue
			}
			sb.WriteString(txt)
			sb.WriteString("\n")
		case *docx.Table:
			txt := strings.TrimSpace(v.String())
			if txt == "" {
				continue
			}
			sb.WriteString(txt)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func init() {
	register(".docx", extractDocx)
}
