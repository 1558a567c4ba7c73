// Package chunker splits extracted document text into fixed-size overlapping
// windows, the unit of retrieval for the vector index.
package chunker

import "strings"

// Chunk splits text into windows of at most size characters, re-reading
// overlap characters between consecutive windows. The step between window
// starts is always positive, so the loop cannot stall: an overlap >= size is
// clamped to size/10 before the step is computed.
func Chunk(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" || size <= 0 {
		return nil
	}

	if overlap >= size {
		overlap = size / 10
	}
	if overlap < 0 {
		overlap = 0
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}

	runes := []rune(text)
	n := len(runes)

	var chunks []string
	start := 0
	for start < n {
		end := start + size
		if end > n {
			end = n
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= n {
			break
		}
		start += step
	}
	return chunks
}
