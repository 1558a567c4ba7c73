package service

import (
	"encoding/json"
	"fmt"
	"strings"

	appErr "github.com/kbrag/kbrag/internal/pkg/errors"
)

// decodeStrict parses model output as JSON. Models often wrap the object in
// prose or markdown fences, so on failure it retries with the substring
// between the first '{' and the last '}'.
func decodeStrict(raw string, dst interface{}) error {
	trimmed := strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(trimmed), dst); err == nil {
		return nil
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), dst); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: not valid json", appErr.ErrParseOutput)
}
