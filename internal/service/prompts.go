package service

import (
	"fmt"
	"strings"
)

const answerSystem = "You are a grounded enterprise assistant. Answer ONLY using the provided context. " +
	"If the context is insufficient, say so clearly. Do not invent facts."

func joinContexts(contexts []string) string {
	blocks := make([]string, 0, len(contexts))
	for i, c := range contexts {
		blocks = append(blocks, fmt.Sprintf("Context #%d:\n%s", i+1, c))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

func buildAnswerPrompt(question string, contexts []string) string {
	return fmt.Sprintf(`%s

Question:
%s

Context:
%s

Rules:
- Use only the context above.
- If incomplete, explicitly say what is missing.
- When you make a claim, add a citation like [Context #2].
- Keep the answer concise but complete.
`, answerSystem, question, joinContexts(contexts))
}

func buildCompletenessPrompt(question, answer string, contexts []string) string {
	return fmt.Sprintf(`You are verifying whether the answer is fully supported by the context.

Question:
%s

Answer Draft:
%s

Context Snippets:
%s

Return STRICT JSON with keys:
- confidence: number between 0 and 1
- missing_info: array of strings describing what is required to answer fully
- reasoning: short string
`, question, answer, joinContexts(contexts))
}

func buildEnrichmentPrompt(missingInfo []string) string {
	missing := "- (none)"
	if len(missingInfo) > 0 {
		lines := make([]string, 0, len(missingInfo))
		for _, m := range missingInfo {
			lines = append(lines, "- "+m)
		}
		missing = strings.Join(lines, "\n")
	}
	return fmt.Sprintf(`Given this missing information list, propose enrichment steps.

Missing Info:
%s

Return STRICT JSON with key:
- enrichment_suggestions: array of objects with:
  - type: "document" | "data" | "action" | "external_source"
  - suggestion: string
`, missing)
}
