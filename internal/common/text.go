package common

import "strings"

// Preview truncates text to at most max runes for citation snippets and
// source listings, appending an ellipsis when content was cut.
func Preview(text string, max int) string {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if len(runes) <= max {
		return trimmed
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}

// EstimateTokens approximates token count as ceil(len/4). The same
// approximation is applied to chunks, prompts, and answers so estimates stay
// comparable across the pipeline.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
