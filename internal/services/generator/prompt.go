package generator

import (
	"fmt"
	"strings"

	"github.com/ternarybob/percontor/internal/models"
)

// systemInstruction frames the model as a grounded assistant. Generation
// must stay inside the supplied context; the instruction is the only
// guardrail, so it is explicit about citations and refusal.
const systemInstruction = `You are a documentation assistant. Answer questions using only the provided context passages.

Rules:
1. Answer only from the numbered context passages. Do not use outside knowledge.
2. Cite passages inline with bracket markers like [1] or [2] immediately after the claim they support.
3. When multiple passages support an answer, cite each of them.
4. If the context does not contain enough information to answer, say so plainly instead of guessing.`

// ContextBlock is one numbered passage as rendered into the prompt. Number
// is 1-based and matches the bracket indices the model is asked to emit.
type ContextBlock struct {
	Number   int
	Rendered string
}

// ContextBlocks renders ranked chunks into numbered prompt passages in rank
// order. Each block carries the passage's title and section so the model can
// attribute claims.
func ContextBlocks(chunks []models.RankedChunk) []ContextBlock {
	blocks := make([]ContextBlock, len(chunks))
	for i, chunk := range chunks {
		header := fmt.Sprintf("[%d]", i+1)
		if chunk.Metadata.Title != "" {
			header += " " + chunk.Metadata.Title
		}
		if chunk.Metadata.Section != "" {
			header += fmt.Sprintf(" (%s)", chunk.Metadata.Section)
		}
		blocks[i] = ContextBlock{
			Number:   i + 1,
			Rendered: header + "\n" + chunk.Text,
		}
	}
	return blocks
}

// BuildPrompt assembles the user prompt: numbered context passages separated
// by delimiters, then the question.
func BuildPrompt(query string, blocks []ContextBlock) string {
	var sb strings.Builder

	sb.WriteString("Context passages:\n\n")
	for _, block := range blocks {
		sb.WriteString(block.Rendered)
		sb.WriteString("\n---\n")
	}

	sb.WriteString("\nQuestion: ")
	sb.WriteString(query)

	return sb.String()
}
