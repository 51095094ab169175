package generator

import (
	"regexp"
	"strconv"

	"github.com/ternarybob/percontor/internal/common"
	"github.com/ternarybob/percontor/internal/models"
)

var citationMarker = regexp.MustCompile(`\[(\d+)\]`)

// ExtractCitations parses inline bracket markers out of the answer text and
// resolves them against the context chunks. Markers are deduplicated in
// first-appearance order; markers outside the valid 1..len(chunks) range are
// discarded rather than treated as errors.
func ExtractCitations(answer string, chunks []models.RankedChunk, previewChars int) []models.Citation {
	matches := citationMarker.FindAllStringSubmatch(answer, -1)

	seen := make(map[int]bool)
	citations := make([]models.Citation, 0, len(matches))
	for _, m := range matches {
		number, err := strconv.Atoi(m[1])
		if err != nil || number < 1 || number > len(chunks) {
			continue
		}
		if seen[number] {
			continue
		}
		seen[number] = true

		chunk := chunks[number-1]
		citations = append(citations, models.Citation{
			Number:  number,
			Text:    common.Preview(chunk.Text, previewChars),
			Source:  chunk.Metadata.Source,
			Section: chunk.Metadata.Section,
		})
	}

	return citations
}
