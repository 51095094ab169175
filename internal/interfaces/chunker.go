package interfaces

import (
	"github.com/ternarybob/percontor/internal/models"
)

// Chunker splits raw document text into bounded, overlapping passages with
// citation metadata. Empty or whitespace-only input yields zero chunks.
type Chunker interface {
	Chunk(doc models.Document) []models.Chunk
}
