package chunker

import (
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/percontor/internal/common"
	"github.com/ternarybob/percontor/internal/interfaces"
	"github.com/ternarybob/percontor/internal/models"
)

// Service splits documents into bounded, overlapping passages. Sentences are
// accumulated greedily up to the maximum token bound; when a chunk closes,
// its trailing sentences are carried into the next chunk as overlap so no
// passage boundary loses surrounding context.
type Service struct {
	maxTokens     int
	overlapTokens int
	logger        arbor.ILogger
}

// NewService creates a chunker from the configured size band
func NewService(config *common.ChunkingConfig, logger arbor.ILogger) interfaces.Chunker {
	return &Service{
		maxTokens:     config.MaxTokens,
		overlapTokens: config.OverlapTokens,
		logger:        logger,
	}
}

// Chunk splits the document text into an ordered chunk sequence. Empty or
// whitespace-only input yields zero chunks. A single sentence exceeding the
// maximum bound is emitted as its own oversized chunk rather than being
// split mid-sentence.
func (s *Service) Chunk(doc models.Document) []models.Chunk {
	sentences := scan(doc.Text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []models.Chunk
	var working []scannedSentence
	workingTokens := 0
	position := 0

	for _, sentence := range sentences {
		if workingTokens+sentence.tokens > s.maxTokens && len(working) > 0 {
			chunks = append(chunks, s.closeChunk(doc, working, position))
			position++

			working = overlapTail(working, s.overlapTokens)
			workingTokens = 0
			for _, kept := range working {
				workingTokens += kept.tokens
			}
		}
		working = append(working, sentence)
		workingTokens += sentence.tokens
	}

	// The trailing partial chunk is always emitted, even under-size
	if len(working) > 0 {
		chunks = append(chunks, s.closeChunk(doc, working, position))
	}

	s.logger.Debug().
		Int("sentences", len(sentences)).
		Int("chunks", len(chunks)).
		Str("source", doc.Source).
		Msg("Document chunked")

	return chunks
}

// closeChunk materializes the working sentence run as an immutable chunk.
// The chunk inherits the section label of its first sentence.
func (s *Service) closeChunk(doc models.Document, sentences []scannedSentence, position int) models.Chunk {
	texts := make([]string, len(sentences))
	for i, sentence := range sentences {
		texts[i] = sentence.text
	}
	text := strings.Join(texts, " ")

	return models.Chunk{
		ID:   common.NewChunkID(),
		Text: text,
		Metadata: models.ChunkMetadata{
			Source:        doc.Source,
			Title:         doc.Title,
			Section:       sentences[0].section,
			Position:      position,
			TokenEstimate: common.EstimateTokens(text),
			CharCount:     len(text),
		},
	}
}

// overlapTail returns the trailing sentences whose cumulative token estimate
// is closest to, but not exceeding, the overlap target, preserving original
// order (oldest first).
func overlapTail(sentences []scannedSentence, overlapTokens int) []scannedSentence {
	total := 0
	start := len(sentences)
	for start > 0 {
		next := sentences[start-1].tokens
		if total+next > overlapTokens {
			break
		}
		total += next
		start--
	}

	tail := make([]scannedSentence, len(sentences)-start)
	copy(tail, sentences[start:])
	return tail
}
