package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/percontor/internal/common"
	"github.com/ternarybob/percontor/internal/models"
)

func newTestChunker(maxTokens, overlapTokens int) *Service {
	return &Service{
		maxTokens:     maxTokens,
		overlapTokens: overlapTokens,
		logger:        common.GetLogger(),
	}
}

func TestChunk_EmptyInput(t *testing.T) {
	service := newTestChunker(1200, 120)

	tests := []struct {
		name string
		text string
	}{
		{name: "Empty string", text: ""},
		{name: "Whitespace only", text: "   \n\t  \n"},
		{name: "Blank lines", text: "\n\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := service.Chunk(models.Document{Text: tt.text})
			assert.Empty(t, chunks)
		})
	}
}

func TestChunk_SingleShortDocument(t *testing.T) {
	service := newTestChunker(1200, 120)

	// Exactly 60 characters including the terminal period
	text := strings.Repeat("a", 59) + "."
	require.Len(t, text, 60)

	chunks := service.Chunk(models.Document{Text: text, Title: "Notes", Source: "notes.txt"})

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Metadata.Position)
	assert.Equal(t, 15, chunks[0].Metadata.TokenEstimate)
	assert.Equal(t, 60, chunks[0].Metadata.CharCount)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, "Notes", chunks[0].Metadata.Title)
	assert.Equal(t, "notes.txt", chunks[0].Metadata.Source)
	assert.NotEmpty(t, chunks[0].ID)
}

func TestChunk_PositionsAreContiguous(t *testing.T) {
	service := newTestChunker(1200, 120)

	var sb strings.Builder
	for i := 0; i < 120; i++ {
		fmt.Fprintf(&sb, "%s sentence %03d ends here. ", strings.Repeat("filler ", 20), i)
	}

	chunks := service.Chunk(models.Document{Text: sb.String()})
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Metadata.Position)
	}
}

func TestChunk_OverlapCarriesTrailingSentences(t *testing.T) {
	service := newTestChunker(1200, 120)

	var sb strings.Builder
	for i := 0; i < 120; i++ {
		fmt.Fprintf(&sb, "%s sentence %03d ends here. ", strings.Repeat("filler ", 20), i)
	}

	chunks := service.Chunk(models.Document{Text: sb.String()})
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		first := splitSentences(chunks[i].Text)[0]
		assert.Contains(t, chunks[i-1].Text, first,
			"chunk %d should start with trailing content of chunk %d", i, i-1)
	}
}

func TestChunk_OversizedSentenceIsNotSplit(t *testing.T) {
	service := newTestChunker(1200, 120)

	// A single sentence far beyond the maximum bound stays whole
	oversized := strings.Repeat("a", 9999) + "."
	text := oversized + " Short tail sentence."

	chunks := service.Chunk(models.Document{Text: text})

	require.Len(t, chunks, 2)
	assert.Equal(t, oversized, chunks[0].Text)
	assert.Greater(t, chunks[0].Metadata.TokenEstimate, 1200)
	assert.Equal(t, "Short tail sentence.", chunks[1].Text)
}

func TestChunk_SectionTracking(t *testing.T) {
	service := newTestChunker(1200, 120)

	text := "Intro sentence before any heading.\n" +
		"# Getting Started\n" +
		"First sentence of the section.\n" +
		"INSTALLATION NOTES\n" +
		"Second section sentence here."

	chunks := service.Chunk(models.Document{Text: text})
	require.Len(t, chunks, 1)

	sentences := scan(text)
	require.Len(t, sentences, 3)
	assert.Equal(t, "", sentences[0].section)
	assert.Equal(t, "Getting Started", sentences[1].section)
	assert.Equal(t, "INSTALLATION NOTES", sentences[2].section)

	// The chunk inherits the section of its first sentence
	assert.Equal(t, "", chunks[0].Metadata.Section)
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "Terminal punctuation with whitespace",
			text:     "First one. Second one! Third one?",
			expected: []string{"First one.", "Second one!", "Third one?"},
		},
		{
			name:     "Decimal numbers are not boundaries",
			text:     "Pi is 3.14 roughly. Next sentence.",
			expected: []string{"Pi is 3.14 roughly.", "Next sentence."},
		},
		{
			name:     "Trailing fragment without punctuation",
			text:     "Complete sentence. trailing fragment",
			expected: []string{"Complete sentence.", "trailing fragment"},
		},
		{
			name:     "Ellipsis stays with its sentence",
			text:     "Wait for it... Here it is.",
			expected: []string{"Wait for it...", "Here it is."},
		},
		{
			name:     "Empty input",
			text:     "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitSentences(tt.text))
		})
	}
}

func TestSectionLabel(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected string
		ok       bool
	}{
		{name: "Markdown header", line: "## API Reference", expected: "API Reference", ok: true},
		{name: "Uppercase line", line: "TERMS AND CONDITIONS", expected: "TERMS AND CONDITIONS", ok: true},
		{name: "Regular sentence", line: "This is a normal sentence.", ok: false},
		{name: "Numeric line", line: "3.14159", ok: false},
		{name: "Blank", line: "   ", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, ok := sectionLabel(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, label)
			}
		})
	}
}
