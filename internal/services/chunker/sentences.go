package chunker

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ternarybob/percontor/internal/common"
)

// scannedSentence is one sentence with the section label it inherited from
// the most recent heading seen before it.
type scannedSentence struct {
	text    string
	section string
	tokens  int
}

var markdownHeader = regexp.MustCompile(`^#{1,6}\s+(.+)$`)

// sectionLabel reports whether a line reads as a section heading: a
// markdown-style header, or a short fully-uppercase line (common in plain
// text extracted from PDFs).
func sectionLabel(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", false
	}

	if m := markdownHeader.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1]), true
	}

	if len([]rune(trimmed)) <= 80 {
		letters := 0
		for _, r := range trimmed {
			if unicode.IsLower(r) {
				return "", false
			}
			if unicode.IsLetter(r) {
				letters++
			}
		}
		if letters >= 2 {
			return trimmed, true
		}
	}

	return "", false
}

// splitSentences splits text on sentence-terminal punctuation followed by
// whitespace. A trailing fragment without terminal punctuation is kept as
// its own sentence.
func splitSentences(text string) []string {
	var sentences []string

	start := 0
	i := 0
	for i < len(text) {
		c := text[i]
		if c == '.' || c == '!' || c == '?' {
			j := i
			for j < len(text) && (text[j] == '.' || text[j] == '!' || text[j] == '?') {
				j++
			}
			if j >= len(text) || text[j] == ' ' || text[j] == '\t' || text[j] == '\n' || text[j] == '\r' {
				if s := strings.TrimSpace(text[start:j]); s != "" {
					sentences = append(sentences, s)
				}
				start = j
			}
			i = j
			continue
		}
		i++
	}

	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}

	return sentences
}

// scan walks the document line by line, tracking the running section label
// and splitting the accumulated text into sentences. Heading lines set the
// label and are not emitted as sentences themselves.
func scan(text string) []scannedSentence {
	var out []scannedSentence
	var buf []string
	section := ""

	flush := func() {
		if len(buf) == 0 {
			return
		}
		joined := strings.Join(buf, " ")
		buf = buf[:0]
		for _, s := range splitSentences(joined) {
			out = append(out, scannedSentence{
				text:    s,
				section: section,
				tokens:  common.EstimateTokens(s),
			})
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if label, ok := sectionLabel(line); ok {
			flush()
			section = label
			continue
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			buf = append(buf, trimmed)
		}
	}
	flush()

	return out
}
