package rag

import (
	"errors"
	"strings"
)

const (
	// DefaultChunkSize is the character threshold at which a chunk is closed.
	DefaultChunkSize = 500
	// DefaultOverlap is the number of trailing words carried into the next chunk.
	DefaultOverlap = 50
)

var ErrChunkParams = errors.New("invalid chunk parameters")

// Chunk is a bounded span of source text. Immutable once created.
type Chunk struct {
	Text     string
	SourceID string
	Ordinal  int
}

// Split breaks text into overlapping chunks. Sentences are accumulated until
// appending the next one would push the buffer past maxSize characters; the
// chunk is then closed and the trailing overlap words seed the next buffer.
// A single sentence longer than maxSize is emitted whole, never truncated.
// Empty or whitespace-only input yields no chunks.
func Split(sourceID, text string, maxSize, overlap int) ([]Chunk, error) {
	if maxSize <= 0 || overlap < 0 {
		return nil, ErrChunkParams
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}

	var chunks []Chunk
	var buf strings.Builder

	emit := func() {
		trimmed := strings.TrimSpace(buf.String())
		if trimmed == "" {
			return
		}
		chunks = append(chunks, Chunk{
			Text:     trimmed,
			SourceID: sourceID,
			Ordinal:  len(chunks),
		})
	}

	for _, sentence := range sentences {
		if buf.Len() > 0 && buf.Len()+len(sentence) > maxSize {
			carry := trailingWords(buf.String(), overlap)
			emit()
			buf.Reset()
			if carry != "" {
				buf.WriteString(carry)
				buf.WriteString(" ")
			}
		}
		buf.WriteString(sentence)
		buf.WriteString(". ")
	}
	emit()

	return chunks, nil
}

// splitSentences cuts text on sentence terminators and drops empty fragments.
func splitSentences(text string) []string {
	fragments := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	sentences := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if s := strings.TrimSpace(f); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// trailingWords returns the last n whitespace-delimited words of s.
func trailingWords(s string, n int) string {
	if n <= 0 {
		return ""
	}
	words := strings.Fields(s)
	if len(words) > n {
		words = words[len(words)-n:]
	}
	return strings.Join(words, " ")
}
