// Package splitter cuts normalized document text into bounded, overlapping
// chunks suitable for embedding.
package splitter

import (
	"strings"
	"unicode/utf8"

	"github.com/eduassistant/go-agent/documents"
)

// Boundary preference, largest structural unit first. The empty separator is
// the rune-level fallback for text with no split points at all.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// ChunkMetadata carries a chunk's provenance plus its 0-based position within
// the originating document's split sequence.
type ChunkMetadata struct {
	Source     string
	Filename   string
	ChunkIndex int
}

// Chunk is one retrievable segment of a document.
type Chunk struct {
	Text     string
	Metadata ChunkMetadata
}

// Splitter divides text recursively, preferring paragraph boundaries over
// line boundaries over word boundaries before falling back to a hard cut.
// Consecutive chunks share up to ChunkOverlap characters. Splitter is
// stateless beyond its two size parameters.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// New returns a Splitter with the given target chunk size and overlap,
// normalizing nonsensical values. Overlap must stay below chunk size.
func New(chunkSize, chunkOverlap int) Splitter {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 4
	}
	return Splitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
}

// SplitDocument splits one document into indexed chunks. Empty documents
// produce zero chunks.
func (s Splitter) SplitDocument(doc documents.Document) []Chunk {
	pieces := s.Split(doc.Text)
	chunks := make([]Chunk, 0, len(pieces))
	for idx, text := range pieces {
		chunks = append(chunks, Chunk{
			Text: text,
			Metadata: ChunkMetadata{
				Source:     doc.Metadata.Source,
				Filename:   doc.Metadata.Filename,
				ChunkIndex: idx,
			},
		})
	}
	return chunks
}

// Split returns the chunk texts for text, in order. No chunk exceeds
// ChunkSize characters unless a single unsplittable atom (one word longer
// than ChunkSize with no smaller boundary) forces it.
func (s Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.splitText(text, defaultSeparators)
}

func (s Splitter) splitText(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	remaining := []string{}
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			separator = candidate
			remaining = separators[i+1:]
			break
		}
	}

	splits := splitOn(text, separator)

	final := make([]string, 0, len(splits))
	good := make([]string, 0, len(splits))
	for _, piece := range splits {
		if utf8.RuneCountInString(piece) < s.ChunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.mergeSplits(good, separator)...)
			good = good[:0]
		}
		if len(remaining) == 0 {
			// Unsplittable atom, emitted oversize.
			final = append(final, piece)
		} else {
			final = append(final, s.splitText(piece, remaining)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.mergeSplits(good, separator)...)
	}
	return final
}

// mergeSplits packs small splits back together up to ChunkSize, carrying a
// tail of at most ChunkOverlap characters into the next chunk.
func (s Splitter) mergeSplits(splits []string, separator string) []string {
	separatorLen := utf8.RuneCountInString(separator)

	chunks := make([]string, 0)
	current := make([]string, 0)
	total := 0

	gap := func(count int) int {
		if count > 0 {
			return separatorLen
		}
		return 0
	}

	for _, piece := range splits {
		pieceLen := utf8.RuneCountInString(piece)
		if total+pieceLen+gap(len(current)) > s.ChunkSize && len(current) > 0 {
			if chunk := joinSplits(current, separator); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.ChunkOverlap || (total+pieceLen+gap(len(current)) > s.ChunkSize && total > 0) {
				total -= utf8.RuneCountInString(current[0]) + gap(len(current)-1)
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += pieceLen + gap(len(current)-1)
	}

	if chunk := joinSplits(current, separator); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func joinSplits(parts []string, separator string) string {
	return strings.TrimSpace(strings.Join(parts, separator))
}

func splitOn(text, separator string) []string {
	if separator == "" {
		runes := []rune(text)
		pieces := make([]string, 0, len(runes))
		for _, r := range runes {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	raw := strings.Split(text, separator)
	pieces := make([]string, 0, len(raw))
	for _, piece := range raw {
		if piece != "" {
			pieces = append(pieces, piece)
		}
	}
	return pieces
}
