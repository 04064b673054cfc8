// Package chunker splits page text into fixed-size overlapping passages.
package chunker

import (
	"fmt"

	"github.com/pdfchat/backend/internal/models"
)

// DefaultSize is the default passage length in characters.
const DefaultSize = 400

// DefaultOverlap is the default number of characters consecutive passages
// share, so a concept spanning a boundary stays retrievable from at least
// one of them.
const DefaultOverlap = 50

// Splitter produces fixed-size chunks with a fixed overlap. Sizes are in
// runes so multi-byte text never splits mid-character.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter validates the configuration and returns a Splitter. An
// overlap that is negative or not smaller than the size is a
// models.ErrChunking: the sliding window could not advance.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d must be positive", models.ErrChunking, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap %d must not be negative", models.ErrChunking, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than size %d", models.ErrChunking, overlap, size)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Size returns the configured chunk size.
func (s *Splitter) Size() int { return s.size }

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int { return s.overlap }

// Split chunks text into passages. Every chunk except the last is exactly
// the configured size; consecutive chunks share exactly the configured
// overlap; concatenating the chunks with the overlap trimmed reconstructs
// the input. Text no longer than the size yields a single chunk. Empty
// text yields none.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.size {
		return []string{text}
	}

	step := s.size - s.overlap
	chunks := make([]string, 0, (len(runes)-s.overlap+step-1)/step)
	for start := 0; ; start += step {
		end := start + s.size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
