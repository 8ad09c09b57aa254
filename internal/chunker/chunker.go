// Package chunker splits a document into fixed-size, non-overlapping chunks.
package chunker

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/askdoc/internal/domain"
)

// Split cuts text into consecutive slices of size characters.
// Characters are Unicode code points, so a multi-byte rune is never split.
// The last chunk holds the remainder; an empty text yields no chunks.
// Chunk IDs are the sequential indexes "0", "1", ...
func Split(text string, size int) ([]domain.Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("split with size %d: %w", size, domain.ErrInvalidChunkSize)
	}

	runes := []rune(text)
	chunks := make([]domain.Chunk, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, domain.Chunk{
			ID:   strconv.Itoa(len(chunks)),
			Text: string(runes[start:end]),
		})
	}
	return chunks, nil
}
