package repository

import (
	"fmt"
	"unicode/utf8"

	"git-analyse/types"
)

// Partition splits corpus into consecutive chunks of maxChars code points;
// only the last chunk may be shorter. Chunk boundaries never split a
// multi-byte character. An empty corpus yields no chunks.
func Partition(corpus string, maxChars int) ([]types.Chunk, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("max chars must be positive, got %d", maxChars)
	}

	total := (utf8.RuneCountInString(corpus) + maxChars - 1) / maxChars
	chunks := make([]types.Chunk, 0, total)

	start, count := 0, 0
	for offset := range corpus {
		if count == maxChars {
			chunks = append(chunks, types.Chunk{Index: len(chunks), Text: corpus[start:offset]})
			start, count = offset, 0
		}
		count++
	}
	if count > 0 {
		chunks = append(chunks, types.Chunk{Index: len(chunks), Text: corpus[start:]})
	}

	for i := range chunks {
		chunks[i].Total = len(chunks)
	}
	return chunks, nil
}
