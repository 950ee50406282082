// Package chunk splits file content into overlapping, codepoint-safe
// windows for indexing.
package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	searcherr "github.com/nilsyn/searchd/internal/errors"
)

// Chunk is a single bounded character window of a file, the unit of
// indexing.
type Chunk struct {
	ID        string // content-addressable, sha256(path+index+content)[:16]
	FilePath  string
	Index     int // monotonic ordinal per file, starting at 0
	StartChar int // inclusive codepoint offset
	EndChar   int // exclusive codepoint offset
	Text      string
}

// Split divides text into an ordered sequence of overlapping chunks.
//
// Offsets are codepoint (rune) indices, never byte indices: text is never
// sliced at a mid-codepoint byte boundary. chunkSize must be at least 1 and
// overlap must be strictly less than chunkSize.
//
// Chunk k covers [k*(chunkSize-overlap), min(k*(chunkSize-overlap)+chunkSize, len(runes))).
// The final chunk may be shorter than chunkSize but is always non-empty;
// no chunk is emitted after the first one that reaches the end of text.
// Empty input yields zero chunks.
func Split(filePath string, text string, chunkSize, overlap int) ([]Chunk, error) {
	if chunkSize < 1 {
		return nil, searcherr.InvalidQuery(fmt.Sprintf("chunk_size=%d", chunkSize), nil).
			WithSuggestion("chunk_size must be >= 1")
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, searcherr.InvalidQuery(fmt.Sprintf("overlap=%d chunk_size=%d", overlap, chunkSize), nil).
			WithSuggestion("overlap must satisfy 0 <= overlap < chunk_size")
	}

	runes := []rune(text)
	total := len(runes)
	if total == 0 {
		return nil, nil
	}

	stride := chunkSize - overlap
	var chunks []Chunk
	for start, idx := 0, 0; start < total; start, idx = start+stride, idx+1 {
		end := start + chunkSize
		if end > total {
			end = total
		}
		c := Chunk{
			FilePath:  filePath,
			Index:     idx,
			StartChar: start,
			EndChar:   end,
			Text:      string(runes[start:end]),
		}
		c.ID = ID(filePath, idx, c.Text)
		chunks = append(chunks, c)
		if end == total {
			break
		}
	}
	return chunks, nil
}

// ID computes the content-addressable chunk identifier:
// sha256(file_path + "\x00" + chunk_index + "\x00" + content)[:16] (hex).
// Re-indexing identical content reproduces identical IDs.
func ID(filePath string, index int, content string) string {
	h := sha256.New()
	h.Write([]byte(filePath))
	h.Write([]byte{0})
	fmt.Fprintf(h, "%d", index)
	h.Write([]byte{0})
	h.Write([]byte(content))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)[:16]
}
