package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1: emoji chunking, exact spans per the spec's worked example.
func TestSplit_EmojiChunking_ProducesExpectedSpans(t *testing.T) {
	text := strings.Repeat("\U0001F680\U0001F980\U0001F9EA", 100) // 300 codepoints

	chunks, err := Split("a.txt", text, 80, 20)
	require.NoError(t, err)
	require.Len(t, chunks, 5)

	wantSpans := [][2]int{{0, 80}, {60, 140}, {120, 200}, {180, 260}, {240, 300}}
	for i, want := range wantSpans {
		assert.Equal(t, want[0], chunks[i].StartChar, "chunk %d start", i)
		assert.Equal(t, want[1], chunks[i].EndChar, "chunk %d end", i)
		assert.True(t, utf8.ValidString(chunks[i].Text), "chunk %d is valid utf8", i)
	}
}

func TestSplit_ShorterThanChunkSize_YieldsOneChunk(t *testing.T) {
	chunks, err := Split("f.go", "package main", 512, 64)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, utf8.RuneCountInString("package main"), chunks[0].EndChar)
}

func TestSplit_ZeroOverlap_YieldsDisjointChunks(t *testing.T) {
	chunks, err := Split("f.go", strings.Repeat("x", 30), 10, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].EndChar, chunks[i].StartChar)
	}
}

func TestSplit_MaximalOverlap_Terminates(t *testing.T) {
	chunks, err := Split("f.go", strings.Repeat("y", 20), 10, 9)
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
	assert.Equal(t, 20, chunks[len(chunks)-1].EndChar)
}

func TestSplit_EmptyInput_YieldsNoChunks(t *testing.T) {
	chunks, err := Split("empty.go", "", 512, 64)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_RejectsInvalidParameters(t *testing.T) {
	_, err := Split("f.go", "hello", 0, 0)
	require.Error(t, err)

	_, err = Split("f.go", "hello", 10, 10)
	require.Error(t, err)

	_, err = Split("f.go", "hello", 10, 11)
	require.Error(t, err)
}

// Property: concatenating non-overlapping text (the tail beyond each
// chunk's overlap) must reconstruct the source exactly, and no chunk may
// end on a byte that splits a codepoint.
func TestSplit_ConcatenationProperty_ReconstructsSource(t *testing.T) {
	corpora := []string{
		"hello world, a plain ascii sentence used as a control case.",
		"emoji soup: \U0001F680\U0001F980\U0001F9EA repeated \U0001F680\U0001F980\U0001F9EA and more \U0001F680",
		"CJK mix: 你好世界 and some こんにちは text",
		"combining marks: é́́ à ô mixed with plain text",
		"RTL script: السلام عليكم",
	}

	for _, text := range corpora {
		runes := []rune(text)
		total := len(runes)
		for _, params := range [][2]int{{5, 0}, {5, 2}, {7, 3}, {total + 10, 0}} {
			size, overlap := params[0], params[1]
			if overlap >= size {
				continue
			}
			chunks, err := Split("corpus.txt", text, size, overlap)
			require.NoError(t, err)

			var rebuilt []rune
			for _, c := range chunks {
				assert.True(t, utf8.ValidString(c.Text))
				start := c.StartChar
				if len(rebuilt) > c.StartChar {
					start = len(rebuilt)
				}
				rebuilt = append(rebuilt, []rune(c.Text)[start-c.StartChar:]...)
			}
			assert.Equal(t, string(runes), string(rebuilt), "size=%d overlap=%d", size, overlap)
		}
	}
}

func TestID_IsDeterministicAndContentAddressed(t *testing.T) {
	id1 := ID("a.go", 0, "package main")
	id2 := ID("a.go", 0, "package main")
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 16)

	idDifferentIndex := ID("a.go", 1, "package main")
	assert.NotEqual(t, id1, idDifferentIndex)

	idDifferentPath := ID("b.go", 0, "package main")
	assert.NotEqual(t, id1, idDifferentPath)
}
