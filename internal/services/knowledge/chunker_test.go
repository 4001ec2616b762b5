package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_Empty(t *testing.T) {
	assert.Nil(t, ChunkText("", 500))
	assert.Nil(t, ChunkText("   ", 500))
}

func TestChunkText_SingleSentence(t *testing.T) {
	chunks := ChunkText("The market is growing.", 500)
	require.Len(t, chunks, 1)
	assert.Equal(t, "The market is growing.", chunks[0])
}

func TestChunkText_NoTerminalPunctuation(t *testing.T) {
	chunks := ChunkText("fragment without punctuation", 500)
	require.Len(t, chunks, 1)
	assert.Equal(t, "fragment without punctuation", chunks[0])
}

func TestChunkText_SplitsAtLimit(t *testing.T) {
	first := strings.Repeat("a", 300) + "."
	second := strings.Repeat("b", 300) + "!"
	third := "Short tail?"

	chunks := ChunkText(first+" "+second+" "+third, 500)
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0], "aaa")
	assert.Contains(t, chunks[1], "bbb")
	assert.Contains(t, chunks[1], "Short tail?")
}

func TestChunkText_EveryChunkWithinLimitForNormalText(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("Sentiment from reviews is mostly positive this quarter. ")
	}

	chunks := ChunkText(b.String(), 500)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 500)
		assert.Equal(t, chunk, strings.TrimSpace(chunk))
	}
}

func TestChunkText_OversizedSentenceBecomesOwnChunk(t *testing.T) {
	long := strings.Repeat("x", 800) + "."
	chunks := ChunkText(long, 500)
	require.Len(t, chunks, 1)
	assert.Equal(t, long, chunks[0])
}

func TestChunkText_DefaultSizeWhenZero(t *testing.T) {
	chunks := ChunkText("One. Two. Three.", 0)
	require.Len(t, chunks, 1)
}
