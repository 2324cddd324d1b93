package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeatWords(word string, n int) string {
	return strings.TrimSpace(strings.Repeat(word+" ", n))
}

func assertOffsets(t *testing.T, text string, c *Chunker, docID string) {
	t.Helper()
	for i, ch := range c.Split(docID, text) {
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, docID, ch.DocID)
		assert.NotEmpty(t, ch.Text)
		assert.Equal(t, text[ch.Start:ch.End], ch.Text)
	}
}

func TestNewRejectsInvalidCeiling(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, ErrInvalidCeiling)

	_, err = New(-5)
	assert.ErrorIs(t, err, ErrInvalidCeiling)

	c, err := New(1)
	require.NoError(t, err)
	assert.Equal(t, 1, c.MaxTokens())
}

func TestSplitEmpty(t *testing.T) {
	c, err := New(DefaultMaxTokens)
	require.NoError(t, err)

	assert.Empty(t, c.Split("doc", ""))
	assert.Empty(t, c.Split("doc", " \n\n\t "))
}

func TestSplitSmallDocumentIsOneChunk(t *testing.T) {
	c, err := New(DefaultMaxTokens)
	require.NoError(t, err)

	text := "\n  Transformers use attention.\n\nBERT is a transformer.  \n"
	chunks := c.Split("doc", text)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Transformers use attention.\n\nBERT is a transformer.", chunks[0].Text)
	assertOffsets(t, text, c, "doc")
}

func TestSplitPacksParagraphs(t *testing.T) {
	// each paragraph is 10 words, 13 tokens
	para := repeatWords("alpha", 10)
	text := strings.Join([]string{para, para, para, para}, "\n\n")

	c, err := New(20)
	require.NoError(t, err)
	chunks := c.Split("doc", text)
	assert.Len(t, chunks, 4)

	c, err = New(30)
	require.NoError(t, err)
	chunks = c.Split("doc", text)
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0].Text, "\n\n")
	assertOffsets(t, text, c, "doc")
}

func TestSplitOversizedParagraphAtSentences(t *testing.T) {
	sentence := repeatWords("beta", 5) + "."
	para := strings.Join([]string{sentence, sentence, sentence}, " ")

	c, err := New(10)
	require.NoError(t, err)

	chunks := c.Split("doc", para)
	require.Len(t, chunks, 3)
	for _, ch := range chunks {
		assert.True(t, strings.HasSuffix(ch.Text, "."), "chunk %q should end a sentence", ch.Text)
		assert.LessOrEqual(t, WordCounter{}.Count(ch.Text), 10)
	}
	assertOffsets(t, para, c, "doc")
}

func TestSplitFallsBackToWords(t *testing.T) {
	text := repeatWords("gamma", 100)

	c, err := New(13)
	require.NoError(t, err)

	chunks := c.Split("doc", text)
	require.NotEmpty(t, chunks)
	total := 0
	for _, ch := range chunks {
		assert.LessOrEqual(t, WordCounter{}.Count(ch.Text), 13)
		total += len(strings.Fields(ch.Text))
	}
	assert.Equal(t, 100, total)
	assertOffsets(t, text, c, "doc")
}

func TestSplitPreservesMultibyteOffsets(t *testing.T) {
	text := "Café résumé naïve.\n\nÜber straße façade! Zoë coöperate."

	c, err := New(4)
	require.NoError(t, err)
	assertOffsets(t, text, c, "doc")
}

type fixedCounter int

func (f fixedCounter) Count(text string) int {
	return int(f) * len(strings.Fields(text))
}

func TestWithCounter(t *testing.T) {
	c, err := New(4, WithCounter(fixedCounter(2)))
	require.NoError(t, err)

	chunks := c.Split("doc", "one two three four five six")
	require.Len(t, chunks, 3)
	assert.Equal(t, "one two", chunks[0].Text)
}

func TestWordCounter(t *testing.T) {
	assert.Equal(t, 0, WordCounter{}.Count(""))
	assert.Equal(t, 1, WordCounter{}.Count("one"))
	assert.Equal(t, 13, WordCounter{}.Count(repeatWords("w", 10)))
}
