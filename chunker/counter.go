package chunker

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates the number of model tokens in a piece of text.
type Counter interface {
	Count(text string) int
}

// WordCounter approximates tokens as 1.3 per whitespace-separated word.
type WordCounter struct{}

// Count implements Counter.
func (WordCounter) Count(text string) int {
	return int(float64(len(strings.Fields(text))) * 1.3)
}

// TiktokenCounter counts tokens with a BPE encoding.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named encoding, e.g. "cl100k_base".
// The encoding's ranks are fetched and cached by tiktoken-go on first use.
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{enc: enc}, nil
}

// Count implements Counter.
func (t *TiktokenCounter) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}
