// Copyright 2026 The graphdemo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package chunker

import (
	"errors"
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/CSorel-Catalyte/graphdemo/core"
)

// DefaultMaxTokens is the default token ceiling per chunk.
const DefaultMaxTokens = 1800

// ErrInvalidCeiling is returned when the token ceiling is below 1.
var ErrInvalidCeiling = errors.New("chunker: token ceiling must be at least 1")

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Chunker splits documents into segments that respect a token ceiling.
// It prefers paragraph boundaries, then sentence boundaries, then word boundaries.
// A Chunker is immutable and safe for concurrent use.
type Chunker struct {
	maxTokens int
	counter   Counter
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithCounter sets the token counter.
// Default is WordCounter.
func WithCounter(counter Counter) Option {
	return func(c *Chunker) {
		if counter != nil {
			c.counter = counter
		}
	}
}

// New creates a chunker with the given token ceiling.
func New(maxTokens int, opts ...Option) (*Chunker, error) {
	if maxTokens < 1 {
		return nil, ErrInvalidCeiling
	}
	c := &Chunker{
		maxTokens: maxTokens,
		counter:   WordCounter{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// MaxTokens returns the configured ceiling.
func (c *Chunker) MaxTokens() int {
	return c.maxTokens
}

// span is a half-open byte range into the source text.
type span struct {
	start, end int
}

// Split breaks text into ordered chunks for docID.
// Each chunk's Text is exactly text[Start:End] and is never empty.
// Only a single word longer than the ceiling can produce an oversized chunk.
func (c *Chunker) Split(docID, text string) []core.Chunk {
	spans := c.pack(text, paragraphs(text), c.packSentences)

	chunks := make([]core.Chunk, 0, len(spans))
	for i, s := range spans {
		chunks = append(chunks, core.Chunk{
			DocID: docID,
			Index: i,
			Text:  text[s.start:s.end],
			Start: s.start,
			End:   s.end,
		})
	}
	return chunks
}

func (c *Chunker) fits(text string, s span) bool {
	return c.counter.Count(text[s.start:s.end]) <= c.maxTokens
}

// pack greedily merges consecutive units while the merged text fits.
// Units that do not fit on their own are handed to split, or emitted as-is when split is nil.
func (c *Chunker) pack(text string, units []span, split func(string, span) []span) []span {
	var out []span
	var cur span
	open := false

	for _, u := range units {
		if !c.fits(text, u) {
			if open {
				out = append(out, cur)
				open = false
			}
			if split != nil {
				out = append(out, split(text, u)...)
			} else {
				out = append(out, u)
			}
			continue
		}

		if !open {
			cur = u
			open = true
			continue
		}

		merged := span{start: cur.start, end: u.end}
		if c.fits(text, merged) {
			cur = merged
		} else {
			out = append(out, cur)
			cur = u
		}
	}

	if open {
		out = append(out, cur)
	}
	return out
}

func (c *Chunker) packSentences(text string, s span) []span {
	return c.pack(text, sentences(text, s), c.packWords)
}

func (c *Chunker) packWords(text string, s span) []span {
	return c.pack(text, words(text, s), nil)
}

// paragraphs returns the non-blank paragraphs of text, trimmed of surrounding space.
func paragraphs(text string) []span {
	var out []span
	prev := 0
	for _, m := range paragraphBreak.FindAllStringIndex(text, -1) {
		if s, ok := trim(text, span{start: prev, end: m[0]}); ok {
			out = append(out, s)
		}
		prev = m[1]
	}
	if s, ok := trim(text, span{start: prev, end: len(text)}); ok {
		out = append(out, s)
	}
	return out
}

// sentences splits s after '.', '!' or '?' when followed by whitespace.
func sentences(text string, s span) []span {
	var out []span
	start := s.start
	for i := s.start; i < s.end; {
		r, size := utf8.DecodeRuneInString(text[i:s.end])
		next := i + size
		if (r == '.' || r == '!' || r == '?') && next < s.end {
			if nr, _ := utf8.DecodeRuneInString(text[next:s.end]); unicode.IsSpace(nr) {
				if t, ok := trim(text, span{start: start, end: next}); ok {
					out = append(out, t)
				}
				start = next
			}
		}
		i = next
	}
	if t, ok := trim(text, span{start: start, end: s.end}); ok {
		out = append(out, t)
	}
	return out
}

// words splits s on whitespace.
func words(text string, s span) []span {
	var out []span
	inWord := false
	start := s.start
	for i := s.start; i < s.end; {
		r, size := utf8.DecodeRuneInString(text[i:s.end])
		if unicode.IsSpace(r) {
			if inWord {
				out = append(out, span{start: start, end: i})
				inWord = false
			}
		} else if !inWord {
			start = i
			inWord = true
		}
		i += size
	}
	if inWord {
		out = append(out, span{start: start, end: s.end})
	}
	return out
}

// trim shrinks s to exclude leading and trailing whitespace.
// It reports false when nothing but whitespace remains.
func trim(text string, s span) (span, bool) {
	for s.start < s.end {
		r, size := utf8.DecodeRuneInString(text[s.start:s.end])
		if !unicode.IsSpace(r) {
			break
		}
		s.start += size
	}
	for s.end > s.start {
		r, size := utf8.DecodeLastRuneInString(text[s.start:s.end])
		if !unicode.IsSpace(r) {
			break
		}
		s.end -= size
	}
	return s, s.end > s.start
}
