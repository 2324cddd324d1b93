package openai

import (
	"fmt"
	"strings"

	"github.com/CSorel-Catalyte/graphdemo/ai"
)

// classify wraps retryable client errors with ai.ErrTransient.
func classify(err error) error {
	if ai.IsTransient(err) {
		return fmt.Errorf("%w: %w", ai.ErrTransient, err)
	}
	return err
}

// stripCodeFences removes a surrounding markdown code fence from a model response.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
