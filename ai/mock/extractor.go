package mock

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/CSorel-Catalyte/graphdemo/ai"
)

// MockExtractor is a test double for ai.Extractor.
// It allows custom behavior injection via function fields.
type MockExtractor struct {
	// ExtractFunc is called by Extract if set.
	// If nil, every capitalized word becomes a Concept entity and no relations are returned.
	ExtractFunc func(ctx context.Context, text string) (*ai.Extraction, error)

	mu        sync.Mutex
	callCount int
}

// NewMockExtractor creates a mock extractor with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockExtractor().
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

// Extract returns the injected result or a simple word-based extraction.
func (m *MockExtractor) Extract(ctx context.Context, text string) (*ai.Extraction, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, text)
	}

	result := &ai.Extraction{}
	seen := make(map[string]bool)
	for _, word := range strings.Fields(text) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word == "" || !unicode.IsUpper([]rune(word)[0]) || seen[strings.ToLower(word)] {
			continue
		}
		seen[strings.ToLower(word)] = true
		result.Entities = append(result.Entities, ai.ExtractedEntity{
			Name: word,
			Type: "Concept",
		})
	}
	return result, nil
}

// CallCount returns the number of times Extract was called.
func (m *MockExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.ExtractFunc = nil
}
