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


package core

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxSummaryWords bounds Entity.Summary.
	MaxSummaryWords = 30

	// MaxQuoteChars bounds Evidence.Quote.
	MaxQuoteChars = 200
)

// ValidateEntity validates an Entity according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Type must be one of EntityTypes
//   - Salience must be within [0,1]
//
// NOT validated:
//   - Vector (empty when the entity was minted without an embedder)
//   - ID (derived from the name and type on creation)
func ValidateEntity(entity *Entity) error {
	if entity == nil {
		return fmt.Errorf("%w: entity is nil", ErrInvalidEntity)
	}

	if strings.TrimSpace(entity.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, ErrEmptyEntityName)
	}

	if !entity.Type.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidEntity, ErrInvalidEntityType, entity.Type)
	}

	if entity.Salience < 0 || entity.Salience > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, ErrSalienceOutOfRange)
	}

	return nil
}

// ValidateRelationship validates a Relationship according to domain rules.
// Admission thresholds are not checked here; they belong to the admission filter.
func ValidateRelationship(rel *Relationship) error {
	if rel == nil {
		return fmt.Errorf("%w: relationship is nil", ErrInvalidRelationship)
	}

	if _, ok := ParsePredicate(string(rel.Predicate)); !ok {
		return fmt.Errorf("%w: %w: %q", ErrInvalidRelationship, ErrInvalidPredicate, rel.Predicate)
	}

	if rel.Confidence < 0 || rel.Confidence > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidRelationship, ErrConfidenceOutOfRange)
	}

	if len(rel.Evidence) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRelationship, ErrMissingEvidence)
	}

	return nil
}

// TruncateSummary limits text to MaxSummaryWords words.
func TruncateSummary(text string) string {
	words := strings.Fields(text)
	if len(words) <= MaxSummaryWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:MaxSummaryWords], " ")
}

// TruncateQuote limits a quote to MaxQuoteChars characters without splitting runes.
func TruncateQuote(quote string) string {
	quote = strings.TrimSpace(quote)
	if utf8.RuneCountInString(quote) <= MaxQuoteChars {
		return quote
	}
	runes := []rune(quote)
	return string(runes[:MaxQuoteChars])
}

// ClampUnit clamps v to [0,1].
func ClampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
