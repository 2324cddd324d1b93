package core

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateEntity(t *testing.T) {
	tests := []struct {
		name    string
		entity  *Entity
		wantErr error
	}{
		{
			name:    "valid entity",
			entity:  &Entity{Name: "BERT", Type: EntityTypeSystem, Salience: 0.4},
			wantErr: nil,
		},
		{
			name:    "valid entity without vector",
			entity:  &Entity{Name: "BERT", Type: EntityTypeSystem, Vector: nil},
			wantErr: nil,
		},
		{
			name:    "nil entity",
			entity:  nil,
			wantErr: ErrInvalidEntity,
		},
		{
			name:    "empty name",
			entity:  &Entity{Name: "  ", Type: EntityTypeSystem},
			wantErr: ErrEmptyEntityName,
		},
		{
			name:    "unknown type",
			entity:  &Entity{Name: "Paris", Type: EntityType("Place")},
			wantErr: ErrInvalidEntityType,
		},
		{
			name:    "lowercase type is not canonical",
			entity:  &Entity{Name: "Paris", Type: EntityType("concept")},
			wantErr: ErrInvalidEntityType,
		},
		{
			name:    "salience above one",
			entity:  &Entity{Name: "BERT", Type: EntityTypeSystem, Salience: 1.2},
			wantErr: ErrSalienceOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntity(tt.entity)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateEntity() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEntity() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidEntity) {
				t.Errorf("ValidateEntity() error should wrap ErrInvalidEntity, got %v", err)
			}
		})
	}
}

func TestValidateRelationship(t *testing.T) {
	evidence := []Evidence{{DocID: "d", Quote: "q", Offset: 0}}

	tests := []struct {
		name    string
		rel     *Relationship
		wantErr error
	}{
		{
			name:    "valid relationship",
			rel:     &Relationship{From: 1, To: 2, Predicate: PredicateUses, Confidence: 0.7, Evidence: evidence},
			wantErr: nil,
		},
		{
			name:    "nil relationship",
			rel:     nil,
			wantErr: ErrInvalidRelationship,
		},
		{
			name:    "bad predicate",
			rel:     &Relationship{Predicate: "likes", Confidence: 0.7, Evidence: evidence},
			wantErr: ErrInvalidPredicate,
		},
		{
			name:    "confidence out of range",
			rel:     &Relationship{Predicate: PredicateUses, Confidence: -0.1, Evidence: evidence},
			wantErr: ErrConfidenceOutOfRange,
		},
		{
			name:    "no evidence",
			rel:     &Relationship{Predicate: PredicateUses, Confidence: 0.9},
			wantErr: ErrMissingEvidence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRelationship(tt.rel)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateRelationship() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRelationship() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTruncateSummary(t *testing.T) {
	long := strings.Repeat("word ", 45)
	got := TruncateSummary(long)
	if n := len(strings.Fields(got)); n != MaxSummaryWords {
		t.Errorf("expected %d words, got %d", MaxSummaryWords, n)
	}

	if got := TruncateSummary("  a   short\nsummary "); got != "a short summary" {
		t.Errorf("unexpected summary %q", got)
	}
}

func TestTruncateQuote(t *testing.T) {
	long := strings.Repeat("é", 250)
	got := TruncateQuote(long)
	if n := len([]rune(got)); n != MaxQuoteChars {
		t.Errorf("expected %d runes, got %d", MaxQuoteChars, n)
	}

	if got := TruncateQuote(" short "); got != "short" {
		t.Errorf("unexpected quote %q", got)
	}
}

func TestClampUnit(t *testing.T) {
	if ClampUnit(-1) != 0 || ClampUnit(2) != 1 || ClampUnit(0.3) != 0.3 {
		t.Errorf("ClampUnit did not clamp to [0,1]")
	}
}
