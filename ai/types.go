package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ExtractedEntity is one entity item of a model response.
type ExtractedEntity struct {
	Name     string   `json:"name" validate:"required"`
	Type     string   `json:"type" validate:"required"`
	Aliases  []string `json:"aliases"`
	Summary  string   `json:"summary"`
	Salience *float64 `json:"salience,omitempty"`
}

// ExtractedEvidence is a verbatim quote supporting a relation.
// Offset is relative to the text sent to the model; nil means unknown.
type ExtractedEvidence struct {
	Quote  string `json:"quote" validate:"required"`
	Offset *int   `json:"offset,omitempty"`
}

// ExtractedRelation is one relation item of a model response.
// Endpoints are entity names, not ids. A nil Confidence or Directional means the model omitted it.
type ExtractedRelation struct {
	From        string              `json:"from" validate:"required"`
	To          string              `json:"to" validate:"required"`
	Predicate   string              `json:"predicate" validate:"required"`
	Confidence  *float64            `json:"confidence,omitempty"`
	Evidence    []ExtractedEvidence `json:"evidence" validate:"min=1,dive"`
	Directional *bool               `json:"directional,omitempty"`
}

// SalienceHint is the model's importance estimate for a named entity.
type SalienceHint struct {
	Name     string  `json:"name" validate:"required"`
	Salience float64 `json:"salience"`
}

// Extraction is a decoded model response.
// Items that failed validation are counted and left out.
type Extraction struct {
	Entities      []ExtractedEntity   `json:"entities"`
	Relations     []ExtractedRelation `json:"relations"`
	SalienceHints []SalienceHint      `json:"salience_hints,omitempty"`

	InvalidEntities  int `json:"-"`
	InvalidRelations int `json:"-"`
}

// ParseExtraction decodes a model response.
//
// The top level must be a JSON object with an "entities" array. "relations"
// is optional and "relationships" is accepted in its place. Individual items
// that do not decode or validate are dropped and counted; only a malformed
// top level returns ErrSchemaInvalid.
func ParseExtraction(data []byte) (*Extraction, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaInvalid, err)
	}
	if top == nil {
		return nil, fmt.Errorf("%w: response is null", ErrSchemaInvalid)
	}

	rawEntities, ok := top["entities"]
	if !ok || isNull(rawEntities) {
		return nil, fmt.Errorf("%w: missing entities array", ErrSchemaInvalid)
	}
	entityItems, err := decodeArray(rawEntities)
	if err != nil {
		return nil, fmt.Errorf("%w: entities: %w", ErrSchemaInvalid, err)
	}

	result := &Extraction{}
	for _, item := range entityItems {
		var e ExtractedEntity
		if err := json.Unmarshal(item, &e); err != nil {
			result.InvalidEntities++
			continue
		}
		e.clean()
		if err := validate.Struct(e); err != nil {
			result.InvalidEntities++
			continue
		}
		result.Entities = append(result.Entities, e)
	}

	rawRelations, ok := top["relations"]
	if !ok {
		rawRelations, ok = top["relationships"]
	}
	if ok && !isNull(rawRelations) {
		relationItems, err := decodeArray(rawRelations)
		if err != nil {
			return nil, fmt.Errorf("%w: relations: %w", ErrSchemaInvalid, err)
		}
		for _, item := range relationItems {
			var r ExtractedRelation
			if err := json.Unmarshal(item, &r); err != nil {
				result.InvalidRelations++
				continue
			}
			r.clean()
			if err := validate.Struct(r); err != nil {
				result.InvalidRelations++
				continue
			}
			result.Relations = append(result.Relations, r)
		}
	}

	if rawHints, ok := top["salience_hints"]; ok && !isNull(rawHints) {
		hintItems, err := decodeArray(rawHints)
		if err != nil {
			return nil, fmt.Errorf("%w: salience_hints: %w", ErrSchemaInvalid, err)
		}
		for _, item := range hintItems {
			var h SalienceHint
			if json.Unmarshal(item, &h) != nil {
				continue
			}
			h.Name = strings.TrimSpace(h.Name)
			if validate.Struct(h) != nil {
				continue
			}
			result.SalienceHints = append(result.SalienceHints, h)
		}
	}

	return result, nil
}

func (e *ExtractedEntity) clean() {
	e.Name = strings.TrimSpace(e.Name)
	e.Type = strings.TrimSpace(e.Type)
	e.Summary = strings.TrimSpace(e.Summary)
	aliases := e.Aliases[:0]
	for _, a := range e.Aliases {
		if a = strings.TrimSpace(a); a != "" {
			aliases = append(aliases, a)
		}
	}
	e.Aliases = aliases
}

func (r *ExtractedRelation) clean() {
	r.From = strings.TrimSpace(r.From)
	r.To = strings.TrimSpace(r.To)
	r.Predicate = strings.TrimSpace(r.Predicate)
	for i := range r.Evidence {
		r.Evidence[i].Quote = strings.TrimSpace(r.Evidence[i].Quote)
	}
}

func decodeArray(raw json.RawMessage) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
