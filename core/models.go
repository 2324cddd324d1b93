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
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is the identifier type shared by entities and index records.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// EntityKey returns the canonical "(Type,name)" tuple used to mint entity IDs.
// Names are compared case-insensitively, so the tuple lowercases them.
func EntityKey(name string, entityType EntityType) string {
	return "(" + string(entityType) + "," + strings.ToLower(strings.TrimSpace(name)) + ")"
}

// EntityIDFor returns the stable ID an entity with this name and type is minted with.
func EntityIDFor(name string, entityType EntityType) ID {
	return IDFromContent(EntityKey(name, entityType))
}

// SourceSpan locates a mention of an entity inside a document.
type SourceSpan struct {
	DocID string
	Start int
	End   int
}

// Entity is a canonical node of the knowledge graph.
type Entity struct {
	Id          ID
	Name        string // First-seen display name, never replaced by merges
	Type        EntityType
	Aliases     []string  // Union-only, always includes Name
	Vector      []float32 // Normalized embedding captured when the entity was minted
	Salience    float64
	SourceSpans []SourceSpan
	Summary     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Tuple returns a string representation of the entity as "(Type,name)".
func (e *Entity) Tuple() string {
	return EntityKey(e.Name, e.Type)
}

// DocumentIDs returns the distinct documents this entity was seen in, in first-seen order.
func (e *Entity) DocumentIDs() []string {
	seen := make(map[string]bool, len(e.SourceSpans))
	docs := make([]string, 0, len(e.SourceSpans))
	for _, span := range e.SourceSpans {
		if !seen[span.DocID] {
			seen[span.DocID] = true
			docs = append(docs, span.DocID)
		}
	}
	return docs
}

// Evidence is a verbatim quote supporting a relationship.
type Evidence struct {
	DocID  string
	Quote  string
	Offset int // Byte offset of the quote in the source document, -1 if not located
}

// RelationKey is the identity of a relationship.
type RelationKey struct {
	From      ID
	To        ID
	Predicate Predicate
}

// Relationship is an admitted edge of the knowledge graph.
type Relationship struct {
	From        ID
	To          ID
	Predicate   Predicate
	Confidence  float64
	Evidence    []Evidence
	Directional bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Key returns the identity key of the relationship.
func (r *Relationship) Key() RelationKey {
	return RelationKey{From: r.From, To: r.To, Predicate: r.Predicate}
}

// Chunk is a bounded segment of a document.
// Start and End are byte offsets into the source text, so Text == text[Start:End].
type Chunk struct {
	DocID string
	Index int
	Text  string
	Start int
	End   int
}

// SimilarityMatch represents an entity match from vector similarity search.
type SimilarityMatch struct {
	EntityId ID
	Score    float32
}

// SearchResult represents a search result with the full entity and relevance score.
type SearchResult struct {
	Entity *Entity
	Score  float32
}

// Neighborhood is the result of a bounded neighbor expansion around an entity.
type Neighborhood struct {
	Center ID
	Nodes  []ID
	Edges  []RelationKey
}

// Graph is a materialized view of entities and the relationships between them.
type Graph struct {
	Entities      []*Entity
	Relationships []*Relationship
}

// Checkpoint records how far a resumable maintenance job has progressed.
type Checkpoint struct {
	Name      string
	LastID    ID
	Processed int
	UpdatedAt time.Time
}

// GraphStats summarizes the contents of the graph.
type GraphStats struct {
	Entities              int
	Relationships         int
	EntitiesByType        map[EntityType]int
	RelationsByPredicate  map[Predicate]int
	CrossDocumentEntities int
	Documents             int
	AverageSalience       float64
}
