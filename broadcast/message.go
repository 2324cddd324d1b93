package broadcast

import (
	"strconv"

	"github.com/CSorel-Catalyte/graphdemo/core"
)

// MessageType discriminates broadcast messages.
type MessageType string

const (
	TypeUpsertNodes MessageType = "upsert_nodes"
	TypeUpsertEdges MessageType = "upsert_edges"
	TypeStatus      MessageType = "status"
	TypeError       MessageType = "error"
)

// Stage names a status message.
type Stage string

const (
	StageChunkProcessed Stage = "chunk_processed"
	StageChunkFailed    Stage = "chunk_failed"
	StageComplete       Stage = "complete"
	StageFailed         Stage = "failed"
)

// Message is one broadcast update. Status fields are inlined for status messages.
type Message struct {
	Type    MessageType `json:"type"`
	DocID   string      `json:"doc_id,omitempty"`
	Nodes   []Node      `json:"nodes,omitempty"`
	Edges   []Edge      `json:"edges,omitempty"`
	Error   string      `json:"error,omitempty"`
	*Status
}

// Status carries the running totals of a document.
type Status struct {
	Stage             Stage  `json:"stage"`
	Count             int    `json:"count"`
	ChunkIndex        int    `json:"chunk_index"`
	Total             int    `json:"total"`
	Entities          int    `json:"entities"`
	Relations         int    `json:"relations"`
	FailedChunks      int    `json:"failed_chunks"`
	RejectedRelations int    `json:"rejected_relations"`
	ElapsedMS         int64  `json:"elapsed_ms,omitempty"`
	Message           string `json:"message,omitempty"`
}

// Span is the wire form of core.SourceSpan.
type Span struct {
	DocID string `json:"doc_id"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Node is the wire form of an entity. IDs are decimal strings so JavaScript
// clients keep all 64 bits.
type Node struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Aliases     []string `json:"aliases"`
	Salience    float64  `json:"salience"`
	SourceSpans []Span   `json:"source_spans"`
	Summary     string   `json:"summary,omitempty"`
}

// Evidence is the wire form of core.Evidence.
type Evidence struct {
	DocID  string `json:"doc_id"`
	Quote  string `json:"quote"`
	Offset int    `json:"offset"`
}

// Edge is the wire form of a relationship.
type Edge struct {
	From        string     `json:"from"`
	To          string     `json:"to"`
	Predicate   string     `json:"predicate"`
	Confidence  float64    `json:"confidence"`
	Evidence    []Evidence `json:"evidence"`
	Directional bool       `json:"directional"`
}

// FormatID renders an id the way messages carry it.
func FormatID(id core.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseID parses an id rendered by FormatID.
func ParseID(s string) (core.ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return core.ID(v), nil
}

// NodeFrom converts an entity.
func NodeFrom(e *core.Entity) Node {
	spans := make([]Span, len(e.SourceSpans))
	for i, s := range e.SourceSpans {
		spans[i] = Span{DocID: s.DocID, Start: s.Start, End: s.End}
	}
	return Node{
		ID:          FormatID(e.Id),
		Name:        e.Name,
		Type:        string(e.Type),
		Aliases:     e.Aliases,
		Salience:    e.Salience,
		SourceSpans: spans,
		Summary:     e.Summary,
	}
}

// EdgeFrom converts a relationship.
func EdgeFrom(r *core.Relationship) Edge {
	evidence := make([]Evidence, len(r.Evidence))
	for i, ev := range r.Evidence {
		evidence[i] = Evidence{DocID: ev.DocID, Quote: ev.Quote, Offset: ev.Offset}
	}
	return Edge{
		From:        FormatID(r.From),
		To:          FormatID(r.To),
		Predicate:   string(r.Predicate),
		Confidence:  r.Confidence,
		Evidence:    evidence,
		Directional: r.Directional,
	}
}
