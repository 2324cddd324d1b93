package core

// CandidateEntity is an entity mention proposed by extraction, before canonicalization.
type CandidateEntity struct {
	Name     string
	Type     EntityType
	Aliases  []string
	Summary  string
	Salience float64 // Hint from the extractor, 0 when absent
	Start    int     // Document offset of the first mention, -1 if not located
	End      int
}

// CandidateRelation is a relation proposed by extraction. Endpoints are
// referenced by the name and type of a candidate entity of the same response,
// so same-named entities of different types stay apart.
type CandidateRelation struct {
	From        string
	FromType    EntityType
	To          string
	ToType      EntityType
	Predicate   Predicate
	Confidence  float64
	Evidence    []Evidence
	Directional bool
}

// DropCounts tallies candidates and evidence removed while validating an extraction.
type DropCounts struct {
	InvalidEntities   int
	UnknownTypes      int
	UnknownPredicates int
	InvalidRelations  int
	DanglingRelations int
	UnlocatedQuotes   int // Evidence quotes not found in the chunk text
}

// Total returns the number of dropped items.
func (d DropCounts) Total() int {
	return d.InvalidEntities + d.UnknownTypes + d.UnknownPredicates + d.InvalidRelations + d.DanglingRelations + d.UnlocatedQuotes
}

// Extraction is the validated output of extracting one chunk.
type Extraction struct {
	Entities  []CandidateEntity
	Relations []CandidateRelation
	Dropped   DropCounts
}
