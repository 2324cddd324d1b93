// Package canonical decides whether a candidate entity is new or a restatement
// of an existing one, and is the only writer of entity records.
//
// Candidates are compared with their vector neighbours and with entities that
// share a lexical key. A neighbour qualifies by cosine similarity, alias
// overlap, acronym equivalence or a small edit distance between short names.
// When embeddings or vector search are unavailable the engine falls back to the
// lexical rules over every entity of the type and marks the outcome provisional.
package canonical
