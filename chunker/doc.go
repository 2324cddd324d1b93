// Package chunker splits documents into token-bounded chunks.
//
// Chunks break on blank lines between paragraphs when possible. A paragraph
// that exceeds the ceiling is split at sentence ends, and a sentence that
// still exceeds it is split between words. Chunk offsets are byte offsets
// into the original document.
package chunker
