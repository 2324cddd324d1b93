package search

import "strings"

// stopWords are ignored when deciding whether an entity matches a query verbatim.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// terms lowercases text, strips surrounding punctuation and drops stop words.
// Hyphenated words also contribute their parts, so "Low-Rank" matches "rank".
func terms(text string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range strings.Fields(text) {
		word = strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if word == "" || stopWords[word] {
			continue
		}
		set[word] = true
		if strings.Contains(word, "-") {
			for _, part := range strings.Split(word, "-") {
				if part != "" && !stopWords[part] {
					set[part] = true
				}
			}
		}
	}
	return set
}

// containsAllQueryWords reports whether every non-stop word of query occurs in document.
// A query made only of stop words never matches.
func containsAllQueryWords(document, query string) bool {
	want := terms(query)
	if len(want) == 0 {
		return false
	}
	have := terms(document)
	for word := range want {
		if !have[word] {
			return false
		}
	}
	return true
}
