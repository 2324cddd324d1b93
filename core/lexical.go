package core

import (
	"strings"
	"unicode"
)

var stopWords = map[string]bool{
	"the": true, "of": true, "and": true, "or": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "with": true, "by": true, "a": true, "an": true,
}

// NormalizeName lowercases s and collapses internal whitespace.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// nameWords splits a name on whitespace and hyphens, trimming punctuation.
func nameWords(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '/'
	})
	words := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}

// Initials returns the uppercase initials of a multi-word name, once with
// every word and once with stop words skipped. Single-word names have none.
func Initials(s string) []string {
	words := nameWords(s)
	if len(words) < 2 {
		return nil
	}
	var all, content strings.Builder
	for _, w := range words {
		first := unicode.ToUpper([]rune(w)[0])
		all.WriteRune(first)
		if !stopWords[strings.ToLower(w)] {
			content.WriteRune(first)
		}
	}
	out := []string{all.String()}
	if c := content.String(); c != out[0] && len([]rune(c)) >= 2 {
		out = append(out, c)
	}
	return out
}

// ShortForms returns the forms a single-word name can take as an acronym:
// its uppercase spelling and, when it mixes case, its capital letters alone.
// "LoRA" yields "LORA" and "LRA".
func ShortForms(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || len(nameWords(s)) != 1 {
		return nil
	}
	var letters, capitals strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			letters.WriteRune(unicode.ToUpper(r))
		}
		if unicode.IsUpper(r) {
			capitals.WriteRune(r)
		}
	}
	out := []string{letters.String()}
	if c := capitals.String(); len([]rune(c)) >= 2 && c != out[0] {
		out = append(out, c)
	}
	return out
}

// LexicalKeys returns the lookup keys for a set of surface names: each
// normalized name plus acronym keys ("#" followed by initials or short form).
func LexicalKeys(names ...string) []string {
	seen := make(map[string]bool)
	var keys []string
	add := func(k string) {
		if k != "" && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, name := range names {
		add(NormalizeName(name))
		for _, i := range Initials(name) {
			add("#" + i)
		}
		for _, f := range ShortForms(name) {
			add("#" + f)
		}
	}
	return keys
}
