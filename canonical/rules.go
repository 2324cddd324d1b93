package canonical

import (
	"strings"
	"unicode/utf8"

	"github.com/xrash/smetrics"

	"github.com/CSorel-Catalyte/graphdemo/core"
)

// Rule names the match rule that merged a candidate.
type Rule string

const (
	RuleNone         Rule = ""
	RuleCosine       Rule = "cosine"
	RuleAlias        Rule = "alias"
	RuleAcronym      Rule = "acronym"
	RuleEditDistance Rule = "edit_distance"
)

// surfaceNames returns name followed by aliases.
func surfaceNames(name string, aliases []string) []string {
	return append([]string{name}, aliases...)
}

// aliasOverlap reports whether any name of a equals any name of b, ignoring case.
func aliasOverlap(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, n := range a {
		set[core.NormalizeName(n)] = true
	}
	for _, n := range b {
		if set[core.NormalizeName(n)] {
			return true
		}
	}
	return false
}

// acronymMatch reports whether a multi-word name on one side abbreviates to a
// single-word name on the other ("Low-Rank Adaptation" and "LoRA").
func acronymMatch(a, b []string) bool {
	return abbreviates(a, b) || abbreviates(b, a)
}

func abbreviates(long, short []string) bool {
	forms := make(map[string]bool)
	for _, s := range short {
		for _, f := range core.ShortForms(s) {
			forms[f] = true
		}
	}
	if len(forms) == 0 {
		return false
	}
	for _, l := range long {
		for _, i := range core.Initials(l) {
			if forms[i] {
				return true
			}
		}
	}
	return false
}

// closeSpelling reports whether two short names are within maxDistance edits.
func closeSpelling(a, b string, maxLength, maxDistance int) bool {
	a, b = core.NormalizeName(a), core.NormalizeName(b)
	if utf8.RuneCountInString(a) > maxLength || utf8.RuneCountInString(b) > maxLength {
		return false
	}
	return levenshtein(a, b) <= maxDistance
}

// levenshtein returns the edit distance between a and b in runes.
// smetrics compares bytes, so each distinct rune is first renumbered as one
// byte; distance only depends on which symbols are equal.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	alphabet := make(map[rune]byte, len(ra)+len(rb))
	encode := func(runes []rune) (string, bool) {
		out := make([]byte, len(runes))
		for i, r := range runes {
			code, ok := alphabet[r]
			if !ok {
				if len(alphabet) > 255 {
					return "", false
				}
				code = byte(len(alphabet))
				alphabet[r] = code
			}
			out[i] = code
		}
		return string(out), true
	}
	ea, okA := encode(ra)
	eb, okB := encode(rb)
	if !okA || !okB {
		// Too many distinct runes to renumber; no short name gets here.
		return max(len(ra), len(rb))
	}
	return smetrics.WagnerFischer(ea, eb, 1, 1, 1)
}

// mergeNames appends names missing from dst, ignoring case.
func mergeNames(dst []string, names ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, d := range dst {
		seen[strings.ToLower(d)] = true
	}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[strings.ToLower(n)] {
			continue
		}
		seen[strings.ToLower(n)] = true
		dst = append(dst, n)
	}
	return dst
}

// mergeSpan appends span unless it is already present or has no document.
func mergeSpan(spans []core.SourceSpan, span core.SourceSpan) ([]core.SourceSpan, bool) {
	if span.DocID == "" {
		return spans, false
	}
	for _, s := range spans {
		if s == span {
			return spans, false
		}
	}
	return append(spans, span), true
}
