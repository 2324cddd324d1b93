package openai

import "strings"

// repairJSON fixes the malformations local models commonly produce in
// extraction responses: keys missing their opening quote ({name": "x"}) and
// trailing commas before a closing bracket. String contents are left alone.
func repairJSON(s string) string {
	src := []rune(s)
	var out strings.Builder
	out.Grow(len(s) + 16)

	inString, escaped := false, false
	for i := 0; i < len(src); i++ {
		ch := src[i]
		if inString {
			out.WriteRune(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
			out.WriteRune(ch)
			continue
		case ',':
			if next := skipSpace(src, i+1); next < len(src) && (src[next] == '}' || src[next] == ']') {
				continue
			}
		case '{':
		default:
			out.WriteRune(ch)
			continue
		}

		// After '{' or ',': copy whitespace, then quote a bare key that ends in '":'.
		out.WriteRune(ch)
		j := skipSpace(src, i+1)
		out.WriteString(string(src[i+1 : j]))
		i = j - 1

		end := j
		for end < len(src) && isKeyRune(src[end]) {
			end++
		}
		if end > j && isLetter(src[j]) && end+1 < len(src) && src[end] == '"' && src[end+1] == ':' {
			out.WriteByte('"')
			out.WriteString(string(src[j : end+1]))
			i = end
		}
	}
	return out.String()
}

func skipSpace(src []rune, i int) int {
	for i < len(src) && (src[i] == ' ' || src[i] == '\n' || src[i] == '\t' || src[i] == '\r') {
		i++
	}
	return i
}

func isKeyRune(r rune) bool {
	return isLetter(r) || r == '_' || (r >= '0' && r <= '9')
}
