package model

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var splitWordsPattern = regexp.MustCompile(`[_\-\s]+`)

// DefaultLabeler converts a field name into a caption. It splits on
// underscores, dashes and camelCase boundaries, so "grainType" and
// "grain_type" both become "Grain Type".
func DefaultLabeler(name string) string {
	if name == "" {
		return ""
	}

	words := splitWordsPattern.Split(name, -1)
	var segments []string
	for _, word := range words {
		if word == "" {
			continue
		}
		segments = append(segments, titleCase(splitCamel(word)))
	}
	return strings.TrimSpace(strings.Join(segments, " "))
}

func splitCamel(input string) string {
	var out strings.Builder
	prev := rune(-1)
	for _, r := range input {
		if prev >= 0 && isBoundary(prev, r) {
			out.WriteRune(' ')
		}
		out.WriteRune(r)
		prev = r
	}
	return out.String()
}

func isBoundary(prev, r rune) bool {
	switch {
	case unicode.IsLower(prev) && unicode.IsUpper(r):
		return true
	case unicode.IsLetter(prev) && unicode.IsDigit(r):
		return true
	default:
		return unicode.IsDigit(prev) && unicode.IsLetter(r)
	}
}

func titleCase(phrase string) string {
	parts := strings.Fields(phrase)
	for idx, word := range parts {
		lower := strings.ToLower(word)
		first, size := utf8.DecodeRuneInString(lower)
		parts[idx] = string(unicode.ToUpper(first)) + lower[size:]
	}
	return strings.Join(parts, " ")
}
