package cache

import (
	"strings"
	"unicode"
)

// NameTokens splits a qualified/file-path name into lowercase tokens on
// camelCase, snake_case, kebab-case, and dot boundaries — the tokenization
// spec.md §4.9 calls for in its Jaccard token-overlap scoring.
func NameTokens(name string) []string {
	var tokens []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}

	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '.' || r == '_' || r == '-' || r == '/' || r == '\\':
			flush()
		case unicode.IsUpper(r) && i > 0 && !unicode.IsUpper(runes[i-1]):
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}
