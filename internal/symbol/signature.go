package symbol

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Param is a single callable parameter's name and declared type text, used
// to build a callable's canonical signature.
type Param struct {
	Name string
	Type string
}

// HashSignature truncates a cryptographic hash of the already-canonicalized
// text to the 16-hex-digit fingerprint the data model calls for.
func HashSignature(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:8])
}

// CollapseWhitespace collapses any run of whitespace to a single space and
// trims the ends.
func CollapseWhitespace(s string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			inSpace = true
			continue
		}
		if inSpace {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			inSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// splitTopLevel splits s on sep wherever bracket-nesting depth w.r.t.
// <>{}()[] is zero. '<' opens a level exactly like the other openers; type
// text never contains runtime comparisons, so no special case is made for
// it.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '{', '(', '[':
			depth++
		case '>', '}', ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if s[i] == sep && depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

// topLevelSplitAny tries each separator in order and returns the split that
// yields more than one part, plus the separator's display text used to
// rejoin. Returns nil if no separator produces a top-level split.
func topLevelSplitAny(s string) (parts []string, joiner string) {
	if p := splitTopLevel(s, '|'); len(p) > 1 {
		return p, " | "
	}
	if p := splitTopLevel(s, '&'); len(p) > 1 {
		return p, " & "
	}
	return nil, ""
}

// CanonicalizeType renders a type-text fragment order-insensitively for
// logically commutative constructs (unions, intersections, object-literal
// member lists) and whitespace-insensitively, per spec.md §3.
func CanonicalizeType(raw string) string {
	s := CollapseWhitespace(strings.TrimSpace(raw))
	if s == "" {
		return s
	}

	if parts, joiner := topLevelSplitAny(s); parts != nil {
		canon := make([]string, len(parts))
		for i, p := range parts {
			canon[i] = CanonicalizeType(p)
		}
		sort.Strings(canon)
		return strings.Join(canon, joiner)
	}

	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		inner := strings.TrimSpace(s[1 : len(s)-1])
		if inner == "" {
			return "{}"
		}
		members := splitTopLevel(inner, ';')
		if len(members) == 1 {
			members = splitTopLevel(inner, ',')
		}
		canon := make([]string, 0, len(members))
		for _, m := range members {
			m = CollapseWhitespace(strings.TrimSpace(m))
			if m != "" {
				canon = append(canon, m)
			}
		}
		sort.Strings(canon)
		return "{" + strings.Join(canon, "; ") + "}"
	}

	return s
}

// CanonicalizeCallable builds the `(name:canonType,…):canonReturn` text for
// a function/method signature.
func CanonicalizeCallable(params []Param, returnType string) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + ":" + CanonicalizeType(p.Type)
	}
	return "(" + strings.Join(parts, ",") + "):" + CanonicalizeType(returnType)
}

// HashCallable is the callable-kind signature hash (functions and methods).
func HashCallable(params []Param, returnType string) string {
	return HashSignature(CanonicalizeCallable(params, returnType))
}

// HashDeclaredType is the signature hash for properties, variables, and
// type aliases: the canonicalized declared type text.
func HashDeclaredType(typeText string) string {
	return HashSignature(CanonicalizeType(typeText))
}

// HashInterface hashes sorted canonicalized member texts joined by ';'.
func HashInterface(memberTexts []string) string {
	canon := make([]string, len(memberTexts))
	for i, m := range memberTexts {
		canon[i] = CanonicalizeType(m)
	}
	sort.Strings(canon)
	return HashSignature(strings.Join(canon, ";"))
}

// HashClass hashes `class:<baseClass>:[sorted implements list]`.
func HashClass(baseClass string, implements []string) string {
	sorted := append([]string(nil), implements...)
	sort.Strings(sorted)
	text := "class:" + CollapseWhitespace(strings.TrimSpace(baseClass)) + ":[" + strings.Join(sorted, ",") + "]"
	return HashSignature(text)
}

// EnumMember is a single `name = value` pair of an enum declaration.
type EnumMember struct {
	Name  string
	Value string
}

// HashEnum hashes sorted `name=value` pairs.
func HashEnum(members []EnumMember) string {
	pairs := make([]string, len(members))
	for i, m := range members {
		pairs[i] = m.Name + "=" + CollapseWhitespace(strings.TrimSpace(m.Value))
	}
	sort.Strings(pairs)
	return HashSignature(strings.Join(pairs, ";"))
}
