// Package sqlbuild provides small helpers for assembling SQL text safely:
// literal quoting with escaping and identifier allow-list checks. It keeps
// identifiers (which must come from the registered schema or match a strict
// shape) separate from literal values (which are always escaped).
package sqlbuild

import "strings"

// QuoteLiteral wraps a string value in single quotes, doubling any embedded
// single quotes so the value cannot terminate the literal early.
func QuoteLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// QuoteLiterals quotes each value and joins them with ", ", ready for an
// IN (...) list.
func QuoteLiterals(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = QuoteLiteral(v)
	}
	return strings.Join(quoted, ", ")
}

// ValidIdentifier reports whether s is a plain SQL identifier: a letter or
// underscore followed by letters, digits, or underscores, with optional
// dot-separated qualification (e.g. orders.region). Quoted identifiers are
// not accepted.
func ValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if !validIdentifierPart(part) {
			return false
		}
	}
	return true
}

func validIdentifierPart(part string) bool {
	if part == "" {
		return false
	}
	for i, r := range part {
		switch {
		case r == '_',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
