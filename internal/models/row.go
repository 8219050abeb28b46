package models

import "strings"

// RawRow is one comma-split line of the source text. Field count and types are not verified.
type RawRow []string

// Field returns the whitespace-trimmed field at idx. ok is false when the row has no such field.
func (r RawRow) Field(idx int) (string, bool) {
	if idx < 0 || idx >= len(r) {
		return "", false
	}

	return strings.TrimSpace(r[idx]), true
}
