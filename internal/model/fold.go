package model

import (
	"strings"

	"golang.org/x/text/cases"
)

// FoldName returns the case-folded, trimmed form of s used for
// case-insensitive name matching.
func FoldName(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
