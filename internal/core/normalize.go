// Package core provides label normalization used for dimension matching.
//
// Labels arrive from spreadsheets, CSV files and databases with mixed
// full-width and half-width characters and stray whitespace. Normalize
// folds them into one canonical form so lookups compare equal.
package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Normalize canonicalizes a dimension label.
//
// It applies NFKC, folds full-width ASCII to half-width, collapses internal
// whitespace runs to a single space and trims the ends.
//
// Examples:
//
//	Normalize("  车险整体 ")   -> "车险整体"
//	Normalize("ＡＢＣ　公司") -> "ABC 公司"
func Normalize(label string) string {
	if label == "" {
		return ""
	}
	s := width.Fold.String(norm.NFKC.String(label))
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeAll normalizes, drops empties and de-duplicates, keeping first-seen order.
func NormalizeAll(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		n := Normalize(l)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
