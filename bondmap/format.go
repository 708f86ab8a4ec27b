package bondmap

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FormatRule controls how boundary units are reinserted between decoded
// units. The separator goes between every adjacent pair unless the rule's
// sticky predicate suppresses it.
type FormatRule struct {
	// Separator is the boundary unit to reinsert. Defaults to a single
	// space when empty.
	Separator string

	// Sticky reports pairs that join without a separator. Nil falls back
	// to DefaultSticky.
	Sticky func(prev, next string) bool
}

// DefaultSticky suppresses the separator before closing punctuation
// (comma, period, and friends) and after opening brackets and quotes, so
// "hello , world" formats as "hello, world".
func DefaultSticky(prev, next string) bool {
	if r, size := utf8.DecodeRuneInString(next); size == len(next) {
		switch {
		case unicode.In(r, unicode.Pc, unicode.Pd, unicode.Pe, unicode.Pf):
			return true
		case unicode.IsPunct(r) && !unicode.In(r, unicode.Ps, unicode.Pi):
			return true
		}
	}
	if r, size := utf8.DecodeRuneInString(prev); size == len(prev) {
		if unicode.In(r, unicode.Ps, unicode.Pi) {
			return true
		}
	}
	return false
}

// Format joins decoded units, reinserting boundary units per rule. This is
// the second half of decode: identifier-level reconstruction first, then
// the formatting pass that restores the skipped separators.
func Format(units []string, rule FormatRule) string {
	sep := rule.Separator
	if sep == "" {
		sep = " "
	}
	sticky := rule.Sticky
	if sticky == nil {
		sticky = DefaultSticky
	}

	var sb strings.Builder
	for i, u := range units {
		if i > 0 && !sticky(units[i-1], u) {
			sb.WriteString(sep)
		}
		sb.WriteString(u)
	}
	return sb.String()
}
