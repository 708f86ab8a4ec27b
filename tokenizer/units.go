package tokenizer

import (
	"strings"
	"unicode"
)

// Words splits text into word and punctuation units. Whitespace separates
// units and is dropped; the formatting step reinserts it on decode.
// Punctuation runes become their own units so they can carry "sticky"
// adjacency rules.
func Words(text string) []string {
	var units []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			units = append(units, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r):
			flush()
			units = append(units, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return units
}

// Characters splits text into one unit per rune, whitespace included.
func Characters(text string) []string {
	units := make([]string, 0, len(text))
	for _, r := range text {
		units = append(units, string(r))
	}
	return units
}

// Bytes splits raw input into one unit per byte.
func Bytes(data []byte) []string {
	units := make([]string, len(data))
	for i, b := range data {
		units[i] = string([]byte{b})
	}
	return units
}
