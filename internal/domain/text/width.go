package text

import (
	"strings"

	"golang.org/x/text/width"
)

// FoldWidth maps full-width Latin letters and digits to their half-width
// forms. Every other rune, including full-width punctuation and kana, is kept.
func FoldWidth(s string) string {
	if !hasFullwidthAlnum(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isFullwidthAlnum(r) {
			if narrow := width.LookupRune(r).Narrow(); narrow != 0 {
				r = narrow
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func hasFullwidthAlnum(s string) bool {
	for _, r := range s {
		if isFullwidthAlnum(r) {
			return true
		}
	}
	return false
}

func isFullwidthAlnum(r rune) bool {
	return (r >= '０' && r <= '９') || (r >= 'Ａ' && r <= 'Ｚ') || (r >= 'ａ' && r <= 'ｚ')
}
