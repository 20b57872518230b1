package domain

import (
	"strings"
)

// NormalizeText prepares raw wager text for parsing:
//   - CRLF folded to LF
//   - full-width ASCII (digits, letters, punctuation) folded to half-width
//   - ideographic spaces replaced with plain spaces
//   - runs of spaces and tabs within a line compressed to one space
//
// Line structure is preserved; segmentation happens later.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false
	for _, r := range text {
		switch {
		case r >= 0xFF01 && r <= 0xFF5E:
			r -= 0xFEE0
		case r == 0x3000:
			r = ' '
		}
		if r == ' ' || r == '\t' {
			if prevSpace {
				continue
			}
			prevSpace = true
			r = ' '
		} else {
			prevSpace = false
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
