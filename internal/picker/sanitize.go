package picker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// escapeRE matches terminal escape sequences: CSI (colors, cursor moves),
// OSC (titles, hyperlinks) terminated by ST or BEL, and two-byte charset
// designations. Hero names come from a shared store and are rendered
// straight into the terminal.
var escapeRE = regexp.MustCompile(`\x1b(?:` +
	`\[[0-9;?]*[A-Za-z]` +
	`|\].*?(?:\x1b\\|\x07)` +
	`|[()][A-B0-2]` +
	`|[#*+\-./][A-Za-z0-9]` +
	`)`)

// StripANSI removes terminal escape sequences from s.
func StripANSI(s string) string {
	return escapeRE.ReplaceAllString(s, "")
}

// ValidateUTF8 replaces each invalid byte with U+FFFD.
func ValidateUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		b.WriteRune(r) // RuneError for an invalid byte
		s = s[size:]
	}
	return b.String()
}

// DisplayText makes s safe to print in a cell maxWidth columns wide.
// A non-positive maxWidth only sanitizes.
func DisplayText(s string, maxWidth int) string {
	s = ValidateUTF8(StripANSI(s))
	if maxWidth <= 0 {
		return s
	}
	return MiddleTruncate(s, maxWidth)
}

// MiddleTruncate shortens s to maxWidth display columns by replacing its
// middle with an ellipsis, so both the start and the end stay readable.
// Wide runes (CJK, emoji) count as two columns. Below three columns there
// is no room for the ellipsis and s is cut from the right.
func MiddleTruncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth < 3 {
		return truncateLeft(s, maxWidth)
	}

	// The head gets the extra column when the budget is odd.
	budget := maxWidth - 1
	return truncateLeft(s, (budget+1)/2) + "…" + truncateRight(s, budget/2)
}

// truncateLeft keeps the longest prefix of s that fits in width columns.
func truncateLeft(s string, width int) string {
	used := 0
	for i, r := range s {
		used += runewidth.RuneWidth(r)
		if used > width {
			return s[:i]
		}
	}
	return s
}

// truncateRight keeps the longest suffix of s that fits in width columns.
func truncateRight(s string, width int) string {
	runes := []rune(s)
	used := 0
	start := len(runes)
	for start > 0 {
		rw := runewidth.RuneWidth(runes[start-1])
		if used+rw > width {
			break
		}
		used += rw
		start--
	}
	return string(runes[start:])
}
