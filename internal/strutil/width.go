// Package strutil provides the display-width calculation and interned
// string pool the core uses in place of the original's manual string
// management, plus the color/markup escape interpreter.
package strutil

import (
	"unicode/utf8"

	"golang.org/x/text/width"
)

// DisplayWidth returns the terminal column width of s, counting East Asian
// Wide and Fullwidth runes as two columns.
func DisplayWidth(s string) int {
	w := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			w += 2
		default:
			if utf8.RuneLen(r) > 0 {
				w++
			}
		}
	}
	return w
}

// PadRight pads s with spaces until it reaches the given display width,
// never truncating.
func PadRight(s string, target int) string {
	w := DisplayWidth(s)
	if w >= target {
		return s
	}
	pad := make([]byte, target-w)
	for i := range pad {
		pad[i] = ' '
	}
	return s + string(pad)
}
