package tools

import (
	"strconv"
	"unicode/utf8"
)

// suffixReserve is runes kept free for the truncation notice.
const suffixReserve = 80

// TruncateOutput caps a tool result at maxRunes runes before it is placed in
// the conversation. maxRunes <= 0 disables the cap. The start of the text is
// kept and a notice with the original rune count is appended.
func TruncateOutput(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	r := []rune(s)
	keep := maxRunes - suffixReserve
	if keep <= 0 {
		keep = 1
	}
	return string(r[:keep]) + "\n...[output truncated, total " + strconv.Itoa(len(r)) + " runes]"
}

// Preview shortens s to n runes followed by "..." for log and console output.
func Preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
