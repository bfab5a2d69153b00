// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package section

import (
	"strings"
	"unicode/utf8"
)

// LineStart is the pilcrow some EHR exports use in place of newlines.
const LineStart = "¶"

// nextBreak returns the offset of the next line break at or after i, or
// len(text).
func nextBreak(text string, i int) int {
	for j := i; j < len(text); j++ {
		if text[j] == '\n' || strings.HasPrefix(text[j:], LineStart) {
			return j
		}
	}
	return len(text)
}

// breakWidth returns the byte width of the line break at i.
func breakWidth(text string, i int) int {
	if strings.HasPrefix(text[i:], LineStart) {
		return len(LineStart)
	}
	return 1
}

func decodeRune(text string, i int) (rune, int) {
	return utf8.DecodeRuneInString(text[i:])
}

func decodeLastRune(text string, end int) (rune, int) {
	return utf8.DecodeLastRuneInString(text[:end])
}

var lineSplitter = strings.NewReplacer(LineStart, "\n", "\r\n", "\n")

// splitLines returns the non-blank lines of s, trimmed.
func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(lineSplitter.Replace(s), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
