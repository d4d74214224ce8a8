package core

import "strings"

// HasRepeatedWord reports whether text contains the same word twice in a row,
// ignoring case and separated only by whitespace ("the the", "Coffee coffee").
// A word is a run of ASCII letters, digits and underscores.
//
// The result is advisory; it never makes a record invalid.
func HasRepeatedWord(text string) bool {
	prevStart, prevEnd := -1, -1
	i := 0
	for i < len(text) {
		if !isWordByte(text[i]) {
			i++
			continue
		}
		start := i
		for i < len(text) && isWordByte(text[i]) {
			i++
		}
		if prevEnd >= 0 && onlySpace(text[prevEnd:start]) &&
			strings.EqualFold(text[prevStart:prevEnd], text[start:i]) {
			return true
		}
		prevStart, prevEnd = start, i
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func onlySpace(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isSpace(r) {
			return false
		}
	}
	return true
}
