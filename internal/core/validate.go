package core

import (
	"regexp"
	"strconv"
	"time"
	"unicode"
	"unicode/utf8"
)

// Field names a validated record field.
type Field string

const (
	FieldDescription Field = "description"
	FieldAmount      Field = "amount"
	FieldCategory    Field = "category"
	FieldDate        Field = "date"
	FieldTimestamps  Field = "createdAt/updatedAt"
)

var (
	amountPattern   = regexp.MustCompile(`^(0|[1-9]\d*)(\.\d{1,2})?$`)
	datePattern     = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])$`)
	categoryPattern = regexp.MustCompile(`^[A-Za-z]+(?:[ -][A-Za-z]+)*$`)
)

// Validate checks the string form of a single field. Non-string values and
// unknown fields are always rejected; callers convert to string first.
func Validate(field Field, value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}

	switch field {
	case FieldDescription:
		return validDescription(s)
	case FieldAmount:
		return amountPattern.MatchString(s)
	case FieldDate:
		return validDate(s)
	case FieldCategory:
		return categoryPattern.MatchString(s)
	default:
		return false
	}
}

// validDescription accepts a single line with no surrounding whitespace.
func validDescription(s string) bool {
	if s == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(s)
	last, _ := utf8.DecodeLastRuneInString(s)
	if isSpace(first) || isSpace(last) {
		return false
	}
	for _, r := range s {
		if isLineTerminator(r) {
			return false
		}
	}
	return true
}

// validDate accepts YYYY-MM-DD only when it names a real calendar day.
// Years below 100 are rejected: the browser ledger read them as 19xx, so such
// dates never survived its round trip either.
func validDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	year, _ := strconv.Atoi(s[0:4])
	if year < 100 {
		return false
	}
	month, _ := strconv.Atoi(s[5:7])
	day, _ := strconv.Atoi(s[8:10])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\ufeff'
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029'
}
