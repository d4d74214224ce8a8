package core

import (
	"regexp"
	"sort"
	"strings"
)

// SortDirection orders a listing; zero leaves insertion order untouched.
type SortDirection int

const (
	Ascending  SortDirection = 1
	Descending SortDirection = -1
)

// Query selects and orders records for display.
type Query struct {
	Pattern       string // regular expression matched against description and category
	CaseSensitive bool
	SortBy        Field
	Direction     SortDirection
}

// CompilePattern compiles a search pattern. An empty or invalid pattern yields nil,
// which disables filtering rather than failing the listing.
func CompilePattern(pattern string, caseSensitive bool) *regexp.Regexp {
	if pattern == "" {
		return nil
	}
	if !caseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	return re
}

// Apply filters and sorts records without modifying the input slice.
func (q Query) Apply(records []Record) []Record {
	out := Filter(records, CompilePattern(q.Pattern, q.CaseSensitive))
	return Sort(out, q.SortBy, q.Direction)
}

// Filter keeps the records whose description or category matches re.
func Filter(records []Record, re *regexp.Regexp) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if re == nil || re.MatchString(r.Description) || re.MatchString(r.Category) {
			out = append(out, r)
		}
	}
	return out
}

// Sort returns a stably sorted copy of records. Unknown fields and a zero
// direction keep the original order.
func Sort(records []Record, field Field, dir SortDirection) []Record {
	out := append([]Record(nil), records...)
	if dir == 0 {
		return out
	}

	var cmp func(a, b Record) int
	switch field {
	case FieldDescription:
		cmp = func(a, b Record) int { return strings.Compare(a.Description, b.Description) }
	case FieldCategory:
		cmp = func(a, b Record) int { return strings.Compare(a.Category, b.Category) }
	case FieldDate:
		cmp = func(a, b Record) int { return strings.Compare(a.Date, b.Date) }
	case FieldAmount:
		cmp = func(a, b Record) int { return a.Amount.Cmp(b.Amount) }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return cmp(out[i], out[j])*int(dir) < 0
	})
	return out
}
