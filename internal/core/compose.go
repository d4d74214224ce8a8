package core

import (
	"encoding/json"
	"strings"
	"time"
)

// RecordInput is a single entry as typed by a user.
type RecordInput struct {
	Description string
	Amount      string
	Category    string
	Date        string
}

// FieldErrors lists every invalid field of a RecordInput, in form order.
type FieldErrors struct {
	Fields []Field
}

func (e *FieldErrors) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return "invalid " + strings.Join(names, ", ")
}

// Has reports whether field is among the invalid ones.
func (e *FieldErrors) Has(field Field) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Hint returns the message shown next to an invalid field.
func Hint(field Field) string {
	switch field {
	case FieldDescription:
		return "Add a short, clear note"
	case FieldAmount:
		return "Use a valid amount (e.g. 12.50)"
	case FieldCategory:
		return "Pick one of your saved buckets"
	case FieldDate:
		return "Use YYYY-MM-DD"
	default:
		return ""
	}
}

// Trimmed returns the input with surrounding whitespace removed from every field.
func (in RecordInput) Trimmed() RecordInput {
	return RecordInput{
		Description: strings.TrimSpace(in.Description),
		Amount:      strings.TrimSpace(in.Amount),
		Category:    strings.TrimSpace(in.Category),
		Date:        strings.TrimSpace(in.Date),
	}
}

// ValidateInput checks all four fields and the category's membership in settings.
// Unlike NormalizeRecord it does not stop at the first problem.
func ValidateInput(in RecordInput, settings Settings) error {
	in = in.Trimmed()

	var invalid []Field
	if !Validate(FieldDescription, in.Description) {
		invalid = append(invalid, FieldDescription)
	}
	if !Validate(FieldAmount, in.Amount) {
		invalid = append(invalid, FieldAmount)
	}
	if !Validate(FieldCategory, in.Category) || !settings.HasCategory(in.Category) {
		invalid = append(invalid, FieldCategory)
	}
	if !Validate(FieldDate, in.Date) {
		invalid = append(invalid, FieldDate)
	}
	if len(invalid) > 0 {
		return &FieldErrors{Fields: invalid}
	}
	return nil
}

// ComposeRecord validates typed input against settings and builds the record
// through NormalizeRecord, so typed and imported records share one shape.
func ComposeRecord(in RecordInput, id string, createdAt, updatedAt time.Time, settings Settings) (Record, error) {
	if err := ValidateInput(in, settings); err != nil {
		return Record{}, err
	}
	in = in.Trimmed()
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return Record{}, &FieldErrors{Fields: []Field{FieldAmount}}
	}

	raw := map[string]any{
		"id":          id,
		"description": in.Description,
		"amount":      json.Number(amount.String()),
		"category":    in.Category,
		"date":        in.Date,
		"createdAt":   CanonicalTime(createdAt).Format(TimestampLayout),
		"updatedAt":   CanonicalTime(updatedAt).Format(TimestampLayout),
	}
	return NormalizeRecord(raw, 0)
}
