package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ImportIDPrefix starts every identifier synthesized for an imported record.
const ImportIDPrefix = "ledger_import_"

// timestampLayouts lists the textual forms accepted for createdAt/updatedAt.
// Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01",
	time.RFC1123,
	time.RFC1123Z,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 02 2006",
}

// ParseTimestamp reads a timestamp in any accepted layout.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return CanonicalTime(t), true
		}
	}
	return time.Time{}, false
}

// NormalizeRecord turns one raw record into a validated Record.
//
// index is the record's 0-based position in its payload; it appears 1-based in
// errors and makes synthesized ids unique within one batch. Fields are checked in
// a fixed order (description, amount, category, date, timestamps) and the first
// failure is returned. Category membership is not checked here.
func NormalizeRecord(raw any, index int) (Record, error) {
	return normalizeRecordAt(raw, index, time.Now())
}

func normalizeRecordAt(raw any, index int, now time.Time) (Record, error) {
	fail := func(field Field, reason string) (Record, error) {
		return Record{}, &RecordError{Position: index + 1, Field: field, Reason: reason}
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return fail("", "must be an object")
	}

	description := strings.TrimSpace(stringOr(obj, "description", ""))
	category := strings.TrimSpace(stringOr(obj, "category", ""))
	date := strings.TrimSpace(stringOr(obj, "date", ""))
	createdAt := stringOr(obj, "createdAt", "")
	updatedAt := stringOr(obj, "updatedAt", "")

	if !Validate(FieldDescription, description) {
		return fail(FieldDescription, "invalid description")
	}
	amount, ok := recordAmount(obj)
	if !ok {
		return fail(FieldAmount, "invalid amount")
	}
	if !Validate(FieldCategory, category) {
		return fail(FieldCategory, "invalid category")
	}
	if !Validate(FieldDate, date) {
		return fail(FieldDate, "invalid date")
	}
	created, okCreated := ParseTimestamp(createdAt)
	updated, okUpdated := ParseTimestamp(updatedAt)
	if !okCreated || !okUpdated {
		return fail(FieldTimestamps, "invalid createdAt/updatedAt")
	}

	id := ""
	if s, ok := obj["id"].(string); ok {
		id = strings.TrimSpace(s)
	}
	if id == "" {
		id = fmt.Sprintf("%s%d_%d", ImportIDPrefix, now.UnixMilli(), index)
	}

	return Record{
		ID:          id,
		Description: description,
		Amount:      amount,
		Category:    category,
		Date:        date,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

// recordAmount coerces the amount of a raw record. A missing amount is invalid.
// Literal text that already passes the amount rule is kept exactly; anything
// else is read as a number whose string form must pass the amount rule.
func recordAmount(obj map[string]any) (decimal.Decimal, bool) {
	v, present := obj["amount"]
	if !present {
		return decimal.Decimal{}, false
	}
	if text, ok := amountText(v); ok && Validate(FieldAmount, text) {
		if d, err := decimal.NewFromString(text); err == nil {
			return d, true
		}
	}
	f, ok := toNumber(v)
	if !ok || !Validate(FieldAmount, formatNumber(f)) {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromFloat(f), true
}

func amountText(v any) (string, bool) {
	switch val := v.(type) {
	case json.Number:
		return val.String(), true
	case string:
		return strings.TrimSpace(val), true
	default:
		return "", false
	}
}
