package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func rawRecord(overrides map[string]any) map[string]any {
	r := map[string]any{
		"id":          "r1",
		"description": "Coffee",
		"amount":      json.Number("3.5"),
		"category":    "Food",
		"date":        "2024-05-01",
		"createdAt":   "2024-05-01T10:00:00Z",
		"updatedAt":   "2024-05-01T10:00:00Z",
	}
	for k, v := range overrides {
		if v == nil {
			delete(r, k)
			continue
		}
		r[k] = v
	}
	return r
}

func TestNormalizeRecordValid(t *testing.T) {
	rec, err := NormalizeRecord(rawRecord(map[string]any{
		"description": "  Coffee  ",
		"category":    " Food ",
		"createdAt":   "2024-05-01T12:00:00+02:00",
	}), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != "r1" || rec.Description != "Coffee" || rec.Category != "Food" || rec.Date != "2024-05-01" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Amount.String() != "3.5" {
		t.Fatalf("unexpected amount %s", rec.Amount)
	}
	if got := rec.CreatedAt.Format(TimestampLayout); got != "2024-05-01T10:00:00.000Z" {
		t.Fatalf("createdAt not canonical: %s", got)
	}
}

func TestNormalizeRecordAmountCoercion(t *testing.T) {
	cases := []struct {
		amount any
		want   string
		ok     bool
	}{
		{json.Number("12.50"), "12.5", true},
		{json.Number("0"), "0", true},
		{" 7.25 ", "7.25", true},
		{"012.5", "12.5", true},
		{"", "0", true},
		{true, "1", true},
		{json.Number("9007199254740993"), "9007199254740993", true},
		{"12345678901234567.89", "12345678901234567.89", true},
		{json.Number("12.345"), "", false},
		{json.Number("-1"), "", false},
		{"abc", "", false},
		{"1e21", "", false},
		{map[string]any{}, "", false},
	}
	for _, tc := range cases {
		rec, err := NormalizeRecord(rawRecord(map[string]any{"amount": tc.amount}), 0)
		if tc.ok != (err == nil) {
			t.Fatalf("amount %#v: err = %v, want ok=%v", tc.amount, err, tc.ok)
		}
		if tc.ok && rec.Amount.String() != tc.want {
			t.Fatalf("amount %#v: got %s, want %s", tc.amount, rec.Amount, tc.want)
		}
	}

	raw := rawRecord(nil)
	delete(raw, "amount")
	if _, err := NormalizeRecord(raw, 0); err == nil {
		t.Fatalf("expected missing amount to be invalid")
	}
}

func TestNormalizeRecordFirstFailureWins(t *testing.T) {
	cases := []struct {
		name      string
		overrides map[string]any
		field     Field
		message   string
	}{
		{"description", map[string]any{"description": "  ", "amount": "x"}, FieldDescription, "Record 3: invalid description"},
		{"amount", map[string]any{"amount": "x", "category": "1"}, FieldAmount, "Record 3: invalid amount"},
		{"category", map[string]any{"category": "Food!", "date": "bad"}, FieldCategory, "Record 3: invalid category"},
		{"date", map[string]any{"date": "2023-02-29", "createdAt": "nope"}, FieldDate, "Record 3: invalid date"},
		{"timestamps", map[string]any{"updatedAt": "not a time"}, FieldTimestamps, "Record 3: invalid createdAt/updatedAt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizeRecord(rawRecord(tc.overrides), 2)
			var recErr *RecordError
			if !errors.As(err, &recErr) {
				t.Fatalf("expected RecordError, got %v", err)
			}
			if recErr.Field != tc.field || err.Error() != tc.message {
				t.Fatalf("got field %q message %q", recErr.Field, err.Error())
			}
		})
	}
}

func TestNormalizeRecordNonObject(t *testing.T) {
	for _, raw := range []any{nil, "x", []any{}, json.Number("1")} {
		_, err := NormalizeRecord(raw, 4)
		if err == nil || err.Error() != "Record 5: must be an object" {
			t.Fatalf("raw %#v: got %v", raw, err)
		}
	}
}

func TestNormalizeRecordGeneratesUniqueIDs(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, id := range []any{nil, "   ", json.Number("7")} {
		raw := rawRecord(map[string]any{"id": id})
		a, err := normalizeRecordAt(raw, 0, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := normalizeRecordAt(raw, 1, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.ID == b.ID {
			t.Fatalf("expected distinct ids, both %q", a.ID)
		}
		if !strings.HasPrefix(a.ID, ImportIDPrefix) {
			t.Fatalf("unexpected id %q", a.ID)
		}
	}

	rec, _ := NormalizeRecord(rawRecord(map[string]any{"id": "  keep-me "}), 0)
	if rec.ID != "keep-me" {
		t.Fatalf("expected trimmed id to be reused, got %q", rec.ID)
	}
}

func TestNormalizeRecordAcceptsUpdatedBeforeCreated(t *testing.T) {
	rec, err := NormalizeRecord(rawRecord(map[string]any{
		"createdAt": "2024-05-02T00:00:00Z",
		"updatedAt": "2024-05-01T00:00:00Z",
	}), 0)
	if err != nil {
		t.Fatalf("chronology is not enforced, got %v", err)
	}
	if !rec.UpdatedAt.Before(rec.CreatedAt) {
		t.Fatalf("timestamps should be kept as given")
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	rec, err := NormalizeRecord(rawRecord(nil), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"r1","description":"Coffee","amount":3.5,"category":"Food","date":"2024-05-01","createdAt":"2024-05-01T10:00:00.000Z","updatedAt":"2024-05-01T10:00:00.000Z"}`
	if string(data) != want {
		t.Fatalf("got %s", data)
	}
	var back Record
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	again, _ := json.Marshal(back)
	if string(again) != want {
		t.Fatalf("round trip changed record: %s", again)
	}
}
