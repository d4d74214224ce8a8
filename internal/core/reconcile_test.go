package core

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func mustDecode(t *testing.T, text string) any {
	t.Helper()
	payload, err := DecodePayload([]byte(text))
	if err != nil {
		t.Fatalf("decode %s: %v", text, err)
	}
	return payload
}

func TestDecodePayload(t *testing.T) {
	for _, bad := range []string{"", "{", "not json", `{"records":[]} trailing`} {
		if _, err := DecodePayload([]byte(bad)); !errors.Is(err, ErrInvalidJSON) {
			t.Fatalf("%q: expected ErrInvalidJSON, got %v", bad, err)
		}
	}
	if _, err := DecodePayload([]byte("  [] \n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReconcileImportCoffeeAgainstDefaults(t *testing.T) {
	payload := mustDecode(t, `{"records":[{"description":"Coffee","amount":3.5,"category":"Food","date":"2024-05-01","createdAt":"2024-05-01T10:00:00Z","updatedAt":"2024-05-01T10:00:00Z"}]}`)

	ds, err := ReconcileImport(payload, DefaultProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds.Records) != 1 || ds.Records[0].Category != "Food" {
		t.Fatalf("unexpected records: %+v", ds.Records)
	}
	if !ds.Cap.IsZero() {
		t.Fatalf("cap should stay at the current value, got %s", ds.Cap)
	}
}

func TestReconcileImportUnknownCategory(t *testing.T) {
	payload := mustDecode(t, `[{"description":"Chips","amount":2,"category":"Snacks","date":"2024-05-01","createdAt":"2024-05-01T10:00:00Z","updatedAt":"2024-05-01T10:00:00Z"}]`)

	_, err := ReconcileImport(payload, DefaultProfile())
	if err == nil || err.Error() != "Record 1: category 'Snacks' is not in settings categories" {
		t.Fatalf("got %v", err)
	}
}

func TestReconcileImportUsesImportedSettingsForMembership(t *testing.T) {
	payload := mustDecode(t, `{"settings":{"categories":["Snacks"]},"records":[{"description":"Chips","amount":2,"category":"Snacks","date":"2024-05-01","createdAt":"2024-05-01T10:00:00Z","updatedAt":"2024-05-01T10:00:00Z"}]}`)

	ds, err := ReconcileImport(payload, DefaultProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds.Settings.Categories) != 1 || ds.Settings.Categories[0] != "Snacks" {
		t.Fatalf("unexpected settings %+v", ds.Settings)
	}
	if ds.Settings.CurrencySymbol != "$" {
		t.Fatalf("symbol should fall back to the current one")
	}
}

func TestReconcileImportIsAllOrNothing(t *testing.T) {
	records := ""
	for i := 1; i <= 6; i++ {
		amount := "1"
		if i == 4 {
			amount = `"1.234"`
		}
		if i > 1 {
			records += ","
		}
		records += fmt.Sprintf(`{"id":"r%d","description":"Item %d","amount":%s,"category":"Food","date":"2024-05-01","createdAt":"2024-05-01T10:00:00Z","updatedAt":"2024-05-01T10:00:00Z"}`, i, i, amount)
	}
	active := DefaultProfile()
	before := active.Settings.Clone()

	ds, err := ReconcileImport(mustDecode(t, "["+records+"]"), active)
	var recErr *RecordError
	if !errors.As(err, &recErr) || recErr.Position != 4 {
		t.Fatalf("expected error on record 4, got %v", err)
	}
	if ds.Records != nil {
		t.Fatalf("no records should be returned on failure")
	}
	if fmt.Sprint(active.Settings) != fmt.Sprint(before) {
		t.Fatalf("active profile was modified")
	}
}

func TestReconcileImportDuplicateIDs(t *testing.T) {
	payload := mustDecode(t, `[
		{"id":"a","description":"One","amount":1,"category":"Food","date":"2024-05-01","createdAt":"2024-05-01T10:00:00Z","updatedAt":"2024-05-01T10:00:00Z"},
		{"id":"b","description":"Two","amount":2,"category":"Food","date":"2024-05-01","createdAt":"2024-05-01T10:00:00Z","updatedAt":"2024-05-01T10:00:00Z"},
		{"id":" a ","description":"Three","amount":3,"category":"Food","date":"2024-05-01","createdAt":"2024-05-01T10:00:00Z","updatedAt":"2024-05-01T10:00:00Z"}
	]`)
	_, err := ReconcileImport(payload, DefaultProfile())
	if err == nil || err.Error() != "Record 3: duplicate id 'a'" {
		t.Fatalf("got %v", err)
	}
}

func TestReconcileImportSynthesizedIDsAreUnique(t *testing.T) {
	rec := `{"description":"Same","amount":1,"category":"Food","date":"2024-05-01","createdAt":"2024-05-01T10:00:00Z","updatedAt":"2024-05-01T10:00:00Z"}`
	ds, err := reconcileAt(mustDecode(t, "["+rec+","+rec+"]"), DefaultProfile(), time.UnixMilli(1714550400000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Records[0].ID == ds.Records[1].ID {
		t.Fatalf("ids collide: %s", ds.Records[0].ID)
	}
	if ds.Records[0].ID != "ledger_import_1714550400000_0" {
		t.Fatalf("unexpected id %s", ds.Records[0].ID)
	}
}

func TestReconcileImportPayloadShapeAndCap(t *testing.T) {
	active := Profile{Cap: decimal.NewFromInt(100), Settings: DefaultSettings()}
	cases := []struct {
		name    string
		payload string
		wantErr error
		wantCap string
	}{
		{"bare array keeps cap", `[]`, nil, "100"},
		{"object without records", `{"cap":5}`, ErrInvalidPayload, ""},
		{"records not an array", `{"records":{}}`, ErrInvalidPayload, ""},
		{"scalar", `42`, ErrInvalidPayload, ""},
		{"null", `null`, ErrInvalidPayload, ""},
		{"cap number", `{"records":[],"cap":250.75}`, nil, "250.75"},
		{"cap string", `{"records":[],"cap":"30"}`, nil, "30"},
		{"cap null", `{"records":[],"cap":null}`, nil, "0"},
		{"cap negative", `{"records":[],"cap":-1}`, ErrInvalidCap, ""},
		{"cap text", `{"records":[],"cap":"lots"}`, ErrInvalidCap, ""},
		{"cap object", `{"records":[],"cap":{}}`, ErrInvalidCap, ""},
		{"settings error", `{"records":[],"settings":{"categories":[]}}`, ErrNoCategories, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ds, err := ReconcileImport(mustDecode(t, tc.payload), active)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got err %v, want %v", err, tc.wantErr)
			}
			if tc.wantErr == nil && ds.Cap.String() != tc.wantCap {
				t.Fatalf("got cap %s, want %s", ds.Cap, tc.wantCap)
			}
		})
	}
}

func TestExportThenImportIsIdentity(t *testing.T) {
	source := mustDecode(t, `{"cap":120,"settings":{"currencySymbol":"€","unitLabel":"EUR","categories":["Food","Rent Share"]},"records":[
		{"id":"a","description":"Coffee","amount":3.5,"category":"Food","date":"2024-05-01","createdAt":"2024-05-01T10:00:00Z","updatedAt":"2024-05-02T08:30:00.123Z"},
		{"id":"b","description":"May rent","amount":"450","category":"Rent Share","date":"2024-05-03","createdAt":"2024-05-03T09:00:00+01:00","updatedAt":"2024-05-03T09:00:00+01:00"}
	]}`)
	first, err := ReconcileImport(source, DefaultProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	exported, err := MarshalExport(first, at)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	second, err := ReconcileImport(mustDecode(t, string(exported)), DefaultProfile())
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	again, err := MarshalExport(second, at)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if string(exported) != string(again) {
		t.Fatalf("round trip changed the dataset:\n%s\n%s", exported, again)
	}
}
