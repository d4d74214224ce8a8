package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// DecodePayload parses the text of an import file. Numbers are kept as
// json.Number so the reconciler sees the values exactly as written.
func DecodePayload(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, ErrInvalidJSON
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrInvalidJSON
	}
	return payload, nil
}

// ReconcileImport validates a whole import payload against the active profile.
//
// The payload is either an array of raw records or an object with optional
// "records", "cap" and "settings" keys. On success the returned dataset replaces
// the current one wholesale; cap and settings not carried by the payload are
// taken from active. The first problem aborts the import, so a caller that only
// applies a successful result never ends up with a partial dataset.
func ReconcileImport(payload any, active Profile) (Dataset, error) {
	return reconcileAt(payload, active, time.Now())
}

func reconcileAt(payload any, active Profile, now time.Time) (Dataset, error) {
	var (
		source   []any
		obj      map[string]any
		limit    = active.Cap
		settings = active.Settings.Clone()
	)

	switch p := payload.(type) {
	case []any:
		source = p
	case map[string]any:
		obj = p
		list, ok := p["records"].([]any)
		if !ok {
			return Dataset{}, ErrInvalidPayload
		}
		source = list
	default:
		return Dataset{}, ErrInvalidPayload
	}

	if obj != nil {
		if raw, ok := obj["cap"]; ok {
			f, ok := toNumber(raw)
			if !ok || f < 0 {
				return Dataset{}, ErrInvalidCap
			}
			limit = decimal.NewFromFloat(f)
		}
		if raw, ok := obj["settings"]; ok {
			s, err := NormalizeSettings(raw, active.Settings)
			if err != nil {
				return Dataset{}, err
			}
			settings = s
		}
	}

	records := make([]Record, 0, len(source))
	seen := make(map[string]struct{}, len(source))
	for i, raw := range source {
		rec, err := normalizeRecordAt(raw, i, now)
		if err != nil {
			return Dataset{}, err
		}
		if !settings.HasCategory(rec.Category) {
			return Dataset{}, &RecordError{
				Position: i + 1,
				Field:    FieldCategory,
				Reason:   fmt.Sprintf("category '%s' is not in settings categories", rec.Category),
			}
		}
		if _, dup := seen[rec.ID]; dup {
			return Dataset{}, &RecordError{
				Position: i + 1,
				Reason:   fmt.Sprintf("duplicate id '%s'", rec.ID),
			}
		}
		seen[rec.ID] = struct{}{}
		records = append(records, rec)
	}

	return Dataset{
		Profile: Profile{Cap: limit, Settings: settings},
		Records: records,
	}, nil
}
