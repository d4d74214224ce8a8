package storage

import "context"

// Slot names the key a value is written to and the older keys it may still be
// found under. Reads try Key first, then each Legacy key in order.
type Slot struct {
	Key    string
	Legacy []string
}

var (
	RecordsSlot = Slot{
		Key:    "moneylog:v2:records",
		Legacy: []string{"campus-money-log:records", "records"},
	}
	CapSlot = Slot{
		Key:    "moneylog:v2:cap",
		Legacy: []string{"campus-money-log:cap", "cap"},
	}
	SettingsSlot = Slot{
		Key:    "moneylog:v2:settings",
		Legacy: []string{"campus-money-log:settings", "settings"},
	}
)

// Keys returns the lookup order for the slot.
func (s Slot) Keys() []string {
	return append([]string{s.Key}, s.Legacy...)
}

// read returns the first value found for the slot and the key it came from.
func (s Slot) read(ctx context.Context, kv KV) ([]byte, string, error) {
	for _, key := range s.Keys() {
		v, ok, err := kv.Get(ctx, key)
		if err != nil {
			return nil, key, err
		}
		if ok {
			return v, key, nil
		}
	}
	return nil, "", nil
}
