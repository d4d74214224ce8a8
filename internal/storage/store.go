package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"moneylog/internal/core"
	"moneylog/internal/log"
)

// Store reads and writes the three ledger slots on top of a KV.
//
// Loads never fail on bad data: a corrupt or missing slot falls back to its
// empty value and the problem is logged. Only KV errors are returned.
type Store struct {
	kv     KV
	logger *log.Logger
}

func NewStore(kv KV, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{kv: kv, logger: logger.WithComponent(log.ComponentStorage)}
}

// LoadRecords returns the stored records. Entries that no longer pass
// normalization are skipped.
func (s *Store) LoadRecords(ctx context.Context) ([]core.Record, error) {
	data, key, err := RecordsSlot.read(ctx, s.kv)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	if data == nil {
		return []core.Record{}, nil
	}

	raw, err := core.DecodePayload(data)
	if err != nil {
		s.corrupt(ctx, key, err)
		return []core.Record{}, nil
	}
	items, ok := raw.([]any)
	if !ok {
		s.corrupt(ctx, key, core.ErrInvalidPayload)
		return []core.Record{}, nil
	}

	records := make([]core.Record, 0, len(items))
	seen := make(map[string]bool, len(items))
	repaired := false
	for i, item := range items {
		rec, err := core.NormalizeRecord(item, i)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping stored record",
				log.FieldKey, key,
				log.FieldError, err.Error(),
				log.FieldErrorType, log.ErrorTypeCorrupt)
			continue
		}
		if seen[rec.ID] {
			s.logger.WarnContext(ctx, "Skipping stored record with duplicate id",
				log.FieldKey, key,
				log.FieldRecordID, rec.ID,
				log.FieldErrorType, log.ErrorTypeCorrupt)
			repaired = true
			continue
		}
		seen[rec.ID] = true
		if !hasStoredID(item) {
			repaired = true
		}
		records = append(records, rec)
	}

	// Ids assigned or dropped here are written back so they stay stable.
	if repaired {
		if err := s.SaveRecords(ctx, records); err != nil {
			s.logger.WarnContext(ctx, "Could not save repaired records",
				log.FieldKey, key,
				log.FieldError, err.Error())
		}
	}
	return records, nil
}

func hasStoredID(item any) bool {
	obj, ok := item.(map[string]any)
	if !ok {
		return false
	}
	id, ok := obj["id"].(string)
	return ok && strings.TrimSpace(id) != ""
}

func (s *Store) SaveRecords(ctx context.Context, records []core.Record) error {
	if records == nil {
		records = []core.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return s.write(ctx, RecordsSlot, data)
}

// LoadCap returns the stored spending cap, or zero when it is absent, negative
// or unreadable.
func (s *Store) LoadCap(ctx context.Context) (decimal.Decimal, error) {
	data, key, err := CapSlot.read(ctx, s.kv)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read cap: %w", err)
	}
	if data == nil {
		return decimal.Zero, nil
	}

	raw, err := core.DecodePayload(data)
	if err != nil {
		s.corrupt(ctx, key, err)
		return decimal.Zero, nil
	}

	var text string
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, nil
	case json.Number:
		text = v.String()
	case string:
		text = v
	default:
		s.corrupt(ctx, key, core.ErrInvalidCap)
		return decimal.Zero, nil
	}

	limit, err := core.ParseCap(text)
	if err != nil {
		s.corrupt(ctx, key, err)
		return decimal.Zero, nil
	}
	return limit, nil
}

func (s *Store) SaveCap(ctx context.Context, limit decimal.Decimal) error {
	return s.write(ctx, CapSlot, []byte(limit.String()))
}

// LoadSettings returns the stored settings normalized against the defaults.
func (s *Store) LoadSettings(ctx context.Context) (core.Settings, error) {
	data, key, err := SettingsSlot.read(ctx, s.kv)
	if err != nil {
		return core.DefaultSettings(), fmt.Errorf("read settings: %w", err)
	}
	if data == nil {
		return core.DefaultSettings(), nil
	}

	raw, err := core.DecodePayload(data)
	if err != nil {
		s.corrupt(ctx, key, err)
		return core.DefaultSettings(), nil
	}
	settings, err := core.NormalizeSettings(raw, core.DefaultSettings())
	if err != nil {
		s.corrupt(ctx, key, err)
		return core.DefaultSettings(), nil
	}
	return settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings core.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return s.write(ctx, SettingsSlot, data)
}

// SaveDataset writes records, cap and settings together. Backends that support
// batches apply all three or none.
func (s *Store) SaveDataset(ctx context.Context, ds core.Dataset) error {
	records := ds.Records
	if records == nil {
		records = []core.Record{}
	}
	recordsData, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	settingsData, err := json.Marshal(ds.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	entries := []Entry{
		{Key: RecordsSlot.Key, Value: recordsData},
		{Key: CapSlot.Key, Value: []byte(ds.Cap.String())},
		{Key: SettingsSlot.Key, Value: settingsData},
	}
	if err := SetBatch(ctx, s.kv, entries); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	s.logger.DebugContext(ctx, "Dataset saved", log.FieldCount, len(records))
	return nil
}

// Refresh makes the next loads read the backing store rather than any cache
// in front of it. Call it before reloading after another process wrote.
func (s *Store) Refresh() {
	if inv, ok := s.kv.(Invalidator); ok {
		inv.Invalidate()
	}
}

// Close releases the underlying KV.
func (s *Store) Close() error {
	return s.kv.Close()
}

func (s *Store) write(ctx context.Context, slot Slot, data []byte) error {
	if err := s.kv.Set(ctx, slot.Key, data); err != nil {
		return fmt.Errorf("write %s: %w", slot.Key, err)
	}
	s.logger.DebugContext(ctx, "Slot saved", log.FieldKey, slot.Key, "bytes", len(data))
	return nil
}

func (s *Store) corrupt(ctx context.Context, key string, err error) {
	s.logger.WarnContext(ctx, "Stored value unreadable, using default",
		log.FieldKey, key,
		log.FieldError, err.Error(),
		log.FieldErrorType, log.ErrorTypeCorrupt)
}
