package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"moneylog/internal/amqp"
	"moneylog/internal/core"
	"moneylog/internal/log"
)

// ErrRecordNotFound is returned when an edit or delete names an id that is gone.
var ErrRecordNotFound = errors.New("entry no longer exists")

// Warning is advisory feedback on an otherwise accepted record.
type Warning string

const WarningRepeatedWord Warning = "Quick heads-up: you repeated the same word twice."

// RecordIDPrefix starts the id of every record added through the service.
const RecordIDPrefix = "ledger_"

// Store persists the three ledger slots.
type Store interface {
	LoadRecords(ctx context.Context) ([]core.Record, error)
	SaveRecords(ctx context.Context, records []core.Record) error
	LoadCap(ctx context.Context) (decimal.Decimal, error)
	SaveCap(ctx context.Context, limit decimal.Decimal) error
	LoadSettings(ctx context.Context) (core.Settings, error)
	SaveSettings(ctx context.Context, settings core.Settings) error
	// SaveDataset writes all three slots, atomically where the backend allows.
	SaveDataset(ctx context.Context, ds core.Dataset) error
}

// refresher is implemented by stores that cache reads and can drop them.
type refresher interface {
	Refresh()
}

// EventPublisher announces ledger changes. It is optional.
type EventPublisher interface {
	Publish(ctx context.Context, event *amqp.LedgerEvent) error
}

// LedgerService owns one ledger: its records and the profile they are checked
// against. Every successful mutation is persisted before it becomes visible.
type LedgerService struct {
	store     Store
	publisher EventPublisher
	logger    *log.Logger
	now       func() time.Time
	newID     func() string

	mu      sync.RWMutex
	records []core.Record
	profile core.Profile
}

// Open loads the ledger from store. publisher may be nil.
func Open(ctx context.Context, store Store, publisher EventPublisher, logger *log.Logger) (*LedgerService, error) {
	if logger == nil {
		logger = log.Discard()
	}
	s := &LedgerService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
		now:       time.Now,
		newID:     func() string { return RecordIDPrefix + uuid.NewString() },
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory ledger with what the store holds now,
// bypassing any read cache so writes from other processes are seen.
func (s *LedgerService) Reload(ctx context.Context) error {
	if r, ok := s.store.(refresher); ok {
		r.Refresh()
	}

	var (
		records  []core.Record
		limit    decimal.Decimal
		settings core.Settings
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.store.LoadRecords(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		limit, err = s.store.LoadCap(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = s.store.LoadSettings(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	s.mu.Lock()
	s.records = records
	s.profile = core.Profile{Cap: limit, Settings: settings}
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Ledger loaded",
		log.FieldCount, len(records),
		log.FieldCap, limit.String())
	return nil
}

// Add validates typed input and appends a new record.
func (s *LedgerService) Add(ctx context.Context, in core.RecordInput) (core.Record, []Warning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, err := core.ComposeRecord(in, s.newID(), now, now, s.profile.Settings)
	if err != nil {
		return core.Record{}, nil, err
	}

	records := append(append([]core.Record(nil), s.records...), rec)
	if err := s.store.SaveRecords(ctx, records); err != nil {
		return core.Record{}, nil, fmt.Errorf("save records: %w", err)
	}
	s.records = records

	s.logger.InfoContext(ctx, "Record added",
		log.NewFields().WithOperation(log.OpAdd).WithRecord(rec.ID, rec.Category, rec.Amount.String()).ToSlice()...)
	s.publish(ctx, amqp.EventRecordAdded, rec.ID, 1)
	return rec, warningsFor(rec), nil
}

// Update replaces the fields of an existing record. The id and createdAt are kept.
func (s *LedgerService) Update(ctx context.Context, id string, in core.RecordInput) (core.Record, []Warning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return core.Record{}, nil, ErrRecordNotFound
	}

	existing := s.records[idx]
	rec, err := core.ComposeRecord(in, existing.ID, existing.CreatedAt, s.now(), s.profile.Settings)
	if err != nil {
		return core.Record{}, nil, err
	}

	records := append([]core.Record(nil), s.records...)
	records[idx] = rec
	if err := s.store.SaveRecords(ctx, records); err != nil {
		return core.Record{}, nil, fmt.Errorf("save records: %w", err)
	}
	s.records = records

	s.logger.InfoContext(ctx, "Record updated",
		log.NewFields().WithOperation(log.OpUpdate).WithRecord(rec.ID, rec.Category, rec.Amount.String()).ToSlice()...)
	s.publish(ctx, amqp.EventRecordUpdated, rec.ID, 1)
	return rec, warningsFor(rec), nil
}

// Delete removes the record with the given id.
func (s *LedgerService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return ErrRecordNotFound
	}

	records := make([]core.Record, 0, len(s.records)-1)
	records = append(records, s.records[:idx]...)
	records = append(records, s.records[idx+1:]...)
	if err := s.store.SaveRecords(ctx, records); err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	s.records = records

	s.logger.InfoContext(ctx, "Record deleted", log.FieldOperation, log.OpDelete, log.FieldRecordID, id)
	s.publish(ctx, amqp.EventRecordDeleted, id, 1)
	return nil
}

// UpdateSettings normalizes typed preferences against the active settings.
// categories is a comma-separated list. Existing records keep their category
// even when it is no longer configured.
func (s *LedgerService) UpdateSettings(ctx context.Context, symbol, unit, categories string) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := core.SettingsInput(symbol, unit, core.SplitCategories(categories))
	settings, err := core.NormalizeSettings(raw, s.profile.Settings)
	if err != nil {
		return core.Settings{}, err
	}
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.profile.Settings = settings

	s.logger.InfoContext(ctx, "Settings updated",
		log.FieldOperation, log.OpSettings,
		log.FieldCount, len(settings.Categories))
	s.publish(ctx, amqp.EventSettingsUpdated, "", 0)
	return settings.Clone(), nil
}

// SetCap sets the spending cap from typed text. Empty text or zero clears it.
func (s *LedgerService) SetCap(ctx context.Context, value string) (decimal.Decimal, error) {
	limit, err := core.ParseCap(value)
	if err != nil {
		return decimal.Zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SaveCap(ctx, limit); err != nil {
		return decimal.Zero, fmt.Errorf("save cap: %w", err)
	}
	s.profile.Cap = limit

	s.logger.InfoContext(ctx, "Cap updated", log.FieldOperation, log.OpCap, log.FieldCap, limit.String())
	s.publish(ctx, amqp.EventCapUpdated, "", 0)
	return limit, nil
}

// Import replaces the whole ledger with the contents of a backup file.
// Nothing changes unless every record in the file is accepted.
func (s *LedgerService) Import(ctx context.Context, data []byte) (core.Dataset, error) {
	payload, err := core.DecodePayload(data)
	if err != nil {
		return core.Dataset{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := core.ReconcileImport(payload, s.profile)
	if err != nil {
		s.logger.WarnContext(ctx, "Import rejected",
			log.NewFields().WithOperation(log.OpImport).WithError(err, log.ErrorTypeValidation).ToSlice()...)
		return core.Dataset{}, err
	}

	if err := s.store.SaveDataset(ctx, ds); err != nil {
		return core.Dataset{}, fmt.Errorf("save dataset: %w", err)
	}
	s.records = ds.Records
	s.profile = ds.Profile

	s.logger.InfoContext(ctx, "Import complete",
		log.FieldOperation, log.OpImport,
		log.FieldCount, len(ds.Records))
	s.publish(ctx, amqp.EventImportCompleted, "", len(ds.Records))
	return s.datasetLocked(), nil
}

// Export renders the ledger as a wrapped backup document.
func (s *LedgerService) Export(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	ds := s.datasetLocked()
	s.mu.RUnlock()

	data, err := core.MarshalExport(ds, s.now())
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	s.logger.DebugContext(ctx, "Ledger exported", log.FieldOperation, log.OpExport, log.FieldCount, len(ds.Records))
	return data, nil
}

// List returns the records selected by q in display order.
func (s *LedgerService) List(q core.Query) []core.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return q.Apply(s.records)
}

// Record returns the record with the given id.
func (s *LedgerService) Record(id string) (core.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexOf(id); idx >= 0 {
		return s.records[idx], true
	}
	return core.Record{}, false
}

// Summary totals every record against the cap.
func (s *LedgerService) Summary() core.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Summarize(s.records, s.profile)
}

// Profile returns a copy of the active cap and settings.
func (s *LedgerService) Profile() core.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Profile{Cap: s.profile.Cap, Settings: s.profile.Settings.Clone()}
}

func (s *LedgerService) datasetLocked() core.Dataset {
	return core.Dataset{
		Profile: core.Profile{Cap: s.profile.Cap, Settings: s.profile.Settings.Clone()},
		Records: append([]core.Record{}, s.records...),
	}
}

func (s *LedgerService) indexOf(id string) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// publish never fails the caller: the change is already persisted.
func (s *LedgerService) publish(ctx context.Context, eventType amqp.EventType, recordID string, count int) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No event publisher, skipping event", log.FieldEventType, string(eventType))
		return
	}
	event := amqp.NewLedgerEvent(eventType, recordID, count)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.NewFields().
				WithOperation(log.OpPublish).
				WithError(err, log.ErrorTypeNetwork).
				With(log.FieldEventType, string(eventType)).
				ToSlice()...)
	}
}

func warningsFor(rec core.Record) []Warning {
	if core.HasRepeatedWord(rec.Description) {
		return []Warning{WarningRepeatedWord}
	}
	return nil
}
