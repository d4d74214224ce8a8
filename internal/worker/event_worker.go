package worker

import (
	"context"
	"fmt"
	"time"

	"moneylog/internal/amqp"
	"moneylog/internal/core"
	"moneylog/internal/log"
)

// Ledger is what the worker needs from the ledger service.
type Ledger interface {
	Reload(ctx context.Context) error
	Summary() core.Summary
}

// ChangeFunc is called after the ledger was reloaded. event is nil for
// periodic refreshes.
type ChangeFunc func(ctx context.Context, event *amqp.LedgerEvent, summary core.Summary)

// EventWorker keeps a local ledger in step with changes announced on the bus.
type EventWorker struct {
	ledger   Ledger
	onChange ChangeFunc
	logger   *log.Logger
}

func NewEventWorker(ledger Ledger, onChange ChangeFunc, logger *log.Logger) *EventWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &EventWorker{
		ledger:   ledger,
		onChange: onChange,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent reloads the ledger for one event. A returned error requeues the message.
func (w *EventWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		log.FieldEventID, event.ID,
		log.FieldEventType, string(event.Type),
		log.FieldRecordID, event.RecordID)

	start := time.Now()
	if err := w.ledger.Reload(ctx); err != nil {
		return fmt.Errorf("reload ledger: %w", err)
	}
	w.logger.DebugContext(ctx, "Ledger reloaded",
		log.FieldDuration, time.Since(start).Milliseconds())

	if w.onChange != nil {
		w.onChange(ctx, event, w.ledger.Summary())
	}
	return nil
}

// Run reloads the ledger every interval until ctx is done, as a backstop for
// messages that never arrive.
func (w *EventWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ledger.Reload(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic reload failed", log.FieldError, err.Error())
				continue
			}
			if w.onChange != nil {
				w.onChange(ctx, nil, w.ledger.Summary())
			}
		}
	}
}
