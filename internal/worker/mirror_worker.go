package worker

import (
	"context"
	"fmt"

	"financebot/internal/amqp"
	applog "financebot/internal/log"
	"financebot/internal/sheets"
)

// Consumer delivers expense events until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, handler amqp.Handler) error
}

// MirrorWorker applies expense events to a spreadsheet mirror.
type MirrorWorker struct {
	mirror sheets.ExpenseMirror
	logger *applog.Logger
}

func NewMirrorWorker(mirror sheets.ExpenseMirror, logger *applog.Logger) *MirrorWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &MirrorWorker{
		mirror: mirror,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// Run blocks consuming events from c.
func (w *MirrorWorker) Run(ctx context.Context, c Consumer) error {
	w.logger.InfoContext(ctx, "Mirror worker started")
	err := c.Consume(ctx, w.Handle)
	w.logger.InfoContext(ctx, "Mirror worker stopped")
	return err
}

// Handle applies a single event. Errors returned here are transient mirror
// failures; events that can never succeed are logged and acknowledged.
func (w *MirrorWorker) Handle(ctx context.Context, event *amqp.ExpenseEvent) error {
	logger := w.logger.With(
		applog.FieldOperation, applog.OpMirror,
		applog.FieldEventID, event.EventID.String(),
		applog.FieldEventType, string(event.Type),
		applog.FieldExpenseID, event.Expense.ID,
	)

	switch event.Type {
	case amqp.EventExpenseCreated:
		e, err := event.Expense.ToExpense()
		if err != nil {
			logger.WarnContext(ctx, "Dropping event with invalid expense", applog.FieldError, err)
			return nil
		}
		if err := w.mirror.UpsertExpense(ctx, e); err != nil {
			return fmt.Errorf("upsert expense %d: %w", e.ID, err)
		}
	case amqp.EventExpenseDeleted:
		if err := w.mirror.RemoveExpense(ctx, event.Expense.ID); err != nil {
			return fmt.Errorf("remove expense %d: %w", event.Expense.ID, err)
		}
	default:
		logger.WarnContext(ctx, "Dropping event of unknown type")
		return nil
	}

	logger.DebugContext(ctx, "Event applied")
	return nil
}
