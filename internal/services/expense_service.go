// Package services wraps an expense store with event publishing.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"financebot/internal/amqp"
	"financebot/internal/core"
	applog "financebot/internal/log"
	"financebot/internal/store"
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	Publish(ctx context.Context, event *amqp.ExpenseEvent) error
}

// ExpenseService is a store.ExpenseStore that announces every successful
// write. The local write is authoritative: publish failures are logged and
// never returned.
type ExpenseService struct {
	store     store.ExpenseStore
	publisher EventPublisher
	logger    *applog.Logger
}

var _ store.ExpenseStore = (*ExpenseService)(nil)

// NewExpenseService decorates s. A nil publisher disables events.
func NewExpenseService(s store.ExpenseStore, publisher EventPublisher, logger *applog.Logger) *ExpenseService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ExpenseService{
		store:     s,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentStorage),
	}
}

func (s *ExpenseService) Add(ctx context.Context, e *core.Expense) error {
	if err := s.store.Add(ctx, e); err != nil {
		return err
	}
	s.publish(ctx, amqp.EventExpenseCreated, *e)
	return nil
}

func (s *ExpenseService) ListByPeriod(ctx context.Context, start, end time.Time) ([]core.Expense, error) {
	return s.store.ListByPeriod(ctx, start, end)
}

func (s *ExpenseService) FindByID(ctx context.Context, id int64) (*core.Expense, bool, error) {
	return s.store.FindByID(ctx, id)
}

func (s *ExpenseService) Delete(ctx context.Context, e core.Expense) error {
	if err := s.store.Delete(ctx, e); err != nil {
		return err
	}
	s.publish(ctx, amqp.EventExpenseDeleted, e)
	return nil
}

func (s *ExpenseService) publish(ctx context.Context, eventType amqp.EventType, e core.Expense) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Event publisher not configured, skipping event",
			applog.FieldEventType, eventType,
			applog.FieldExpenseID, e.ID)
		return
	}

	event := amqp.NewExpenseEvent(eventType, e)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense event",
			applog.FieldOperation, applog.OpPublish,
			applog.FieldEventID, event.EventID,
			applog.FieldEventType, eventType,
			applog.FieldExpenseID, e.ID,
			applog.FieldError, err)
	}
}

// Close closes the wrapped store and publisher when they hold resources.
func (s *ExpenseService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close expense service: %w", err)
	}
	return nil
}
