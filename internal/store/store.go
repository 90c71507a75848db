// Package store defines the persistence contract for expenses.
package store

import (
	"context"
	"errors"
	"time"

	"financebot/internal/core"
)

var ErrNotFound = errors.New("expense not found")

// ExpenseStore is implemented by every persistence backend.
type ExpenseStore interface {
	// Add persists e and sets e.ID to the identity assigned by the store.
	Add(ctx context.Context, e *core.Expense) error

	// ListByPeriod returns expenses whose OccurredAt is in [start, end),
	// newest first. Equal timestamps are ordered by descending ID.
	ListByPeriod(ctx context.Context, start, end time.Time) ([]core.Expense, error)

	// FindByID returns (nil, false, nil) when no expense has that id.
	FindByID(ctx context.Context, id int64) (*core.Expense, bool, error)

	// Delete removes the expense with e.ID. It returns ErrNotFound if the
	// row is already gone.
	Delete(ctx context.Context, e core.Expense) error
}
