// Package memory is an in-process ExpenseStore used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"financebot/internal/core"
	"financebot/internal/store"
)

var _ store.ExpenseStore = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Expense
}

func New() *Store {
	return &Store{nextID: 1}
}

// Add stores a copy of the expense and assigns it the next id.
func (s *Store) Add(ctx context.Context, e *core.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.nextID
	s.nextID++
	s.items = append(s.items, *e)
	return nil
}

func (s *Store) ListByPeriod(ctx context.Context, start, end time.Time) ([]core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	period := core.Period{Start: start, End: end}
	out := make([]core.Expense, 0)
	for _, e := range s.items {
		if period.Contains(e.OccurredAt) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) FindByID(ctx context.Context, id int64) (*core.Expense, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.items {
		if e.ID == id {
			found := e
			return &found, true, nil
		}
	}
	return nil, false, nil
}

func (s *Store) Delete(ctx context.Context, e core.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.items {
		if item.ID == e.ID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// Len returns the number of stored expenses.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
