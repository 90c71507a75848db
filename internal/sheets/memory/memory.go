// Package memory is an in-process ExpenseMirror used by tests and local
// runs without Google credentials.
package memory

import (
	"context"
	"strconv"
	"sync"

	"financebot/internal/core"
	"financebot/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	rows [][]string
}

var _ sheets.ExpenseMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) UpsertExpense(ctx context.Context, e core.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexLocked(e.ID) >= 0 {
		return nil
	}
	m.rows = append(m.rows, sheets.FormatRow(e))
	return nil
}

func (m *Mirror) RemoveExpense(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexLocked(id); i >= 0 {
		m.rows = append(m.rows[:i], m.rows[i+1:]...)
	}
	return nil
}

// Rows returns a copy of the mirrored rows without the header.
func (m *Mirror) Rows() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func (m *Mirror) indexLocked(id int64) int {
	key := strconv.FormatInt(id, 10)
	for i, r := range m.rows {
		if r[0] == key {
			return i
		}
	}
	return -1
}
