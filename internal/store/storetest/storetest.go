// Package storetest holds the behaviour every store.ExpenseStore must share.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financebot/internal/core"
	"financebot/internal/store"
)

// Factory returns an empty store. Cleanup is registered on t.
type Factory func(t *testing.T) store.ExpenseStore

func expense(amount, desc string, cat core.Category, at time.Time) core.Expense {
	return core.NewExpense(decimal.RequireFromString(amount), desc, cat, at)
}

// Run executes the contract suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("add assigns unique ids", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		at := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

		a := expense("58.90", "Almoco", core.Mercado, at)
		b := expense("20.00", "Lanche", core.RestauranteLanche, at)
		require.NoError(t, s.Add(ctx, &a))
		require.NoError(t, s.Add(ctx, &b))

		assert.Positive(t, a.ID)
		assert.Positive(t, b.ID)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("find by id round trips every field", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		at := time.Date(2026, 2, 1, 9, 30, 15, 0, time.UTC)

		e := expense("1234.56", "Farmácia do bairro", core.SaudeEFarmacia, at)
		require.NoError(t, s.Add(ctx, &e))

		got, ok, err := s.FindByID(ctx, e.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, e.ID, got.ID)
		assert.True(t, e.Amount.Equal(got.Amount), "amount %s != %s", e.Amount, got.Amount)
		assert.Equal(t, "Farmácia do bairro", got.Description)
		assert.Equal(t, core.SaudeEFarmacia, got.Category)
		assert.True(t, at.Equal(got.OccurredAt), "occurred at %v != %v", at, got.OccurredAt)
		assert.Equal(t, time.UTC, got.OccurredAt.Location())
	})

	t.Run("find by id absent", func(t *testing.T) {
		s := newStore(t)
		got, ok, err := s.FindByID(context.Background(), 999)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("list by period is half open and newest first", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

		rows := []core.Expense{
			expense("1", "before", core.Outros, start.Add(-time.Second)),
			expense("2", "first instant", core.Outros, start),
			expense("3", "middle", core.Outros, start.Add(15*24*time.Hour)),
			expense("4", "last instant", core.Outros, end.Add(-time.Second)),
			expense("5", "end excluded", core.Outros, end),
		}
		for i := range rows {
			require.NoError(t, s.Add(ctx, &rows[i]))
		}

		got, err := s.ListByPeriod(ctx, start, end)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "last instant", got[0].Description)
		assert.Equal(t, "middle", got[1].Description)
		assert.Equal(t, "first instant", got[2].Description)
	})

	t.Run("list by period ties break by id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		at := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

		a := expense("1", "a", core.Uber, at)
		b := expense("2", "b", core.Uber, at)
		require.NoError(t, s.Add(ctx, &a))
		require.NoError(t, s.Add(ctx, &b))

		got, err := s.ListByPeriod(ctx, core.MonthOf(at).Start, core.MonthOf(at).End)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, b.ID, got[0].ID)
		assert.Equal(t, a.ID, got[1].ID)
	})

	t.Run("list by period empty is not an error", func(t *testing.T) {
		s := newStore(t)
		p := core.MonthOf(time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC))
		got, err := s.ListByPeriod(context.Background(), p.Start, p.End)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("delete removes the row", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		at := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

		keep := expense("10", "keep", core.Compras, at)
		gone := expense("20", "gone", core.Compras, at.Add(time.Hour))
		require.NoError(t, s.Add(ctx, &keep))
		require.NoError(t, s.Add(ctx, &gone))

		require.NoError(t, s.Delete(ctx, gone))

		_, ok, err := s.FindByID(ctx, gone.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		p := core.MonthOf(at)
		rows, err := s.ListByPeriod(ctx, p.Start, p.End)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, keep.ID, rows[0].ID)

		assert.ErrorIs(t, s.Delete(ctx, gone), store.ErrNotFound)
	})

	t.Run("concurrent adds get distinct ids", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		at := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

		const n = 16
		ids := make([]int64, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				e := expense("1.50", "cafe", core.RestauranteLanche, at)
				if err := s.Add(ctx, &e); err == nil {
					ids[i] = e.ID
				}
			}(i)
		}
		wg.Wait()

		seen := make(map[int64]bool, n)
		for _, id := range ids {
			require.Positive(t, id)
			require.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
	})

	t.Run("cancelled context aborts the call", func(t *testing.T) {
		s := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		e := expense("1", "x", core.Outros, time.Now())
		assert.Error(t, s.Add(ctx, &e))
	})
}
