package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financebot/internal/core"
	"financebot/internal/store"
	"financebot/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.ExpenseStore { return New() })
}

func TestAddRejectsInvalidExpense(t *testing.T) {
	s := New()
	e := core.NewExpense(decimal.Zero, "x", core.Mercado, time.Now())
	assert.ErrorIs(t, s.Add(context.Background(), &e), core.ErrInvalidAmount)
	assert.Zero(t, s.Len())
}

func TestFindByIDReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	e := core.NewExpense(decimal.NewFromInt(5), "orig", core.Uber, time.Now())
	require.NoError(t, s.Add(ctx, &e))

	got, ok, err := s.FindByID(ctx, e.ID)
	require.NoError(t, err)
	require.True(t, ok)
	got.Description = "mutated"

	again, _, _ := s.FindByID(ctx, e.ID)
	assert.Equal(t, "orig", again.Description)
}
