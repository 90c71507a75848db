package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financebot/internal/amqp"
	"financebot/internal/core"
	"financebot/internal/store"
	"financebot/internal/store/memory"
	"financebot/internal/store/storetest"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.ExpenseEvent
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, event *amqp.ExpenseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func newExpense(amount, desc string, cat core.Category) core.Expense {
	return core.NewExpense(decimal.RequireFromString(amount), desc, cat, time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC))
}

func TestExpenseServiceSatisfiesStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.ExpenseStore {
		return NewExpenseService(memory.New(), &recordingPublisher{}, nil)
	})
}

func TestExpenseServicePublishesEvents(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub, nil)
	ctx := context.Background()

	e := newExpense("58.90", "Almoco", core.Mercado)
	require.NoError(t, svc.Add(ctx, &e))
	require.NoError(t, svc.Delete(ctx, e))

	require.Len(t, pub.events, 2)
	assert.Equal(t, amqp.EventExpenseCreated, pub.events[0].Type)
	assert.Equal(t, amqp.EventExpenseDeleted, pub.events[1].Type)
	assert.NotEqual(t, pub.events[0].EventID, pub.events[1].EventID)
	for _, ev := range pub.events {
		assert.Equal(t, e.ID, ev.Expense.ID)
		assert.True(t, ev.Expense.Amount.Equal(e.Amount))
		assert.Equal(t, "Almoco", ev.Expense.Description)
		assert.Equal(t, core.Mercado, ev.Expense.Category)
	}
}

func TestExpenseServiceSkipsEventsOnStoreFailure(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub, nil)

	err := svc.Delete(context.Background(), newExpense("1", "x", core.Outros))
	require.ErrorIs(t, err, store.ErrNotFound)

	invalid := newExpense("1", "   ", core.Outros)
	require.Error(t, svc.Add(context.Background(), &invalid))

	assert.Empty(t, pub.events)
}

func TestExpenseServiceIgnoresPublishFailure(t *testing.T) {
	mem := memory.New()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewExpenseService(mem, pub, nil)

	e := newExpense("10", "pao", core.Mercado)
	require.NoError(t, svc.Add(context.Background(), &e))
	assert.Equal(t, 1, mem.Len())
}

func TestExpenseServiceWithoutPublisher(t *testing.T) {
	svc := NewExpenseService(memory.New(), nil, nil)

	e := newExpense("10", "pao", core.Mercado)
	require.NoError(t, svc.Add(context.Background(), &e))
	require.NoError(t, svc.Delete(context.Background(), e))
}

func TestExpenseServiceClose(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		svc := NewExpenseService(memory.New(), nil, nil)
		require.NoError(t, svc.Close())
	})

	t.Run("closes publisher", func(t *testing.T) {
		pub := &recordingPublisher{}
		svc := NewExpenseService(memory.New(), pub, nil)
		require.NoError(t, svc.Close())
		assert.True(t, pub.closed)
	})
}
