package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"financebot/internal/core"
)

type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseDeleted EventType = "expense.deleted"
)

var ErrInvalidEvent = errors.New("invalid expense event")

// ExpenseSnapshot is the full state of an expense at the time of the event,
// so consumers never need to read the bot's database.
type ExpenseSnapshot struct {
	ID          int64           `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    core.Category   `json:"category"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

type ExpenseEvent struct {
	EventID   uuid.UUID       `json:"event_id"`
	Type      EventType       `json:"type"`
	Expense   ExpenseSnapshot `json:"expense"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewExpenseEvent(eventType EventType, e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		EventID: uuid.New(),
		Type:    eventType,
		Expense: ExpenseSnapshot{
			ID:          e.ID,
			Amount:      e.Amount,
			Description: e.Description,
			Category:    e.Category,
			OccurredAt:  e.OccurredAt.UTC(),
		},
		Timestamp: time.Now().UTC(),
	}
}

func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes and checks an event body.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *ExpenseEvent) Validate() error {
	switch m.Type {
	case EventExpenseCreated, EventExpenseDeleted:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, m.Type)
	}
	if m.EventID == uuid.Nil {
		return fmt.Errorf("%w: missing event id", ErrInvalidEvent)
	}
	if m.Expense.ID <= 0 {
		return fmt.Errorf("%w: missing expense id", ErrInvalidEvent)
	}
	return nil
}

// ToExpense rebuilds the domain value carried by the snapshot.
func (s ExpenseSnapshot) ToExpense() (core.Expense, error) {
	category, err := core.CategoryFromName(string(s.Category))
	if err != nil {
		return core.Expense{}, fmt.Errorf("snapshot %d: %w", s.ID, err)
	}
	e := core.NewExpense(s.Amount, s.Description, category, s.OccurredAt)
	e.ID = s.ID
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("snapshot %d: %w", s.ID, err)
	}
	return e, nil
}
