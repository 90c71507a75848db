package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxDescriptionLength bounds Expense.Description in runes; it matches the
// width of the description column in every store.
const MaxDescriptionLength = 255

type (
	// Expense is a single recorded purchase.
	Expense struct {
		ID          int64 // assigned by the store on Add
		Amount      decimal.Decimal
		Description string
		Category    Category
		OccurredAt  time.Time // always UTC
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyDescription  = errors.New("empty description")
	ErrDescriptionLength = errors.New("description too long")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrZeroOccurredAt    = errors.New("occurred at cannot be zero")
)

// NewExpense builds an expense ready to be handed to a store. The
// description is trimmed and the timestamp converted to UTC.
func NewExpense(amount decimal.Decimal, description string, category Category, occurredAt time.Time) Expense {
	return Expense{
		Amount:      amount,
		Description: strings.TrimSpace(description),
		Category:    category,
		OccurredAt:  occurredAt.UTC(),
	}
}

func (e Expense) Validate() error {
	if e.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLength {
		return ErrDescriptionLength
	}
	if !e.Category.IsValid() {
		return ErrUnknownCategory
	}
	if e.OccurredAt.IsZero() {
		return ErrZeroOccurredAt
	}
	return nil
}
