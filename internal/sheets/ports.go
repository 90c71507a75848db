// Package sheets mirrors stored expenses into a spreadsheet, one row per
// expense keyed by its id.
package sheets

import (
	"context"
	"strconv"

	"financebot/internal/core"
)

// Header is the first row of the mirror sheet.
var Header = []string{"ID", "Data", "Valor", "Descricao", "Categoria"}

const dateLayout = "02/01/2006 15:04"

// ExpenseMirror is the outbound port of the mirror worker. Both operations
// are idempotent so redelivered events are harmless.
type ExpenseMirror interface {
	// UpsertExpense appends a row for e unless one with its id exists.
	UpsertExpense(ctx context.Context, e core.Expense) error
	// RemoveExpense deletes the row with the given id, if any.
	RemoveExpense(ctx context.Context, id int64) error
}

// FormatRow renders e in Header order, with the same text the bot uses in
// its replies.
func FormatRow(e core.Expense) []string {
	return []string{
		strconv.FormatInt(e.ID, 10),
		e.OccurredAt.UTC().Format(dateLayout),
		core.FormatBRL(e.Amount),
		e.Description,
		e.Category.DisplayName(),
	}
}
