// Package router turns chat command text into expense operations and
// renders the reply sent back to the user.
package router

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"financebot/internal/core"
	applog "financebot/internal/log"
	"financebot/internal/store"
)

var (
	compraPattern  = regexp.MustCompile(`(?i)^/compra(?:@[A-Za-z0-9_]+)?\s+([0-9]+(?:[.,][0-9]{1,2})?)\s*,\s*(.+?)\s*,\s*(.+)$`)
	listarPattern  = regexp.MustCompile(`(?i)^/listar(?:@[A-Za-z0-9_]+)?(?:\s+(.+))?$`)
	deletarPattern = regexp.MustCompile(`(?i)^/deletar(?:@[A-Za-z0-9_]+)?\s+(\d+)\s*$`)
)

// Router is stateless; one instance serves concurrent requests.
type Router struct {
	store store.ExpenseStore
}

func New(s store.ExpenseStore) *Router {
	return &Router{store: s}
}

// Route handles one message. Bad input always yields a reply and a nil
// error; a non-nil error means the store failed or ctx was cancelled and no
// reply should be sent.
func (r *Router) Route(ctx context.Context, text string, reference time.Time) (string, error) {
	if reference.IsZero() {
		reference = time.Now()
	}
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	switch {
	case strings.HasPrefix(lower, "/compra"):
		return r.handleCompra(ctx, text, reference)
	case strings.HasPrefix(lower, "/listar"):
		return r.handleListar(ctx, text, reference)
	case strings.HasPrefix(lower, "/deletar"):
		return r.handleDeletar(ctx, text)
	case strings.HasPrefix(lower, "/start"):
		return msgStart, nil
	default:
		return msgUnrecognized, nil
	}
}

func (r *Router) handleCompra(ctx context.Context, text string, reference time.Time) (string, error) {
	m := compraPattern.FindStringSubmatch(text)
	if m == nil {
		return msgCompraUsage, nil
	}
	amountText, description, categoryText := m[1], strings.TrimSpace(m[2]), strings.TrimSpace(m[3])

	amount, err := core.ParseAmount(amountText)
	if err != nil {
		return msgInvalidAmount, nil
	}

	switch {
	case description == "":
		return msgEmptyDescription, nil
	case utf8.RuneCountInString(description) > core.MaxDescriptionLength:
		return msgLongDescription, nil
	}

	category, ok := core.ParseCategory(categoryText)
	if !ok {
		return fmt.Sprintf(msgUnknownCategory, categoryText, core.DisplayNames()), nil
	}

	e := core.NewExpense(amount, description, category, reference)
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validate expense: %w", err)
	}

	if err := r.store.Add(ctx, &e); err != nil {
		return "", fmt.Errorf("add expense: %w", err)
	}

	logger(ctx, "compra").InfoContext(ctx, "Expense registered",
		applog.NewFields().
			WithOperation(applog.OpCreate).
			WithExpense(e.ID, e.Amount.StringFixed(2), string(e.Category)).
			ToSlice()...)

	return fmt.Sprintf(msgCompraRegistered, core.FormatBRL(e.Amount), e.Category.DisplayName()), nil
}

func (r *Router) handleListar(ctx context.Context, text string, reference time.Time) (string, error) {
	m := listarPattern.FindStringSubmatch(text)
	if m == nil {
		return msgListarUsage, nil
	}

	period := core.MonthOf(reference)
	if arg := strings.TrimSpace(m[1]); arg != "" {
		p, err := core.ParseMonthYear(arg)
		if err != nil {
			return msgInvalidMonthYear, nil
		}
		period = p
	}

	expenses, err := r.store.ListByPeriod(ctx, period.Start, period.End)
	if err != nil {
		return "", fmt.Errorf("list expenses: %w", err)
	}
	logger(ctx, "listar").DebugContext(ctx, "Expenses listed",
		applog.FieldOperation, applog.OpList,
		"period", period.Label(),
		"count", len(expenses))
	if len(expenses) == 0 {
		return fmt.Sprintf(msgNoExpenses, period.Label()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, msgListHeader, period.Label())
	b.WriteByte('\n')
	for _, e := range expenses {
		fmt.Fprintf(&b, msgListLine,
			e.ID,
			e.OccurredAt.UTC().Format(listTimestampLayout),
			core.FormatBRL(e.Amount),
			e.Description,
			e.Category.DisplayName())
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, msgListTotal, core.FormatBRL(core.Sum(expenses)))
	return b.String(), nil
}

func (r *Router) handleDeletar(ctx context.Context, text string) (string, error) {
	m := deletarPattern.FindStringSubmatch(text)
	if m == nil {
		return msgDeletarUsage, nil
	}

	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return msgInvalidID, nil
	}

	e, found, err := r.store.FindByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("find expense: %w", err)
	}
	if !found {
		return msgIDNotFound, nil
	}

	if err := r.store.Delete(ctx, *e); err != nil {
		return "", fmt.Errorf("delete expense: %w", err)
	}

	logger(ctx, "deletar").InfoContext(ctx, "Expense removed",
		applog.NewFields().
			WithOperation(applog.OpDelete).
			WithExpense(e.ID, e.Amount.StringFixed(2), string(e.Category)).
			ToSlice()...)

	return fmt.Sprintf(msgCompraRemoved, core.FormatBRL(e.Amount), e.Description, e.Category.DisplayName()), nil
}

// logger returns the request-scoped logger tagged with the command name.
func logger(ctx context.Context, command string) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentRouter).With(applog.FieldCommand, command)
}
