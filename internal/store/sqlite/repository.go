// Package sqlite is the embedded ExpenseStore backed by modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"financebot/internal/core"
	applog "financebot/internal/log"
	"financebot/internal/store"

	_ "modernc.org/sqlite"
)

// timeLayout keeps every stored timestamp the same width.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var _ store.ExpenseStore = (*Repository)(nil)

type Repository struct {
	db     *sql.DB
	logger *applog.Logger
}

func NewRepository(dbPath string, logger *applog.Logger) (*Repository, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; sqlite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, logger: logger.WithComponent(applog.ComponentStorage)}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Add(ctx context.Context, e *core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (amount_cents, description, category, occurred_at) VALUES (?, ?, ?, ?)`,
		core.ToCents(e.Amount), e.Description, string(e.Category), formatTime(e.OccurredAt))
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read expense id: %w", err)
	}
	e.ID = id

	r.logger.DebugContext(ctx, "Expense saved to SQLite",
		applog.FieldExpenseID, e.ID,
		applog.FieldAmount, e.Amount.StringFixed(2),
		applog.FieldCategory, e.Category)

	return nil
}

func (r *Repository) ListByPeriod(ctx context.Context, start, end time.Time) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount_cents, description, category, occurred_at
		   FROM expenses
		  WHERE occurred_at >= ? AND occurred_at < ?
		  ORDER BY occurred_at DESC, id DESC`,
		formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("query expenses by period: %w", err)
	}
	defer rows.Close()

	expenses := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*core.Expense, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, amount_cents, description, category, occurred_at FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &e, true, nil
}

func (r *Repository) Delete(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, e.ID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	r.logger.DebugContext(ctx, "Expense deleted from SQLite", applog.FieldExpenseID, e.ID)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e          core.Expense
		cents      int64
		category   string
		occurredAt string
	)
	if err := s.Scan(&e.ID, &cents, &e.Description, &category, &occurredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("scan expense: %w", err)
	}

	cat, err := core.CategoryFromName(category)
	if err != nil {
		return e, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	t, err := time.Parse(timeLayout, occurredAt)
	if err != nil {
		return e, fmt.Errorf("expense %d: parse occurred_at: %w", e.ID, err)
	}

	e.Amount = core.FromCents(cents)
	e.Category = cat
	e.OccurredAt = t.UTC()
	return e, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
