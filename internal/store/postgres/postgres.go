// Package postgres provides a PostgreSQL ExpenseStore.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	mpgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"financebot/internal/core"
	applog "financebot/internal/log"
	"financebot/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ store.ExpenseStore = (*Store)(nil)

// Config holds the PostgreSQL store configuration.
type Config struct {
	// DatabaseURL is a libpq style URL or keyword/value DSN.
	DatabaseURL string

	// MaxPoolSize is the maximum number of connections in the pool.
	MaxPoolSize int
}

// Store keeps expenses in PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	logger *applog.Logger
}

// New connects, pings and migrates.
func New(ctx context.Context, cfg Config, logger *applog.Logger) (*Store, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentStorage)
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 10
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		"host", poolConfig.ConnConfig.Host,
		"database", poolConfig.ConnConfig.Database,
	)

	s := &Store{pool: pool, logger: logger}
	if err := s.runMigrations(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) runMigrations() error {
	s.logger.Info("running database migrations")

	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	driver, err := mpgx.WithInstance(db, &mpgx.Config{})
	if err != nil {
		return fmt.Errorf("create pgx driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	s.logger.Info("migrations completed successfully")
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Add(ctx context.Context, e *core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO expenses (amount, description, category, occurred_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		e.Amount, e.Description, string(e.Category), e.OccurredAt.UTC(),
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("inserting expense: %w", err)
	}
	return nil
}

func (s *Store) ListByPeriod(ctx context.Context, start, end time.Time) ([]core.Expense, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, amount, description, category, occurred_at
		   FROM expenses
		  WHERE occurred_at >= $1 AND occurred_at < $2
		  ORDER BY occurred_at DESC, id DESC`,
		start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying expenses by period: %w", err)
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
		return nil, fmt.Errorf("iterating expenses: %w", err)
	}
	return expenses, nil
}

func (s *Store) FindByID(ctx context.Context, id int64) (*core.Expense, bool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, amount, description, category, occurred_at FROM expenses WHERE id = $1`, id)
	e, err := scanExpense(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &e, true, nil
}

func (s *Store) Delete(ctx context.Context, e core.Expense) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, e.ID)
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanExpense(row pgx.Row) (core.Expense, error) {
	var (
		e          core.Expense
		amount     decimal.Decimal
		category   string
		occurredAt time.Time
	)
	if err := row.Scan(&e.ID, &amount, &e.Description, &category, &occurredAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("scanning expense: %w", err)
	}
	cat, err := core.CategoryFromName(category)
	if err != nil {
		return e, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	e.Amount = amount
	e.Category = cat
	e.OccurredAt = occurredAt.UTC()
	return e, nil
}
