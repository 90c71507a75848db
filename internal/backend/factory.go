package backend

import (
	"context"
	"fmt"

	"financebot/internal/amqp"
	applog "financebot/internal/log"
	"financebot/internal/services"
	"financebot/internal/store"
	"financebot/internal/store/memory"
	"financebot/internal/store/postgres"
	"financebot/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend opens the configured store and wraps it in an
// ExpenseService. An unreachable broker is logged and events are disabled;
// the bot keeps working without them.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	base, err := f.createStore(ctx, config)
	if err != nil {
		return nil, err
	}

	var publisher services.EventPublisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", applog.FieldError, err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			publisher = client
		}
	}

	svc := services.NewExpenseService(base, publisher, f.logger)

	f.logger.Info("Initialized backend",
		applog.FieldBackend, config.Type,
		"events_enabled", publisher != nil)

	return &BackendResult{
		Store:   svc,
		Cleanup: svc.Close,
	}, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, config Config) (store.ExpenseStore, error) {
	switch config.Type {
	case MemoryBackend:
		f.logger.Warn("Using in-memory store, expenses are lost on restart")
		return memory.New(), nil
	case SQLiteBackend:
		repo, err := sqlite.NewRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		f.logger.Info("Opened SQLite store", "db_path", config.SQLiteDBPath)
		return repo, nil
	case PostgresBackend:
		pg, err := postgres.New(ctx, postgres.Config{
			DatabaseURL: config.DatabaseURL,
			MaxPoolSize: config.MaxPoolSize,
		}, f.logger)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres store: %w", err)
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
