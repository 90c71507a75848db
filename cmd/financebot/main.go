package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"financebot/internal/backend"
	"financebot/internal/cli"
	"financebot/internal/config"
	apphttp "financebot/internal/http"
	applog "financebot/internal/log"
	"financebot/internal/router"
	"financebot/internal/telegram"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadConfig(applog.ComponentApp, (*config.Config).Validate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("financebot stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Failed to release backend", applog.FieldError, err)
		}
	}()

	if cfg.TelegramChatID == 0 {
		logger.Warn("TELEGRAM_CHAT_ID not set, updates will be ignored")
	}

	sender := telegram.NewSender(telegram.SenderConfig{
		APIURL:  cfg.TelegramAPIURL,
		Token:   cfg.TelegramBotToken,
		Timeout: cfg.TelegramTimeout,
	}, logger)

	srv := apphttp.NewServer(":"+cfg.Port, router.New(result.Store), sender, apphttp.Options{
		ChatID:             cfg.TelegramChatID,
		WebhookSecret:      cfg.TelegramWebhookSecret,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Logger:             logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening",
			applog.FieldOperation, applog.OpStartup,
			applog.FieldBackend, cfg.DataBackend,
			"addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", applog.FieldOperation, applog.OpShutdown, "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
