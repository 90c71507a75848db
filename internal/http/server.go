// Package http exposes the Telegram webhook and a health probe.
package http

import (
	"context"
	"net/http"
	"time"

	"financebot/internal/cache"
	applog "financebot/internal/log"
	"financebot/internal/middleware/ratelimit"
	"financebot/internal/middleware/security"
	"financebot/internal/middleware/trace"
)

const (
	// maxBodyBytes bounds a webhook payload; Telegram updates are far smaller.
	maxBodyBytes = 1 << 20

	// Telegram redelivers an update it did not see acknowledged in time.
	seenUpdatesSize = 1024
	seenUpdatesTTL  = 10 * time.Minute
)

// CommandRouter turns a message text into a reply.
type CommandRouter interface {
	Route(ctx context.Context, text string, reference time.Time) (string, error)
}

// MessageSender delivers a reply to a chat.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type Options struct {
	// ChatID receives every reply. Zero disables processing.
	ChatID int64
	// WebhookSecret, when set, must match X-Telegram-Bot-Api-Secret-Token.
	WebhookSecret      string
	RateLimitPerMinute int
	TrustedProxies     []string
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	router  CommandRouter
	sender  MessageSender
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	ips     *security.IPResolver
	seen    *cache.LRU[struct{}]
	logger  *applog.Logger

	chatID int64
	secret string
	now    func() time.Time
}

func NewServer(addr string, router CommandRouter, sender MessageSender, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	httpLogger := logger.WithComponent(applog.ComponentHTTP)

	ips := security.NewIPResolver()
	for _, cidr := range opts.TrustedProxies {
		if err := ips.AddTrustedProxy(cidr); err != nil {
			httpLogger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}

	s := &Server{
		router:  router,
		sender:  sender,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:  trace.NewMiddleware(logger, ips.ClientIP),
		ips:     ips,
		seen:    cache.NewLRU[struct{}](seenUpdatesSize, seenUpdatesTTL),
		logger:  httpLogger,
		chatID:  opts.ChatID,
		secret:  opts.WebhookSecret,
		now:     time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("POST /telegram/webhook", s.limiter.Middleware(ips.ClientIP, nil)(http.HandlerFunc(s.handleWebhook)))

	var handler http.Handler = mux
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops accepting requests, waits for in-flight ones and releases
// the limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.limiter.Stop()
	err := s.Server.Shutdown(ctx)

	traffic := s.tracer.GetMetrics()
	limits := s.limiter.GetMetrics()
	s.logger.InfoContext(ctx, "HTTP server stopped",
		applog.FieldOperation, applog.OpShutdown,
		"total_requests", traffic.TotalRequests,
		"failed_requests", traffic.FailedRequests,
		"rate_limit_hits", limits.TotalHits)
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
