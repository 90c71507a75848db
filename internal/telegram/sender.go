package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/avast/retry-go"

	applog "financebot/internal/log"
)

// MaxMessageLength is the Bot API limit for one text message, in runes.
const MaxMessageLength = 4096

var errBadRequest = errors.New("invalid sendMessage request")

// APIError is a non-2xx answer from the Bot API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if sent again.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type SenderConfig struct {
	APIURL     string
	Token      string
	Timeout    time.Duration
	Attempts   uint
	RetryDelay time.Duration
	HTTPClient *http.Client
}

// Sender posts replies through sendMessage.
type Sender struct {
	client   *http.Client
	endpoint string
	enabled  bool
	attempts uint
	delay    time.Duration
	logger   *applog.Logger
}

func NewSender(cfg SenderConfig, logger *applog.Logger) *Sender {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Sender{
		client:   client,
		endpoint: strings.TrimRight(cfg.APIURL, "/") + "/bot" + cfg.Token + "/sendMessage",
		enabled:  cfg.Token != "",
		attempts: cfg.Attempts,
		delay:    cfg.RetryDelay,
		logger:   logger.WithComponent(applog.ComponentTelegram),
	}
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// SendMessage delivers text to chatID, split into several messages when it
// exceeds MaxMessageLength. With no bot token configured it logs a warning
// and returns nil.
func (s *Sender) SendMessage(ctx context.Context, chatID int64, text string) error {
	if !s.enabled {
		s.logger.WarnContext(ctx, "Telegram bot token not configured, skipping message", applog.FieldChatID, chatID)
		return nil
	}

	for _, part := range SplitMessage(text, MaxMessageLength) {
		if err := s.send(ctx, chatID, part); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sender) send(ctx context.Context, chatID int64, text string) error {
	payload, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("marshal sendMessage: %w", err)
	}

	err = retry.Do(
		func() error {
			return s.post(ctx, payload)
		},
		retry.RetryIf(func(err error) bool {
			if ctx.Err() != nil || errors.Is(err, errBadRequest) {
				return false
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Retryable()
			}
			return true
		}),
		retry.OnRetry(func(n uint, err error) {
			s.logger.WarnContext(ctx, "Telegram send failed, will retry",
				applog.FieldOperation, applog.OpSend,
				applog.FieldChatID, chatID,
				applog.FieldAttempt, n+1,
				applog.FieldError, err)
		}),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func (s *Sender) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// The URL holds the bot token and must not reach the logs.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return fmt.Errorf("post sendMessage: %w", urlErr.Err)
		}
		return fmt.Errorf("post sendMessage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.ErrorContext(ctx, "Telegram sendMessage failed",
			applog.FieldStatusCode, resp.StatusCode,
			"body", string(body))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// SplitMessage cuts text into chunks of at most limit runes, preferring to
// break after a newline.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var parts []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for i := limit; i > 0; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
