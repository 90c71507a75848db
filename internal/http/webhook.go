package http

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	applog "financebot/internal/log"
	"financebot/internal/telegram"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// handleWebhook acknowledges every authenticated delivery with 200, even when
// processing fails, so Telegram does not redeliver the same update forever.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentWebhook)

	if s.secret != "" {
		got := r.Header.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
			logger.WarnContext(ctx, "Webhook secret mismatch")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	var update telegram.Update
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&update); err != nil {
		logger.WarnContext(ctx, "Ignoring malformed update", applog.FieldError, err)
		w.WriteHeader(http.StatusOK)
		return
	}

	msg := update.Message
	if msg == nil || strings.TrimSpace(msg.Text) == "" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if s.chatID == 0 {
		logger.WarnContext(ctx, "No destination chat configured, ignoring update", "update_id", update.UpdateID)
		w.WriteHeader(http.StatusOK)
		return
	}

	logger = logger.With(applog.FieldChatID, msg.Chat.ID, "update_id", update.UpdateID)

	// The update is claimed before routing so concurrent redeliveries run
	// it once. The claim is released when the command did not complete.
	key := strconv.FormatInt(update.UpdateID, 10)
	if update.UpdateID != 0 && !s.seen.SetIfAbsent(key, struct{}{}) {
		logger.InfoContext(ctx, "Skipping redelivered update")
		w.WriteHeader(http.StatusOK)
		return
	}

	reply, err := s.router.Route(ctx, msg.Text, msg.Timestamp(s.now()))
	if err != nil {
		s.seen.Delete(key)
		logger.ErrorContext(ctx, "Failed to process command", applog.FieldError, err)
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := s.sender.SendMessage(ctx, s.chatID, reply); err != nil {
		logger.ErrorContext(ctx, "Failed to send reply", applog.FieldError, err)
	}
	w.WriteHeader(http.StatusOK)
}
