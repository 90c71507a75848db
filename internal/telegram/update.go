// Package telegram holds the subset of the Bot API the bot speaks: the
// inbound update payload and the outbound sendMessage call.
package telegram

import "time"

// Update is the webhook payload. Only plain messages are handled.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
	// Date is unix seconds; zero when the sender omitted it.
	Date int64 `json:"date"`
}

type Chat struct {
	ID int64 `json:"id"`
}

// Timestamp returns the message time in UTC, or now when the update
// carries no date.
func (m *Message) Timestamp(now time.Time) time.Time {
	if m.Date <= 0 {
		return now.UTC()
	}
	return time.Unix(m.Date, 0).UTC()
}
