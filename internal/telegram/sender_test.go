package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBotAPI struct {
	mu       sync.Mutex
	paths    []string
	requests []sendMessageRequest
	statuses []int
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var req sendMessageRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.paths = append(f.paths, r.URL.Path)
	f.requests = append(f.requests, req)

	status := http.StatusOK
	if len(f.statuses) > 0 {
		status = f.statuses[0]
		f.statuses = f.statuses[1:]
	}
	w.WriteHeader(status)
	if status == http.StatusOK {
		_, _ = w.Write([]byte(`{"ok":true}`))
		return
	}
	_, _ = w.Write([]byte(`{"ok":false,"description":"nope"}`))
}

func (f *fakeBotAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newTestSender(t *testing.T, api *fakeBotAPI, token string) *Sender {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewSender(SenderConfig{
		APIURL:     srv.URL + "/",
		Token:      token,
		Attempts:   3,
		RetryDelay: time.Millisecond,
	}, nil)
}

func TestSendMessage(t *testing.T) {
	api := &fakeBotAPI{}
	s := newTestSender(t, api, "123:abc")

	err := s.SendMessage(context.Background(), 987, "Compra registrada: R$ 58,90 - Mercado")
	require.NoError(t, err)

	require.Equal(t, 1, api.calls())
	assert.Equal(t, "/bot123:abc/sendMessage", api.paths[0])
	assert.Equal(t, int64(987), api.requests[0].ChatID)
	assert.Equal(t, "Compra registrada: R$ 58,90 - Mercado", api.requests[0].Text)
}

func TestSendMessageWithoutTokenSkips(t *testing.T) {
	api := &fakeBotAPI{}
	s := newTestSender(t, api, "")

	require.NoError(t, s.SendMessage(context.Background(), 1, "hello"))
	assert.Zero(t, api.calls())
}

func TestSendMessageRetries(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantCalls int
		wantCode  int
	}{
		{"server error then success", []int{500, 200}, 2, 0},
		{"rate limited then success", []int{429, 429, 200}, 3, 0},
		{"gives up after attempts", []int{502, 502, 502, 502}, 3, 502},
		{"client error is final", []int{400}, 1, 400},
		{"forbidden is final", []int{403}, 1, 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeBotAPI{statuses: tt.statuses}
			s := newTestSender(t, api, "tok")

			err := s.SendMessage(context.Background(), 1, "hi")
			assert.Equal(t, tt.wantCalls, api.calls())
			if tt.wantCode == 0 {
				require.NoError(t, err)
				return
			}
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantCode, apiErr.StatusCode)
			assert.Contains(t, apiErr.Body, "nope")
		})
	}
}

func TestSendMessageSplitsLongText(t *testing.T) {
	api := &fakeBotAPI{}
	s := newTestSender(t, api, "tok")

	line := strings.Repeat("x", 99) + "\n"
	text := strings.Repeat(line, 50) // 5000 runes

	require.NoError(t, s.SendMessage(context.Background(), 1, text))
	require.Equal(t, 2, api.calls())
	for _, req := range api.requests {
		assert.LessOrEqual(t, len([]rune(req.Text)), MaxMessageLength)
	}
	assert.Equal(t, strings.TrimRight(text, "\n"), api.requests[0].Text+"\n"+strings.TrimRight(api.requests[1].Text, "\n"))
}

func TestSendMessageHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := NewSender(SenderConfig{APIURL: url, Token: "secret-token", Attempts: 1}, nil)
	err := s.SendMessage(context.Background(), 1, "hi")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestSendMessageCancelledContext(t *testing.T) {
	api := &fakeBotAPI{statuses: []int{500, 500, 500}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	s := NewSender(SenderConfig{APIURL: srv.URL, Token: "tok", Attempts: 3, RetryDelay: time.Hour}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := s.SendMessage(ctx, 1, "hi")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"short", "abc", 10, []string{"abc"}},
		{"exact", "abcde", 5, []string{"abcde"}},
		{"breaks at newline", "ab\ncd\nef", 6, []string{"ab\ncd", "ef"}},
		{"hard cut without newline", "abcdefgh", 3, []string{"abc", "def", "gh"}},
		{"counts runes", "ééééé", 5, []string{"ééééé"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitMessage(tt.text, tt.limit))
		})
	}
}

func TestMessageTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.FixedZone("BRT", -3*3600))

	withDate := &Message{Date: 1769904000} // 2026-02-01T00:00:00Z
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), withDate.Timestamp(now))

	noDate := &Message{}
	got := noDate.Timestamp(now)
	assert.True(t, got.Equal(now))
	assert.Equal(t, time.UTC, got.Location())
}

func TestUpdateDecoding(t *testing.T) {
	raw := `{"update_id":10,"message":{"message_id":5,"chat":{"id":-100123},"text":"/listar 01/26","date":1769904000}}`

	var u Update
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	require.NotNil(t, u.Message)
	assert.Equal(t, int64(-100123), u.Message.Chat.ID)
	assert.Equal(t, "/listar 01/26", u.Message.Text)

	var empty Update
	require.NoError(t, json.Unmarshal([]byte(`{"update_id":11}`), &empty))
	assert.Nil(t, empty.Message)
}
