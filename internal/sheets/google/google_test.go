package google

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"financebot/internal/core"
	applog "financebot/internal/log"
	"financebot/internal/sheets"
)

// fakeSheets serves the handful of Sheets v4 endpoints the client uses
// against a single in-memory sheet.
type fakeSheets struct {
	mu         sync.Mutex
	rows       [][]string
	failures   int // number of upcoming requests answered with 429
	status     int // status used while failures > 0
	requests   int
	batchCalls int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++

	if f.failures > 0 {
		f.failures--
		status := f.status
		if status == 0 {
			status = http.StatusTooManyRequests
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"code":` + strconv.Itoa(status) + `,"message":"slow down"}}`))
		return
	}

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		f.batchCalls++
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			if d := rq.DeleteDimension; d != nil {
				f.rows = append(f.rows[:d.Range.StartIndex], f.rows[d.Range.EndIndex:]...)
			}
		}
		_, _ = w.Write([]byte(`{"spreadsheetId":"sid"}`))
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.rows = append(f.rows, toStrings(vr.Values)...)
		_, _ = w.Write([]byte(`{"spreadsheetId":"sid"}`))
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		if len(f.rows) == 0 {
			f.rows = append(f.rows, nil)
		}
		f.rows[0] = toStrings(vr.Values)[0]
		_, _ = w.Write([]byte(`{"spreadsheetId":"sid"}`))
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		values := make([][]string, 0, len(f.rows))
		if strings.Contains(path, "A1:E1") {
			if len(f.rows) > 0 {
				values = append(values, f.rows[0])
			}
		} else {
			for _, row := range f.rows {
				values = append(values, row[:1])
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"values": values})
	case r.Method == http.MethodGet:
		_, _ = w.Write([]byte(`{"sheets":[{"properties":{"sheetId":0,"title":"Other"}},{"properties":{"sheetId":7,"title":"Compras"}}]}`))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeSheets) snapshot() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.rows))
	copy(out, f.rows)
	return out
}

func toStrings(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, r := range values {
		for _, v := range r {
			s, _ := v.(string)
			out[i] = append(out[i], s)
		}
	}
	return out
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	return newTestClientWithLogger(t, fake, nil)
}

func newTestClientWithLogger(t *testing.T, fake *fakeSheets, logger *applog.Logger) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	c := NewWithService(svc, "sid", "Compras", logger)
	c.retryDelay = time.Millisecond
	return c
}

func expense(id int64) core.Expense {
	e := core.NewExpense(decimal.RequireFromString("45.9"), "Almoco", core.RestauranteLanche,
		time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	e.ID = id
	return e
}

func TestEnsureHeader(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	require.NoError(t, c.EnsureHeader(context.Background()))
	require.NoError(t, c.EnsureHeader(context.Background()))

	rows := fake.snapshot()
	require.Len(t, rows, 1)
	assert.Equal(t, sheets.Header, rows[0])
}

func TestUpsertExpense_Idempotent(t *testing.T) {
	fake := &fakeSheets{rows: [][]string{sheets.Header}}
	c := newTestClient(t, fake)
	ctx := context.Background()

	require.NoError(t, c.UpsertExpense(ctx, expense(1)))
	require.NoError(t, c.UpsertExpense(ctx, expense(1)))
	require.NoError(t, c.UpsertExpense(ctx, expense(2)))

	rows := fake.snapshot()
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "10/03/2026 12:00", "45,90", "Almoco", "Restaurante / Lanche"}, rows[1])
	assert.Equal(t, "2", rows[2][0])
}

func TestRemoveExpense(t *testing.T) {
	fake := &fakeSheets{rows: [][]string{
		sheets.Header,
		sheets.FormatRow(expense(1)),
		sheets.FormatRow(expense(2)),
	}}
	c := newTestClient(t, fake)
	ctx := context.Background()

	require.NoError(t, c.RemoveExpense(ctx, 1))
	rows := fake.snapshot()
	require.Len(t, rows, 2)
	assert.Equal(t, "2", rows[1][0])

	require.NoError(t, c.RemoveExpense(ctx, 42))
	assert.Equal(t, 1, fake.batchCalls, "absent id must not issue a delete")
}

func TestRetryOnQuota(t *testing.T) {
	fake := &fakeSheets{rows: [][]string{sheets.Header}, failures: 2}
	c := newTestClient(t, fake)

	require.NoError(t, c.UpsertExpense(context.Background(), expense(5)))
	assert.Len(t, fake.snapshot(), 2)
}

func TestNoRetryOnClientError(t *testing.T) {
	fake := &fakeSheets{failures: 1, status: http.StatusForbidden}
	c := newTestClient(t, fake)

	err := c.UpsertExpense(context.Background(), expense(5))
	require.Error(t, err)
	assert.Equal(t, 1, fake.requests)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, isRetryable(context.Canceled))
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	assert.Error(t, err)
}

func TestLogsCarrySheetsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Format: "json", Component: applog.ComponentWorker, Output: &buf})
	c := newTestClientWithLogger(t, &fakeSheets{rows: [][]string{sheets.Header}}, logger)

	require.NoError(t, c.UpsertExpense(context.Background(), expense(9)))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, applog.ComponentSheets, rec[applog.FieldComponent])
	assert.Equal(t, float64(9), rec[applog.FieldExpenseID])
}
