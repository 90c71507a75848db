// Package google implements the expense mirror on top of the Google Sheets
// v4 API.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"financebot/internal/core"
	applog "financebot/internal/log"
	"financebot/internal/sheets"
)

const (
	defaultAttempts   = 4
	defaultRetryDelay = 2 * time.Second
)

type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *applog.Logger

	attempts   uint
	retryDelay time.Duration
}

var _ sheets.ExpenseMirror = (*Client)(nil)

// New authenticates with the service account credentials in cfg. Inline JSON
// wins over the file; with neither, application default credentials are used.
func New(ctx context.Context, cfg Config, logger *applog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	opts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, goption.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
		opts = append(opts, goption.WithCredentialsJSON(b))
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName, logger), nil
}

// NewWithService wraps an already built service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string, logger *applog.Logger) *Client {
	if sheetName == "" {
		sheetName = "Compras"
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(applog.ComponentSheets),
		attempts:      defaultAttempts,
		retryDelay:    defaultRetryDelay,
	}
}

// EnsureHeader writes sheets.Header into the first row when it is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	var resp *gsheet.ValueRange
	err := c.do(ctx, "read header", func() error {
		var err error
		resp, err = c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.sheetName+"!A1:E1").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	vr := &gsheet.ValueRange{Values: [][]interface{}{toRow(sheets.Header)}}
	err = c.do(ctx, "write header", func() error {
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.sheetName+"!A1:E1", vr).
			ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	c.logger.InfoContext(ctx, "Sheet header written", "sheet", c.sheetName)
	return nil
}

func (c *Client) UpsertExpense(ctx context.Context, e core.Expense) error {
	row, err := c.findRow(ctx, e.ID)
	if err != nil {
		return err
	}
	if row >= 0 {
		c.logger.DebugContext(ctx, "Expense already mirrored", applog.FieldExpenseID, e.ID, "row", row+1)
		return nil
	}

	vr := &gsheet.ValueRange{Values: [][]interface{}{toRow(sheets.FormatRow(e))}}
	err = c.do(ctx, "append row", func() error {
		_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.sheetName+"!A:E", vr).
			ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	c.logger.InfoContext(ctx, "Expense mirrored", applog.FieldExpenseID, e.ID)
	return nil
}

func (c *Client) RemoveExpense(ctx context.Context, id int64) error {
	row, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}
	if row < 0 {
		c.logger.DebugContext(ctx, "Expense not in sheet", applog.FieldExpenseID, id)
		return nil
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row),
					EndIndex:   int64(row + 1),
					// Zero is a valid sheet id and row index.
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	err = c.do(ctx, "delete row", func() error {
		_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("delete row: %w", err)
	}
	c.logger.InfoContext(ctx, "Expense removed from sheet", applog.FieldExpenseID, id)
	return nil
}

// findRow returns the zero-based row index holding id in column A, or -1.
func (c *Client) findRow(ctx context.Context, id int64) (int, error) {
	var resp *gsheet.ValueRange
	err := c.do(ctx, "read ids", func() error {
		var err error
		resp, err = c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.sheetName+"!A:A").Context(ctx).Do()
		return err
	})
	if err != nil {
		return -1, fmt.Errorf("read ids: %w", err)
	}

	key := strconv.FormatInt(id, 10)
	for i, r := range resp.Values {
		if len(r) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(r[0])) == key {
			return i, nil
		}
	}
	return -1, nil
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	var ss *gsheet.Spreadsheet
	err := c.do(ctx, "read spreadsheet", func() error {
		var err error
		ss, err = c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheetName)
}

// do runs fn, retrying quota and server errors.
func (c *Client) do(ctx context.Context, op string, fn func() error) error {
	return retry.Do(
		fn,
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.WarnContext(ctx, "Retrying sheets call",
				applog.FieldOperation, op,
				applog.FieldAttempt, n+1,
				applog.FieldError, err)
		}),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
}

func isRetryable(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError
	}
	return false
}

func toRow(cells []string) []interface{} {
	row := make([]interface{}, len(cells))
	for i, v := range cells {
		row[i] = v
	}
	return row
}
