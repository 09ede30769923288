// Package google mirrors the record table into a Google Sheets tab: one row
// per record under a fixed header, in the same column order as the CSV file.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	"fintrack/internal/table"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ table.Mirror = (*Client)(nil)

// Options configures New. Exactly one of CredentialsJSON or CredentialsFile
// is normally set; ClientOptions are passed to the Sheets service as is.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	ClientOptions   []goption.ClientOption
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	clientOpts := opts.ClientOptions
	if len(clientOpts) == 0 {
		creds, err := readCredentials(ctx, opts)
		if err != nil {
			return nil, err
		}
		clientOpts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, opts.SheetName), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Records"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: strings.TrimSpace(sheetName)}
}

func readCredentials(ctx context.Context, opts Options) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(opts.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(opts.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", serviceAccountFile)
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c *Client) rng(cells string) string {
	return fmt.Sprintf("%s!%s", c.sheetName, cells)
}

// EnsureHeader writes the column names to the first row when it is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng("A1:D1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", c.sheetName, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	header := make([]any, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.rng("A1:D1"), &gsheet.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header of %s: %w", c.sheetName, err)
	}
	return nil
}

// Insert implements table.Mirror by appending one row after the last one.
func (c *Client) Insert(ctx context.Context, r core.Record) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	vr := &gsheet.ValueRange{Values: [][]any{{
		r.Date.String(), string(r.Category), string(r.Type), r.Amount.String(),
	}}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.rng("A:D"), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Record mirrored to Google Sheets", "sheet", c.sheetName, "range", ref)
	return nil
}

// Reset implements table.Mirror by clearing every row below the header.
func (c *Client) Reset(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.rng("A2:D"), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", c.sheetName, err)
	}
	slog.InfoContext(ctx, "Google Sheets mirror cleared", "sheet", c.sheetName)
	return nil
}
