package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"fintrack/internal/core"
)

type sheetsCall struct {
	Method string
	Path   string
	Query  map[string]string
	Body   map[string]any
}

type fakeSheets struct {
	mu      sync.Mutex
	calls   []sheetsCall
	header  bool
	failing bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := sheetsCall{Method: r.Method, Path: r.URL.Path, Query: map[string]string{}}
	for k := range r.URL.Query() {
		call.Query[k] = r.URL.Query().Get(k)
	}
	if body, _ := io.ReadAll(r.Body); len(body) > 0 {
		_ = json.Unmarshal(body, &call.Body)
	}
	f.calls = append(f.calls, call)

	w.Header().Set("Content-Type", "application/json")
	if f.failing {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied"}}`))
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, ":append"):
		_, _ = w.Write([]byte(`{"updates":{"updatedRange":"Records!A2:D2"}}`))
	case strings.HasSuffix(r.URL.Path, ":clear"):
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodGet:
		if f.header {
			_, _ = w.Write([]byte(`{"values":[["date","category","type","amount"]]}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	default:
		_, _ = w.Write([]byte(`{}`))
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Options{
		SpreadsheetID: "sheet-123",
		SheetName:     "Records",
		ClientOptions: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithoutAuthentication(),
			goption.WithHTTPClient(srv.Client()),
		},
	})
	require.NoError(t, err)
	return c
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing spreadsheet id")
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Options{SpreadsheetID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestInsertAppendsRow(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	rec := core.Record{Date: core.NewDate(2024, 1, 2), Category: core.Food, Type: core.Expense, Amount: decimal.RequireFromString("50.5")}
	require.NoError(t, c.Insert(context.Background(), rec))

	require.Len(t, fake.calls, 1)
	call := fake.calls[0]
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Contains(t, call.Path, "/v4/spreadsheets/sheet-123/values/Records!A:D:append")
	assert.Equal(t, "USER_ENTERED", call.Query["valueInputOption"])
	assert.Equal(t, "INSERT_ROWS", call.Query["insertDataOption"])
	assert.Equal(t, []any{[]any{"2024-01-02", "Food", "Expense", "50.5"}}, call.Body["values"])
}

func TestResetClearsBelowHeader(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	require.NoError(t, c.Reset(context.Background()))
	require.Len(t, fake.calls, 1)
	assert.Equal(t, http.MethodPost, fake.calls[0].Method)
	assert.Contains(t, fake.calls[0].Path, "Records!A2:D:clear")
}

func TestEnsureHeader(t *testing.T) {
	t.Run("writes missing header", func(t *testing.T) {
		fake := &fakeSheets{}
		c := newTestClient(t, fake)
		require.NoError(t, c.EnsureHeader(context.Background()))
		require.Len(t, fake.calls, 2)
		assert.Equal(t, http.MethodPut, fake.calls[1].Method)
		assert.Equal(t, []any{[]any{"date", "category", "type", "amount"}}, fake.calls[1].Body["values"])
	})

	t.Run("keeps existing header", func(t *testing.T) {
		fake := &fakeSheets{header: true}
		c := newTestClient(t, fake)
		require.NoError(t, c.EnsureHeader(context.Background()))
		assert.Len(t, fake.calls, 1)
	})
}

func TestInsertReportsAPIErrors(t *testing.T) {
	fake := &fakeSheets{failing: true}
	c := newTestClient(t, fake)

	rec := core.Record{Date: core.NewDate(2024, 1, 2), Category: core.Food, Type: core.Expense, Amount: decimal.NewFromInt(1)}
	err := c.Insert(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append to sheet Records")
}

func TestNilServiceIsAnError(t *testing.T) {
	c := &Client{sheetName: "Records"}
	assert.Error(t, c.Insert(context.Background(), core.Record{}))
	assert.Error(t, c.Reset(context.Background()))
	assert.Error(t, c.EnsureHeader(context.Background()))
}
