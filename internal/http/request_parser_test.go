package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

var fixedNow = time.Date(2024, 5, 17, 21, 30, 0, 0, time.UTC)

func TestRecordInput(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		r, err := RecordInput{Date: "2024-01-02", Category: "Food", Type: "Expense", Amount: "12,50"}.Record(fixedNow)
		require.NoError(t, err)
		assert.Equal(t, "2024-01-02", r.Date.String())
		assert.Equal(t, core.Food, r.Category)
		assert.Equal(t, core.Expense, r.Type)
		assert.True(t, r.Amount.Equal(decimal.RequireFromString("12.5")))
	})

	t.Run("empty date is today", func(t *testing.T) {
		r, err := RecordInput{Category: "salary", Type: "income", Amount: "100"}.Record(fixedNow)
		require.NoError(t, err)
		assert.Equal(t, "2024-05-17", r.Date.String())
		assert.Equal(t, core.Salary, r.Category)
	})

	t.Run("zero amount is allowed", func(t *testing.T) {
		_, err := RecordInput{Category: "Other", Type: "Expense", Amount: "0"}.Record(fixedNow)
		assert.NoError(t, err)
	})

	t.Run("reports every invalid field", func(t *testing.T) {
		_, err := RecordInput{Date: "17/05/2024", Category: "Travel", Type: "Transfer", Amount: "-5"}.Record(fixedNow)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrInvalidDate)
		assert.ErrorIs(t, err, core.ErrInvalidCategory)
		assert.ErrorIs(t, err, core.ErrInvalidType)
		assert.ErrorIs(t, err, core.ErrInvalidAmount)
		assert.True(t, core.IsValidationError(err))
	})
}

func TestRequestBodyParser(t *testing.T) {
	t.Run("form", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader("date=2024-01-02&category=Food&type=Expense&amount=+%0012"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		p := NewRequestBodyParser(req)
		require.NoError(t, p.Parse())
		assert.False(t, p.IsJSON())
		in := p.RecordInput()
		assert.Equal(t, "Food", in.Category)
		assert.Equal(t, "12", in.Amount, "control characters and spaces are stripped")
	})

	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(`{"date":"2024-01-02","category":"Salary","type":"Income","amount":950.5}`))
		req.Header.Set("Content-Type", "application/json")
		p := NewRequestBodyParser(req)
		require.NoError(t, p.Parse())
		assert.True(t, p.IsJSON())
		assert.Equal(t, RecordInput{Date: "2024-01-02", Category: "Salary", Type: "Income", Amount: "950.5"}, p.RecordInput())
	})

	t.Run("broken json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(`{"date":`))
		p := NewRequestBodyParser(req)
		assert.Error(t, p.Parse())
		assert.Error(t, p.Parse(), "error is remembered")
	})

	t.Run("empty body", func(t *testing.T) {
		p := NewRequestBodyParser(httptest.NewRequest(http.MethodPost, "/records", nil))
		require.NoError(t, p.Parse())
		assert.Empty(t, p.Get("amount"))
	})
}
