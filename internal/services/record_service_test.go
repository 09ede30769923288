package services

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/dashboard"
	"fintrack/internal/log"
	"fintrack/internal/table/csvfile"
	"fintrack/internal/table/memory"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event *amqp.RecordEvent) error {
	return m.Called(ctx, event).Error(0)
}

type failingStore struct {
	*memory.Store
	err error
}

func (f *failingStore) Append(context.Context, core.Record) (core.Table, error) {
	return nil, f.err
}

type countingStore struct {
	*memory.Store
	loads int
}

func (c *countingStore) Load(ctx context.Context) (core.Table, error) {
	c.loads++
	return c.Store.Load(ctx)
}

func quietLogger(buf *bytes.Buffer) *log.Logger {
	return log.New(log.Config{Level: slog.LevelDebug, Format: log.FormatJSON, Output: buf})
}

func record(amount string) core.Record {
	return core.Record{
		Date:     core.NewDate(2024, 3, 1),
		Category: core.Food,
		Type:     core.Expense,
		Amount:   decimal.RequireFromString(amount),
	}
}

func isKind(kind amqp.EventKind) any {
	return mock.MatchedBy(func(e *amqp.RecordEvent) bool { return e.Kind == kind })
}

func TestAddPersistsAndPublishes(t *testing.T) {
	store := memory.New()
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, isKind(amqp.EventAppended)).Return(nil).Twice()

	svc := NewRecordService(store, pub, quietLogger(&bytes.Buffer{}))
	ctx := context.Background()

	tbl, err := svc.Add(ctx, record("10"))
	require.NoError(t, err)
	require.Len(t, tbl, 1)

	tbl, err = svc.Add(ctx, record("20"))
	require.NoError(t, err)
	require.Len(t, tbl, 2)
	assert.True(t, tbl[1].Amount.Equal(decimal.NewFromInt(20)), "appended rows keep insertion order")

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	pub.AssertExpectations(t)
}

func TestAddRejectsInvalidRecord(t *testing.T) {
	store := memory.New(record("5"))
	pub := &mockPublisher{}
	svc := NewRecordService(store, pub, quietLogger(&bytes.Buffer{}))

	bad := record("5")
	bad.Category = "Travel"
	_, err := svc.Add(context.Background(), bad)
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))

	stored, _ := store.Load(context.Background())
	assert.Len(t, stored, 1)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestClearAllEmptiesStore(t *testing.T) {
	store := memory.New(record("1"), record("2"))
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, isKind(amqp.EventCleared)).Return(nil).Once()
	svc := NewRecordService(store, pub, quietLogger(&bytes.Buffer{}))

	require.NoError(t, svc.ClearAll(context.Background()))

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
	pub.AssertExpectations(t)
}

func TestRefreshDoesNotWrite(t *testing.T) {
	store := memory.New(record("1"))
	svc := NewRecordService(store, nil, quietLogger(&bytes.Buffer{}))

	tbl, err := svc.Dispatch(context.Background(), dashboard.Refresh{})
	require.NoError(t, err)
	assert.Len(t, tbl, 1)
}

func TestPublishFailureDoesNotFailAdd(t *testing.T) {
	var buf bytes.Buffer
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("circuit breaker is open"))
	svc := NewRecordService(memory.New(), pub, quietLogger(&buf))

	tbl, err := svc.Add(context.Background(), record("3"))
	require.NoError(t, err)
	assert.Len(t, tbl, 1)
	assert.Contains(t, buf.String(), "Failed to publish record event")
}

func TestStoreFailureSurfaces(t *testing.T) {
	store := &failingStore{Store: memory.New(), err: errors.New("disk full")}
	pub := &mockPublisher{}
	svc := NewRecordService(store, pub, quietLogger(&bytes.Buffer{}))

	_, err := svc.Add(context.Background(), record("3"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
	assert.False(t, core.IsValidationError(err))
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestImportStopsAtFirstInvalid(t *testing.T) {
	store := memory.New()
	svc := NewRecordService(store, nil, quietLogger(&bytes.Buffer{}))

	bad := record("1")
	bad.Type = "Transfer"
	n, err := svc.Import(context.Background(), []core.Record{record("1"), record("2"), bad, record("4")})
	require.Error(t, err)
	assert.Equal(t, 2, n)
	assert.ErrorContains(t, err, "record 3")

	stored, _ := store.Load(context.Background())
	assert.Len(t, stored, 2)
}

func TestClearAllRemovesUnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,category,type,amount\nnot-a-date,Food,Expense,5\n"), 0o644))

	store := csvfile.New(path)
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, isKind(amqp.EventCleared)).Return(nil).Once()
	var buf bytes.Buffer
	svc := NewRecordService(store, pub, quietLogger(&buf))
	ctx := context.Background()

	_, err := svc.Snapshot(ctx)
	require.Error(t, err, "the bad row makes the file unreadable")

	require.NoError(t, svc.ClearAll(ctx))
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	tbl, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, tbl)
	assert.Contains(t, buf.String(), `"rows":-1`)
	pub.AssertExpectations(t)
}

func TestOnlyRefreshPreloadsTable(t *testing.T) {
	store := &countingStore{Store: memory.New(record("1"))}
	svc := NewRecordService(store, nil, quietLogger(&bytes.Buffer{}))
	ctx := context.Background()

	tbl, err := svc.Add(ctx, record("2"))
	require.NoError(t, err)
	assert.Len(t, tbl, 2, "the store returns the persisted table")
	assert.Zero(t, store.loads)

	tbl, err = svc.Dispatch(ctx, dashboard.Refresh{})
	require.NoError(t, err)
	assert.Len(t, tbl, 2)
	assert.Equal(t, 1, store.loads)

	tbl, err = svc.Dispatch(ctx, dashboard.ClearAll{})
	require.NoError(t, err)
	assert.Empty(t, tbl)
}
