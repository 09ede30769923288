package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/table/csvfile"
	"fintrack/internal/table/memory"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "excel"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{DataBackend: "csv", DataFile: "records.csv"})
	require.NoError(t, err)
	assert.Equal(t, CSVBackend, cfg.Type)
	assert.Equal(t, "records.csv", cfg.DataFile)
}

func TestMirrorFromAppConfig(t *testing.T) {
	cfg, err := MirrorFromAppConfig(&config.Config{MirrorBackend: "sheets", GoogleSpreadsheetID: "id", GoogleServiceAccountJSON: "{}"})
	require.NoError(t, err)
	assert.Equal(t, SheetsMirror, cfg.Type)
	assert.NoError(t, cfg.Validate())

	_, err = MirrorFromAppConfig(&config.Config{MirrorBackend: "csv"})
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"csv ok", Config{Type: CSVBackend, DataFile: "a.csv"}, false},
		{"csv without file", Config{Type: CSVBackend}, true},
		{"memory ok", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without dsn", Config{Type: PostgresBackend}, true},
		{"unknown", Config{Type: "xls"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"csv", "memory", "sqlite", "postgres"}, GetBackendTypeStrings())
}

func TestCreateBackend(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	t.Run("csv", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: CSVBackend, DataFile: filepath.Join(t.TempDir(), "r.csv")})
		require.NoError(t, err)
		assert.IsType(t, &csvfile.Store{}, res.Store)
		assert.Nil(t, res.Cleanup)
	})

	t.Run("memory", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, res.Store)
	})

	t.Run("sqlite", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "r.db")})
		require.NoError(t, err)
		require.NotNil(t, res.Cleanup)
		defer res.Cleanup()
		assert.IsType(t, &storage.Repository{}, res.Store)

		tbl, err := res.Store.Append(ctx, core.Record{Date: core.NewDate(2024, 1, 1), Category: core.Food, Type: core.Expense, Amount: decimal.NewFromInt(2)})
		require.NoError(t, err)
		assert.Len(t, tbl, 1)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := f.CreateBackend(ctx, Config{Type: "nope"})
		assert.Error(t, err)
	})
}

func TestCreateMirrorSQLite(t *testing.T) {
	res, err := NewFactory(nil).CreateMirror(context.Background(), MirrorConfig{Type: SQLiteMirror, SQLiteDBPath: filepath.Join(t.TempDir(), "m.db")})
	require.NoError(t, err)
	defer res.Cleanup()
	assert.NoError(t, res.Mirror.Reset(context.Background()))
}
