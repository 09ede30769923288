package backend

import (
	"context"

	"fintrack/internal/table"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store instance and optional cleanup function
type BackendResult struct {
	Store   table.Store
	Cleanup CleanupFunc
}

// MirrorResult contains the mirror instance and optional cleanup function
type MirrorResult struct {
	Mirror  table.Mirror
	Cleanup CleanupFunc
}

// Factory creates stores and mirrors based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	CreateMirror(ctx context.Context, config MirrorConfig) (*MirrorResult, error)
}

// Config holds configuration for store creation
type Config struct {
	Type BackendType

	// csv
	DataFile string

	// sqlite
	SQLiteDBPath string

	// postgres
	PostgresDSN string
}

// MirrorConfig holds configuration for mirror creation
type MirrorConfig struct {
	Type MirrorType

	SQLiteDBPath string
	PostgresDSN  string

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// BackendType represents the type of backend
type BackendType string

const (
	CSVBackend      BackendType = "csv"
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// MirrorType selects where the worker copies record events.
type MirrorType string

const (
	SQLiteMirror   MirrorType = "sqlite"
	PostgresMirror MirrorType = "postgres"
	SheetsMirror   MirrorType = "sheets"
)

func (mt MirrorType) IsValid() bool {
	switch mt {
	case SQLiteMirror, PostgresMirror, SheetsMirror:
		return true
	default:
		return false
	}
}
