package backend

import (
	"context"
	"fmt"
	"log/slog"

	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/storage"
	"fintrack/internal/table/csvfile"
	"fintrack/internal/table/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVBackend:
		store := csvfile.New(config.DataFile)
		f.logger.Info("Initialized CSV backend", "path", store.Path())
		return &BackendResult{Store: store}, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return &BackendResult{Store: memory.New()}, nil
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
	case PostgresBackend:
		repo, err := storage.NewPostgresRepository(config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// CreateMirror implements Factory.CreateMirror
func (f *DefaultFactory) CreateMirror(ctx context.Context, config MirrorConfig) (*MirrorResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteMirror:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite mirror: %w", err)
		}
		f.logger.Info("Initialized SQLite mirror", "db_path", config.SQLiteDBPath)
		return &MirrorResult{Mirror: repo, Cleanup: repo.Close}, nil
	case PostgresMirror:
		repo, err := storage.NewPostgresRepository(config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres mirror: %w", err)
		}
		f.logger.Info("Initialized Postgres mirror")
		return &MirrorResult{Mirror: repo, Cleanup: repo.Close}, nil
	case SheetsMirror:
		cli, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsJSON: config.GoogleServiceAccountJSON,
			CredentialsFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		if err := cli.EnsureHeader(ctx); err != nil {
			return nil, fmt.Errorf("prepare sheet: %w", err)
		}
		f.logger.Info("Initialized Google Sheets mirror", "sheet", config.GoogleSheetName)
		return &MirrorResult{Mirror: cli}, nil
	default:
		return nil, fmt.Errorf("unsupported mirror type: %s", config.Type)
	}
}
