// Package csvfile keeps the record table in a single CSV file that is
// rewritten in full on every append and removed on clear.
package csvfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/table"
)

// DefaultFileName is the backing file used when none is configured.
const DefaultFileName = "my_finance_data.csv"

type Store struct {
	mu   sync.Mutex
	path string
}

var _ table.Store = (*Store)(nil)

func New(path string) *Store {
	if path == "" {
		path = DefaultFileName
	}
	return &Store{path: path}
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Load parses the backing file, or returns an empty table if it does not exist.
func (s *Store) Load(ctx context.Context) (core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) (core.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	t, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return t, nil
}

// Append adds r to the end of the table and rewrites the whole file.
func (s *Store) Append(ctx context.Context, r core.Record) (core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	t = append(t, r)
	if err := s.write(t); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Record saved to CSV",
		"path", s.path,
		"date", r.Date.String(),
		"category", r.Category,
		"type", r.Type,
		"amount", r.Amount.String(),
		"rows", len(t))
	return t, nil
}

// Clear removes the backing file. A missing file is not an error.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", s.path, err)
	}
	slog.InfoContext(ctx, "CSV table cleared", "path", s.path)
	return nil
}

// write replaces the backing file through a temp file in the same directory.
func (s *Store) write(t core.Table) error {
	var buf bytes.Buffer
	if err := Encode(&buf, t); err != nil {
		return fmt.Errorf("encode table: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
