// Package memory keeps the record table in process memory. It backs tests
// and dry runs where nothing should touch the disk.
package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/table"
)

type Store struct {
	mu    sync.Mutex
	items core.Table
}

var (
	_ table.Store  = (*Store)(nil)
	_ table.Mirror = (*Store)(nil)
)

// New returns a store seeded with a copy of seed.
func New(seed ...core.Record) *Store {
	return &Store{items: core.Table(seed).Clone()}
}

// Load returns a copy of the stored table.
func (s *Store) Load(_ context.Context) (core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Clone(), nil
}

// Append stores the record and returns the resulting table.
func (s *Store) Append(_ context.Context, r core.Record) (core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, r)
	return s.items.Clone(), nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return nil
}

// Insert implements table.Mirror.
func (s *Store) Insert(ctx context.Context, r core.Record) error {
	_, err := s.Append(ctx, r)
	return err
}

// Reset implements table.Mirror.
func (s *Store) Reset(ctx context.Context) error {
	return s.Clear(ctx)
}
