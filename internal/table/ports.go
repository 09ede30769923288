// Package table defines the store that persists the record table.
package table

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

// Columns is the fixed schema of the persisted table, in header order.
var Columns = []string{"date", "category", "type", "amount"}

var (
	ErrMalformedRow  = errors.New("malformed row")
	ErrMissingColumn = errors.New("missing column")
)

// Ports for outbound adapters.
type (
	// Store loads, appends to and clears the table of records.
	Store interface {
		// Load returns the persisted table, or an empty table if nothing was saved yet.
		Load(ctx context.Context) (core.Table, error)
		// Append adds r after the last record, persists the table and returns it.
		Append(ctx context.Context, r core.Record) (core.Table, error)
		// Clear removes every persisted record.
		Clear(ctx context.Context) error
	}

	// Mirror receives a copy of every change made to a Store.
	Mirror interface {
		Insert(ctx context.Context, r core.Record) error
		Reset(ctx context.Context) error
	}
)
