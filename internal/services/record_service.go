package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/dashboard"
	"fintrack/internal/log"
	"fintrack/internal/table"
)

// Publisher sends record events to the mirror worker.
type Publisher interface {
	Publish(ctx context.Context, event *amqp.RecordEvent) error
}

// RecordService is the only place where dashboard actions touch storage.
// It runs the reducer, executes the resulting effect against the store,
// publishes an event and reloads the table.
type RecordService struct {
	store     table.Store
	publisher Publisher
	logger    *log.Logger
	sl        *log.StructuredLogger

	// Serializes load-apply-persist so two submissions cannot interleave.
	mu sync.Mutex
}

// NewRecordService wires a store with an optional publisher. A nil
// publisher disables events.
func NewRecordService(store table.Store, publisher Publisher, logger *log.Logger) *RecordService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentRecords)
	return &RecordService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		sl:        log.NewStructuredLogger(logger),
	}
}

// Snapshot loads the current table.
func (s *RecordService) Snapshot(ctx context.Context) (core.Table, error) {
	t, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	return t, nil
}

// Dispatch applies action and returns the table as persisted afterwards.
// Validation errors leave the store untouched and satisfy core.IsValidationError.
//
// Only Refresh reads the current table. AddRecord and ClearAll go straight
// to the store, so a file that no longer parses can still be cleared.
func (s *RecordService) Dispatch(ctx context.Context, action dashboard.Action) (core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current core.Table
	if _, ok := action.(dashboard.Refresh); ok {
		t, err := s.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		current = t
	}

	next, effect, err := dashboard.Apply(current, action)
	if err != nil {
		return nil, err
	}

	switch effect.Kind {
	case dashboard.EffectAppend:
		stored, err := s.store.Append(ctx, effect.Record)
		if err != nil {
			s.sl.LogError(ctx, "Failed to append record", err, log.ComponentRecords, log.OpAppend, log.NewFields().WithRecord(effect.Record))
			return nil, fmt.Errorf("append record: %w", err)
		}
		s.sl.LogRecordAppended(ctx, effect.Record, len(stored))
		s.publish(ctx, amqp.NewAppendedEvent(effect.Record))
		return stored, nil

	case dashboard.EffectClear:
		removed := -1
		if t, err := s.store.Load(ctx); err == nil {
			removed = len(t)
		}
		if err := s.store.Clear(ctx); err != nil {
			s.sl.LogError(ctx, "Failed to clear records", err, log.ComponentRecords, log.OpClear, nil)
			return nil, fmt.Errorf("clear records: %w", err)
		}
		s.sl.LogTableCleared(ctx, removed)
		s.publish(ctx, amqp.NewClearedEvent())
		return next, nil

	default:
		return next, nil
	}
}

// Add is shorthand for dispatching AddRecord.
func (s *RecordService) Add(ctx context.Context, r core.Record) (core.Table, error) {
	return s.Dispatch(ctx, dashboard.AddRecord{Record: r})
}

// ClearAll is shorthand for dispatching ClearAll.
func (s *RecordService) ClearAll(ctx context.Context) error {
	_, err := s.Dispatch(ctx, dashboard.ClearAll{})
	return err
}

// Import appends every record in order and stops at the first failure.
// It returns how many records were stored.
func (s *RecordService) Import(ctx context.Context, records []core.Record) (int, error) {
	for i, r := range records {
		if _, err := s.Add(ctx, r); err != nil {
			return i, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	return len(records), nil
}

// publish is best effort: the change is already persisted.
func (s *RecordService) publish(ctx context.Context, event *amqp.RecordEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish record event",
			log.FieldEventID, event.ID,
			log.FieldEventKind, event.Kind,
			log.FieldError, err)
	}
}

// Close releases the publisher if it holds resources.
func (s *RecordService) Close() error {
	var errs []error
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	if c, ok := s.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	return errors.Join(errs...)
}
