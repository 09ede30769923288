// Package worker applies record events from the broker to a mirror, so a
// second copy of the table (SQL database or spreadsheet) follows the primary one.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/table"
)

// Applied event IDs are remembered so a redelivered event, for example one
// whose ack was lost, is not written to the mirror twice.
const (
	seenEventsSize = 4096
	seenEventsTTL  = 24 * time.Hour
)

// Consumer delivers events until ctx is done.
type Consumer interface {
	ConsumeWithRetry(ctx context.Context, handler amqp.Handler) error
}

type MirrorWorker struct {
	mirror     table.Mirror
	logger     *slog.Logger
	seen       *cache.LRUCache[time.Time]
	applied    atomic.Int64
	cleared    atomic.Int64
	duplicates atomic.Int64
}

func NewMirrorWorker(mirror table.Mirror, logger *slog.Logger) *MirrorWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorWorker{
		mirror: mirror,
		logger: logger,
		seen:   cache.NewLRUCache[time.Time](seenEventsSize, seenEventsTTL),
	}
}

// HandleEvent applies one event to the mirror. An error makes the broker
// redeliver the event. An event whose ID was already applied is skipped.
func (w *MirrorWorker) HandleEvent(ctx context.Context, event *amqp.RecordEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	if appliedAt, ok := w.seen.Get(event.ID); ok {
		w.duplicates.Add(1)
		w.logger.WarnContext(ctx, "Skipping already mirrored event",
			"event_id", event.ID,
			"event_kind", event.Kind,
			"applied_at", appliedAt)
		return nil
	}

	switch event.Kind {
	case amqp.EventAppended:
		if err := w.mirror.Insert(ctx, *event.Record); err != nil {
			return fmt.Errorf("mirror record: %w", err)
		}
		w.applied.Add(1)
	case amqp.EventCleared:
		if err := w.mirror.Reset(ctx); err != nil {
			return fmt.Errorf("reset mirror: %w", err)
		}
		w.cleared.Add(1)
	}
	w.seen.Set(event.ID, time.Now())

	w.logger.InfoContext(ctx, "Mirrored record event",
		"event_id", event.ID,
		"event_kind", event.Kind,
		"lag", time.Since(event.Timestamp).Round(time.Millisecond))
	return nil
}

// Counts returns how many append and clear events were applied.
func (w *MirrorWorker) Counts() (appended, cleared int64) {
	return w.applied.Load(), w.cleared.Load()
}

// Duplicates returns how many redelivered events were skipped.
func (w *MirrorWorker) Duplicates() int64 {
	return w.duplicates.Load()
}

// Run consumes events and logs a heartbeat every interval until ctx is
// cancelled. Cancellation is a clean stop and returns nil.
func (w *MirrorWorker) Run(ctx context.Context, consumer Consumer, heartbeat time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return consumer.ConsumeWithRetry(ctx, w.HandleEvent)
	})

	if heartbeat > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(heartbeat)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					appended, cleared := w.Counts()
					w.logger.InfoContext(ctx, "Mirror worker alive", "appended", appended, "cleared", cleared)
				}
			}
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
