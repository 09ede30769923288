package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/teris-io/shortid"

	"fintrack/internal/core"
)

// EventKind says what happened to the record table.
type EventKind string

const (
	EventAppended EventKind = "appended"
	EventCleared  EventKind = "cleared"
)

var ErrInvalidEvent = errors.New("invalid record event")

// RecordEvent is published after every successful change to the table.
// Record is set only for EventAppended.
type RecordEvent struct {
	ID        string       `json:"id"`
	Kind      EventKind    `json:"kind"`
	Record    *core.Record `json:"record,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

var idGenerator = shortid.MustNew(1, shortid.DefaultABC, uint64(time.Now().UnixNano()))

func newEventID() string {
	return idGenerator.MustGenerate()
}

func NewAppendedEvent(r core.Record) *RecordEvent {
	return &RecordEvent{
		ID:        newEventID(),
		Kind:      EventAppended,
		Record:    &r,
		Timestamp: time.Now().UTC(),
	}
}

func NewClearedEvent() *RecordEvent {
	return &RecordEvent{
		ID:        newEventID(),
		Kind:      EventCleared,
		Timestamp: time.Now().UTC(),
	}
}

// Validate checks that the event can be applied to a mirror.
func (e *RecordEvent) Validate() error {
	switch e.Kind {
	case EventAppended:
		if e.Record == nil {
			return fmt.Errorf("%w: appended event without record", ErrInvalidEvent)
		}
	case EventCleared:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}
	return nil
}

func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes and validates an event.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
