// Package dashboard turns user actions into table changes and turns a table
// into the view the dashboard renders. Both steps are pure: the only side
// effect an action has is the Effect it returns, which the caller executes.
package dashboard

import (
	"fmt"

	"fintrack/internal/core"
)

// Action is something the user asked the dashboard to do.
type Action interface {
	isAction()
}

// AddRecord appends Record to the table.
type AddRecord struct {
	Record core.Record
}

// ClearAll removes every record.
type ClearAll struct{}

// Refresh only rebuilds the view.
type Refresh struct{}

func (AddRecord) isAction() {}
func (ClearAll) isAction()  {}
func (Refresh) isAction()   {}

// EffectKind names the persistence step an action requires.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectAppend
	EffectClear
)

func (k EffectKind) String() string {
	switch k {
	case EffectNone:
		return "none"
	case EffectAppend:
		return "append"
	case EffectClear:
		return "clear"
	default:
		return fmt.Sprintf("EffectKind(%d)", int(k))
	}
}

// Effect is the persistence step the caller must perform. Record is set
// only for EffectAppend.
type Effect struct {
	Kind   EffectKind
	Record core.Record
}

// Apply validates action, picks the Effect the caller must persist and
// computes the table that would result from applying it to t in memory.
// Callers holding a store should treat the store's table as authoritative
// after executing the effect. The input table is never modified. An invalid
// AddRecord returns the validation error and EffectNone.
func Apply(t core.Table, action Action) (core.Table, Effect, error) {
	switch a := action.(type) {
	case AddRecord:
		if err := a.Record.Validate(); err != nil {
			return t.Clone(), Effect{Kind: EffectNone}, err
		}
		next := append(t.Clone(), a.Record)
		return next, Effect{Kind: EffectAppend, Record: a.Record}, nil
	case ClearAll:
		return core.Table{}, Effect{Kind: EffectClear}, nil
	case Refresh, nil:
		return t.Clone(), Effect{Kind: EffectNone}, nil
	default:
		return t.Clone(), Effect{Kind: EffectNone}, fmt.Errorf("unknown action %T", action)
	}
}
