package diag

import (
	"fmt"
	"slices"
	"sync"
)

// Kind names what an Event records.
type Kind string

const (
	// KindCompile is recorded once per session, when the grammar is built.
	KindCompile Kind = "compile"

	// KindConsume is recorded for every element the source delivers.
	KindConsume Kind = "consume"

	// KindProduce is recorded for every result the session emits.
	KindProduce Kind = "produce"

	// KindFinish is recorded when the session completes or fails.
	KindFinish Kind = "finish"
)

// Event is one diagnostics record of a parse session.
type Event struct {
	// Seq orders events across every session observed by the same clock.
	Seq int64

	// Session identifies the parse session.
	Session string

	// Grammar is the name of the driver that ran the session.
	Grammar string

	Kind Kind

	// Index is the source position the event refers to: the element
	// position for consume, the start of the match for produce, the final
	// position for finish.
	Index int

	// Length is the number of elements a produced result consumed.
	Length int

	// Value is the consumed element or the produced value.
	Value any

	// Err is set on a finish event of a failed session.
	Err error
}

func (e Event) String() string {
	switch e.Kind {
	case KindProduce:
		return fmt.Sprintf("#%d %s @%d+%d %v", e.Seq, e.Kind, e.Index, e.Length, e.Value)
	case KindConsume:
		return fmt.Sprintf("#%d %s @%d %v", e.Seq, e.Kind, e.Index, e.Value)
	case KindFinish:
		if e.Err != nil {
			return fmt.Sprintf("#%d %s @%d error: %v", e.Seq, e.Kind, e.Index, e.Err)
		}
		return fmt.Sprintf("#%d %s @%d", e.Seq, e.Kind, e.Index)
	default:
		return fmt.Sprintf("#%d %s", e.Seq, e.Kind)
	}
}

// Hooks observes parse sessions. Observe must not block for long and must
// not retain the Event's Value beyond the call unless it is immutable.
// A panic in Observe is recovered and logged by the engine; it never reaches
// the parse.
type Hooks interface {
	Observe(ev Event)
}

// HookFunc adapts a function to Hooks.
type HookFunc func(ev Event)

func (f HookFunc) Observe(ev Event) {
	f(ev)
}

type multi []Hooks

func (m multi) Observe(ev Event) {
	for _, h := range m {
		h.Observe(ev)
	}
}

// Multi fans every event out to each of hooks in order. Nil hooks are
// skipped.
func Multi(hooks ...Hooks) Hooks {
	var m multi
	for _, h := range hooks {
		if h != nil {
			m = append(m, h)
		}
	}
	return m
}

// Recording keeps every observed event in memory.
//
// Thread-safety: Recording is safe for concurrent use.
type Recording struct {
	mu     sync.Mutex
	events []Event
	kinds  map[Kind]bool
}

// NewRecording records events of the given kinds, or of every kind when
// none are given.
func NewRecording(kinds ...Kind) *Recording {
	r := &Recording{}
	if len(kinds) > 0 {
		r.kinds = make(map[Kind]bool, len(kinds))
		for _, k := range kinds {
			r.kinds[k] = true
		}
	}
	return r
}

func (r *Recording) Observe(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.kinds != nil && !r.kinds[ev.Kind] {
		return
	}
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recording) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Reset discards the recorded events.
func (r *Recording) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
