// Package runner defines the test lifecycle events a runner emits and a
// synchronous emitter that delivers them to registered listeners.
package runner

import (
	"errors"
	"fmt"
)

// Event identifies a test lifecycle event kind.
type Event string

const (
	SkipState    Event = "skipState"
	Warning      Event = "warning"
	Error        Event = "err"
	UpdateResult Event = "updateResult"
	TestResult   Event = "testResult"
)

// Events lists every recognized event kind.
var Events = []Event{SkipState, Warning, Error, UpdateResult, TestResult}

var (
	// ErrUnrecognizedEvent is returned when an event kind outside Events is
	// registered or emitted.
	ErrUnrecognizedEvent = errors.New("unrecognized event")
	// ErrNilListener is returned when On is called with a nil listener.
	ErrNilListener = errors.New("nil listener")
)

// Valid reports whether e is one of the recognized event kinds.
func (e Event) Valid() bool {
	switch e {
	case SkipState, Warning, Error, UpdateResult, TestResult:
		return true
	}
	return false
}

// State identifies the test state under check.
type State struct {
	Name     string
	FullName string // suite + state + environment; unique across a run
}

// Test is the payload carried by every event.
type Test struct {
	Suite       string
	State       State
	Environment string

	Updated bool // set for UpdateResult
	Equal   bool // set for TestResult
}

// Listener handles one delivered test.
type Listener func(*Test) error

// Emitter is an in-process event source. Delivery is synchronous: Emit
// returns only after every listener for the event has run.
type Emitter struct {
	listeners map[Event][]Listener
}

// NewEmitter returns an emitter with no listeners.
func NewEmitter() *Emitter {
	return &Emitter{listeners: make(map[Event][]Listener)}
}

// On registers fn for ev. Listeners run in registration order.
func (em *Emitter) On(ev Event, fn Listener) error {
	if !ev.Valid() {
		return fmt.Errorf("%w: %q", ErrUnrecognizedEvent, string(ev))
	}
	if fn == nil {
		return fmt.Errorf("%w for %q", ErrNilListener, string(ev))
	}
	em.listeners[ev] = append(em.listeners[ev], fn)
	return nil
}

// Emit delivers t to every listener registered for ev. All listeners run
// even if one fails; their errors are joined.
func (em *Emitter) Emit(ev Event, t *Test) error {
	if !ev.Valid() {
		return fmt.Errorf("%w: %q", ErrUnrecognizedEvent, string(ev))
	}
	var errs []error
	for _, fn := range em.listeners[ev] {
		if err := fn(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ListenerCount returns the number of listeners registered for ev.
func (em *Emitter) ListenerCount(ev Event) int {
	return len(em.listeners[ev])
}
