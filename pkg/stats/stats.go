// Package stats keeps a running, categorized tally of test results reported
// by a runner. A test may be reported several times while its outcome
// evolves; every report supersedes the previous one, so each full name is
// counted in exactly one category.
package stats

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dkoosis/tally/pkg/runner"
)

// ErrInvalidTestReference is returned when a delivered test has no usable
// full name.
var ErrInvalidTestReference = errors.New("invalid test reference")

// EventSource is the subscription capability Stats needs from a runner.
type EventSource interface {
	On(ev runner.Event, fn runner.Listener) error
}

// Snapshot maps category names to counts. Zero counts are omitted; TotalKey
// is present when the total is non-zero.
type Snapshot map[string]int

// Total returns the snapshot's total, 0 when absent.
func (s Snapshot) Total() int {
	return s[TotalKey]
}

// Stats is the tally. It is not safe for concurrent use: the source must
// deliver events one at a time.
type Stats struct {
	tests [numCategories][]string
	owner map[string]Category
}

// New registers a listener for every recognized event on src.
func New(src EventSource) (*Stats, error) {
	s := &Stats{owner: make(map[string]Category)}

	handlers := []struct {
		ev  runner.Event
		cat func(*runner.Test) Category
	}{
		{runner.SkipState, func(*runner.Test) Category { return Skipped }},
		{runner.Warning, func(*runner.Test) Category { return Warned }},
		{runner.Error, func(*runner.Test) Category { return Errored }},
		{runner.UpdateResult, func(t *runner.Test) Category {
			if t.Updated {
				return Updated
			}
			return Passed
		}},
		{runner.TestResult, func(t *runner.Test) Category {
			if t.Equal {
				return Passed
			}
			return Failed
		}},
	}
	for _, h := range handlers {
		resolve := h.cat
		if err := src.On(h.ev, func(t *runner.Test) error { return s.handle(t, resolve) }); err != nil {
			return nil, fmt.Errorf("registering %s listener: %w", h.ev, err)
		}
	}
	return s, nil
}

func (s *Stats) handle(t *runner.Test, resolve func(*runner.Test) Category) error {
	if t == nil {
		return fmt.Errorf("%w: nil test", ErrInvalidTestReference)
	}
	if t.State.FullName == "" {
		return fmt.Errorf("%w: empty full name (suite %q, state %q)", ErrInvalidTestReference, t.Suite, t.State.Name)
	}
	s.reassign(t.State.FullName, resolve(t))
	return nil
}

// reassign moves fullName into cat, dropping any earlier attribution.
func (s *Stats) reassign(fullName string, cat Category) {
	if prev, ok := s.owner[fullName]; ok {
		s.tests[prev] = slices.DeleteFunc(s.tests[prev], func(n string) bool { return n == fullName })
	}
	s.tests[cat] = append(s.tests[cat], fullName)
	s.owner[fullName] = cat
}

// Get returns the number of tests currently attributed to c.
func (s *Stats) Get(c Category) int {
	if !c.valid() {
		return 0
	}
	return len(s.tests[c])
}

// Total returns the number of distinct tests seen.
func (s *Stats) Total() int {
	var n int
	for _, names := range s.tests {
		n += len(names)
	}
	return n
}

// Count resolves name as a category or TotalKey and returns its count.
func (s *Stats) Count(name string) (int, error) {
	if name == TotalKey {
		return s.Total(), nil
	}
	c, err := ParseCategory(name)
	if err != nil {
		return 0, err
	}
	return s.Get(c), nil
}

// Snapshot returns a copy of the current counts.
func (s *Stats) Snapshot() Snapshot {
	snap := make(Snapshot)
	var total int
	for c, names := range s.tests {
		if n := len(names); n > 0 {
			snap[Category(c).String()] = n
			total += n
		}
	}
	if total > 0 {
		snap[TotalKey] = total
	}
	return snap
}

// Names returns the full names attributed to c, most recently reported last.
func (s *Stats) Names(c Category) []string {
	if !c.valid() {
		return nil
	}
	return slices.Clone(s.tests[c])
}
