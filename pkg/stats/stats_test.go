package stats

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/tally/pkg/runner"
)

type testOpts struct {
	name    string
	updated bool
	equal   bool
}

func stubTest(opts testOpts) *runner.Test {
	if opts.name == "" {
		opts.name = "default-name"
	}
	return &runner.Test{
		State:   runner.State{FullName: opts.name},
		Updated: opts.updated,
		Equal:   opts.equal,
	}
}

func newStats(t *testing.T) (*Stats, *runner.Emitter) {
	t.Helper()
	em := runner.NewEmitter()
	s, err := New(em)
	require.NoError(t, err)
	return s, em
}

func emit(t *testing.T, em *runner.Emitter, ev runner.Event, test *runner.Test) {
	t.Helper()
	require.NoError(t, em.Emit(ev, test))
}

func TestStats_CountsByEvent(t *testing.T) {
	tests := []struct {
		name  string
		event runner.Event
		opts  testOpts
		want  Category
	}{
		{"skipped", runner.SkipState, testOpts{}, Skipped},
		{"warned", runner.Warning, testOpts{}, Warned},
		{"errored", runner.Error, testOpts{}, Errored},
		{"updated", runner.UpdateResult, testOpts{updated: true}, Updated},
		{"passed on update result", runner.UpdateResult, testOpts{updated: false}, Passed},
		{"failed on test result", runner.TestResult, testOpts{equal: false}, Failed},
		{"passed on test result", runner.TestResult, testOpts{equal: true}, Passed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, em := newStats(t)

			emit(t, em, tt.event, stubTest(tt.opts))

			assert.Equal(t, 1, s.Get(tt.want))
			n, err := s.Count(tt.want.String())
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestStats_CountsTotal(t *testing.T) {
	s, em := newStats(t)

	emit(t, em, runner.TestResult, stubTest(testOpts{name: "first", equal: false}))
	emit(t, em, runner.TestResult, stubTest(testOpts{name: "second", equal: true}))

	n, err := s.Count(TotalKey)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, s.Total())
}

func TestStats_Snapshot_OmitsZeroCounts(t *testing.T) {
	s, em := newStats(t)

	emit(t, em, runner.Error, stubTest(testOpts{name: "first"}))
	emit(t, em, runner.TestResult, stubTest(testOpts{name: "second", equal: true}))

	assert.Equal(t, Snapshot{"total": 2, "errored": 1, "passed": 1}, s.Snapshot())
}

func TestStats_SameTestSupersedesEarlierCategory(t *testing.T) {
	s, em := newStats(t)

	emit(t, em, runner.SkipState, stubTest(testOpts{name: "some-state"}))
	emit(t, em, runner.Error, stubTest(testOpts{name: "some-state"}))

	assert.Equal(t, Snapshot{"total": 1, "errored": 1}, s.Snapshot())
	assert.Equal(t, 0, s.Get(Skipped))
}

func TestStats_RepeatedEventDoesNotDoubleCount(t *testing.T) {
	s, em := newStats(t)

	emit(t, em, runner.Warning, stubTest(testOpts{}))
	emit(t, em, runner.Warning, stubTest(testOpts{}))

	assert.Equal(t, 1, s.Get(Warned))
	assert.Equal(t, Snapshot{"total": 1, "warned": 1}, s.Snapshot())
}

func TestStats_EmptyTally(t *testing.T) {
	s, _ := newStats(t)

	assert.Empty(t, s.Snapshot())
	assert.Equal(t, 0, s.Get(Failed))
	n, err := s.Count(TotalKey)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStats_SnapshotIsACopy(t *testing.T) {
	s, em := newStats(t)
	emit(t, em, runner.TestResult, stubTest(testOpts{name: "a", equal: true}))

	before := s.Snapshot()
	emit(t, em, runner.TestResult, stubTest(testOpts{name: "a", equal: false}))
	emit(t, em, runner.TestResult, stubTest(testOpts{name: "b", equal: true}))

	assert.Equal(t, Snapshot{"total": 1, "passed": 1}, before)
	assert.Equal(t, Snapshot{"total": 2, "passed": 1, "failed": 1}, s.Snapshot())
}

func TestStats_InvalidTestReference(t *testing.T) {
	s, em := newStats(t)
	emit(t, em, runner.TestResult, stubTest(testOpts{name: "kept", equal: true}))

	err := em.Emit(runner.Error, &runner.Test{State: runner.State{Name: "plain"}})
	require.ErrorIs(t, err, ErrInvalidTestReference)

	err = em.Emit(runner.Error, nil)
	require.ErrorIs(t, err, ErrInvalidTestReference)

	assert.Equal(t, Snapshot{"total": 1, "passed": 1}, s.Snapshot(), "rejected events leave the tally untouched")
}

func TestStats_Count_UnknownName(t *testing.T) {
	s, _ := newStats(t)

	_, err := s.Count("flaky")

	require.ErrorIs(t, err, ErrUnknownCategory)
}

func TestStats_Names_ReturnsCopyInReportOrder(t *testing.T) {
	s, em := newStats(t)
	emit(t, em, runner.TestResult, stubTest(testOpts{name: "a"}))
	emit(t, em, runner.TestResult, stubTest(testOpts{name: "b"}))
	emit(t, em, runner.SkipState, stubTest(testOpts{name: "a"}))
	emit(t, em, runner.TestResult, stubTest(testOpts{name: "a"}))

	names := s.Names(Failed)
	assert.Equal(t, []string{"b", "a"}, names)

	names[0] = "mutated"
	assert.Equal(t, []string{"b", "a"}, s.Names(Failed))
	assert.Nil(t, s.Names(Category(42)))
}

type failingSource struct {
	fail runner.Event
}

func (f failingSource) On(ev runner.Event, _ runner.Listener) error {
	if ev == f.fail {
		return runner.ErrUnrecognizedEvent
	}
	return nil
}

func TestNew_PropagatesRegistrationError(t *testing.T) {
	_, err := New(failingSource{fail: runner.UpdateResult})

	require.ErrorIs(t, err, runner.ErrUnrecognizedEvent)
}

func TestNew_RegistersEveryEvent(t *testing.T) {
	em := runner.NewEmitter()
	s, err := New(em)
	require.NoError(t, err)

	for _, ev := range runner.Events {
		assert.Equal(t, 1, em.ListenerCount(ev), ev)
	}
	assert.Empty(t, s.Snapshot(), "registration does not touch the tally")
}

func TestStats_EachNameInOneCategory(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	s, em := newStats(t)

	for range 2000 {
		test := stubTest(testOpts{
			name:    fmt.Sprintf("test-%d", rng.IntN(40)),
			updated: rng.IntN(2) == 0,
			equal:   rng.IntN(2) == 0,
		})
		emit(t, em, runner.Events[rng.IntN(len(runner.Events))], test)
	}

	seen := make(map[string]Category)
	var sum int
	for _, c := range Categories() {
		for _, name := range s.Names(c) {
			prev, dup := seen[name]
			require.False(t, dup, "%s in both %s and %s", name, prev, c)
			seen[name] = c
		}
		sum += s.Get(c)
	}
	assert.Equal(t, len(seen), sum)
	assert.Equal(t, sum, s.Snapshot().Total())
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCategory("total")
	require.ErrorIs(t, err, ErrUnknownCategory)
	assert.Equal(t, "Category(9)", Category(9).String())
}
