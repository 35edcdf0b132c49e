package testjson

import (
	"fmt"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"

	"github.com/dkoosis/tally/pkg/runner"
)

// Default output markers.
const (
	DefaultWarningMarker = "WARNING:"
	DefaultUpdateMarker  = "updated golden file"
)

// Emitter is the event sink a Source reports to.
type Emitter interface {
	Emit(ev runner.Event, t *runner.Test) error
}

// SourceConfig configures how test events are translated.
type SourceConfig struct {
	// Environment is appended to every full name, e.g. "linux/amd64".
	Environment string
	// Update reports passing tests as update results.
	Update bool
	// WarningMarkers and UpdateMarkers are matched against ANSI-stripped
	// test output. Empty slices fall back to the defaults.
	WarningMarkers []string
	UpdateMarkers  []string
}

// Source translates go test -json events into runner events.
type Source struct {
	em  Emitter
	cfg SourceConfig
	log log.Logger

	pkgs map[string]*pkgState
}

type pkgState struct {
	tests   int // tests that reached a terminal action
	updated map[string]bool
	warned  map[string]bool
	errored map[string]bool
}

// NewSource returns a Source reporting to em.
func NewSource(em Emitter, cfg SourceConfig, logger log.Logger) *Source {
	if len(cfg.WarningMarkers) == 0 {
		cfg.WarningMarkers = []string{DefaultWarningMarker}
	}
	if len(cfg.UpdateMarkers) == 0 {
		cfg.UpdateMarkers = []string{DefaultUpdateMarker}
	}
	if logger == nil {
		logger = log.NewLogger(log.DiscardHandler())
	}
	return &Source{
		em:   em,
		cfg:  cfg,
		log:  logger.New("component", "testjson"),
		pkgs: make(map[string]*pkgState),
	}
}

// FullName builds the identity of a test: package, test and environment.
func (s *Source) FullName(pkg, test string) string {
	name := pkg
	if test != "" {
		name += "/" + test
	}
	if s.cfg.Environment != "" {
		name += " [" + s.cfg.Environment + "]"
	}
	return name
}

func (s *Source) pkg(name string) *pkgState {
	if p, ok := s.pkgs[name]; ok {
		return p
	}
	p := &pkgState{
		updated: make(map[string]bool),
		warned:  make(map[string]bool),
		errored: make(map[string]bool),
	}
	s.pkgs[name] = p
	return p
}

// Handle translates one event. It has the ProcessFunc signature so it can be
// passed to Stream directly.
func (s *Source) Handle(e TestEvent) error {
	// Build events only describe compiler output; the package's own fail
	// action reports the failure.
	if e.Package == "" {
		return nil
	}
	p := s.pkg(e.Package)

	switch e.Action {
	case ActionPass:
		if e.Test == "" {
			return nil
		}
		p.tests++
		if s.cfg.Update {
			return s.emit(runner.UpdateResult, e, func(t *runner.Test) { t.Updated = p.updated[e.Test] })
		}
		return s.emit(runner.TestResult, e, func(t *runner.Test) { t.Equal = true })

	case ActionFail:
		if e.Test == "" {
			if p.tests == 0 && len(p.errored) == 0 {
				s.log.Debug("package failed without test results", "package", e.Package)
				return s.emit(runner.Error, e, nil)
			}
			return nil
		}
		p.tests++
		return s.emit(runner.TestResult, e, func(t *runner.Test) { t.Equal = false })

	case ActionSkip:
		if e.Test == "" {
			return nil
		}
		p.tests++
		return s.emit(runner.SkipState, e, nil)

	case ActionOutput:
		return s.handleOutput(p, e)
	}
	return nil
}

func (s *Source) handleOutput(p *pkgState, e TestEvent) error {
	if e.Test == "" {
		return nil
	}
	line := strings.TrimSpace(stripansi.Strip(e.Output))
	if line == "" {
		return nil
	}

	switch {
	case strings.Contains(line, "panic:") && !p.errored[e.Test]:
		p.errored[e.Test] = true
		return s.emit(runner.Error, e, nil)
	case containsAny(line, s.cfg.UpdateMarkers):
		p.updated[e.Test] = true
	case containsAny(line, s.cfg.WarningMarkers) && !p.warned[e.Test]:
		p.warned[e.Test] = true
		return s.emit(runner.Warning, e, nil)
	}
	return nil
}

func (s *Source) emit(ev runner.Event, e TestEvent, set func(*runner.Test)) error {
	t := &runner.Test{
		Suite:       e.Package,
		State:       runner.State{Name: e.Test, FullName: s.FullName(e.Package, e.Test)},
		Environment: s.cfg.Environment,
	}
	if set != nil {
		set(t)
	}
	s.log.Trace("emit", "event", ev, "test", t.State.FullName)
	if err := s.em.Emit(ev, t); err != nil {
		return fmt.Errorf("reporting %s for %s: %w", ev, t.State.FullName, err)
	}
	return nil
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(s, m) {
			return true
		}
	}
	return false
}
