// Package testjson reads go test -json NDJSON streams and reports the tests
// they describe to a runner event source.
package testjson

import "time"

// Actions reported by test2json.
const (
	ActionStart  = "start"
	ActionRun    = "run"
	ActionPause  = "pause"
	ActionCont   = "cont"
	ActionPass   = "pass"
	ActionFail   = "fail"
	ActionSkip   = "skip"
	ActionOutput = "output"
	ActionBench  = "bench"

	// Go 1.24+ build events; they carry ImportPath instead of Package.
	ActionBuildOutput = "build-output"
	ActionBuildFail   = "build-fail"
)

// TestEvent represents a single event from go test -json output.
type TestEvent struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"` // start, run, pass, fail, skip, output, bench, pause, cont
	Package string    `json:"Package"`
	Test    string    `json:"Test"`
	Elapsed float64   `json:"Elapsed"`
	Output  string    `json:"Output"`

	ImportPath string `json:"ImportPath,omitempty"`
}

// ProcessFunc handles one decoded event. A non-nil error stops the stream.
type ProcessFunc func(TestEvent) error
