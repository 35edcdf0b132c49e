// Package detect sniffs input to decide whether it is a go test -json stream.
package detect

import (
	"bytes"
	"encoding/json"
)

// Format represents a recognized input format.
type Format int

const (
	Unknown    Format = iota
	GoTestJSON        // go test -json NDJSON stream
	SARIF             // SARIF document; recognized only to report a clear error
)

func (f Format) String() string {
	switch f {
	case GoTestJSON:
		return "go test -json"
	case SARIF:
		return "SARIF"
	default:
		return "unknown"
	}
}

// maxSniffLines bounds how many lines are tried before giving up, so a few
// leading non-JSON lines (build noise) don't hide the stream.
const maxSniffLines = 8

// Sniff examines the first bytes of input to determine format.
func Sniff(data []byte) Format {
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return Unknown
	}
	if data[0] == '{' && isSARIF(data) {
		return SARIF
	}

	lines := bytes.Split(data, []byte("\n"))
	for i, line := range lines {
		if i == maxSniffLines {
			break
		}
		if isGoTestEvent(bytes.TrimSpace(line)) {
			return GoTestJSON
		}
	}
	return Unknown
}

func isSARIF(data []byte) bool {
	var doc struct {
		Version string            `json:"version"`
		Runs    []json.RawMessage `json:"runs"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}
	return doc.Version != "" && doc.Runs != nil
}

var validActions = map[string]bool{
	"start": true, "run": true, "pause": true, "cont": true,
	"pass": true, "bench": true, "fail": true, "output": true, "skip": true,
	// Go 1.24+ reports build failures in-stream, keyed by ImportPath.
	"build-output": true, "build-fail": true,
}

func isGoTestEvent(line []byte) bool {
	if len(line) == 0 || line[0] != '{' {
		return false
	}
	var event struct {
		Action     string `json:"Action"`
		Package    string `json:"Package"`
		ImportPath string `json:"ImportPath"`
	}
	if err := json.Unmarshal(line, &event); err != nil {
		return false
	}
	if event.Package == "" && event.ImportPath == "" {
		return false
	}
	return validActions[event.Action]
}
