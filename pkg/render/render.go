// Package render formats a tally snapshot for people and for automation.
package render

import (
	"fmt"
	"strings"

	"github.com/dkoosis/tally/pkg/stats"
)

// Summary is everything a renderer needs about one run.
type Summary struct {
	RunID  string
	Counts stats.Snapshot
	// Failures lists full names per failing category, in report order.
	Failures map[stats.Category][]string
}

// NewSummary builds a Summary from the live tally, capturing the names in
// the failed and errored categories.
func NewSummary(runID string, s *stats.Stats) Summary {
	return Summary{
		RunID:  runID,
		Counts: s.Snapshot(),
		Failures: map[stats.Category][]string{
			stats.Errored: s.Names(stats.Errored),
			stats.Failed:  s.Names(stats.Failed),
		},
	}
}

// Renderer converts a summary to formatted output.
type Renderer interface {
	Render(s Summary) string
}

// row is one non-zero category of a snapshot.
type row struct {
	cat   stats.Category
	name  string
	count int
}

// rows lists the non-zero categories in declaration order.
func rows(snap stats.Snapshot) []row {
	var out []row
	for _, c := range stats.Categories() {
		if n := snap[c.String()]; n > 0 {
			out = append(out, row{cat: c, name: c.String(), count: n})
		}
	}
	return out
}

// failureNames returns errored then failed names.
func failureNames(s Summary) []string {
	var out []string
	for _, c := range []stats.Category{stats.Errored, stats.Failed} {
		out = append(out, s.Failures[c]...)
	}
	return out
}

// ByName returns the renderer for a format name. The theme only affects the
// terminal format.
func ByName(format string, theme Theme, width int) (Renderer, error) {
	switch format {
	case "json":
		return NewJSON(), nil
	case "plain":
		return NewPlain(), nil
	case "table":
		return NewTable(), nil
	case "terminal":
		return NewTerminal(theme, width), nil
	default:
		return nil, fmt.Errorf("unknown format %q (expected %s)", format, strings.Join(Formats, ", "))
	}
}

// Formats lists the concrete output formats.
var Formats = []string{"json", "plain", "table", "terminal"}
