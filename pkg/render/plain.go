package render

import (
	"fmt"
	"strings"

	"github.com/dkoosis/tally/pkg/stats"
)

// Plain renders summaries as terse plain text: one counts line, then one
// line per failing test. Zero ANSI codes.
type Plain struct{}

// NewPlain creates a plain-text renderer.
func NewPlain() *Plain {
	return &Plain{}
}

// Render formats the summary, e.g. "total=2 errored=1 passed=1".
func (p *Plain) Render(s Summary) string {
	var sb strings.Builder

	fields := []string{fmt.Sprintf("%s=%d", stats.TotalKey, s.Counts.Total())}
	for _, r := range rows(s.Counts) {
		fields = append(fields, fmt.Sprintf("%s=%d", r.name, r.count))
	}
	sb.WriteString(strings.Join(fields, " "))
	sb.WriteString("\n")

	for _, c := range []stats.Category{stats.Errored, stats.Failed} {
		for _, name := range s.Failures[c] {
			fmt.Fprintf(&sb, "%s %s\n", strings.ToUpper(c.String()), name)
		}
	}
	return sb.String()
}
