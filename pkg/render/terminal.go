package render

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dkoosis/tally/pkg/stats"
)

// Terminal renders summaries as styled terminal output via lipgloss.
type Terminal struct {
	theme Theme
	width int
	title cases.Caser
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(theme Theme, width int) *Terminal {
	if width <= 0 {
		width = 80
	}
	return &Terminal{theme: theme, width: width, title: cases.Title(language.English)}
}

// Render formats the summary for terminal display.
func (t *Terminal) Render(s Summary) string {
	var sb strings.Builder

	sb.WriteString(t.theme.Bold.Render("Tally"))
	if s.RunID != "" {
		sb.WriteString(" " + t.theme.Muted.Render(s.RunID))
	}
	sb.WriteString("\n")

	rs := rows(s.Counts)
	labelWidth := runewidth.StringWidth(t.title.String(stats.TotalKey))
	countWidth := len(fmt.Sprint(s.Counts.Total()))
	for _, r := range rs {
		if w := runewidth.StringWidth(t.title.String(r.name)); w > labelWidth {
			labelWidth = w
		}
	}

	for _, r := range rs {
		icon, style := t.theme.CategoryStyle(r.cat)
		label := runewidth.FillRight(t.title.String(r.name), labelWidth)
		sb.WriteString("  ")
		sb.WriteString(style.Render(fmt.Sprintf("%s %s  %*d", icon, label, countWidth, r.count)))
		sb.WriteString("\n")
	}

	total := runewidth.FillRight(t.title.String(stats.TotalKey), labelWidth)
	sb.WriteString("  ")
	sb.WriteString(t.theme.Bold.Render(fmt.Sprintf("%s %s  %*d", t.theme.Icons.Bullet, total, countWidth, s.Counts.Total())))
	sb.WriteString("\n")

	if names := failureNames(s); len(names) > 0 {
		sb.WriteString("\n")
		for _, name := range names {
			line := runewidth.Truncate(name, t.width-6, "...")
			sb.WriteString("    ")
			sb.WriteString(t.theme.Error.Render(t.theme.Icons.Fail + " " + line))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
