package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dkoosis/tally/pkg/stats"
)

// Theme holds the styles and icons shared by the terminal renderer and the
// live view.
type Theme struct {
	Name    string
	Primary lipgloss.Style // updated
	Success lipgloss.Style // passed
	Warning lipgloss.Style // warned
	Error   lipgloss.Style // failed, errored
	Muted   lipgloss.Style // skipped, run id
	Bold    lipgloss.Style // total
	Icons   ThemeIcons
}

// ThemeIcons is the glyph set for a theme.
type ThemeIcons struct {
	Pass   string
	Fail   string
	Warn   string
	Update string
	Skip   string
	Bullet string
}

// Themes lists the theme names ThemeByName accepts.
var Themes = []string{"default", "orca", "mono"}

// palette builds a colored theme from 256-color codes.
func palette(name, primary, success, warning, failure, muted string, icons ThemeIcons) Theme {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return Theme{
		Name:    name,
		Primary: fg(primary),
		Success: fg(success),
		Warning: fg(warning),
		Error:   fg(failure),
		Muted:   fg(muted),
		Bold:    lipgloss.NewStyle().Bold(true),
		Icons:   icons,
	}
}

var unicodeIcons = ThemeIcons{Pass: "✓", Fail: "✗", Warn: "⚠", Update: "↻", Skip: "○", Bullet: "·"}

// DefaultTheme is the vivid theme used on color terminals.
func DefaultTheme() Theme {
	return palette("default", "39", "34", "214", "196", "242", unicodeIcons)
}

// OrcaTheme is a muted variant of the default theme.
func OrcaTheme() Theme {
	icons := unicodeIcons
	icons.Warn = "!"
	return palette("orca", "75", "108", "179", "167", "245", icons)
}

// MonoTheme uses no color and ASCII icons, for logs and dumb terminals.
func MonoTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Name:    "mono",
		Primary: plain,
		Success: plain,
		Warning: plain,
		Error:   plain,
		Muted:   plain,
		Bold:    lipgloss.NewStyle().Bold(true),
		Icons:   ThemeIcons{Pass: "+", Fail: "x", Warn: "!", Update: "~", Skip: "-", Bullet: "-"},
	}
}

// ThemeByName returns the named theme. An empty name selects the default.
func ThemeByName(name string) (Theme, error) {
	switch name {
	case "default", "":
		return DefaultTheme(), nil
	case "orca":
		return OrcaTheme(), nil
	case "mono":
		return MonoTheme(), nil
	default:
		return Theme{}, fmt.Errorf("unknown theme %q (expected %s)", name, strings.Join(Themes, ", "))
	}
}

// CategoryStyle returns the icon and style for c.
func (t Theme) CategoryStyle(c stats.Category) (string, lipgloss.Style) {
	switch c {
	case stats.Passed:
		return t.Icons.Pass, t.Success
	case stats.Failed, stats.Errored:
		return t.Icons.Fail, t.Error
	case stats.Warned:
		return t.Icons.Warn, t.Warning
	case stats.Updated:
		return t.Icons.Update, t.Primary
	default:
		return t.Icons.Skip, t.Muted
	}
}
