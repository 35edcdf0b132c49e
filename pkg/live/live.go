// Package live shows the running tally in the terminal while events arrive.
package live

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dkoosis/tally/pkg/render"
	"github.com/dkoosis/tally/pkg/stats"
)

// SnapshotMsg carries the latest counts into the model.
type SnapshotMsg stats.Snapshot

// DoneMsg tells the model the stream has ended.
type DoneMsg struct{}

// Model is the bubbletea model for the live view.
type Model struct {
	theme   render.Theme
	spinner spinner.Model
	snap    stats.Snapshot
	updates int
	done    bool
}

// NewModel returns a model with an empty tally drawn in theme.
func NewModel(theme render.Theme) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Primary
	return Model{theme: theme, spinner: sp, snap: stats.Snapshot{}}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.snap = stats.Snapshot(msg)
		m.updates++
		return m, nil
	case DoneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var parts []string
	for _, c := range stats.Categories() {
		n := m.snap[c.String()]
		if n == 0 {
			continue
		}
		_, style := m.theme.CategoryStyle(c)
		parts = append(parts, style.Render(fmt.Sprintf("%s %d", c, n)))
	}
	parts = append(parts, m.theme.Bold.Render(fmt.Sprintf("%s %d", stats.TotalKey, m.snap.Total())))

	prefix := m.spinner.View() + " running"
	if m.done {
		prefix = m.theme.Icons.Pass + " done"
	}
	return prefix + "  " + strings.Join(parts, " "+m.theme.Icons.Bullet+" ") + "\n"
}

// View drives a bubbletea program showing the tally.
type View struct {
	program *tea.Program
	exited  chan error
}

// Start launches the live view on out. Input is disabled: stdin carries the
// test stream.
func Start(ctx context.Context, out io.Writer, theme render.Theme) *View {
	v := &View{
		program: tea.NewProgram(NewModel(theme),
			tea.WithContext(ctx),
			tea.WithOutput(out),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		exited: make(chan error, 1),
	}
	go func() {
		_, err := v.program.Run()
		v.exited <- err
	}()
	return v
}

// Update pushes a new snapshot to the view.
func (v *View) Update(snap stats.Snapshot) {
	v.program.Send(SnapshotMsg(snap))
}

// Stop shows the final snapshot and waits for the program to exit.
func (v *View) Stop(final stats.Snapshot) error {
	v.program.Send(SnapshotMsg(final))
	v.program.Send(DoneMsg{})
	err := <-v.exited
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
