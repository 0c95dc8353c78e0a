package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kiranshivaraju/autodesign/internal/tracker"
	"github.com/kiranshivaraju/autodesign/pkg/models"
)

type updateMsg tracker.Update

// watchDoneMsg is sent once the update channel is closed.
type watchDoneMsg struct{}

// Model shows a spinner while a job is polled and the final status once the
// watch ends.
type Model struct {
	updates <-chan tracker.Update
	spinner spinner.Model
	styles  Styles

	last     tracker.Update
	received bool
	done     bool
	quit     bool
}

// NewModel creates a progress model reading from updates. initial describes
// the job before the first update arrives.
func NewModel(updates <-chan tracker.Update, initial tracker.Update) Model {
	styles := DefaultStyles()
	s := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Spinner))
	return Model{
		updates: updates,
		spinner: s,
		styles:  styles,
		last:    initial,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForUpdate(m.updates))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quit = true
			return m, tea.Quit
		}
		return m, nil

	case updateMsg:
		m.last = tracker.Update(msg)
		m.received = true
		return m, waitForUpdate(m.updates)

	case watchDoneMsg:
		m.done = true
		return m, tea.Quit

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

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	switch {
	case m.last.State == models.JobStateSucceeded:
		b.WriteString(m.styles.Success.Render("Design generated"))
	case m.last.State == models.JobStateFailed:
		b.WriteString(m.styles.Danger.Render("Design failed"))
	case m.quit:
		b.WriteString(m.styles.Muted.Render("Stopped watching"))
	default:
		b.WriteString(m.spinner.View())
		b.WriteString(" Generating design...")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %s\n", m.styles.Label.Render("Status:"), statusText(m.last))
	if id := m.last.RequestID; id != "" {
		fmt.Fprintf(&b, "%s %s\n", m.styles.Label.Render("Request ID:"), id)
	}
	if m.last.Polls > 0 {
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("%d status checks", m.last.Polls)))
		b.WriteString("\n")
	}
	if m.last.Err != nil {
		b.WriteString(m.styles.Danger.Render("Error: " + m.last.Err.Error()))
		b.WriteString("\n")
	}
	return b.String()
}

// Last returns the most recent update.
func (m Model) Last() tracker.Update { return m.last }

// Quit reports whether the user stopped watching before the job finished.
func (m Model) Quit() bool { return m.quit && !m.done }

func statusText(u tracker.Update) string {
	if u.CodeMajor != "" {
		return u.CodeMajor
	}
	return string(u.State)
}

func waitForUpdate(updates <-chan tracker.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return watchDoneMsg{}
		}
		return updateMsg(u)
	}
}

// Run shows the progress view on out until the watch ends or the user quits,
// and returns the final model.
func Run(ctx context.Context, out io.Writer, updates <-chan tracker.Update, initial tracker.Update) (Model, error) {
	p := tea.NewProgram(NewModel(updates, initial),
		tea.WithContext(ctx),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		return Model{}, fmt.Errorf("run progress view: %w", err)
	}
	return final.(Model), nil
}

// Plain writes one line per update to out. It is used when no terminal is
// attached and returns the last update.
func Plain(out io.Writer, updates <-chan tracker.Update, initial tracker.Update) tracker.Update {
	last := initial
	for u := range updates {
		last = u
		if !u.Polled && u.Err == nil && !u.State.Terminal() {
			continue
		}
		line := fmt.Sprintf("status=%s polls=%d", statusText(u), u.Polls)
		if u.RequestID != "" {
			line += " request_id=" + u.RequestID
		}
		if u.Err != nil {
			line += " error=" + u.Err.Error()
		}
		fmt.Fprintln(out, line)
	}
	return last
}
