package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
)

// Elapsed time is only shown once a request has been pending this long.
const showElapsedAfter = 2 * time.Second

var (
	progressSpinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	progressElapsedStyle = lipgloss.NewStyle().Faint(true)
)

// queryLabel describes a pending federated query in terms of who is asking
// and whose data it covers.
func queryLabel(role domain.Role, key domain.ContextKey) string {
	if role == domain.RoleStudent {
		return "Asking the assistant about your documents..."
	}
	if id, ok := key.StudentID(); ok {
		return fmt.Sprintf("Asking the assistant about student %d...", id)
	}
	return "Asking the assistant across all students..."
}

type requestFinishedMsg struct {
	err error
}

type pendingRequest struct {
	spinner spinner.Model
	label   string
	started time.Time
	now     func() time.Time
	call    tea.Cmd
	err     error
	done    bool
}

func newPendingRequest(label string, now func() time.Time, call tea.Cmd) pendingRequest {
	return pendingRequest{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(progressSpinnerStyle)),
		label:   label,
		started: now(),
		now:     now,
		call:    call,
	}
}

func (m pendingRequest) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.call)
}

func (m pendingRequest) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if finished, ok := msg.(requestFinishedMsg); ok {
		m.done = true
		m.err = finished.err
		return m, tea.Quit
	}
	if tick, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(tick)
		return m, cmd
	}
	return m, nil
}

func (m pendingRequest) View() string {
	if m.done {
		return ""
	}

	line := m.spinner.View() + " " + m.label
	if elapsed := m.now().Sub(m.started); elapsed >= showElapsedAfter {
		line += " " + progressElapsedStyle.Render(fmt.Sprintf("(%ds)", int(elapsed.Seconds())))
	}
	return line
}

// awaitRequest runs call while a spinner with label is drawn on output. The
// spinner line is cleared before returning call's error.
func awaitRequest(ctx context.Context, output io.Writer, label string, now func() time.Time, call func(context.Context) error) error {
	if now == nil {
		now = time.Now
	}

	program := tea.NewProgram(
		newPendingRequest(label, now, func() tea.Msg {
			return requestFinishedMsg{err: call(ctx)}
		}),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	final, err := program.Run()
	if err != nil {
		return err
	}

	request, ok := final.(pendingRequest)
	if !ok {
		return fmt.Errorf("unexpected progress model %T", final)
	}
	return request.err
}
