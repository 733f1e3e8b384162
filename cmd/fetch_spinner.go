package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Elapsed time is shown once a fetch has taken this long.
const slowFetchAfter = 2 * time.Second

type fetchDoneMsg struct {
	err error
}

type fetchSpinnerModel struct {
	spinner spinner.Model
	label   string
	fetch   tea.Cmd
	started time.Time
	now     func() time.Time

	err  error
	done bool
}

func newFetchSpinnerModel(label string, fetch tea.Cmd, now func() time.Time) fetchSpinnerModel {
	return fetchSpinnerModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
		),
		label:   label,
		fetch:   fetch,
		started: now(),
		now:     now,
	}
}

func (m fetchSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch)
}

func (m fetchSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchDoneMsg:
		m.done, m.err = true, msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m fetchSpinnerModel) View() string {
	if m.done {
		return ""
	}

	view := m.spinner.View() + " " + m.label
	if elapsed := m.now().Sub(m.started); elapsed >= slowFetchAfter {
		view += fmt.Sprintf(" (%ds)", int(elapsed.Seconds()))
	}
	return view
}

// runFetchSpinner animates label on output until fetch returns. Output that is
// not a terminal gets the label as a single line instead.
func runFetchSpinner(ctx context.Context, output io.Writer, label string, fetch func(context.Context) error) error {
	if !isTerminal(output) {
		if _, err := fmt.Fprintln(output, label); err != nil {
			return err
		}
		return fetch(ctx)
	}

	p := tea.NewProgram(
		newFetchSpinnerModel(label, func() tea.Msg { return fetchDoneMsg{err: fetch(ctx)} }, time.Now),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	final, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return err
	}

	model, ok := final.(fetchSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", final)
	}
	return model.err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
