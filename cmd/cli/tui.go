package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var errCancelled = errors.New("cancelled")

type taskResult struct {
	value any
	err   error
}

// taskModel shows a spinner while a single platform call runs.
type taskModel struct {
	title   string
	spinner spinner.Model
	run     func() (any, error)
	cancel  context.CancelFunc
	result  *taskResult
}

func newTaskModel(title string, run func() (any, error), cancel context.CancelFunc) taskModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#3b82f6"))

	return taskModel{
		title:   title,
		spinner: s,
		run:     run,
		cancel:  cancel,
	}
}

func (m taskModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		value, err := m.run()
		return taskResult{value: value, err: err}
	})
}

func (m taskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			m.result = &taskResult{err: errCancelled}
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case taskResult:
		m.result = &msg
		return m, tea.Quit
	}

	return m, nil
}

func (m taskModel) View() string {
	if m.result != nil {
		return ""
	}
	return fmt.Sprintf("\n %s %s\n\n", m.spinner.View(), m.title)
}

// withSpinner runs fn behind a spinner on stderr. Quitting the spinner
// cancels the context handed to fn.
func withSpinner[T any](ctx context.Context, title string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(
		newTaskModel(title, func() (any, error) { return fn(ctx) }, cancel),
		tea.WithOutput(os.Stderr),
	)

	finalModel, err := program.Run()
	if err != nil {
		return zero, fmt.Errorf("TUI error: %w", err)
	}

	model, ok := finalModel.(taskModel)
	if !ok || model.result == nil {
		return zero, fmt.Errorf("unexpected model type returned from TUI")
	}
	if model.result.err != nil {
		return zero, model.result.err
	}

	value, _ := model.result.value.(T)
	return value, nil
}
