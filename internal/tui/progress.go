package tui

import (
	"context"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

type taskDoneMsg struct {
	err error
}

type spinnerModel struct {
	spinner spinner.Model
	title   string
	done    bool
	err     error
}

func newSpinnerModel(title string) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = selectedStyle
	return spinnerModel{spinner: s, title: title}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.title + "\n"
}

// ShouldAnimate reports whether f is a terminal a spinner can draw on.
func ShouldAnimate(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// RunWithSpinner runs fn while a spinner labelled title animates on stderr.
// When stderr is not a terminal fn simply runs. fn receives a context that is
// cancelled if the spinner program exits early.
func RunWithSpinner(ctx context.Context, title string, fn func(context.Context) error) error {
	if !ShouldAnimate(os.Stderr) {
		return fn(ctx)
	}

	useStderr()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(newSpinnerModel(title), tea.WithOutput(os.Stderr), tea.WithInput(nil))

	done := make(chan error, 1)
	go func() {
		err := fn(ctx)
		done <- err
		prog.Send(taskDoneMsg{err: err})
	}()

	_, runErr := prog.Run()
	if runErr != nil {
		cancel()
	}
	err := <-done

	if runErr != nil && err == nil {
		return &TerminalError{Err: runErr}
	}
	return err
}
