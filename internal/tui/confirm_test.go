package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func confirmKeys(m confirmModel, keys ...tea.KeyMsg) (confirmModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(confirmModel)
	}
	return m, cmd
}

func TestConfirmQuickKeys(t *testing.T) {
	m, cmd := confirmKeys(newConfirmModel("overwrite?", false), runes("y"))
	if !isQuit(cmd) || !m.result.Confirmed {
		t.Fatalf("y should confirm and quit, got %+v", m.result)
	}

	m, cmd = confirmKeys(newConfirmModel("overwrite?", true), runes("n"))
	if !isQuit(cmd) || m.result.Confirmed || m.result.Aborted {
		t.Fatalf("n should decline and quit, got %+v", m.result)
	}
}

func TestConfirmEnterUsesSelection(t *testing.T) {
	m, _ := confirmKeys(newConfirmModel("overwrite?", false), tea.KeyMsg{Type: tea.KeyEnter})
	if m.result.Confirmed {
		t.Fatalf("default No should decline on enter")
	}

	m, _ = confirmKeys(newConfirmModel("overwrite?", false), tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.result.Confirmed {
		t.Fatalf("toggling to Yes should confirm on enter")
	}
}

func TestConfirmAbort(t *testing.T) {
	m, cmd := confirmKeys(newConfirmModel("overwrite?", true), tea.KeyMsg{Type: tea.KeyEsc})
	if !isQuit(cmd) || !m.result.Aborted || m.result.Confirmed {
		t.Fatalf("esc should abort, got %+v", m.result)
	}
	if m.View() != "" {
		t.Fatalf("expected empty view after abort")
	}
}

func TestConfirmView(t *testing.T) {
	view := newConfirmModel(".gitignore already exists. Overwrite it?", false).View()
	for _, want := range []string{".gitignore already exists", "Yes", "No"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestTerminalErrorUnwraps(t *testing.T) {
	inner := errors.New("no tty")
	err := error(&TerminalError{Err: inner})
	if !errors.Is(err, inner) {
		t.Fatalf("TerminalError must unwrap")
	}
	if !strings.Contains(err.Error(), "no tty") {
		t.Fatalf("Error() = %q", err.Error())
	}
}
