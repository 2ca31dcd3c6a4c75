package tui

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	confirmLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	confirmOptStyle   = lipgloss.NewStyle().Padding(0, 2)
	confirmOnStyle    = confirmOptStyle.Background(lipgloss.Color("212")).Foreground(lipgloss.Color("0"))
)

type ConfirmResult struct {
	Confirmed bool
	Aborted   bool
}

type confirmModel struct {
	message  string
	selected bool // true = Yes
	done     bool
	result   ConfirmResult
}

func newConfirmModel(message string, defaultYes bool) confirmModel {
	return confirmModel{
		message:  message,
		selected: defaultYes,
	}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c", "esc", "q":
		m.result = ConfirmResult{Aborted: true}
		m.done = true
		return m, tea.Quit

	case "left", "right", "tab", "h", "l":
		m.selected = !m.selected

	case "y", "Y":
		m.selected = true
		m.result.Confirmed = true
		m.done = true
		return m, tea.Quit

	case "n", "N":
		m.selected = false
		m.result.Confirmed = false
		m.done = true
		return m, tea.Quit

	case "enter":
		m.result.Confirmed = m.selected
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}

	yes, no := confirmOptStyle, confirmOnStyle
	if m.selected {
		yes, no = confirmOnStyle, confirmOptStyle
	}

	var sb strings.Builder
	sb.WriteString(confirmLabelStyle.Render(m.message) + "\n\n")
	sb.WriteString(fmt.Sprintf("  %s  %s\n", yes.Render("Yes"), no.Render("No")))
	sb.WriteString("\n" + helpStyle.Render("←/→: select • enter: confirm • y/n: quick select • esc: cancel") + "\n")
	return sb.String()
}

// RunConfirm asks a yes/no question on stderr. defaultYes picks the option
// highlighted initially.
func RunConfirm(message string, defaultYes bool) (ConfirmResult, error) {
	useStderr()

	p := tea.NewProgram(newConfirmModel(message, defaultYes), tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return ConfirmResult{Aborted: true}, &TerminalError{Err: err}
	}

	return finalModel.(confirmModel).result, nil
}
