// Package tui runs the terminal front end: the template picker, the sync
// spinner and confirmation prompts. Everything renders to stderr so stdout
// stays free for command output.
package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	searchStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	termStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	itemStyle     = lipgloss.NewStyle().Faint(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	matchStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("87")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// TerminalError wraps a failure to drive the terminal.
type TerminalError struct {
	Err error
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("terminal error: %v", e.Err)
}

func (e *TerminalError) Unwrap() error {
	return e.Err
}

// useStderr points lipgloss color detection at stderr, where the programs in
// this package draw.
func useStderr() {
	lipgloss.SetDefaultRenderer(lipgloss.NewRenderer(os.Stderr, termenv.WithColorCache(true)))
}
