package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tormodhaugland/ignoreit/internal/picker"
	"github.com/tormodhaugland/ignoreit/internal/templates"
)

const (
	iconFolderOpen = "📂"
	iconFolder     = "📁"
	iconFile       = "📄"

	// RootTitle replaces the mirror directory name in the breadcrumbs.
	RootTitle = "Gitignore Templates"
	rootDir   = "templates"

	defaultPageSize = 10
	// title, blank line, search box (3), blank line, dots, help
	chromeRows = 8
)

type pickKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Descend   key.Binding
	Ascend    key.Binding
	Backspace key.Binding
	Cancel    key.Binding
}

var pickKeys = pickKeyMap{
	Up:        key.NewBinding(key.WithKeys("up", "ctrl+p", "ctrl+k"), key.WithHelp("↑", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "ctrl+n", "ctrl+j"), key.WithHelp("↓", "down")),
	Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Descend:   key.NewBinding(key.WithKeys("right", "tab"), key.WithHelp("→", "open folder")),
	Ascend:    key.NewBinding(key.WithKeys("left", "shift+tab"), key.WithHelp("←", "back")),
	Backspace: key.NewBinding(key.WithKeys("backspace", "ctrl+h")),
	Cancel:    key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
}

func (k pickKeyMap) help() string {
	bindings := []key.Binding{k.Up, k.Down, k.Select, k.Descend, k.Ascend, k.Cancel}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

// keyEvents translates a key press into picker events. A paste arrives as one
// message carrying several runes.
func keyEvents(msg tea.KeyMsg) []picker.Event {
	switch {
	case key.Matches(msg, pickKeys.Cancel):
		return []picker.Event{{Key: picker.KeyCancel}}
	case key.Matches(msg, pickKeys.Up):
		return []picker.Event{{Key: picker.KeyUp}}
	case key.Matches(msg, pickKeys.Down):
		return []picker.Event{{Key: picker.KeyDown}}
	case key.Matches(msg, pickKeys.Select):
		return []picker.Event{{Key: picker.KeySelect}}
	case key.Matches(msg, pickKeys.Descend):
		return []picker.Event{{Key: picker.KeyDescend}}
	case key.Matches(msg, pickKeys.Ascend):
		return []picker.Event{{Key: picker.KeyAscend}}
	case key.Matches(msg, pickKeys.Backspace):
		return []picker.Event{{Key: picker.KeyBackspace}}
	}

	switch msg.Type {
	case tea.KeySpace:
		return []picker.Event{{Key: picker.KeyRune, Rune: ' '}}
	case tea.KeyRunes:
		if msg.Alt {
			return nil
		}
		events := make([]picker.Event, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			events = append(events, picker.Event{Key: picker.KeyRune, Rune: r})
		}
		return events
	}
	return nil
}

type pickModel struct {
	picker *picker.Picker
	width  int
	height int
}

func newPickModel(root *templates.Folder) pickModel {
	return pickModel{picker: picker.New(root)}
}

func (m pickModel) Init() tea.Cmd {
	return nil
}

func (m pickModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		for _, ev := range keyEvents(msg) {
			if m.picker.Handle(ev) {
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m pickModel) View() string {
	if m.picker.Done() {
		return ""
	}
	return RenderPicker(m.picker, m.width, m.height)
}

// RenderPicker draws the picker state. It reads p without changing it, so
// calling it twice on the same state yields the same frame. A zero width or
// height falls back to an unconstrained layout with a ten-row page.
func RenderPicker(p *picker.Picker, width, height int) string {
	var sb strings.Builder

	title := titleStyle.Render(iconFolderOpen + " " + breadcrumbTitle(p.Breadcrumbs()))
	if width > 0 {
		title = lipgloss.PlaceHorizontal(width, lipgloss.Center, title)
	}
	sb.WriteString(title + "\n\n")

	box := searchStyle
	if width > 4 {
		box = box.Width(width - 2)
	}
	sb.WriteString(box.Render(labelStyle.Render("Fuzzy Search") + " " + termStyle.Render(p.SearchTerm())))
	sb.WriteString("\n\n")

	visible := p.Visible()
	cursor := p.Cursor()

	pg := pageFor(len(visible), cursor, pageSize(height))
	start, end := pg.GetSliceBounds(len(visible))

	if len(visible) == 0 {
		sb.WriteString(helpStyle.Render("  no matching templates") + "\n")
	}
	for i := start; i < end; i++ {
		sb.WriteString(renderEntry(visible[i], i == cursor) + "\n")
	}

	if pg.TotalPages > 1 {
		sb.WriteString("\n  " + pg.View() + "\n")
	}
	sb.WriteString(helpStyle.Render(pickKeys.help()))

	return sb.String()
}

func breadcrumbTitle(crumbs []string) string {
	out := make([]string, len(crumbs))
	for i, c := range crumbs {
		if i == 0 && c == rootDir {
			c = RootTitle
		}
		out[i] = c
	}
	return strings.Join(out, "/")
}

func pageSize(height int) int {
	if height <= 0 {
		return defaultPageSize
	}
	if n := height - chromeRows; n > 0 {
		return n
	}
	return 1
}

func pageFor(total, cursor, perPage int) paginator.Model {
	pg := paginator.New()
	pg.Type = paginator.Dots
	pg.ActiveDot = selectedStyle.Render("•")
	pg.InactiveDot = helpStyle.Render("•")
	pg.PerPage = perPage
	pg.SetTotalPages(total)
	if total > 0 {
		pg.Page = cursor / perPage
	}
	return pg
}

func renderEntry(e picker.Entry, highlighted bool) string {
	icon := iconFile
	if _, ok := e.Item.(*templates.Folder); ok {
		icon = iconFolder
	}

	base := itemStyle
	prefix := "  "
	if highlighted {
		base = selectedStyle
		prefix = "> "
	}

	return prefix + icon + " " + highlightName(e.Item.Name(), e.MatchedIndexes, base)
}

// highlightName styles the matched byte offsets of name with matchStyle and
// everything else with base.
func highlightName(name string, matched []int, base lipgloss.Style) string {
	if len(matched) == 0 {
		return base.Render(name)
	}

	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}

	var sb strings.Builder
	var run strings.Builder
	runMatched := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if runMatched {
			sb.WriteString(matchStyle.Render(run.String()))
		} else {
			sb.WriteString(base.Render(run.String()))
		}
		run.Reset()
	}

	for i, r := range name {
		if hit[i] != runMatched {
			flush()
			runMatched = hit[i]
		}
		run.WriteRune(r)
	}
	flush()

	return sb.String()
}

// RunPicker lets the user browse root and returns the chosen template. ok is
// false when the user quit without choosing.
func RunPicker(root *templates.Folder) (templates.Template, bool, error) {
	useStderr()

	prog := tea.NewProgram(newPickModel(root), tea.WithAltScreen(), tea.WithOutput(os.Stderr))
	final, err := prog.Run()
	if err != nil {
		return templates.Template{}, false, &TerminalError{Err: err}
	}

	tmpl, ok := final.(pickModel).picker.Result()
	return tmpl, ok, nil
}
