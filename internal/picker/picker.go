// Package picker holds the state machine behind the interactive template
// picker: current folder, live fuzzy search, a cyclic cursor and the descent
// history. It never touches the terminal; the tui package feeds it events and
// renders it.
package picker

import (
	"sort"

	"github.com/sahilm/fuzzy"
	"github.com/tormodhaugland/ignoreit/internal/templates"
)

// Key identifies the kind of an input event.
type Key int

const (
	KeyNone Key = iota
	KeyRune
	KeyBackspace
	KeyUp
	KeyDown
	KeySelect
	KeyDescend
	KeyAscend
	KeyCancel
)

func (k Key) String() string {
	switch k {
	case KeyRune:
		return "rune"
	case KeyBackspace:
		return "backspace"
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeySelect:
		return "select"
	case KeyDescend:
		return "descend"
	case KeyAscend:
		return "ascend"
	case KeyCancel:
		return "cancel"
	default:
		return "none"
	}
}

// Event is one unit of user input.
type Event struct {
	Key  Key
	Rune rune
}

// Entry is one row of the visible list.
type Entry struct {
	Item           templates.Item
	Score          int
	MatchedIndexes []int // byte offsets into Item.Name()
}

// HistoryEntry records where the user was when descending into a folder.
type HistoryEntry struct {
	Folder     *templates.Folder
	Cursor     int
	SearchTerm string
}

// Picker is the single owner of the picker state. It is not safe for
// concurrent use; the event loop calls it from one goroutine.
type Picker struct {
	current *templates.Folder
	search  []rune
	cursor  int
	history []HistoryEntry
	visible []Entry

	done     bool
	selected bool
	result   templates.Template
}

// New starts a picker at root with an empty search and the cursor on the
// first item.
func New(root *templates.Folder) *Picker {
	p := &Picker{current: root}
	p.recompute()
	return p
}

func (p *Picker) Current() *templates.Folder { return p.current }
func (p *Picker) SearchTerm() string         { return string(p.search) }
func (p *Picker) Cursor() int                { return p.cursor }
func (p *Picker) Done() bool                 { return p.done }

// Visible returns the ranked items of the current folder that match the
// search term.
func (p *Picker) Visible() []Entry {
	return append([]Entry(nil), p.visible...)
}

// History returns a copy of the descent stack, oldest first.
func (p *Picker) History() []HistoryEntry {
	return append([]HistoryEntry(nil), p.history...)
}

// Breadcrumbs lists the folder names from the root to the current folder.
func (p *Picker) Breadcrumbs() []string {
	crumbs := make([]string, 0, len(p.history)+1)
	for _, h := range p.history {
		crumbs = append(crumbs, h.Folder.Name())
	}
	return append(crumbs, p.current.Name())
}

// Highlighted returns the entry under the cursor.
func (p *Picker) Highlighted() (Entry, bool) {
	if len(p.visible) == 0 {
		return Entry{}, false
	}
	return p.visible[p.cursor], true
}

// Result returns the chosen template. ok is false while the session is still
// running or when it was cancelled.
func (p *Picker) Result() (templates.Template, bool) {
	if !p.done || !p.selected {
		return templates.Template{}, false
	}
	return p.result, true
}

// Handle applies one event and reports whether the session has ended.
func (p *Picker) Handle(ev Event) bool {
	if p.done {
		return true
	}

	switch ev.Key {
	case KeyRune:
		p.Type(ev.Rune)
	case KeyBackspace:
		p.Backspace()
	case KeyUp:
		p.Up()
	case KeyDown:
		p.Down()
	case KeySelect:
		p.Select()
	case KeyDescend:
		p.Descend()
	case KeyAscend:
		p.Ascend()
	case KeyCancel:
		p.Cancel()
	}
	return p.done
}

// Type appends r to the search term.
func (p *Picker) Type(r rune) {
	if p.done {
		return
	}
	p.search = append(p.search, r)
	p.recompute()
}

// Backspace removes the last rune of the search term.
func (p *Picker) Backspace() {
	if p.done || len(p.search) == 0 {
		return
	}
	p.search = p.search[:len(p.search)-1]
	p.recompute()
}

// Down moves the cursor forward, wrapping past the last item.
func (p *Picker) Down() {
	n := len(p.visible)
	if p.done || n == 0 {
		return
	}
	p.cursor = (p.cursor + 1) % n
}

// Up moves the cursor back, wrapping before the first item.
func (p *Picker) Up() {
	n := len(p.visible)
	if p.done || n == 0 {
		return
	}
	p.cursor = (p.cursor - 1 + n) % n
}

// Select descends into a highlighted folder or finishes the session with a
// highlighted template.
func (p *Picker) Select() {
	entry, ok := p.Highlighted()
	if p.done || !ok {
		return
	}

	switch item := entry.Item.(type) {
	case *templates.Folder:
		p.descend(item)
	case templates.Template:
		p.done = true
		p.selected = true
		p.result = item
	}
}

// Descend enters the highlighted folder; it does nothing on a template.
func (p *Picker) Descend() {
	entry, ok := p.Highlighted()
	if p.done || !ok {
		return
	}
	if folder, isFolder := entry.Item.(*templates.Folder); isFolder {
		p.descend(folder)
	}
}

func (p *Picker) descend(folder *templates.Folder) {
	p.history = append(p.history, HistoryEntry{
		Folder:     p.current,
		Cursor:     p.cursor,
		SearchTerm: string(p.search),
	})
	p.current = folder
	p.search = nil
	p.cursor = 0
	p.recompute()
}

// Ascend returns to the folder, search term and cursor recorded by the last
// descent. With no history it does nothing.
func (p *Picker) Ascend() {
	if p.done || len(p.history) == 0 {
		return
	}
	last := p.history[len(p.history)-1]
	p.history = p.history[:len(p.history)-1]

	p.current = last.Folder
	p.search = []rune(last.SearchTerm)
	p.cursor = last.Cursor
	p.recompute()
}

// Cancel ends the session without a selection.
func (p *Picker) Cancel() {
	if p.done {
		return
	}
	p.done = true
	p.selected = false
}

func (p *Picker) recompute() {
	p.visible = Rank(p.current.Items(), string(p.search))

	switch {
	case len(p.visible) == 0:
		p.cursor = 0
	case p.cursor >= len(p.visible):
		p.cursor = len(p.visible) - 1
	case p.cursor < 0:
		p.cursor = 0
	}
}

type itemSource []templates.Item

func (s itemSource) String(i int) string { return s[i].Name() }
func (s itemSource) Len() int            { return len(s) }

// Rank fuzzy-matches items against term and orders the matches by score,
// best first, breaking ties by name. An empty term matches everything.
func Rank(items []templates.Item, term string) []Entry {
	var entries []Entry

	if term == "" {
		entries = make([]Entry, len(items))
		for i, item := range items {
			entries[i] = Entry{Item: item}
		}
	} else {
		matches := fuzzy.FindFrom(term, itemSource(items))
		entries = make([]Entry, len(matches))
		for i, m := range matches {
			entries[i] = Entry{
				Item:           items[m.Index],
				Score:          m.Score,
				MatchedIndexes: m.MatchedIndexes,
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return templates.LessName(entries[i].Item.Name(), entries[j].Item.Name())
	})
	return entries
}
