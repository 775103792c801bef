// Package picker is a terminal UI for choosing a collection to import.
package picker

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/nikbrunner/rainmd/internal/collections"
	"github.com/nikbrunner/rainmd/internal/model"
)

// Entry is one collection row.
type Entry struct {
	ID    int64
	Title string
	Path  string // full path, e.g. "Dev/Go"
	Depth int
	Count int
}

// Entries lists the collections of h as a tree, top-level first.
func Entries(h *collections.Hierarchy) []Entry {
	var out []Entry
	h.Walk(func(c model.Collection, depth int) {
		out = append(out, Entry{
			ID:    c.ID,
			Title: c.Title,
			Path:  h.Path(c.ID),
			Depth: depth,
			Count: c.Count,
		})
	})
	return out
}

// Styles holds the picker's lipgloss styles.
type Styles struct {
	Header   lipgloss.Style
	Item     lipgloss.Style
	Selected lipgloss.Style
	Count    lipgloss.Style
	Help     lipgloss.Style
}

// DefaultStyles uses the grayscale palette with a teal accent.
func DefaultStyles() Styles {
	primary := lipgloss.AdaptiveColor{Light: "#505050", Dark: "#A0A0A0"}
	subtle := lipgloss.AdaptiveColor{Light: "#888888", Dark: "#606060"}
	accent := lipgloss.AdaptiveColor{Light: "#4A7070", Dark: "#5F8787"}

	return Styles{
		Header:   lipgloss.NewStyle().Foreground(accent).Bold(true).MarginBottom(1),
		Item:     lipgloss.NewStyle().Foreground(primary),
		Selected: lipgloss.NewStyle().Foreground(accent).Bold(true),
		Count:    lipgloss.NewStyle().Foreground(subtle),
		Help:     lipgloss.NewStyle().Foreground(subtle),
	}
}

// Picker lets the user choose one collection.
type Picker struct {
	entries   []Entry
	visible   []int // indexes into entries
	cursor    int
	selected  bool
	cancelled bool
	filtering bool
	input     textinput.Model
	keys      KeyMap
	styles    Styles
	width     int
	height    int
}

// New creates a new Picker over entries.
func New(entries []Entry) Picker {
	input := textinput.New()
	input.Prompt = "/"
	input.Placeholder = "filter collections"

	p := Picker{
		entries: entries,
		input:   input,
		keys:    DefaultKeyMap(),
		styles:  DefaultStyles(),
		width:   80,
		height:  24,
	}
	p.applyFilter()
	return p
}

// Init implements tea.Model.
func (p Picker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		return p, nil

	case tea.KeyMsg:
		if p.filtering {
			return p.updateFilter(msg)
		}

		switch {
		case key.Matches(msg, p.keys.Cancel):
			p.cancelled = true
			return p, tea.Quit
		case key.Matches(msg, p.keys.Select):
			if len(p.visible) > 0 {
				p.selected = true
				return p, tea.Quit
			}
		case key.Matches(msg, p.keys.Down):
			if p.cursor < len(p.visible)-1 {
				p.cursor++
			}
		case key.Matches(msg, p.keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, p.keys.Top):
			p.cursor = 0
		case key.Matches(msg, p.keys.Bottom):
			if len(p.visible) > 0 {
				p.cursor = len(p.visible) - 1
			}
		case key.Matches(msg, p.keys.Filter):
			p.filtering = true
			return p, p.input.Focus()
		}
	}

	return p, nil
}

func (p Picker) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		p.filtering = false
		p.input.Blur()
		p.input.SetValue("")
		p.applyFilter()
		return p, nil
	case tea.KeyEnter:
		p.filtering = false
		p.input.Blur()
		return p, nil
	case tea.KeyCtrlC:
		p.cancelled = true
		return p, tea.Quit
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	p.applyFilter()
	return p, cmd
}

type paths []Entry

func (e paths) String(i int) string { return e[i].Path }
func (e paths) Len() int            { return len(e) }

// applyFilter recomputes the visible rows. An empty query shows the tree;
// otherwise rows are ordered by match score.
func (p *Picker) applyFilter() {
	query := strings.TrimSpace(p.input.Value())
	p.visible = nil

	if query == "" {
		for i := range p.entries {
			p.visible = append(p.visible, i)
		}
	} else {
		for _, m := range fuzzy.FindFrom(query, paths(p.entries)) {
			p.visible = append(p.visible, m.Index)
		}
	}

	if p.cursor >= len(p.visible) {
		p.cursor = max(len(p.visible)-1, 0)
	}
}

// View implements tea.Model.
func (p Picker) View() string {
	var b strings.Builder

	b.WriteString(p.styles.Header.Render(fmt.Sprintf("Collections (%d)", len(p.entries))))
	b.WriteString("\n\n")

	if p.filtering || p.input.Value() != "" {
		b.WriteString(p.input.View())
		b.WriteString("\n\n")
	}

	if len(p.visible) == 0 {
		b.WriteString(p.styles.Count.Render("  No collections"))
		b.WriteString("\n")
	}

	start, end := p.window()
	flat := p.input.Value() != ""
	for row := start; row < end; row++ {
		e := p.entries[p.visible[row]]

		cursor := "  "
		style := p.styles.Item
		if row == p.cursor {
			cursor = "> "
			style = p.styles.Selected
		}

		label := strings.Repeat("  ", e.Depth) + e.Title
		if flat {
			label = e.Path
		}
		label = truncate(label, p.width-12)
		b.WriteString(cursor + style.Render(label))
		if e.Count > 0 {
			b.WriteString(" " + p.styles.Count.Render(fmt.Sprintf("(%d)", e.Count)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(p.styles.Help.Render("j/k: move  /: filter  Enter: import  q/Esc: cancel"))

	return b.String()
}

// window returns the range of visible rows that fits the terminal, keeping
// the cursor in view.
func (p Picker) window() (int, int) {
	rows := p.height - 6
	if rows < 1 {
		rows = 1
	}
	if len(p.visible) <= rows {
		return 0, len(p.visible)
	}
	start := p.cursor - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > len(p.visible) {
		start = len(p.visible) - rows
	}
	return start, start + rows
}

// SelectedID returns the chosen collection id. The second value is false
// when the user cancelled or nothing was chosen.
func (p Picker) SelectedID() (int64, bool) {
	e, ok := p.Selected()
	return e.ID, ok
}

// Selected returns the chosen entry.
func (p Picker) Selected() (Entry, bool) {
	if p.cancelled || !p.selected || p.cursor >= len(p.visible) {
		return Entry{}, false
	}
	return p.entries[p.visible[p.cursor]], true
}

// Cancelled returns true if the user cancelled the selection.
func (p Picker) Cancelled() bool {
	return p.cancelled
}
