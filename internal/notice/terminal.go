package notice

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Styles holds the lipgloss styles of terminal notices.
type Styles struct {
	Notice   lipgloss.Style
	Progress lipgloss.Style
}

// DefaultStyles returns grayscale text with a teal accent for progress.
func DefaultStyles() Styles {
	primary := lipgloss.AdaptiveColor{Light: "#505050", Dark: "#A0A0A0"}
	accent := lipgloss.AdaptiveColor{Light: "#4A7070", Dark: "#5F8787"}

	return Styles{
		Notice:   lipgloss.NewStyle().Foreground(primary),
		Progress: lipgloss.NewStyle().Foreground(accent),
	}
}

// Terminal writes notices to w, one per line. When w is a terminal the
// progress notice is redrawn in place.
type Terminal struct {
	mu     sync.Mutex
	w      io.Writer
	styles Styles
	inline bool
	open   bool // an inline progress line is on screen
}

func NewTerminal(w io.Writer) *Terminal {
	inline := false
	if f, ok := w.(*os.File); ok {
		inline = term.IsTerminal(int(f.Fd()))
	}
	return &Terminal{w: w, styles: DefaultStyles(), inline: inline}
}

func (t *Terminal) Notify(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.breakLine()
	_, _ = fmt.Fprintln(t.w, t.styles.Notice.Render(msg))
}

func (t *Terminal) Progress(msg string) Progress {
	p := &terminalProgress{t: t}
	p.Update(msg)
	return p
}

// breakLine ends an inline progress line so the next output starts fresh.
func (t *Terminal) breakLine() {
	if t.open {
		_, _ = fmt.Fprintln(t.w)
		t.open = false
	}
}

type terminalProgress struct {
	t    *Terminal
	done bool
}

func (p *terminalProgress) Update(msg string) {
	t := p.t
	t.mu.Lock()
	defer t.mu.Unlock()
	if p.done {
		return
	}

	line := t.styles.Progress.Render(msg)
	if !t.inline {
		_, _ = fmt.Fprintln(t.w, line)
		return
	}
	// \x1b[2K clears the current line.
	_, _ = fmt.Fprintf(t.w, "\r\x1b[2K%s", line)
	t.open = true
}

func (p *terminalProgress) Done() {
	t := p.t
	t.mu.Lock()
	defer t.mu.Unlock()
	if p.done {
		return
	}
	p.done = true
	t.breakLine()
}
