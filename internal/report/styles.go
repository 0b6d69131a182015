// Package report renders analysis results for the terminal.
package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
)

var (
	headerColor = lipgloss.Color("#4682B4")
	hotColor    = lipgloss.Color("#CC3333")
	goodColor   = lipgloss.Color("#228B22")
	mutedColor  = lipgloss.Color("#888888")
)

// Printer writes reports to w. Styling is applied only when enabled, so
// piped output stays plain.
type Printer struct {
	w      io.Writer
	styled bool

	header lipgloss.Style
	hot    lipgloss.Style
	good   lipgloss.Style
	muted  lipgloss.Style
}

// New returns a Printer writing to w.
func New(w io.Writer, styled bool) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:      w,
		styled: styled,
		header: r.NewStyle().Foreground(headerColor).Bold(true),
		hot:    r.NewStyle().Foreground(hotColor).Bold(true),
		good:   r.NewStyle().Foreground(goodColor),
		muted:  r.NewStyle().Foreground(mutedColor),
	}
}

func (p *Printer) paint(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) println(s string) {
	fmt.Fprintln(p.w, s)
}

// FormatValue renders v in the unit of d: milliseconds for time, bytes and
// plain counts otherwise.
func FormatValue(d analysis.Dimension, v int64) string {
	switch d.Unit() {
	case analysis.UnitNanos:
		return fmt.Sprintf("%d ms", analysis.Millis(v))
	case analysis.UnitBytes:
		return fmt.Sprintf("%d B", v)
	default:
		return fmt.Sprintf("%d", v)
	}
}

func truncate(n, top int) int {
	if top > 0 && top < n {
		return top
	}
	return n
}
