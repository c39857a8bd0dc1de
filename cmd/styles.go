package cmd

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorError = lipgloss.Color("#EF4444")
	colorOK    = lipgloss.Color("#10B981")
	colorMuted = lipgloss.Color("#6B7280")
)

// styles are bound to one output so colors are dropped when it is not a
// terminal.
type styles struct {
	file  lipgloss.Style
	pos   lipgloss.Style
	kind  lipgloss.Style
	ok    lipgloss.Style
	muted lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		file:  r.NewStyle().Bold(true),
		pos:   r.NewStyle().Foreground(colorMuted),
		kind:  r.NewStyle().Foreground(colorError).Bold(true),
		ok:    r.NewStyle().Foreground(colorOK),
		muted: r.NewStyle().Foreground(colorMuted).Italic(true),
	}
}
