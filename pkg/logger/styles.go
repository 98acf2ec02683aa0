package logger

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	InfoColor    = lipgloss.Color("#3B82F6") // Blue 500
	SuccessColor = lipgloss.Color("#10B981") // Emerald 500
	WarningColor = lipgloss.Color("#F59E0B") // Amber 500
	ErrorColor   = lipgloss.Color("#EF4444") // Red 500
	AccentColor  = lipgloss.Color("#06B6D4") // Cyan 500
	MutedColor   = lipgloss.Color("#64748B") // Slate 500
)

// Theme holds the styles bound to one output. Styles come from a renderer for
// that writer, so colours are dropped automatically when it is not a terminal.
type Theme struct {
	Header     lipgloss.Style
	HeaderBold lipgloss.Style
	Info       lipgloss.Style
	Pass       lipgloss.Style
	PassBold   lipgloss.Style
	Warn       lipgloss.Style
	Fail       lipgloss.Style
	FailBold   lipgloss.Style
	Dim        lipgloss.Style
}

// NewTheme builds the styles for w.
func NewTheme(w io.Writer) Theme {
	r := lipgloss.NewRenderer(w)
	return Theme{
		Header:     r.NewStyle().Foreground(AccentColor),
		HeaderBold: r.NewStyle().Foreground(AccentColor).Bold(true),
		Info:       r.NewStyle().Foreground(InfoColor),
		Pass:       r.NewStyle().Foreground(SuccessColor),
		PassBold:   r.NewStyle().Foreground(SuccessColor).Bold(true),
		Warn:       r.NewStyle().Foreground(WarningColor),
		Fail:       r.NewStyle().Foreground(ErrorColor),
		FailBold:   r.NewStyle().Foreground(ErrorColor).Bold(true),
		Dim:        r.NewStyle().Foreground(MutedColor).Faint(true),
	}
}

// forLevel returns the style and glyph prefix for a log level.
func (t Theme) forLevel(level Level) (lipgloss.Style, string) {
	switch level {
	case INFO:
		return t.Info, "ℹ"
	case SUCCESS:
		return t.Pass, "✓"
	case WARNING:
		return t.Warn, "⚠"
	case ERROR:
		return t.Fail, "✗"
	default:
		return t.Dim, "•"
	}
}
