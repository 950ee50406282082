// Package cli holds the small set of presentation helpers shared by the
// searchd command tree: color styles and terminal detection for a
// one-shot, non-interactive CLI.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

const (
	colorAccent = "154" // bright lime green, primary accent
	colorGray   = "245" // secondary text, labels
	colorDim    = "238" // borders, separators
	colorRed    = "196" // errors
	colorYellow = "220" // warnings
)

// Styles holds the text styles a one-shot CLI command needs to render a
// summary. There is no progress/spinner/sparkline surface here: those
// exist only to animate a long-running interactive operation, and every
// searchd subcommand prints a result and exits.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Label   lipgloss.Style
}

// DefaultStyles returns the colored style set.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorDim)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
	}
}

// NoColorStyles returns a style set that renders plain text: every style
// is the zero-value lipgloss.Style, which applies no ANSI codes.
func NoColorStyles() Styles {
	return Styles{}
}

// GetStyles picks the colored or plain style set.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}

// IsTTY reports whether w is a terminal that should receive color output.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor reports whether color output should be suppressed: either
// NO_COLOR is set, or the output is not a terminal.
func DetectNoColor(w io.Writer) bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return !IsTTY(w)
}
