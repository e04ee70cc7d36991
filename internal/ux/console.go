// Package ux provides the styled console output for alert mode. The
// observation file is the record; this is just what a human watching the
// terminal sees.
package ux

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"sentinel/internal/observe"
)

// Semantic colors, aligned with observation severities.
var (
	criticalColor = lipgloss.Color("#e53935") // Red
	errorColor    = lipgloss.Color("#ff8a65") // Orange-red
	warnColor     = lipgloss.Color("#FFC107") // Yellow
	infoColor     = lipgloss.Color("#2196F3") // Blue
	mutedColor    = lipgloss.Color("240")     // Grey
)

var (
	criticalStyle = lipgloss.NewStyle().Foreground(criticalColor).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(warnColor)
	infoStyle     = lipgloss.NewStyle().Foreground(infoColor)
	mutedStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	titleStyle    = lipgloss.NewStyle().Bold(true)
)

// Console prints severity-tagged lines to the terminal.
type Console struct {
	out   io.Writer
	quiet bool
}

// NewConsole returns a Console writing to stdout. quiet suppresses all
// output.
func NewConsole(quiet bool) *Console {
	return &Console{out: os.Stdout, quiet: quiet}
}

// Banner prints the startup line.
func (c *Console) Banner(logPath, mode, backend string) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, "%s %s\n", titleStyle.Render("sentinel watching"), logPath)
	fmt.Fprintf(c.out, "%s\n", mutedStyle.Render(fmt.Sprintf("mode %s, backend %s", mode, backend)))
}

// Alert prints one observation line, styled by severity.
func (c *Console) Alert(sev observe.Severity, msg string) {
	if c.quiet {
		return
	}
	ts := mutedStyle.Render(time.Now().Format("15:04:05"))
	fmt.Fprintf(c.out, "%s %s %s\n", ts, styleFor(sev).Render("["+string(sev)+"]"), msg)
}

// Note prints a muted status line.
func (c *Console) Note(msg string) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, "%s\n", mutedStyle.Render(msg))
}

func styleFor(sev observe.Severity) lipgloss.Style {
	switch sev {
	case observe.SeverityCritical:
		return criticalStyle
	case observe.SeverityError:
		return errorStyle
	case observe.SeverityWarn:
		return warnStyle
	default:
		return infoStyle
	}
}
