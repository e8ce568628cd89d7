// Package ui styles CLI output. Colour is only used on terminals.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color palette
// - Accent (soft purple #A78BFA): the rendered command
// - Muted (gray): hints, secondary info
// - Red: hard errors
var (
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))
	Muted  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	Bad    = lipgloss.NewStyle().Foreground(lipgloss.Color("#D63031")).Bold(true)
)

// Symbols prefixed to status lines.
const (
	SymbolError = "✗"
	SymbolHint  = "ℹ"
)

// Printer writes styled lines to one stream.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter styles output only when w is a terminal.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, color: IsTerminal(w)}
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) render(s lipgloss.Style, msg string) string {
	if !p.color {
		return msg
	}
	return s.Render(msg)
}

// Command prints a rendered command.
func (p *Printer) Command(cmd string) {
	fmt.Fprintln(p.w, p.render(Accent, cmd))
}

// Hint prints a soft notice.
func (p *Printer) Hint(msg string) {
	fmt.Fprintln(p.w, p.render(Muted, SymbolHint+" "+msg))
}

// Error prints a hard error.
func (p *Printer) Error(err error) {
	fmt.Fprintln(p.w, p.render(Bad, SymbolError+" "+err.Error()))
}

// Line prints msg unstyled.
func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Secondary prints muted text.
func (p *Printer) Secondary(format string, args ...any) {
	fmt.Fprintln(p.w, p.render(Muted, fmt.Sprintf(format, args...)))
}
