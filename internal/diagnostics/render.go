package diagnostics

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

// Renderer formats diagnostics for a terminal, with the source excerpt and
// a caret underline in the style editors and CI logs expect.
type Renderer struct {
	Color bool
}

// NewRenderer detects whether stderr is a terminal and enables color
// accordingly. NO_COLOR always wins.
func NewRenderer() *Renderer {
	color := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	if os.Getenv("NO_COLOR") != "" {
		color = false
	}
	return &Renderer{Color: color}
}

func (r *Renderer) paint(code, s string) string {
	if !r.Color {
		return s
	}
	return code + s + ansiReset
}

// Render formats one diagnostic against its source text. source may be empty,
// in which case the excerpt is omitted.
func (r *Renderer) Render(d *Diagnostic, source string) string {
	var b strings.Builder

	sevColor := ansiRed
	if d.Severity == SeverityWarning {
		sevColor = ansiYellow
	}

	file := d.File
	if file == "" {
		file = "<input>"
	}
	b.WriteString(r.paint(ansiBold, fmt.Sprintf("%s:%d:%d: ", file, d.Span.Line, d.Span.Column)))
	b.WriteString(r.paint(sevColor+ansiBold, d.Severity.String()))
	b.WriteString(fmt.Sprintf("[%s]: %s\n", d.Code, d.Message))

	r.renderExcerpt(&b, source, d.Span, sevColor)
	for _, note := range d.Notes {
		b.WriteString(r.paint(ansiBlue, "note") + ": " + note.Message + "\n")
		r.renderExcerpt(&b, source, note.Span, ansiBlue)
	}
	for _, help := range d.Help {
		b.WriteString(r.paint(ansiBlue, "help") + ": " + help + "\n")
	}
	return b.String()
}

// RenderAll formats a batch of diagnostics separated by blank lines.
func (r *Renderer) RenderAll(diags []*Diagnostic, source string) string {
	var parts []string
	for _, d := range diags {
		parts = append(parts, r.Render(d, source))
	}
	return strings.Join(parts, "\n")
}

func (r *Renderer) renderExcerpt(b *strings.Builder, source string, span Span, color string) {
	if source == "" || span.Line <= 0 {
		return
	}
	lines := strings.Split(source, "\n")
	if span.Line > len(lines) {
		return
	}
	line := lines[span.Line-1]

	prefix := fmt.Sprintf("%5d | ", span.Line)
	b.WriteString(prefix + line + "\n")

	// Caret underline covering the span on its first line.
	start := span.Column
	if start < 1 {
		start = 1
	}
	width := 1
	if span.EndLine == span.Line && span.EndColumn > span.Column {
		width = span.EndColumn - span.Column
	}
	if start-1 > len(line) {
		start = len(line) + 1
	}
	underline := strings.Repeat(" ", len(prefix)+start-1) + strings.Repeat("^", width)
	b.WriteString(r.paint(color, underline) + "\n")
}
