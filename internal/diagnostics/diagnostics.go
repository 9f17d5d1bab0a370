// Package diagnostics defines the diagnostic shape shared by the CLI, the
// LSP server and the test suite. The field layout is load-bearing: editor
// tooling renders these structs directly, so changes here are breaking.
package diagnostics

import (
	"fmt"

	"github.com/veld-lang/veld/internal/token"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityHint:
		return "hint"
	default:
		return "error"
	}
}

// Code is a stable diagnostic identifier. Codes are never reused.
type Code string

const (
	// Lexer
	ErrL001 Code = "L001" // unexpected character
	ErrL002 Code = "L002" // unterminated string literal
	ErrL003 Code = "L003" // unterminated block comment
	ErrL004 Code = "L004" // malformed numeric literal

	// Parser
	ErrP001 Code = "P001" // unexpected token
	ErrP002 Code = "P002" // expected token
	ErrP003 Code = "P003" // no parse rule for token
	ErrP004 Code = "P004" // record fields out of declaration order
	ErrP005 Code = "P005" // match arm body must be a block

	// Type checker
	ErrT001 Code = "T001" // TypeMismatch
	ErrT002 Code = "T002" // UseOfMovedValue
	ErrT003 Code = "T003" // NonExhaustiveMatch
	ErrT004 Code = "T004" // TemporalEscape
	ErrT005 Code = "T005" // UnresolvedType
	ErrT006 Code = "T006" // UndefinedName
	ErrT007 Code = "T007" // DuplicateDefinition
	ErrT008 Code = "T008" // MissingContext

	// Code generator
	ErrC001 Code = "C001" // CannotInferType
	ErrC002 Code = "C002" // UnsupportedConstruct
)

// Span is a half-open source region in 1-based line/column coordinates.
type Span struct {
	Line      int `json:"line"`
	Column    int `json:"column"`
	EndLine   int `json:"endLine"`
	EndColumn int `json:"endColumn"`
}

// SpanOf extracts the span of a token.
func SpanOf(tok token.Token) Span {
	s := Span{Line: tok.Line, Column: tok.Column, EndLine: tok.EndLine, EndColumn: tok.EndColumn}
	if s.EndLine == 0 {
		s.EndLine = s.Line
	}
	if s.EndColumn == 0 {
		s.EndColumn = s.Column + len(tok.Lexeme)
	}
	return s
}

// Note is a secondary span attached to a diagnostic, e.g. "declared here".
type Note struct {
	Span    Span   `json:"span"`
	Message string `json:"message"`
}

type Diagnostic struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	File     string   `json:"file,omitempty"`
	Span     Span     `json:"span"`
	Notes    []Note   `json:"notes,omitempty"`
	Help     []string `json:"help,omitempty"`
}

// NewError builds an error-severity diagnostic anchored at tok.
func NewError(code Code, tok token.Token, msg string) *Diagnostic {
	return &Diagnostic{
		Code:     code,
		Severity: SeverityError,
		Message:  msg,
		Span:     SpanOf(tok),
	}
}

// NewErrorf is NewError with formatting.
func NewErrorf(code Code, tok token.Token, format string, args ...interface{}) *Diagnostic {
	return NewError(code, tok, fmt.Sprintf(format, args...))
}

// WithNote attaches a secondary span and returns the diagnostic for chaining.
func (d *Diagnostic) WithNote(tok token.Token, msg string) *Diagnostic {
	d.Notes = append(d.Notes, Note{Span: SpanOf(tok), Message: msg})
	return d
}

// WithHelp attaches a suggestion line.
func (d *Diagnostic) WithHelp(msg string) *Diagnostic {
	d.Help = append(d.Help, msg)
	return d
}

func (d *Diagnostic) Error() string {
	file := d.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s [%s]", file, d.Span.Line, d.Span.Column, d.Severity, d.Message, d.Code)
}

// HasErrors reports whether any diagnostic is at error severity.
func HasErrors(diags []*Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
