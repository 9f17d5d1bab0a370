// Package backend lowers a checked program to WebAssembly text (WAT).
//
// The memory model is a single linear memory with a bump-pointer arena and
// no garbage collector. Int lowers to i64, Float to f64, Bool to i32;
// strings, records, enums and lists are arena pointers (i32). Ownership is
// fully discharged by the checker, so the generated code never frees
// anything mid-scope; with lifetime blocks reset the arena pointer where
// that is provably safe.
package backend

import (
	"github.com/veld-lang/veld/internal/ast"
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/symbols"
)

// Backend turns a checked program into a compiled artifact.
type Backend interface {
	Name() string
	Generate(program *ast.Program, table *symbols.Table) (string, []*diagnostics.Diagnostic)
}

// WatBackend emits a self-contained WASI module in text format.
type WatBackend struct{}

func NewWat() *WatBackend { return &WatBackend{} }

func (w *WatBackend) Name() string { return "wat" }

func (w *WatBackend) Generate(program *ast.Program, table *symbols.Table) (string, []*diagnostics.Diagnostic) {
	g := newGenerator(table)
	g.compileProgram(program)
	if diagnostics.HasErrors(g.diags) {
		return "", g.diags
	}
	return g.assemble(), g.diags
}
