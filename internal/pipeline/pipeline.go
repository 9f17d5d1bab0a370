// Package pipeline wires the compiler stages together. Each stage consumes
// the complete output of the previous one; there is no streaming between
// stages and no concurrency.
package pipeline

import (
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/token"
)

// AstRoot is implemented by the parser's root node. It lives here as a
// minimal interface so the context does not depend on the ast package.
type AstRoot interface {
	TokenLiteral() string
}

// SymbolInfo is the checker's view of the program's declarations, consumed
// by the code generator. Declared as an opaque interface for the same
// dependency reason as AstRoot.
type SymbolInfo interface {
	LookupKind(name string) (string, bool)
}

// PipelineContext carries one compilation unit through the stages.
type PipelineContext struct {
	FilePath   string
	SourceCode string
	BuildID    string // uuid stamped by the CLI, recorded in dumps and cache rows

	TokenStream *token.Stream
	Root        AstRoot
	Symbols     SymbolInfo
	Wat         string

	Errors []*diagnostics.Diagnostic
}

// Failed reports whether any error-severity diagnostic has been recorded.
func (ctx *PipelineContext) Failed() bool {
	return diagnostics.HasErrors(ctx.Errors)
}

// Processor is a single pipeline stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline. Stages keep running after errors so that later
// stages can still contribute independent diagnostics (the LSP needs both
// parse and semantic errors); stages that must not run on broken input guard
// on ctx.Failed themselves.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}
