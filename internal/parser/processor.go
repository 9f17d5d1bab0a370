package parser

import (
	"github.com/veld-lang/veld/internal/ast"
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/pipeline"
	"github.com/veld-lang/veld/internal/token"
)

// ParserProcessor is the pipeline stage wrapping the parser.
type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.TokenStream == nil {
		// Should not happen when the lexer stage ran first, but as a safeguard:
		err := diagnostics.NewError(diagnostics.ErrP001, token.Token{}, "parser: token stream is nil")
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}

	p := New(ctx.TokenStream, ctx)
	program := p.ParseProgram()
	program.File = ctx.FilePath
	ctx.Root = program

	for _, err := range ctx.Errors {
		if err.File == "" {
			err.File = ctx.FilePath
		}
	}
	return ctx
}

// ProgramOf extracts the parsed program from the context, if present.
func ProgramOf(ctx *pipeline.PipelineContext) *ast.Program {
	prog, _ := ctx.Root.(*ast.Program)
	return prog
}
