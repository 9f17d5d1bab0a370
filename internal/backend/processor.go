package backend

import (
	"github.com/veld-lang/veld/internal/ast"
	"github.com/veld-lang/veld/internal/pipeline"
	"github.com/veld-lang/veld/internal/symbols"
)

// CodegenProcessor is the pipeline stage wrapping the WAT backend. It only
// runs on a clean front half: codegen on an erroneous program would just
// echo confusing secondary failures.
type CodegenProcessor struct {
	Backend Backend
}

func NewCodegenProcessor() *CodegenProcessor {
	return &CodegenProcessor{Backend: NewWat()}
}

func (cp *CodegenProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() {
		return ctx
	}
	program, ok := ctx.Root.(*ast.Program)
	if !ok || program == nil {
		return ctx
	}
	table, ok := ctx.Symbols.(*symbols.Table)
	if !ok {
		return ctx
	}
	wat, diags := cp.Backend.Generate(program, table)
	for _, d := range diags {
		if d.File == "" {
			d.File = ctx.FilePath
		}
	}
	ctx.Errors = append(ctx.Errors, diags...)
	ctx.Wat = wat
	return ctx
}
