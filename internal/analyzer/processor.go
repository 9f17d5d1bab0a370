package analyzer

import (
	"github.com/veld-lang/veld/internal/ast"
	"github.com/veld-lang/veld/internal/pipeline"
)

// AnalyzerProcessor is the pipeline stage wrapping the checker. It runs
// even when parsing reported errors, as long as a program was produced, so
// one compile surfaces both syntax and type problems.
type AnalyzerProcessor struct{}

func (ap *AnalyzerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	program, ok := ctx.Root.(*ast.Program)
	if !ok || program == nil {
		return ctx
	}
	table, diags := Analyze(program)
	ctx.Symbols = table
	ctx.Errors = append(ctx.Errors, diags...)
	return ctx
}
