package lexer

import (
	"github.com/veld-lang/veld/internal/pipeline"
	"github.com/veld-lang/veld/internal/token"
)

// LexerProcessor is the pipeline stage wrapping the lexer.
type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	l := New(ctx.SourceCode)
	tokens := l.Tokenize()
	ctx.TokenStream = token.NewStream(tokens)

	for _, err := range l.Errors() {
		if err.File == "" {
			err.File = ctx.FilePath
		}
		ctx.Errors = append(ctx.Errors, err)
	}
	return ctx
}
