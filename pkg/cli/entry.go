// Package cli implements the veld command: compile a source file to a WASI
// module in WebAssembly text format, type-check only, or dump the AST.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/veld-lang/veld/internal/analyzer"
	"github.com/veld-lang/veld/internal/backend"
	"github.com/veld-lang/veld/internal/buildcache"
	"github.com/veld-lang/veld/internal/config"
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/lexer"
	"github.com/veld-lang/veld/internal/lsp"
	"github.com/veld-lang/veld/internal/parser"
	"github.com/veld-lang/veld/internal/pipeline"
	"github.com/veld-lang/veld/internal/prettyprinter"
)

const usage = `usage: veld <file.veld> [output.wat]

flags:
  --check      type-check only, produce no output
  --ast        print the checked AST as JSON
  --ast-tree   print the checked AST as an indented tree
  --fmt        print the canonical formatting of the source
  --lsp        run as a language server on stdin/stdout
  --no-cache   bypass the build cache
  --no-color   disable colored diagnostics
`

type options struct {
	check   bool
	astJSON bool
	astTree bool
	format  bool
	lspMode bool
	noCache bool
	noColor bool
	file    string
	output  string
}

// Run is the whole command; main is a thin wrapper around it so tests can
// drive the binary in-process.
func Run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(stderr, "veld:", err)
		fmt.Fprint(stderr, usage)
		return 2
	}
	if opts.lspMode {
		return lsp.Run(os.Stdin, os.Stdout, stderr)
	}

	source, err := os.ReadFile(opts.file)
	if err != nil {
		fmt.Fprintln(stderr, "veld:", err)
		return 1
	}
	if !isSourceFile(opts.file) {
		fmt.Fprintf(stderr, "veld: warning: %s does not have a %s extension\n", opts.file, config.SourceFileExt)
	}

	cfg, err := config.LoadProject(opts.file)
	if err != nil {
		fmt.Fprintln(stderr, "veld:", err)
		return 1
	}

	renderer := diagnostics.NewRenderer()
	if opts.noColor || cfg.Color == "off" {
		renderer.Color = false
	}

	outPath := opts.output
	if outPath == "" {
		outPath = strings.TrimSuffix(opts.file, filepath.Ext(opts.file)) + config.OutputFileExt
		if cfg.Output != "" {
			outPath = filepath.Join(cfg.Output, filepath.Base(outPath))
		}
	}

	compileToWat := !opts.check && !opts.astJSON && !opts.astTree && !opts.format

	// Cache lookup happens before any stage runs; a hit means the exact
	// same source already compiled cleanly.
	var cache *buildcache.Cache
	cacheKey := buildcache.Key(string(source))
	if compileToWat && cfg.CacheEnabled() && !opts.noCache {
		if path, err := buildcache.DefaultPath(); err == nil {
			if c, err := buildcache.Open(path); err == nil {
				cache = c
				defer cache.Close()
				if wat, _, ok := cache.Get(cacheKey); ok {
					if err := writeOutput(outPath, wat); err != nil {
						fmt.Fprintln(stderr, "veld:", err)
						return 1
					}
					return 0
				}
			}
		}
	}

	ctx := &pipeline.PipelineContext{
		FilePath:   opts.file,
		SourceCode: string(source),
		BuildID:    uuid.NewString(),
	}

	stages := []pipeline.Processor{
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&analyzer.AnalyzerProcessor{},
	}
	if compileToWat {
		stages = append(stages, backend.NewCodegenProcessor())
	}
	ctx = pipeline.New(stages...).Run(ctx)

	if len(ctx.Errors) > 0 {
		fmt.Fprint(stderr, renderer.RenderAll(ctx.Errors, ctx.SourceCode))
	}
	if ctx.Failed() {
		return 1
	}

	program := parser.ProgramOf(ctx)
	switch {
	case opts.astJSON:
		out, err := prettyprinter.DumpJSON(program)
		if err != nil {
			fmt.Fprintln(stderr, "veld:", err)
			return 1
		}
		fmt.Fprintln(stdout, out)
	case opts.astTree:
		fmt.Fprint(stdout, prettyprinter.DumpTree(program))
	case opts.format:
		fmt.Fprint(stdout, prettyprinter.NewCodePrinter().Print(program))
	case opts.check:
		// diagnostics already rendered; silence means success
	default:
		if err := writeOutput(outPath, ctx.Wat); err != nil {
			fmt.Fprintln(stderr, "veld:", err)
			return 1
		}
		if cache != nil {
			// best effort; a failed cache write never fails the build
			_ = cache.Put(cacheKey, ctx.BuildID, ctx.Wat)
		}
	}
	return 0
}

func parseArgs(args []string) (options, error) {
	var opts options
	for _, arg := range args {
		switch arg {
		case "--check":
			opts.check = true
		case "--ast":
			opts.astJSON = true
		case "--ast-tree":
			opts.astTree = true
		case "--fmt":
			opts.format = true
		case "--lsp":
			opts.lspMode = true
		case "--no-cache":
			opts.noCache = true
		case "--no-color":
			opts.noColor = true
		case "--help", "-h":
			return opts, fmt.Errorf("help requested")
		default:
			if strings.HasPrefix(arg, "-") {
				return opts, fmt.Errorf("unknown flag %s", arg)
			}
			if opts.file == "" {
				opts.file = arg
			} else if opts.output == "" {
				opts.output = arg
			} else {
				return opts, fmt.Errorf("unexpected argument %s", arg)
			}
		}
	}
	if opts.lspMode {
		return opts, nil
	}
	if opts.file == "" {
		return opts, fmt.Errorf("no input file")
	}
	return opts, nil
}

func isSourceFile(path string) bool {
	for _, ext := range config.SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func writeOutput(path, wat string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(wat), 0o644)
}
