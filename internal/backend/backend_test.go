package backend

import (
	"strings"
	"testing"

	"github.com/veld-lang/veld/internal/analyzer"
	"github.com/veld-lang/veld/internal/ast"
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/lexer"
	"github.com/veld-lang/veld/internal/parser"
	"github.com/veld-lang/veld/internal/pipeline"
	"github.com/veld-lang/veld/internal/symbols"
)

// frontHalf runs lexing, parsing and checking, failing the test on any
// front-end diagnostic.
func frontHalf(t *testing.T, src string) (*ast.Program, *symbols.Table) {
	t.Helper()
	ctx := &pipeline.PipelineContext{SourceCode: src}
	ctx = pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&analyzer.AnalyzerProcessor{},
	).Run(ctx)
	if ctx.Failed() {
		t.Fatalf("front half failed: %v", ctx.Errors)
	}
	return ctx.Root.(*ast.Program), ctx.Symbols.(*symbols.Table)
}

func generate(t *testing.T, src string) string {
	t.Helper()
	program, table := frontHalf(t, src)
	wat, diags := NewWat().Generate(program, table)
	if diagnostics.HasErrors(diags) {
		t.Fatalf("codegen failed: %v", diags)
	}
	return wat
}

// mainFuncOf slices out the entry point's body so assertions do not trip
// over the runtime support functions.
func mainFuncOf(t *testing.T, wat string) string {
	t.Helper()
	start := strings.Index(wat, "(func $veld.main")
	if start < 0 {
		t.Fatal("no $veld.main in module")
	}
	end := strings.Index(wat[start:], "(export")
	return wat[start : start+end]
}

func wantContains(t *testing.T, haystack string, needles ...string) {
	t.Helper()
	for _, n := range needles {
		if !strings.Contains(haystack, n) {
			t.Errorf("output does not contain %q", n)
		}
	}
}

func TestModuleScaffolding(t *testing.T) {
	wat := generate(t, `println("hi")`)
	wantContains(t, wat,
		`(module`,
		`(import "wasi_snapshot_preview1" "fd_write"`,
		`(import "wasi_snapshot_preview1" "proc_exit"`,
		`(memory (export "memory") 2)`,
		`(export "_start" (func $veld.main))`,
		"call $veld.print_str",
		"call $veld.nl",
	)
	// "true" and "false" occupy 96 and 104; the first user literal lands
	// on the next 8-byte boundary.
	wantContains(t, wat, `(data (i32.const 120) "\02\00\00\00hi")`)
}

func TestArithmetic(t *testing.T) {
	wat := generate(t, "println(1 + 2 * 3)")
	main := mainFuncOf(t, wat)
	wantContains(t, main, "i64.const 1", "i64.const 2", "i64.const 3",
		"i64.mul", "i64.add", "call $veld.print_i64")
}

func TestFloatArithmetic(t *testing.T) {
	main := mainFuncOf(t, generate(t, "println(1.5 / 0.5)"))
	wantContains(t, main, "f64.div", "call $veld.print_f64")
}

func TestStringConcat(t *testing.T) {
	main := mainFuncOf(t, generate(t, `println("a" + "b")`))
	wantContains(t, main, "call $veld.str_concat")
}

func TestFunctionLowering(t *testing.T) {
	wat := generate(t, `fun add(a: Int, b: Int) -> Int = { a + b }
println(add(1, 2))`)
	wantContains(t, wat,
		"(func $add (param $p.a i64) (param $p.b i64) (result i64)",
		"local.get $p.a",
		"local.get $p.b",
	)
	wantContains(t, mainFuncOf(t, wat), "call $add")
}

func TestMonomorphization(t *testing.T) {
	program, table := frontHalf(t, `fun identity(x: a) -> a = { x }
val n = identity(1)
val s = identity("hi")
println(n)
println(s)`)
	g := newGenerator(table)
	g.compileProgram(program)
	if diagnostics.HasErrors(g.diags) {
		t.Fatalf("codegen failed: %v", g.diags)
	}

	got := g.sortedInstanceSymbols()
	want := []string{"identity@Int", "identity@String"}
	if len(got) != len(want) {
		t.Fatalf("instances: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("instance %d: got %s, want %s", i, got[i], want[i])
		}
	}

	wat := g.assemble()
	wantContains(t, wat,
		"(func $identity@Int (param $p.x i64) (result i64)",
		"(func $identity@String (param $p.x i32) (result i32)",
		"call $identity@Int",
		"call $identity@String",
	)
}

func TestRecordLayout(t *testing.T) {
	main := mainFuncOf(t, generate(t, `record Point { x: Int, y: Int }
val p = Point { x: 1, y: 2 }
println(p.y)`))
	wantContains(t, main,
		"i32.const 16", // two i64 fields
		"call $veld.alloc",
		"i64.store offset=0",
		"i64.store offset=8",
		"i64.load offset=8",
	)
}

func TestEnumBoxing(t *testing.T) {
	main := mainFuncOf(t, generate(t, `enum Shape { Dot, Box(Int) }
val s = Box(7)
match s {
    Dot -> { println(0) }
    Box(n) -> { println(n) }
}`))
	// tag 1 in the first word, one payload slot after the padded tag
	wantContains(t, main,
		"i32.const 16",
		"call $veld.alloc",
		"i32.store",
		"i64.store offset=8",
	)
}

func TestOptionTags(t *testing.T) {
	main := mainFuncOf(t, generate(t, `val o = Some(1)
match o {
    Some(v) -> { println(v) }
    None -> { println(0) }
}`))
	wantContains(t, main, "i32.const 1", "i64.store offset=8")
}

func TestListLowering(t *testing.T) {
	main := mainFuncOf(t, generate(t, `val xs = [1, 2]
match xs {
    [] -> { println(0) }
    [h | t] -> { println(h) }
}`))
	wantContains(t, main,
		"i32.const 16",
		"i64.store offset=0",
		"i32.store offset=8",
	)
}

func TestIfLowering(t *testing.T) {
	main := mainFuncOf(t, generate(t, `val b = true
val n = if b { 1 } else { 2 }
println(n)`))
	wantContains(t, main, "if (result i64)", "else", "end")
}

func TestWithLifetimeArena(t *testing.T) {
	t.Run("scalar_result_rewinds_the_arena", func(t *testing.T) {
		main := mainFuncOf(t, generate(t, `val n = with lifetime<'a> { 1 + 1 }
println(n)`))
		wantContains(t, main, "global.get $veld.hp", "global.set $veld.hp")
	})
	t.Run("pointer_result_keeps_the_arena", func(t *testing.T) {
		main := mainFuncOf(t, generate(t, `val s = with lifetime<'a> { "a" + "b" }
println(s)`))
		wantContains(t, main, "global.get $veld.hp")
		if strings.Contains(main, "global.set $veld.hp") {
			t.Error("arena must not rewind under a value that may point into it")
		}
	})
}

func TestContextLowering(t *testing.T) {
	wat := generate(t, `context Logger { level: Int }
fun log(m: String) -> Unit with Logger = { println(m) }
with Logger { level: 1 } {
    log("go")
}`)
	wantContains(t, wat, "(param $ctx.Logger i32)")
	wantContains(t, mainFuncOf(t, wat), "call $log")
}

func TestMethodLowering(t *testing.T) {
	wat := generate(t, `record Point { x: Int, y: Int }
impl Point {
    fun first(self) -> Int = { self.x }
}
val p = Point { x: 1, y: 2 }
println(p.first())`)
	wantContains(t, wat, "(func $Point.first (param $p.self i32) (result i64)")
	wantContains(t, mainFuncOf(t, wat), "call $Point.first")
}

func TestExitLowering(t *testing.T) {
	main := mainFuncOf(t, generate(t, "exit(3)"))
	wantContains(t, main, "i32.wrap_i64", "call $proc_exit")
}

func TestFirstClassFunctionsRejected(t *testing.T) {
	program, table := frontHalf(t, `fun inc(n: Int) -> Int = { n + 1 }
val f = inc`)
	wat, diags := NewWat().Generate(program, table)
	if wat != "" {
		t.Error("expected no module on codegen failure")
	}
	if !diagnostics.HasErrors(diags) {
		t.Fatal("expected a diagnostic")
	}
	if diags[0].Code != diagnostics.ErrC002 {
		t.Errorf("code: got %s, want %s", diags[0].Code, diagnostics.ErrC002)
	}
	if !strings.Contains(diags[0].Message, "first-class") {
		t.Errorf("unexpected message: %s", diags[0].Message)
	}
}
