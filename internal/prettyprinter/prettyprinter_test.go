package prettyprinter_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/veld-lang/veld/internal/ast"
	"github.com/veld-lang/veld/internal/lexer"
	"github.com/veld-lang/veld/internal/parser"
	"github.com/veld-lang/veld/internal/pipeline"
	"github.com/veld-lang/veld/internal/prettyprinter"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	ctx := &pipeline.PipelineContext{SourceCode: src}
	ctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
	if ctx.Failed() {
		t.Fatalf("parse failed: %v", ctx.Errors)
	}
	return parser.ProgramOf(ctx)
}

func format(t *testing.T, src string) string {
	t.Helper()
	return prettyprinter.NewCodePrinter().Print(parse(t, src))
}

func TestCanonicalForm(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{"binding_spacing", "val  x=1", "val x = 1\n"},
		{"osv_call_rewritten", "data process", "process(data)\n"},
		{"tuple_subject_spread", "(1, 2) add", "add(1, 2)\n"},
		{"flat_precedence", "1 + 2 * 3", "1 + 2 * 3\n"},
		{"needed_parens_kept", "(1 + 2) * 3", "(1 + 2) * 3\n"},
		{"pipe_chain", "x |> inc |> double", "x |> inc |> double\n"},
		{"mut_pipe_binding", "val r = xs |>> inc", "mut val r = xs |>> inc\n"},
		{"string_escapes", `val s = "a` + `\n` + `b"`, "val s = \"a\\nb\"\n"},
		{"float_keeps_point", "val f = 2.0", "val f = 2.0\n"},
		{"record_literal", "val p = Point { y: 2, x: 1 }", "val p = Point { y: 2, x: 1 }\n"},
		{"freeze", "p.freeze", "p.freeze\n"},
		{"clone_with_override", "val q = p.clone { x: 3 }", "val q = p.clone { x: 3 }\n"},
		{"if_blocks_expand", "val r = if ready { 1 } else { 2 }",
			"val r = if ready {\n    1\n} else {\n    2\n}\n"},
		{"with_lifetime", "val r = with lifetime<'a within 'b> { 1 }",
			"val r = with lifetime<'a within 'b> {\n    1\n}\n"},
		{"function_signature", "fun log(m: String) -> Unit with Logger = { m }",
			"fun log(m: String) -> Unit with Logger = {\n    m\n}\n"},
		{"record_declaration", "record P { x: Int, y: Float }",
			"record P {\n    x: Int\n    y: Float\n}\n"},
		{"declarations_get_blank_lines", "record P { x: Int }\nval n = 1",
			"record P {\n    x: Int\n}\n\nval n = 1\n"},
		{"match_with_guard",
			"match x {\n    Some(v) if v > 0 -> { v }\n    _ -> { 0 }\n}",
			"match x {\n    Some(v) if v > 0 -> {\n        v\n    }\n    _ -> {\n        0\n    }\n}\n"},
		{"list_pattern",
			"match xs {\n    [] -> { 0 }\n    [h | t] -> { h }\n}",
			"match xs {\n    [] -> {\n        0\n    }\n    [h | t] -> {\n        h\n    }\n}\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := format(t, tc.in)
			if got != tc.want {
				t.Errorf("formatted output:\n%q\nwant:\n%q", got, tc.want)
			}
		})
	}
}

func TestFormatIsIdempotent(t *testing.T) {
	src := `record Point { x: Int, y: Int }

enum Color {
    Red
    Mixed(Int, Int)
}

context Logger { level: Int }

impl Point {
    fun first(self) -> Int = { self.x }
}

fun scale(p: Int, by: Int) -> Int = { p * by }

val p = Point { x: 1, y: 2 }
val q = p.clone { x: 3 }
val n = 4 |> scale(2)
with Logger { level: 1 } {
    println(n)
}
match Red {
    Red -> { 1 }
    Mixed(a, b) -> { a + b }
}
`
	once := format(t, src)
	twice := prettyprinter.NewCodePrinter().Print(parse(t, once))
	if once != twice {
		t.Errorf("formatting is not stable:\nfirst:\n%s\nsecond:\n%s", once, twice)
	}
}

func TestDumpTree(t *testing.T) {
	program := parse(t, "val x = 1 double")
	tree := prettyprinter.DumpTree(program)
	for _, want := range []string{
		"Program",
		"ValBinding mutable=false name=x",
		"Call osv=true",
		"Identifier name=double",
		"Int value=1",
	} {
		if !strings.Contains(tree, want) {
			t.Errorf("tree missing %q:\n%s", want, tree)
		}
	}
}

func TestDumpJSON(t *testing.T) {
	program := parse(t, "val x = 1")
	out, err := prettyprinter.DumpJSON(program)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("dump is not valid JSON: %v", err)
	}
	if decoded["node"] != "Program" {
		t.Errorf("root node: got %v, want Program", decoded["node"])
	}
}
