package analyzer_test

import (
	"strings"
	"testing"

	"github.com/veld-lang/veld/internal/analyzer"
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/lexer"
	"github.com/veld-lang/veld/internal/parser"
	"github.com/veld-lang/veld/internal/pipeline"
)

// check runs the front half of the compiler and returns all diagnostics.
func check(t *testing.T, src string) []*diagnostics.Diagnostic {
	t.Helper()
	ctx := &pipeline.PipelineContext{SourceCode: src}
	ctx = pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&analyzer.AnalyzerProcessor{},
	).Run(ctx)
	for _, d := range ctx.Errors {
		if d.Code[0] == 'L' || d.Code[0] == 'P' {
			t.Fatalf("test source does not parse: %v", d)
		}
	}
	return ctx.Errors
}

func codesOf(diags []*diagnostics.Diagnostic) []diagnostics.Code {
	out := make([]diagnostics.Code, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}
	return out
}

func expectCodes(t *testing.T, diags []*diagnostics.Diagnostic, want ...diagnostics.Code) {
	t.Helper()
	got := codesOf(diags)
	if len(got) != len(want) {
		t.Fatalf("diagnostics: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("diagnostic %d: got %s (%s), want %s", i, got[i], diags[i].Message, want[i])
		}
	}
}

func TestWellTypedPrograms(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{"arithmetic", "val x = 1\nval y = x + 2\nprintln(y)"},
		{"function_call", "fun add(a: Int, b: Int) -> Int = { a + b }\nprintln(add(1, 2))"},
		{"osv_call", "fun double(n: Int) -> Int = { n * 2 }\nval r = 21 double\nprintln(r)"},
		{"pipe_chain", "fun inc(n: Int) -> Int = { n + 1 }\nfun double(n: Int) -> Int = { n * 2 }\nprintln(1 |> inc |> double)"},
		{"inferred_return", "fun greet(name: String) = { \"hi \" + name }\nprintln(greet(\"you\"))"},
		{"generic_identity", "fun identity(x: a) -> a = { x }\nval n = identity(1)\nval s = identity(\"hi\")\nprintln(n)\nprintln(s)"},
		{"option_constructors", "val o = Some(1)\nmatch o {\n    Some(v) -> { println(v) }\n    None -> { println(0) }\n}"},
		{"result_constructors", "val r: Result<Int, String> = Ok(1)\nmatch r {\n    Ok(v) -> { println(v) }\n    Err(e) -> { println(e) }\n}"},
		{"list_literal", "val xs = [1, 2, 3]\nmatch xs {\n    [] -> { println(0) }\n    [h | t] -> { println(h) }\n}"},
		{"record_and_impl", "record Point { x: Int, y: Int }\nimpl Point {\n    fun sum(self) -> Int = { 1 }\n}\nval p = Point { x: 1, y: 2 }\nprintln(p.sum())"},
		{"show_builtin", "val s = show(42)\nprintln(s)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expectCodes(t, check(t, tc.src))
		})
	}
}

func TestAffineUse(t *testing.T) {
	t.Run("second_use_is_an_error", func(t *testing.T) {
		diags := check(t, "val x = 1\nval a = x + 1\nval b = x + 1")
		expectCodes(t, diags, diagnostics.ErrT002)
		if !strings.Contains(diags[0].Message, "x") {
			t.Errorf("message should name the binding: %s", diags[0].Message)
		}
		if len(diags[0].Notes) != 2 {
			t.Errorf("want declared-here and moved-here notes, got %v", diags[0].Notes)
		}
	})

	t.Run("third_use_stays_silent", func(t *testing.T) {
		diags := check(t, "val x = 1\nval a = x + 1\nval b = x + 1\nval c = x + 1")
		expectCodes(t, diags, diagnostics.ErrT002)
	})

	t.Run("mutable_bindings_are_exempt", func(t *testing.T) {
		expectCodes(t, check(t, "mut val x = 1\nval a = x + x\nval b = x + x"))
	})

	t.Run("shadowing_resets_the_count", func(t *testing.T) {
		expectCodes(t, check(t, "val x = 1\nval a = x + 1\nval x = 2\nval b = x + 1"))
	})

	t.Run("branches_count_independently", func(t *testing.T) {
		expectCodes(t, check(t, "val msg = \"hi\"\nval r = if true { msg } else { msg }\nprintln(r)"))
	})

	t.Run("use_after_branch_use_is_an_error", func(t *testing.T) {
		diags := check(t, "val msg = \"hi\"\nval r = if true { msg } else { msg }\nprintln(r)\nprintln(msg)")
		expectCodes(t, diags, diagnostics.ErrT002)
	})

	t.Run("match_arms_count_independently", func(t *testing.T) {
		expectCodes(t, check(t, `enum Color { Red, Green }
val tag = "t"
val c = Red
val s = match c {
    Red -> { tag }
    Green -> { tag }
}
println(s)`))
	})

	t.Run("pipe_source_is_consumed", func(t *testing.T) {
		diags := check(t, "fun inc(n: Int) -> Int = { n + 1 }\nval x = 1\nval a = x |> inc\nval b = x |> inc")
		expectCodes(t, diags, diagnostics.ErrT002)
	})
}

func TestRecordOwnership(t *testing.T) {
	const prelude = `record Point { x: Int, y: Int }
impl Point {
    fun norm(self) -> Int = { 1 }
}
`

	t.Run("field_access_consumes", func(t *testing.T) {
		diags := check(t, prelude+"val p = Point { x: 1, y: 2 }\nval a = p.x\nval b = p.y")
		expectCodes(t, diags, diagnostics.ErrT002)
	})

	t.Run("method_calls_borrow", func(t *testing.T) {
		expectCodes(t, check(t, prelude+`val p = Point { x: 1, y: 2 }
val a = p.norm()
val b = p.norm()
val c = p.x
println(a + b + c)`))
	})

	t.Run("method_call_on_moved_value", func(t *testing.T) {
		diags := check(t, prelude+"val p = Point { x: 1, y: 2 }\nval a = p.x\nval b = p.norm()")
		expectCodes(t, diags, diagnostics.ErrT002)
		if !strings.Contains(diags[0].Message, "moved value p") {
			t.Errorf("unexpected message: %s", diags[0].Message)
		}
	})

	t.Run("clone_consumes_the_source", func(t *testing.T) {
		diags := check(t, prelude+"val p = Point { x: 1, y: 2 }\nval q = p.clone { x: 3 }\nval a = p.x")
		expectCodes(t, diags, diagnostics.ErrT002)
	})

	t.Run("clone_result_is_independent", func(t *testing.T) {
		expectCodes(t, check(t, prelude+"val p = Point { x: 1, y: 2 }\nval q = p.clone { x: 3 }\nval a = q.x\nprintln(a)"))
	})

	t.Run("clone_override_must_name_a_field", func(t *testing.T) {
		diags := check(t, prelude+"val p = Point { x: 1, y: 2 }\nval q = p.clone { z: 3 }")
		expectCodes(t, diags, diagnostics.ErrT006)
	})
}

func TestRecordLiterals(t *testing.T) {
	const rec = "record Point { x: Int, y: Int }\n"

	t.Run("missing_field", func(t *testing.T) {
		expectCodes(t, check(t, rec+"val p = Point { x: 1 }"), diagnostics.ErrT001)
	})
	t.Run("unknown_field", func(t *testing.T) {
		expectCodes(t, check(t, rec+"val p = Point { x: 1, y: 2, z: 3 }"), diagnostics.ErrT006)
	})
	t.Run("duplicate_field", func(t *testing.T) {
		expectCodes(t, check(t, rec+"val p = Point { x: 1, x: 2, y: 3 }"), diagnostics.ErrT007)
	})
	t.Run("field_type_mismatch", func(t *testing.T) {
		expectCodes(t, check(t, rec+"val p = Point { x: \"no\", y: 2 }"), diagnostics.ErrT001)
	})
	t.Run("undefined_record", func(t *testing.T) {
		expectCodes(t, check(t, "val p = Ghost { x: 1 }"), diagnostics.ErrT006)
	})
}

func TestMutability(t *testing.T) {
	t.Run("assign_to_immutable", func(t *testing.T) {
		diags := check(t, "val x = 1\nx = 2")
		expectCodes(t, diags, diagnostics.ErrT001)
		if !strings.Contains(diags[0].Message, "mut val") {
			t.Errorf("message should suggest mut val: %s", diags[0].Message)
		}
	})
	t.Run("assign_to_mutable", func(t *testing.T) {
		expectCodes(t, check(t, "mut val x = 1\nx = 2\nprintln(x)"))
	})
	t.Run("assign_to_undefined", func(t *testing.T) {
		expectCodes(t, check(t, "y = 2"), diagnostics.ErrT006)
	})
	t.Run("reassignment_keeps_the_type", func(t *testing.T) {
		expectCodes(t, check(t, "mut val x = 1\nx = \"no\""), diagnostics.ErrT001)
	})
	t.Run("freeze_locks_a_mutable_binding", func(t *testing.T) {
		diags := check(t, "mut val total = 1\ntotal = 2\ntotal.freeze\ntotal = 3")
		expectCodes(t, diags, diagnostics.ErrT001)
		if !strings.Contains(diags[0].Message, "frozen") {
			t.Errorf("unexpected message: %s", diags[0].Message)
		}
	})
	t.Run("frozen_binding_is_affine_again", func(t *testing.T) {
		diags := check(t, "mut val x = 1\nx.freeze\nval a = x + 1\nval b = x + 1")
		expectCodes(t, diags, diagnostics.ErrT002)
	})
}

func TestExhaustiveness(t *testing.T) {
	const colors = "enum Color { Red, Green, Blue }\n"

	t.Run("missing_variants", func(t *testing.T) {
		diags := check(t, colors+"val c = Red\nmatch c {\n    Red -> { 1 }\n}")
		expectCodes(t, diags, diagnostics.ErrT003)
		if !strings.Contains(diags[0].Message, "Blue") || !strings.Contains(diags[0].Message, "Green") {
			t.Errorf("message should list missing variants: %s", diags[0].Message)
		}
	})
	t.Run("all_variants", func(t *testing.T) {
		expectCodes(t, check(t, colors+"val c = Red\nmatch c {\n    Red -> { 1 }\n    Green -> { 2 }\n    Blue -> { 3 }\n}"))
	})
	t.Run("wildcard_closes_the_match", func(t *testing.T) {
		expectCodes(t, check(t, colors+"val c = Red\nmatch c {\n    Red -> { 1 }\n    _ -> { 0 }\n}"))
	})
	t.Run("guarded_wildcard_does_not", func(t *testing.T) {
		diags := check(t, colors+"val c = Red\nmatch c {\n    Red -> { 1 }\n    _ if true -> { 0 }\n}")
		expectCodes(t, diags, diagnostics.ErrT003)
	})
	t.Run("option_needs_both_arms", func(t *testing.T) {
		diags := check(t, "val o = Some(1)\nmatch o {\n    Some(v) -> { v }\n}")
		expectCodes(t, diags, diagnostics.ErrT003)
	})
	t.Run("bool_needs_both_literals", func(t *testing.T) {
		diags := check(t, "val b = true\nmatch b {\n    true -> { 1 }\n}")
		expectCodes(t, diags, diagnostics.ErrT003)
	})
	t.Run("list_needs_empty_and_cons", func(t *testing.T) {
		diags := check(t, "val xs = [1]\nmatch xs {\n    [h | t] -> { h }\n}")
		expectCodes(t, diags, diagnostics.ErrT003)
	})
	t.Run("arm_types_must_agree", func(t *testing.T) {
		diags := check(t, "val o = Some(1)\nmatch o {\n    Some(v) -> { v }\n    None -> { \"no\" }\n}")
		expectCodes(t, diags, diagnostics.ErrT001)
	})
}

func TestContexts(t *testing.T) {
	const logger = `context Logger { level: Int }
fun log(m: String) -> Unit with Logger = { println(m) }
`

	t.Run("missing_context", func(t *testing.T) {
		diags := check(t, logger+"log(\"hi\")")
		expectCodes(t, diags, diagnostics.ErrT008)
	})
	t.Run("with_block_provides_it", func(t *testing.T) {
		expectCodes(t, check(t, logger+"with Logger { level: 1 } {\n    log(\"hi\")\n}"))
	})
	t.Run("caller_signature_provides_it", func(t *testing.T) {
		expectCodes(t, check(t, logger+"fun run() -> Unit with Logger = { log(\"hi\") }"))
	})
	t.Run("context_bundle_is_not_affine", func(t *testing.T) {
		expectCodes(t, check(t, logger+`with Logger { level: 1 } {
    log("a")
    log("b")
}`))
	})
	t.Run("context_fields_are_checked", func(t *testing.T) {
		diags := check(t, logger+"with Logger { level: \"no\" } {\n    log(\"hi\")\n}")
		expectCodes(t, diags, diagnostics.ErrT001)
	})
	t.Run("undefined_context_in_signature", func(t *testing.T) {
		diags := check(t, "fun f() -> Unit with Ghost = { println(1) }")
		expectCodes(t, diags, diagnostics.ErrT006)
	})
}

func TestTemporalLifetimes(t *testing.T) {
	t.Run("tagged_binding_outside_its_lifetime", func(t *testing.T) {
		diags := check(t, "val x: Temporal<Int, 't> = 1")
		expectCodes(t, diags, diagnostics.ErrT004)
	})
	t.Run("tagged_value_used_inside_its_block", func(t *testing.T) {
		expectCodes(t, check(t, `with lifetime<'a> {
    val x: Temporal<Int, 'a> = 1
    println(x)
}`))
	})
	t.Run("tagged_value_escaping_its_block", func(t *testing.T) {
		diags := check(t, `val r = with lifetime<'a> {
    val x: Temporal<Int, 'a> = 1
    x
}`)
		expectCodes(t, diags, diagnostics.ErrT004)
		if !strings.Contains(diags[0].Message, "escapes its block") {
			t.Errorf("unexpected message: %s", diags[0].Message)
		}
	})
	t.Run("untagged_value_may_leave", func(t *testing.T) {
		expectCodes(t, check(t, "val r = with lifetime<'a> { 1 }\nprintln(r)"))
	})
	t.Run("within_requires_an_active_outer", func(t *testing.T) {
		diags := check(t, "val r = with lifetime<'a within 'b> { 1 }")
		expectCodes(t, diags, diagnostics.ErrT004)
	})
	t.Run("nested_within_active_outer", func(t *testing.T) {
		expectCodes(t, check(t, `val r = with lifetime<'b> {
    with lifetime<'a within 'b> { 1 }
}
println(r)`))
	})
}

func TestDeclarations(t *testing.T) {
	t.Run("duplicate_record", func(t *testing.T) {
		diags := check(t, "record A { x: Int }\nrecord A { y: Int }")
		expectCodes(t, diags, diagnostics.ErrT007)
	})
	t.Run("duplicate_function", func(t *testing.T) {
		diags := check(t, "fun f() -> Int = { 1 }\nfun f() -> Int = { 2 }")
		expectCodes(t, diags, diagnostics.ErrT007)
	})
	t.Run("duplicate_variant_across_enums", func(t *testing.T) {
		diags := check(t, "enum A { Dot }\nenum B { Dot }")
		expectCodes(t, diags, diagnostics.ErrT007)
	})
	t.Run("impl_target_must_exist", func(t *testing.T) {
		diags := check(t, "impl Ghost {\n    fun f(self) -> Int = { 1 }\n}")
		expectCodes(t, diags, diagnostics.ErrT006)
	})
	t.Run("unknown_annotation_type", func(t *testing.T) {
		diags := check(t, "fun f(x: Ghost) -> Int = { 1 }")
		expectCodes(t, diags, diagnostics.ErrT005)
	})
	t.Run("return_type_checked_against_body", func(t *testing.T) {
		diags := check(t, "fun f() -> Int = { \"no\" }")
		expectCodes(t, diags, diagnostics.ErrT001)
	})
}

func TestMisc(t *testing.T) {
	t.Run("undefined_name", func(t *testing.T) {
		expectCodes(t, check(t, "println(ghost)"), diagnostics.ErrT006)
	})
	t.Run("annotation_mismatch", func(t *testing.T) {
		expectCodes(t, check(t, "val x: Int = \"no\""), diagnostics.ErrT001)
	})
	t.Run("condition_must_be_bool", func(t *testing.T) {
		expectCodes(t, check(t, "val r = if 1 { 2 } else { 3 }"), diagnostics.ErrT001)
	})
	t.Run("exit_takes_an_int", func(t *testing.T) {
		expectCodes(t, check(t, "exit(\"no\")"), diagnostics.ErrT001)
	})
	t.Run("bare_tuple_has_no_value", func(t *testing.T) {
		expectCodes(t, check(t, "val t = (1, 2)"), diagnostics.ErrT001)
	})
	t.Run("operands_must_share_a_type", func(t *testing.T) {
		expectCodes(t, check(t, "val x = 1 + \"two\""), diagnostics.ErrT001)
	})
	t.Run("string_concat_is_plus", func(t *testing.T) {
		expectCodes(t, check(t, "val s = \"a\" + \"b\"\nprintln(s)"))
	})
	t.Run("modulo_is_integer_only", func(t *testing.T) {
		expectCodes(t, check(t, "val x = 1.5 % 2.0"), diagnostics.ErrT001)
	})
}
