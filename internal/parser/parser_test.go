package parser_test

import (
	"testing"

	"github.com/veld-lang/veld/internal/ast"
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/lexer"
	"github.com/veld-lang/veld/internal/parser"
	"github.com/veld-lang/veld/internal/pipeline"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	ctx := &pipeline.PipelineContext{SourceCode: src}
	ctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
	if len(ctx.Errors) > 0 {
		t.Fatalf("unexpected parse errors: %v", ctx.Errors)
	}
	program := parser.ProgramOf(ctx)
	if program == nil {
		t.Fatal("no program produced")
	}
	return program
}

func parseErrors(src string) []*diagnostics.Diagnostic {
	ctx := &pipeline.PipelineContext{SourceCode: src}
	ctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
	return ctx.Errors
}

func bindingValue(t *testing.T, program *ast.Program) ast.Expression {
	t.Helper()
	if len(program.Statements) == 0 {
		t.Fatal("empty program")
	}
	vb, ok := program.Statements[len(program.Statements)-1].(*ast.ValBinding)
	if !ok {
		t.Fatalf("last statement is %T, want *ast.ValBinding", program.Statements[len(program.Statements)-1])
	}
	return vb.Value
}

func TestOSVDesugaring(t *testing.T) {
	t.Run("single_subject", func(t *testing.T) {
		program := parse(t, "val r = data process")
		call, ok := bindingValue(t, program).(*ast.CallExpression)
		if !ok {
			t.Fatalf("value is %T, want *ast.CallExpression", bindingValue(t, program))
		}
		if !call.FromOSV {
			t.Error("call not marked as OSV form")
		}
		fn, ok := call.Function.(*ast.Identifier)
		if !ok || fn.Value != "process" {
			t.Errorf("function: got %v, want identifier process", call.Function)
		}
		if len(call.Arguments) != 1 {
			t.Fatalf("arguments: got %d, want 1", len(call.Arguments))
		}
		arg, ok := call.Arguments[0].(*ast.Identifier)
		if !ok || arg.Value != "data" {
			t.Errorf("argument: got %v, want identifier data", call.Arguments[0])
		}
	})

	t.Run("tuple_subject", func(t *testing.T) {
		program := parse(t, "val r = (1, 2) add")
		call, ok := bindingValue(t, program).(*ast.CallExpression)
		if !ok || !call.FromOSV {
			t.Fatalf("value is %T (osv=%v), want OSV call", bindingValue(t, program), ok)
		}
		if len(call.Arguments) != 2 {
			t.Errorf("tuple arguments spread: got %d, want 2", len(call.Arguments))
		}
	})

	t.Run("classic_call_not_osv", func(t *testing.T) {
		program := parse(t, "val r = add(1, 2)")
		call, ok := bindingValue(t, program).(*ast.CallExpression)
		if !ok {
			t.Fatalf("value is %T, want *ast.CallExpression", bindingValue(t, program))
		}
		if call.FromOSV {
			t.Error("f(x) form wrongly marked as OSV")
		}
	})
}

func TestPipeExpressions(t *testing.T) {
	t.Run("left_associative_chain", func(t *testing.T) {
		program := parse(t, "val r = x |> f |> g")
		outer, ok := bindingValue(t, program).(*ast.PipeExpression)
		if !ok {
			t.Fatalf("value is %T, want *ast.PipeExpression", bindingValue(t, program))
		}
		if _, ok := outer.Left.(*ast.PipeExpression); !ok {
			t.Errorf("chain should nest on the left, got %T", outer.Left)
		}
		right, ok := outer.Right.(*ast.Identifier)
		if !ok || right.Value != "g" {
			t.Errorf("outer stage: got %v, want g", outer.Right)
		}
	})

	t.Run("stage_with_arguments", func(t *testing.T) {
		program := parse(t, "val r = x |> scale(2)")
		pipe, ok := bindingValue(t, program).(*ast.PipeExpression)
		if !ok {
			t.Fatalf("value is %T, want pipe", bindingValue(t, program))
		}
		call, ok := pipe.Right.(*ast.CallExpression)
		if !ok || len(call.Arguments) != 1 {
			t.Fatalf("stage: got %T, want scale(2)", pipe.Right)
		}
	})

	t.Run("mutable_pipe_marks_binding", func(t *testing.T) {
		program := parse(t, "val r = x |>> step")
		vb := program.Statements[0].(*ast.ValBinding)
		if !vb.Mutable {
			t.Error("|>> chain should make the receiving binding mutable")
		}
	})

	t.Run("plain_pipe_keeps_binding_immutable", func(t *testing.T) {
		program := parse(t, "val r = x |> step")
		vb := program.Statements[0].(*ast.ValBinding)
		if vb.Mutable {
			t.Error("|> chain should not make the binding mutable")
		}
	})
}

func TestOperatorPrecedence(t *testing.T) {
	program := parse(t, "val r = 1 + 2 * 3")
	add, ok := bindingValue(t, program).(*ast.InfixExpression)
	if !ok || add.Operator != "+" {
		t.Fatalf("root: got %v, want +", bindingValue(t, program))
	}
	mul, ok := add.Right.(*ast.InfixExpression)
	if !ok || mul.Operator != "*" {
		t.Errorf("right: got %v, want 2 * 3", add.Right)
	}
}

func TestRecordLiteralDisambiguation(t *testing.T) {
	t.Run("literal_in_binding", func(t *testing.T) {
		program := parse(t, "val p = Point { x: 1, y: 2 }")
		lit, ok := bindingValue(t, program).(*ast.RecordLiteral)
		if !ok {
			t.Fatalf("value is %T, want *ast.RecordLiteral", bindingValue(t, program))
		}
		if lit.Name.Value != "Point" || len(lit.Fields) != 2 {
			t.Errorf("literal: got %s with %d fields", lit.Name.Value, len(lit.Fields))
		}
	})

	t.Run("no_literal_in_if_condition", func(t *testing.T) {
		program := parse(t, "if ready { 1 } else { 2 }")
		es, ok := program.Statements[0].(*ast.ExpressionStatement)
		if !ok {
			t.Fatalf("statement is %T", program.Statements[0])
		}
		ie, ok := es.Expression.(*ast.IfExpression)
		if !ok {
			t.Fatalf("expression is %T, want if", es.Expression)
		}
		if _, ok := ie.Condition.(*ast.Identifier); !ok {
			t.Errorf("condition is %T; the brace must open the block, not a record literal", ie.Condition)
		}
	})

	t.Run("no_literal_in_match_scrutinee", func(t *testing.T) {
		program := parse(t, "match flag {\n    _ -> { 0 }\n}")
		es := program.Statements[0].(*ast.ExpressionStatement)
		me, ok := es.Expression.(*ast.MatchExpression)
		if !ok {
			t.Fatalf("expression is %T, want match", es.Expression)
		}
		if _, ok := me.Scrutinee.(*ast.Identifier); !ok {
			t.Errorf("scrutinee is %T, want identifier", me.Scrutinee)
		}
	})
}

func TestDotForms(t *testing.T) {
	t.Run("field_access", func(t *testing.T) {
		program := parse(t, "val a = p.x")
		fa, ok := bindingValue(t, program).(*ast.FieldAccess)
		if !ok || fa.Field.Value != "x" {
			t.Fatalf("value is %T, want field access .x", bindingValue(t, program))
		}
	})
	t.Run("method_call", func(t *testing.T) {
		program := parse(t, "val a = p.scaled(2)")
		mc, ok := bindingValue(t, program).(*ast.MethodCall)
		if !ok || mc.Method.Value != "scaled" || len(mc.Arguments) != 1 {
			t.Fatalf("value is %T, want method call", bindingValue(t, program))
		}
	})
	t.Run("clone_with_overrides", func(t *testing.T) {
		program := parse(t, "val q = p.clone { x: 3 }")
		ce, ok := bindingValue(t, program).(*ast.CloneExpression)
		if !ok || len(ce.Overrides) != 1 {
			t.Fatalf("value is %T, want clone with one override", bindingValue(t, program))
		}
		if ce.Overrides[0].Name.Value != "x" {
			t.Errorf("override: got %s, want x", ce.Overrides[0].Name.Value)
		}
	})
	t.Run("freeze", func(t *testing.T) {
		program := parse(t, "val f = p.freeze")
		fe, ok := bindingValue(t, program).(*ast.FreezeExpression)
		if !ok {
			t.Fatalf("value is %T, want freeze", bindingValue(t, program))
		}
		if id, ok := fe.Target.(*ast.Identifier); !ok || id.Value != "p" {
			t.Errorf("target: got %v, want p", fe.Target)
		}
	})
}

func TestFunctionDeclarations(t *testing.T) {
	t.Run("full_signature", func(t *testing.T) {
		program := parse(t, "fun add(a: Int, b: Int) -> Int = { a + b }")
		fd, ok := program.Statements[0].(*ast.FunctionDeclaration)
		if !ok {
			t.Fatalf("statement is %T", program.Statements[0])
		}
		if fd.Name.Value != "add" || len(fd.Params) != 2 || fd.ReturnType == nil {
			t.Errorf("signature: name=%s params=%d ret=%v", fd.Name.Value, len(fd.Params), fd.ReturnType)
		}
	})
	t.Run("required_contexts", func(t *testing.T) {
		program := parse(t, "fun log(m: String) -> Unit with Logger, Db = { println(m) }")
		fd := program.Statements[0].(*ast.FunctionDeclaration)
		if len(fd.Contexts) != 2 || fd.Contexts[0].Value != "Logger" || fd.Contexts[1].Value != "Db" {
			t.Errorf("contexts: got %v", fd.Contexts)
		}
	})
	t.Run("impl_block_with_bare_self", func(t *testing.T) {
		program := parse(t, "impl Point {\n    fun norm(self) -> Int = { 1 }\n}")
		blk, ok := program.Statements[0].(*ast.ImplBlock)
		if !ok || blk.Target.Value != "Point" || len(blk.Methods) != 1 {
			t.Fatalf("impl: %v", program.Statements[0])
		}
		self := blk.Methods[0].Params[0]
		if self.Name.Value != "self" || self.TypeAnnotation != nil {
			t.Errorf("self param should carry no annotation, got %v", self.TypeAnnotation)
		}
	})
}

func TestWithExpressions(t *testing.T) {
	t.Run("lifetime", func(t *testing.T) {
		program := parse(t, "val r = with lifetime<'a> { 1 }")
		we, ok := bindingValue(t, program).(*ast.WithLifetimeExpression)
		if !ok || we.Name != "a" || we.Within != "" {
			t.Fatalf("value: %#v", bindingValue(t, program))
		}
	})
	t.Run("nested_lifetime", func(t *testing.T) {
		program := parse(t, "val r = with lifetime<'a within 'b> { 1 }")
		we, ok := bindingValue(t, program).(*ast.WithLifetimeExpression)
		if !ok || we.Name != "a" || we.Within != "b" {
			t.Fatalf("value: %#v", bindingValue(t, program))
		}
	})
	t.Run("context", func(t *testing.T) {
		program := parse(t, "val r = with Logger { level: 3 } { 1 }")
		we, ok := bindingValue(t, program).(*ast.WithContextExpression)
		if !ok || we.Context.Value != "Logger" || len(we.Fields) != 1 {
			t.Fatalf("value: %#v", bindingValue(t, program))
		}
	})
}

func TestMatchParsing(t *testing.T) {
	program := parse(t, `match x {
    Some(v) if v > 0 -> { v }
    Some(v) -> { 0 - v }
    None -> { 0 }
}`)
	es := program.Statements[0].(*ast.ExpressionStatement)
	me := es.Expression.(*ast.MatchExpression)
	if len(me.Arms) != 3 {
		t.Fatalf("arms: got %d, want 3", len(me.Arms))
	}
	if me.Arms[0].Guard == nil {
		t.Error("first arm should carry a guard")
	}
	first, ok := me.Arms[0].Pattern.(*ast.ConstructorPattern)
	if !ok || first.Name.Value != "Some" || len(first.Elements) != 1 {
		t.Errorf("first pattern: %#v", me.Arms[0].Pattern)
	}
}

func TestListPatterns(t *testing.T) {
	program := parse(t, `match xs {
    [] -> { 0 }
    [h | t] -> { h }
}`)
	es := program.Statements[0].(*ast.ExpressionStatement)
	me := es.Expression.(*ast.MatchExpression)
	empty, ok := me.Arms[0].Pattern.(*ast.ListPattern)
	if !ok || !empty.Empty {
		t.Errorf("first pattern: %#v", me.Arms[0].Pattern)
	}
	cons, ok := me.Arms[1].Pattern.(*ast.ListPattern)
	if !ok || cons.Empty || cons.Head == nil || cons.Tail == nil {
		t.Errorf("second pattern: %#v", me.Arms[1].Pattern)
	}
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		code  diagnostics.Code
	}{
		{"match_arm_not_a_block", "match x { 1 -> 2 }", diagnostics.ErrP005},
		{"unterminated_block", "fun f() -> Int = { 1", diagnostics.ErrP002},
		{"missing_binding_name", "val = 1", diagnostics.ErrP002},
		{"dot_without_member", "val a = p.", diagnostics.ErrP001},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			errs := parseErrors(tc.input)
			if len(errs) == 0 {
				t.Fatal("expected a diagnostic, got none")
			}
			found := false
			for _, e := range errs {
				if e.Code == tc.code {
					found = true
				}
			}
			if !found {
				t.Errorf("missing code %s in %v", tc.code, errs)
			}
		})
	}
}
