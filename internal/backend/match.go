package backend

import (
	"strconv"

	"github.com/veld-lang/veld/internal/ast"
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/typesystem"
)

// match compiles a match expression into a chain of typed ifs. Each arm's
// test leaves an i32 on the stack, performing its bindings on the way, so
// a guard can see the pattern's names before the arm commits.
func (fc *funcCompiler) match(me *ast.MatchExpression, env *env) {
	scrutType := fc.typeOf(me.Scrutinee)
	scrutVT, hasScrut := valType(scrutType)
	fc.expr(me.Scrutinee, env)
	scrut := ""
	if hasScrut {
		scrut = fc.newLocal(scrutVT, "scrut")
		fc.emit("local.set %s", scrut)
	}

	resultVT, hasResult := fc.lowered(me)
	fc.matchArms(me.Arms, scrut, scrutType, resultVT, hasResult, env)
}

func (fc *funcCompiler) matchArms(arms []*ast.MatchArm, scrut string, scrutType typesystem.Type, resultVT string, hasResult bool, env *env) {
	if len(arms) == 0 {
		// The checker proved exhaustiveness, so this point is unreachable.
		fc.emit("unreachable")
		return
	}
	arm := arms[0]
	armEnv := newEnv(env)

	fc.patternTest(arm.Pattern, scrut, scrutType, armEnv)
	if arm.Guard != nil {
		fc.emit("if (result i32)")
		fc.expr(arm.Guard, armEnv)
		fc.emit("else")
		fc.emit("i32.const 0")
		fc.emit("end")
	}
	if hasResult {
		fc.emit("if (result %s)", resultVT)
	} else {
		fc.emit("if")
	}
	fc.block(arm.Body, armEnv)
	if !hasResult {
		if _, bodyVal := fc.lowered(arm.Body); bodyVal {
			fc.emit("drop")
		}
	}
	fc.emit("else")
	fc.matchArms(arms[1:], scrut, scrutType, resultVT, hasResult, env)
	fc.emit("end")
}

// patternTest emits instructions leaving 1 when scrut matches, binding the
// pattern's names as a side effect. Bindings stored on a failed path are
// dead; the enclosing if never runs the arm.
func (fc *funcCompiler) patternTest(pat ast.Pattern, scrut string, t typesystem.Type, env *env) {
	t = typesystem.Erase(t)
	if fc.subst != nil {
		t = typesystem.Erase(t.Apply(fc.subst))
	}

	switch p := pat.(type) {
	case *ast.WildcardPattern:
		fc.emit("i32.const 1")

	case *ast.IdentifierPattern:
		vt, has := valType(t)
		if has {
			local := fc.newLocal(vt, p.Name)
			fc.emit("local.get %s", scrut)
			fc.emit("local.set %s", local)
			env.bind(p.Name, local, t)
		} else {
			env.bind(p.Name, "", t)
		}
		fc.emit("i32.const 1")

	case *ast.LiteralPattern:
		fc.literalTest(p, scrut, t)

	case *ast.ConstructorPattern:
		fc.constructorTest(p, scrut, t, env)

	case *ast.ListPattern:
		fc.listTest(p, scrut, t, env)

	case *ast.RecordPattern:
		fc.recordTest(p, scrut, t, env)

	default:
		fc.g.errorAt(diagnostics.ErrC002, pat.GetToken(), "unsupported pattern")
		fc.emit("i32.const 0")
	}
}

func (fc *funcCompiler) literalTest(p *ast.LiteralPattern, scrut string, t typesystem.Type) {
	fc.emit("local.get %s", scrut)
	switch lit := p.Value.(type) {
	case *ast.IntegerLiteral:
		fc.emit("i64.const %d", lit.Value)
		fc.emit("i64.eq")
	case *ast.FloatLiteral:
		fc.emit("f64.const %s", strconv.FormatFloat(lit.Value, 'g', -1, 64))
		fc.emit("f64.eq")
	case *ast.BooleanLiteral:
		if lit.Value {
			// scrutinee is already the test
		} else {
			fc.emit("i32.eqz")
		}
	case *ast.StringLiteral:
		fc.emit("i32.const %d", fc.g.internString(lit.Value))
		fc.emit("call $veld.str_eq")
	default:
		fc.g.errorAt(diagnostics.ErrC002, p.Token, "unsupported literal pattern")
		fc.emit("drop")
		fc.emit("i32.const 0")
	}
}

func (fc *funcCompiler) constructorTest(p *ast.ConstructorPattern, scrut string, t typesystem.Type, env *env) {
	shape, ok := shapeFor(t)
	if !ok {
		fc.g.errorAt(diagnostics.ErrC001, p.Token, "pattern %s on unresolved scrutinee", p.Name.Value)
		fc.emit("i32.const 0")
		return
	}
	tag, known := shape.tags[p.Name.Value]
	if !known {
		fc.emit("i32.const 0")
		return
	}
	payload := shape.payloads[p.Name.Value]

	fc.emit("local.get %s", scrut)
	fc.emit("i32.load")
	fc.emit("i32.const %d", tag)
	fc.emit("i32.eq")
	if len(p.Elements) == 0 {
		return
	}
	// Sub-patterns only run once the tag matched, so payload loads are
	// always within this variant's slots.
	fc.emit("if (result i32)")
	for i, el := range p.Elements {
		if i >= len(payload) {
			break
		}
		vt, has := valType(payload[i])
		if !has {
			vt = "i32"
		}
		slot := fc.newLocal(vt, "payload")
		fc.emit("local.get %s", scrut)
		fc.emit("%s offset=%d", loadOp(vt), payloadOffset(i))
		fc.emit("local.set %s", slot)
		fc.patternTest(el, slot, payload[i], env)
		if i > 0 {
			fc.emit("i32.and")
		}
	}
	fc.emit("else")
	fc.emit("i32.const 0")
	fc.emit("end")
}

func (fc *funcCompiler) listTest(p *ast.ListPattern, scrut string, t typesystem.Type, env *env) {
	if p.Empty {
		fc.emit("local.get %s", scrut)
		fc.emit("i32.eqz")
		return
	}
	elem := typesystem.Type(typesystem.IntType)
	if app, ok := t.(typesystem.TApp); ok && len(app.Args) == 1 {
		elem = app.Args[0]
	}
	elemVT, has := valType(elem)
	if !has {
		elemVT = "i64"
	}

	fc.emit("local.get %s", scrut)
	fc.emit("i32.const 0")
	fc.emit("i32.ne")
	fc.emit("if (result i32)")
	head := fc.newLocal(elemVT, "head")
	tail := fc.newLocal("i32", "tail")
	fc.emit("local.get %s", scrut)
	fc.emit("%s offset=%d", loadOp(elemVT), listHeadOffset)
	fc.emit("local.set %s", head)
	fc.emit("local.get %s", scrut)
	fc.emit("i32.load offset=%d", listTailOffset)
	fc.emit("local.set %s", tail)
	fc.patternTest(p.Head, head, elem, env)
	fc.patternTest(p.Tail, tail, t, env)
	fc.emit("i32.and")
	fc.emit("else")
	fc.emit("i32.const 0")
	fc.emit("end")
}

func (fc *funcCompiler) recordTest(p *ast.RecordPattern, scrut string, t typesystem.Type, env *env) {
	rec, ok := t.(typesystem.TRecord)
	if !ok {
		fc.g.errorAt(diagnostics.ErrC001, p.Token, "record pattern on unresolved scrutinee")
		fc.emit("i32.const 0")
		return
	}
	l := layoutOf(rec)

	emitted := 0
	for _, f := range p.Fields {
		ft, found := l.types[f.Name.Value]
		if !found {
			continue
		}
		vt, has := valType(ft)
		if !has {
			vt = "i32"
		}
		slot := fc.newLocal(vt, f.Name.Value)
		fc.emit("local.get %s", scrut)
		fc.emit("%s offset=%d", loadOp(vt), l.offsets[f.Name.Value])
		fc.emit("local.set %s", slot)
		if f.Pattern == nil {
			env.bind(f.Name.Value, slot, ft)
			continue
		}
		fc.patternTest(f.Pattern, slot, ft, env)
		emitted++
		if emitted > 1 {
			fc.emit("i32.and")
		}
	}
	if emitted == 0 {
		fc.emit("i32.const 1")
	}
}
