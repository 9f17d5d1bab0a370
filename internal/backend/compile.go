package backend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/veld-lang/veld/internal/ast"
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/symbols"
	"github.com/veld-lang/veld/internal/typesystem"
)

// funcSource pairs a declaration with its checked signature, keyed by the
// wasm symbol it compiles to.
type funcSource struct {
	decl     *ast.FunctionDeclaration
	info     *symbols.FuncInfo
	receiver string
	baseSym  string
}

func isGenericSig(fn typesystem.TFunc) bool {
	for _, v := range fn.FreeTypeVariables() {
		if strings.HasPrefix(v.Name, "g_") {
			return true
		}
	}
	return false
}

func (g *generator) compileProgram(program *ast.Program) {
	g.sources = make(map[string]*funcSource)

	var order []*funcSource
	for _, stmt := range program.Statements {
		switch decl := stmt.(type) {
		case *ast.FunctionDeclaration:
			info := g.table.Functions[decl.Name.Value]
			if info == nil {
				continue
			}
			src := &funcSource{decl: decl, info: info, baseSym: decl.Name.Value}
			g.sources[src.baseSym] = src
			order = append(order, src)
		case *ast.ImplBlock:
			for _, m := range decl.Methods {
				mi, ok := g.table.Method(decl.Target.Value, m.Name.Value)
				if !ok {
					continue
				}
				src := &funcSource{decl: m, info: &mi.FuncInfo, receiver: mi.Receiver, baseSym: mi.Symbol}
				g.sources[src.baseSym] = src
				order = append(order, src)
			}
		}
	}

	for _, src := range order {
		if !isGenericSig(src.info.Type) {
			g.compileFunc(src, src.baseSym, nil)
		}
	}
	g.compileMain(program)

	for len(g.pending) > 0 {
		inst := g.pending[0]
		g.pending = g.pending[1:]
		if inst.compiled {
			continue
		}
		inst.compiled = true
		g.compileFunc(inst.src, inst.symbol, inst.subst)
	}
}

// requestInstance queues a monomorphic copy of a generic function and
// returns its symbol.
func (g *generator) requestInstance(src *funcSource, subst typesystem.Subst) string {
	concrete := src.info.Type.Apply(subst).(typesystem.TFunc)
	sym := src.baseSym + "@" + monoKey(concrete.Params)
	if _, ok := g.instances[sym]; !ok {
		inst := &instance{symbol: sym, src: src, subst: subst}
		g.instances[sym] = inst
		g.pending = append(g.pending, inst)
	}
	return sym
}

// compileMain lowers the top-level statement sequence into the WASI entry
// point. A zero-argument main function stands in when the file has no
// top-level code.
func (g *generator) compileMain(program *ast.Program) {
	fc := newFuncCompiler(g, nil)
	env := newEnv(nil)

	ran := false
	for _, stmt := range program.Statements {
		switch stmt.(type) {
		case *ast.FunctionDeclaration, *ast.RecordDeclaration, *ast.EnumDeclaration,
			*ast.ContextDeclaration, *ast.ImplBlock:
			continue
		}
		ran = true
		fc.stmt(stmt, env, false)
	}
	if !ran {
		if src, ok := g.sources["main"]; ok && len(src.info.Type.Params) == 0 && len(src.info.Contexts) == 0 {
			fc.emit("call $%s", src.baseSym)
			if _, hasVal := valType(src.info.Type.ReturnType); hasVal {
				fc.emit("drop")
			}
		}
	}
	g.funcs = append(g.funcs, fc.render("veld.main", "", ""))
}

func (g *generator) compileFunc(src *funcSource, symbol string, subst typesystem.Subst) {
	fc := newFuncCompiler(g, subst)
	env := newEnv(nil)

	sig := src.info.Type
	if subst != nil {
		sig = sig.Apply(subst).(typesystem.TFunc)
	}

	var params strings.Builder
	for i, p := range src.decl.Params {
		vt, ok := valType(sig.Params[i])
		if !ok {
			// Unit parameter: carried as a dummy i32 so arity lines up.
			vt = "i32"
		}
		name := fmt.Sprintf("p.%s", p.Name.Value)
		fmt.Fprintf(&params, " (param $%s %s)", name, vt)
		env.bind(p.Name.Value, "$"+name, sig.Params[i])
	}
	for _, cname := range src.info.Contexts {
		name := "ctx." + cname
		fmt.Fprintf(&params, " (param $%s i32)", name)
		env.bind(cname, "$"+name, g.table.Contexts[cname])
	}

	result := ""
	retVT, hasRet := valType(sig.ReturnType)
	if hasRet {
		result = fmt.Sprintf(" (result %s)", retVT)
	}

	fc.expr(src.decl.Body, env)
	if _, bodyHas := fc.lowered(src.decl.Body); bodyHas && !hasRet {
		fc.emit("drop")
	}

	g.funcs = append(g.funcs, fc.render(symbol, params.String(), result))
}

type instance struct {
	symbol   string
	src      *funcSource
	subst    typesystem.Subst
	compiled bool
}

// env maps source bindings to wasm locals, with lexical shadowing.
type env struct {
	parent *env
	vars   map[string]envEntry
}

type envEntry struct {
	local string
	typ   typesystem.Type
}

func newEnv(parent *env) *env {
	return &env{parent: parent, vars: make(map[string]envEntry)}
}

func (e *env) bind(name, local string, t typesystem.Type) {
	e.vars[name] = envEntry{local: local, typ: t}
}

func (e *env) lookup(name string) (envEntry, bool) {
	for s := e; s != nil; s = s.parent {
		if ent, ok := s.vars[name]; ok {
			return ent, true
		}
	}
	return envEntry{}, false
}

type funcCompiler struct {
	g      *generator
	subst  typesystem.Subst
	body   strings.Builder
	locals []string
	n      int
}

func newFuncCompiler(g *generator, subst typesystem.Subst) *funcCompiler {
	return &funcCompiler{g: g, subst: subst}
}

func (fc *funcCompiler) emit(format string, args ...interface{}) {
	fc.body.WriteString("    ")
	fmt.Fprintf(&fc.body, format, args...)
	fc.body.WriteByte('\n')
}

func (fc *funcCompiler) newLocal(vt, hint string) string {
	fc.n++
	name := fmt.Sprintf("$v%d.%s", fc.n, hint)
	fc.locals = append(fc.locals, fmt.Sprintf("(local %s %s)", name, vt))
	return name
}

func (fc *funcCompiler) render(symbol, params, result string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  (func $%s%s%s\n", symbol, params, result)
	for _, l := range fc.locals {
		b.WriteString("    " + l + "\n")
	}
	b.WriteString(fc.body.String())
	b.WriteString("  )\n")
	return b.String()
}

// typeOf resolves an expression's checked type under the current
// monomorphization substitution.
func (fc *funcCompiler) typeOf(e ast.Expression) typesystem.Type {
	t := e.ResolvedType()
	if t == nil {
		fc.g.errorAt(diagnostics.ErrC001, e.GetToken(), "expression reached codegen without a type")
		return typesystem.UnitType
	}
	if fc.subst != nil {
		t = t.Apply(fc.subst)
	}
	return typesystem.Erase(t)
}

// lowered is typeOf plus the wasm lowering.
func (fc *funcCompiler) lowered(e ast.Expression) (string, bool) {
	return valType(fc.typeOf(e))
}

func (fc *funcCompiler) stmt(s ast.Statement, env *env, final bool) {
	switch st := s.(type) {
	case *ast.ValBinding:
		fc.expr(st.Value, env)
		t := fc.typeOf(st.Value)
		vt, has := valType(t)
		if !has {
			env.bind(st.Name.Value, "", t)
			return
		}
		local := fc.newLocal(vt, st.Name.Value)
		fc.emit("local.set %s", local)
		env.bind(st.Name.Value, local, t)
	case *ast.AssignStatement:
		fc.expr(st.Value, env)
		ent, ok := env.lookup(st.Name.Value)
		if !ok || ent.local == "" {
			return
		}
		fc.emit("local.set %s", ent.local)
	case *ast.ExpressionStatement:
		fc.expr(st.Expression, env)
		if !final {
			if _, has := fc.lowered(st.Expression); has {
				fc.emit("drop")
			}
		}
	}
}

func (fc *funcCompiler) block(blk *ast.BlockExpression, env *env) {
	inner := newEnv(env)
	for i, s := range blk.Statements {
		fc.stmt(s, inner, i == len(blk.Statements)-1)
	}
}

func (fc *funcCompiler) expr(e ast.Expression, env *env) {
	switch ex := e.(type) {
	case *ast.IntegerLiteral:
		fc.emit("i64.const %d", ex.Value)
	case *ast.FloatLiteral:
		fc.emit("f64.const %s", strconv.FormatFloat(ex.Value, 'g', -1, 64))
	case *ast.BooleanLiteral:
		if ex.Value {
			fc.emit("i32.const 1")
		} else {
			fc.emit("i32.const 0")
		}
	case *ast.StringLiteral:
		fc.emit("i32.const %d ;; %q", fc.g.internString(ex.Value), ex.Value)
	case *ast.Identifier:
		fc.identifier(ex, env)
	case *ast.PrefixExpression:
		fc.prefix(ex, env)
	case *ast.InfixExpression:
		fc.infix(ex, env)
	case *ast.CallExpression:
		fc.application(ex, ex.Function, nil, ex.Arguments, env)
	case *ast.PipeExpression:
		fc.pipe(ex, env)
	case *ast.BlockExpression:
		fc.block(ex, env)
	case *ast.IfExpression:
		fc.ifExpr(ex, env)
	case *ast.MatchExpression:
		fc.match(ex, env)
	case *ast.WithContextExpression:
		fc.withContext(ex, env)
	case *ast.WithLifetimeExpression:
		fc.withLifetime(ex, env)
	case *ast.FieldAccess:
		fc.fieldAccess(ex, env)
	case *ast.MethodCall:
		fc.methodCall(ex, env)
	case *ast.CloneExpression:
		fc.clone(ex, env)
	case *ast.FreezeExpression:
		// freeze is checker-only; the value flows through untouched
		fc.expr(ex.Target, env)
	case *ast.RecordLiteral:
		fc.recordLiteral(ex, env)
	case *ast.ListLiteral:
		fc.listLiteral(ex, env)
	default:
		fc.g.errorAt(diagnostics.ErrC002, e.GetToken(), "construct is not supported by the wasm backend")
	}
}

func (fc *funcCompiler) identifier(id *ast.Identifier, env *env) {
	if ent, ok := env.lookup(id.Value); ok {
		if ent.local != "" {
			fc.emit("local.get %s", ent.local)
		}
		return
	}
	// bare constructors: None, payload-free enum variants
	if id.Value == "None" {
		fc.emitEnumBox(id, "None", nil, env)
		return
	}
	if _, ok := fc.g.table.VariantOwner[id.Value]; ok {
		fc.emitEnumBox(id, id.Value, nil, env)
		return
	}
	fc.g.errorAt(diagnostics.ErrC002, id.Token,
		"functions are not first-class values in the wasm backend")
}

func (fc *funcCompiler) prefix(pe *ast.PrefixExpression, env *env) {
	switch pe.Operator {
	case "-":
		if vt, _ := fc.lowered(pe.Right); vt == "f64" {
			fc.expr(pe.Right, env)
			fc.emit("f64.neg")
			return
		}
		fc.emit("i64.const 0")
		fc.expr(pe.Right, env)
		fc.emit("i64.sub")
	case "!":
		fc.expr(pe.Right, env)
		fc.emit("i32.eqz")
	}
}

func (fc *funcCompiler) infix(ie *ast.InfixExpression, env *env) {
	operand := fc.typeOf(ie.Left)
	vt, _ := valType(operand)

	fc.expr(ie.Left, env)
	fc.expr(ie.Right, env)

	str := typesystem.Erase(operand) == typesystem.Type(typesystem.StringType)
	switch ie.Operator {
	case "+":
		if str {
			fc.emit("call $veld.str_concat")
			return
		}
		fc.emit("%s.add", vt)
	case "-":
		fc.emit("%s.sub", vt)
	case "*":
		fc.emit("%s.mul", vt)
	case "/":
		if vt == "f64" {
			fc.emit("f64.div")
		} else {
			fc.emit("i64.div_s")
		}
	case "%":
		fc.emit("i64.rem_s")
	case "==", "!=":
		fc.equality(ie, operand, vt, str)
	case "<", "<=", ">", ">=":
		fc.comparison(ie.Operator, vt)
	default:
		fc.g.errorAt(diagnostics.ErrC002, ie.Token, "operator %s is not supported", ie.Operator)
	}
}

func (fc *funcCompiler) equality(ie *ast.InfixExpression, operand typesystem.Type, vt string, str bool) {
	switch {
	case str:
		fc.emit("call $veld.str_eq")
	case vt == "i64":
		fc.emit("i64.eq")
	case vt == "f64":
		fc.emit("f64.eq")
	case typesystem.Erase(operand) == typesystem.Type(typesystem.BoolType):
		fc.emit("i32.eq")
	default:
		fc.g.errorAt(diagnostics.ErrC002, ie.Token,
			"equality on %s is not supported; match on its structure instead", operand)
		return
	}
	if ie.Operator == "!=" {
		fc.emit("i32.eqz")
	}
}

func (fc *funcCompiler) comparison(op, vt string) {
	suffix := map[string]string{"<": "lt", "<=": "le", ">": "gt", ">=": "ge"}[op]
	if vt == "f64" {
		fc.emit("f64.%s", suffix)
		return
	}
	fc.emit("i64.%s_s", suffix)
}

func (fc *funcCompiler) pipe(pe *ast.PipeExpression, env *env) {
	switch r := pe.Right.(type) {
	case *ast.Identifier:
		fc.application(pe, r, []ast.Expression{pe.Left}, nil, env)
	case *ast.CallExpression:
		fc.application(pe, r.Function, []ast.Expression{pe.Left}, r.Arguments, env)
	default:
		fc.g.errorAt(diagnostics.ErrC002, pe.Token, "unsupported pipe target")
	}
}

// application compiles every call form. node carries the call's resolved
// result type; leading holds piped values that become the first arguments.
func (fc *funcCompiler) application(node ast.Expression, fn ast.Expression, leading, args []ast.Expression, env *env) {
	id, ok := fn.(*ast.Identifier)
	if !ok {
		fc.g.errorAt(diagnostics.ErrC002, fn.GetToken(),
			"only named functions can be called in the wasm backend")
		return
	}
	name := id.Value
	all := append(append([]ast.Expression{}, leading...), args...)

	if _, bound := env.lookup(name); bound {
		fc.g.errorAt(diagnostics.ErrC002, id.Token,
			"functions are not first-class values in the wasm backend")
		return
	}

	if src, found := fc.g.sources[name]; found {
		fc.callFunction(node, src, all, env, id)
		return
	}
	switch name {
	case "Some", "Ok", "Err":
		fc.emitEnumBox(node, name, all, env)
		return
	}
	if _, isVariant := fc.g.table.VariantOwner[name]; isVariant {
		fc.emitEnumBox(node, name, all, env)
		return
	}
	fc.builtin(node, id, name, all, env)
}

func (fc *funcCompiler) callFunction(node ast.Expression, src *funcSource, args []ast.Expression, env *env, id *ast.Identifier) {
	for _, arg := range args {
		fc.expr(arg, env)
	}
	for _, cname := range src.info.Contexts {
		ent, ok := env.lookup(cname)
		if !ok || ent.local == "" {
			fc.g.errorAt(diagnostics.ErrC001, id.Token, "context %s is not materialized here", cname)
			return
		}
		fc.emit("local.get %s", ent.local)
	}
	sym := src.baseSym
	if isGenericSig(src.info.Type) {
		subst, ok := fc.deriveInstance(src, node, args, id)
		if !ok {
			return
		}
		sym = fc.g.requestInstance(src, subst)
	}
	fc.emit("call $%s", sym)
}

// deriveInstance recovers the concrete types a generic call binds, by
// unifying the declared signature with the call site's resolved types.
func (fc *funcCompiler) deriveInstance(src *funcSource, node ast.Expression, args []ast.Expression, id *ast.Identifier) (typesystem.Subst, bool) {
	subst := typesystem.Subst{}
	sig := src.info.Type
	for i, arg := range args {
		if i >= len(sig.Params) {
			break
		}
		s, err := typesystem.Unify(sig.Params[i].Apply(subst), fc.typeOf(arg))
		if err != nil {
			continue
		}
		subst = s.Compose(subst)
	}
	if s, err := typesystem.Unify(sig.ReturnType.Apply(subst), fc.typeOf(node)); err == nil {
		subst = s.Compose(subst)
	}
	if isGenericSig(sig.Apply(subst).(typesystem.TFunc)) {
		fc.g.errorAt(diagnostics.ErrC001, id.Token,
			"cannot determine a concrete instantiation for %s", src.baseSym)
		return nil, false
	}
	return subst, true
}

func (fc *funcCompiler) builtin(node ast.Expression, id *ast.Identifier, name string, args []ast.Expression, env *env) {
	switch name {
	case "println", "print":
		if len(args) != 1 {
			return
		}
		fc.expr(args[0], env)
		t := fc.typeOf(args[0])
		switch {
		case typesystem.Erase(t) == typesystem.Type(typesystem.IntType):
			fc.emit("call $veld.print_i64")
		case typesystem.Erase(t) == typesystem.Type(typesystem.FloatType):
			fc.emit("call $veld.print_f64")
		case typesystem.Erase(t) == typesystem.Type(typesystem.BoolType):
			fc.emit("call $veld.print_bool")
		case typesystem.Erase(t) == typesystem.Type(typesystem.StringType):
			fc.emit("call $veld.print_str")
		default:
			fc.g.errorAt(diagnostics.ErrC002, id.Token, "%s cannot print a value of type %s", name, t)
			return
		}
		if name == "println" {
			fc.emit("call $veld.nl")
		}
	case "show":
		if len(args) != 1 {
			return
		}
		fc.expr(args[0], env)
		t := fc.typeOf(args[0])
		switch {
		case typesystem.Erase(t) == typesystem.Type(typesystem.IntType):
			fc.emit("call $veld.show_i64")
		case typesystem.Erase(t) == typesystem.Type(typesystem.StringType):
			// already a string
		default:
			fc.g.errorAt(diagnostics.ErrC002, id.Token, "show cannot render a value of type %s", t)
		}
	case "exit":
		if len(args) != 1 {
			return
		}
		fc.expr(args[0], env)
		fc.emit("i32.wrap_i64")
		fc.emit("call $proc_exit")
	default:
		fc.g.errorAt(diagnostics.ErrC001, id.Token, "unknown function %s reached codegen", name)
	}
}

// emitEnumBox allocates a tagged box for a constructor application.
func (fc *funcCompiler) emitEnumBox(node ast.Expression, ctor string, args []ast.Expression, env *env) {
	shape, ok := shapeFor(fc.typeOf(node))
	if !ok {
		fc.g.errorAt(diagnostics.ErrC001, node.GetToken(),
			"constructor %s has an unresolved result type", ctor)
		return
	}
	tag := shape.tags[ctor]
	p := fc.newLocal("i32", strings.ToLower(ctor))

	fc.emit("i32.const %d", enumBoxSize(shape.maxPayload))
	fc.emit("call $veld.alloc")
	fc.emit("local.set %s", p)
	fc.emit("local.get %s", p)
	fc.emit("i32.const %d", tag)
	fc.emit("i32.store")
	for i, arg := range args {
		fc.emit("local.get %s", p)
		fc.expr(arg, env)
		vt, has := fc.lowered(arg)
		if !has {
			vt = "i32"
			fc.emit("i32.const 0")
		}
		fc.emit("%s offset=%d", storeOp(vt), payloadOffset(i))
	}
	fc.emit("local.get %s", p)
}

func (fc *funcCompiler) ifExpr(ie *ast.IfExpression, env *env) {
	fc.expr(ie.Condition, env)
	vt, has := fc.lowered(ie)
	if has {
		fc.emit("if (result %s)", vt)
	} else {
		fc.emit("if")
	}
	fc.block(ie.Consequence, env)
	if !has {
		if _, consVal := fc.lowered(ie.Consequence); consVal {
			fc.emit("drop")
		}
	}
	if ie.Alternative != nil {
		fc.emit("else")
		fc.expr(ie.Alternative, env)
		if !has {
			if _, altVal := fc.lowered(ie.Alternative); altVal {
				fc.emit("drop")
			}
		}
	}
	fc.emit("end")
}

func (fc *funcCompiler) withContext(we *ast.WithContextExpression, env *env) {
	ctx := fc.g.table.Contexts[we.Context.Value]
	local := fc.buildRecord(ctx, we.Fields, env, strings.ToLower(we.Context.Value))
	inner := newEnv(env)
	inner.bind(we.Context.Value, local, ctx)
	fc.block(we.Body, inner)
}

// withLifetime brackets its body with an arena mark. The arena is only
// rewound when the block's value cannot point into it.
func (fc *funcCompiler) withLifetime(we *ast.WithLifetimeExpression, env *env) {
	t := fc.typeOf(we)
	save := fc.newLocal("i32", "arena")
	fc.emit("global.get $veld.hp")
	fc.emit("local.set %s", save)

	fc.expr(we.Body, env)

	if isPointer(t) {
		return
	}
	vt, has := valType(t)
	if has {
		keep := fc.newLocal(vt, "kept")
		fc.emit("local.set %s", keep)
		fc.emit("local.get %s", save)
		fc.emit("global.set $veld.hp")
		fc.emit("local.get %s", keep)
		return
	}
	fc.emit("local.get %s", save)
	fc.emit("global.set $veld.hp")
}

func (fc *funcCompiler) fieldAccess(fa *ast.FieldAccess, env *env) {
	rec, ok := typesystem.Erase(fc.typeOf(fa.Object)).(typesystem.TRecord)
	if !ok {
		fc.g.errorAt(diagnostics.ErrC001, fa.Token, "field access on unresolved value")
		return
	}
	l := layoutOf(rec)
	fc.expr(fa.Object, env)
	vt, has := valType(l.types[fa.Field.Value])
	if !has {
		fc.emit("drop")
		return
	}
	fc.emit("%s offset=%d", loadOp(vt), l.offsets[fa.Field.Value])
}

func (fc *funcCompiler) methodCall(mc *ast.MethodCall, env *env) {
	rec, ok := typesystem.Erase(fc.typeOf(mc.Object)).(typesystem.TRecord)
	if !ok {
		fc.g.errorAt(diagnostics.ErrC001, mc.Token, "method call on unresolved value")
		return
	}
	src, found := fc.g.sources[rec.Name+"."+mc.Method.Value]
	if !found {
		fc.g.errorAt(diagnostics.ErrC001, mc.Method.Token,
			"method %s.%s reached codegen without a body", rec.Name, mc.Method.Value)
		return
	}
	args := append([]ast.Expression{mc.Object}, mc.Arguments...)
	fc.callFunction(mc, src, args, env, mc.Method)
}

func (fc *funcCompiler) clone(ce *ast.CloneExpression, env *env) {
	rec, ok := typesystem.Erase(fc.typeOf(ce)).(typesystem.TRecord)
	if !ok {
		fc.g.errorAt(diagnostics.ErrC001, ce.Token, "clone of unresolved value")
		return
	}
	l := layoutOf(rec)
	src := fc.newLocal("i32", "src")
	dst := fc.newLocal("i32", "dst")

	fc.expr(ce.Source, env)
	fc.emit("local.set %s", src)
	fc.emit("i32.const %d", l.size)
	fc.emit("call $veld.alloc")
	fc.emit("local.set %s", dst)
	fc.emit("local.get %s", dst)
	fc.emit("local.get %s", src)
	fc.emit("i32.const %d", l.size)
	fc.emit("memory.copy")
	for _, init := range ce.Overrides {
		fc.emit("local.get %s", dst)
		fc.expr(init.Value, env)
		vt, has := valType(l.types[init.Name.Value])
		if !has {
			fc.emit("drop")
			continue
		}
		fc.emit("%s offset=%d", storeOp(vt), l.offsets[init.Name.Value])
	}
	fc.emit("local.get %s", dst)
}

func (fc *funcCompiler) recordLiteral(rl *ast.RecordLiteral, env *env) {
	rec, ok := typesystem.Erase(fc.typeOf(rl)).(typesystem.TRecord)
	if !ok {
		fc.g.errorAt(diagnostics.ErrC001, rl.Token, "record literal with unresolved type")
		return
	}
	local := fc.buildRecord(rec, rl.Fields, env, strings.ToLower(rec.Name))
	fc.emit("local.get %s", local)
}

// buildRecord allocates and fills a record, returning the wasm local
// holding its pointer.
func (fc *funcCompiler) buildRecord(rec typesystem.TRecord, inits []*ast.FieldInit, env *env, hint string) string {
	l := layoutOf(rec)
	p := fc.newLocal("i32", hint)
	fc.emit("i32.const %d", l.size)
	fc.emit("call $veld.alloc")
	fc.emit("local.set %s", p)
	for _, init := range inits {
		fc.emit("local.get %s", p)
		fc.expr(init.Value, env)
		vt, has := valType(l.types[init.Name.Value])
		if !has {
			fc.emit("drop")
			continue
		}
		fc.emit("%s offset=%d", storeOp(vt), l.offsets[init.Name.Value])
	}
	return p
}

func (fc *funcCompiler) listLiteral(ll *ast.ListLiteral, env *env) {
	elemVT := "i64"
	if app, ok := typesystem.Erase(fc.typeOf(ll)).(typesystem.TApp); ok && len(app.Args) == 1 {
		if vt, has := valType(app.Args[0]); has {
			elemVT = vt
		}
	}
	acc := fc.newLocal("i32", "list")
	cell := fc.newLocal("i32", "cell")
	fc.emit("i32.const 0")
	fc.emit("local.set %s", acc)
	for i := len(ll.Elements) - 1; i >= 0; i-- {
		fc.emit("i32.const %d", listCellSize)
		fc.emit("call $veld.alloc")
		fc.emit("local.set %s", cell)
		fc.emit("local.get %s", cell)
		fc.expr(ll.Elements[i], env)
		fc.emit("%s offset=%d", storeOp(elemVT), listHeadOffset)
		fc.emit("local.get %s", cell)
		fc.emit("local.get %s", acc)
		fc.emit("i32.store offset=%d", listTailOffset)
		fc.emit("local.get %s", cell)
		fc.emit("local.set %s", acc)
	}
	fc.emit("local.get %s", acc)
}
