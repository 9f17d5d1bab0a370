package analyzer

import (
	"fmt"
	"strings"

	"github.com/veld-lang/veld/internal/ast"
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/token"
	"github.com/veld-lang/veld/internal/typesystem"
)

// inferExpression infers an expression's type bottom-up, counting binding
// uses as it goes. It returns nil when the expression is too broken to have
// a type; callers treat nil as "already reported, stop here".
func (a *Analyzer) inferExpression(e ast.Expression, scope *Scope) typesystem.Type {
	switch expr := e.(type) {
	case *ast.Identifier:
		return a.setType(expr, a.inferIdentifier(expr, scope))
	case *ast.IntegerLiteral:
		return a.setType(expr, typesystem.IntType)
	case *ast.FloatLiteral:
		return a.setType(expr, typesystem.FloatType)
	case *ast.BooleanLiteral:
		return a.setType(expr, typesystem.BoolType)
	case *ast.StringLiteral:
		return a.setType(expr, typesystem.StringType)
	case *ast.PrefixExpression:
		return a.setType(expr, a.inferPrefix(expr, scope))
	case *ast.InfixExpression:
		return a.setType(expr, a.inferInfix(expr, scope))
	case *ast.CallExpression:
		return a.setType(expr, a.inferApplication(expr.Token, expr.Function, nil, expr.Arguments, scope))
	case *ast.PipeExpression:
		return a.setType(expr, a.inferPipe(expr, scope))
	case *ast.BlockExpression:
		return a.inferBlock(expr, NewScope(scope))
	case *ast.IfExpression:
		return a.setType(expr, a.inferIf(expr, scope))
	case *ast.MatchExpression:
		return a.setType(expr, a.inferMatch(expr, scope))
	case *ast.WithContextExpression:
		return a.setType(expr, a.inferWithContext(expr, scope))
	case *ast.WithLifetimeExpression:
		return a.setType(expr, a.inferWithLifetime(expr, scope))
	case *ast.FieldAccess:
		return a.setType(expr, a.inferFieldAccess(expr, scope))
	case *ast.MethodCall:
		return a.setType(expr, a.inferMethodCall(expr, scope))
	case *ast.CloneExpression:
		return a.setType(expr, a.inferClone(expr, scope))
	case *ast.FreezeExpression:
		return a.setType(expr, a.inferFreeze(expr, scope))
	case *ast.RecordLiteral:
		return a.setType(expr, a.inferRecordLiteral(expr, scope))
	case *ast.ListLiteral:
		return a.setType(expr, a.inferListLiteral(expr, scope))
	case *ast.TupleLiteral:
		a.errorAt(diagnostics.ErrT001, expr.Token,
			"tuples only group arguments for a call; a bare tuple has no value")
		return nil
	}
	return nil
}

// setType records the inferred type on the node and remembers the node for
// the final substitution pass.
func (a *Analyzer) setType(e ast.Expression, t typesystem.Type) typesystem.Type {
	if t == nil {
		return nil
	}
	e.SetType(t)
	a.typedNodes = append(a.typedNodes, e)
	return t
}

// finalize applies the accumulated substitution to every typed node, so
// codegen sees fully resolved types.
func (a *Analyzer) finalize() {
	for _, e := range a.typedNodes {
		if t := e.ResolvedType(); t != nil {
			e.SetType(t.Apply(a.subst))
		}
	}
}

// countUse charges one use against an affine binding. Mutable bindings and
// context bundles are exempt. The second use is the violation; later uses
// stay silent to keep the report focused.
func (a *Analyzer) countUse(b *binding, tok token.Token) {
	if b.mutable || b.isContext {
		return
	}
	b.uses++
	switch b.uses {
	case 1:
		b.firstUse = tok
	case 2:
		a.errorAt(diagnostics.ErrT002, tok, "use of moved value %s", b.name).
			WithNote(b.declTok, "binding declared here").
			WithNote(b.firstUse, "value moved here")
	}
}

func (a *Analyzer) inferIdentifier(id *ast.Identifier, scope *Scope) typesystem.Type {
	if b, ok := scope.Resolve(id.Value); ok {
		a.countUse(b, id.Token)
		return b.typ
	}
	if id.Value == "None" {
		return typesystem.OptionOf(a.freshVar())
	}
	if info, ok := a.table.Functions[id.Value]; ok {
		if info.Poisoned {
			return a.freshVar()
		}
		return a.instantiate(info.Type)
	}
	if owner, ok := a.table.VariantOwner[id.Value]; ok {
		enum := a.table.Enums[owner]
		v, _ := enum.VariantNamed(id.Value)
		if len(v.Payload) == 0 {
			return enum
		}
		return typesystem.TFunc{Params: v.Payload, ReturnType: enum}
	}
	a.errorAt(diagnostics.ErrT006, id.Token, "undefined name %s", id.Value)
	return nil
}

func (a *Analyzer) inferPrefix(pe *ast.PrefixExpression, scope *Scope) typesystem.Type {
	rt := a.inferExpression(pe.Right, scope)
	if rt == nil {
		return nil
	}
	switch pe.Operator {
	case "-":
		if r, ok := a.resolved(rt).(typesystem.TCon); ok && r == typesystem.FloatType {
			return typesystem.FloatType
		}
		a.unify(typesystem.IntType, rt, pe.Right.GetToken(), "operand of unary -")
		return typesystem.IntType
	case "!":
		a.unify(typesystem.BoolType, rt, pe.Right.GetToken(), "operand of !")
		return typesystem.BoolType
	}
	return nil
}

func (a *Analyzer) inferInfix(ie *ast.InfixExpression, scope *Scope) typesystem.Type {
	lt := a.inferExpression(ie.Left, scope)
	rt := a.inferExpression(ie.Right, scope)
	if lt == nil || rt == nil {
		return nil
	}
	if !a.unify(lt, rt, ie.Token, "operands of "+ie.Operator) {
		return nil
	}
	operand := typesystem.Erase(a.resolved(lt))

	switch ie.Operator {
	case "==", "!=":
		return typesystem.BoolType
	case "<", "<=", ">", ">=":
		if !a.numericOperand(operand, lt, ie) {
			return nil
		}
		return typesystem.BoolType
	case "+":
		if operand == typesystem.Type(typesystem.StringType) {
			return typesystem.StringType
		}
		if !a.numericOperand(operand, lt, ie) {
			return nil
		}
		return a.resolved(lt)
	case "-", "*", "/":
		if !a.numericOperand(operand, lt, ie) {
			return nil
		}
		return a.resolved(lt)
	case "%":
		a.unify(typesystem.IntType, lt, ie.Token, "operands of %")
		return typesystem.IntType
	}
	a.errorAt(diagnostics.ErrT001, ie.Token, "unknown operator %s", ie.Operator)
	return nil
}

// numericOperand checks that an arithmetic operand is Int or Float,
// defaulting an unconstrained variable to Int.
func (a *Analyzer) numericOperand(operand, orig typesystem.Type, ie *ast.InfixExpression) bool {
	switch operand {
	case typesystem.Type(typesystem.IntType), typesystem.Type(typesystem.FloatType):
		return true
	}
	if _, isVar := operand.(typesystem.TVar); isVar {
		return a.unify(typesystem.IntType, orig, ie.Token, "operands of "+ie.Operator)
	}
	a.errorAt(diagnostics.ErrT001, ie.Token,
		"operator %s applies to Int or Float, not %s", ie.Operator, operand)
	return false
}

// inferPipe checks x |> f and x |> f(y): the piped value becomes the first
// argument of the target call.
func (a *Analyzer) inferPipe(pe *ast.PipeExpression, scope *Scope) typesystem.Type {
	lt := a.inferExpression(pe.Left, scope)
	if lt == nil {
		return nil
	}
	switch r := pe.Right.(type) {
	case *ast.Identifier:
		return a.inferApplication(r.Token, r, []typesystem.Type{lt}, nil, scope)
	case *ast.CallExpression:
		t := a.inferApplication(r.Token, r.Function, []typesystem.Type{lt}, r.Arguments, scope)
		a.setType(r, t)
		return t
	default:
		a.errorAt(diagnostics.ErrT001, pe.Token,
			"pipe target must be a function name or call")
		return nil
	}
}

// inferApplication is the single call checker behind f(x), x f, (a, b) f
// and pipes. pre carries already-typed leading arguments (the piped value).
func (a *Analyzer) inferApplication(tok token.Token, fn ast.Expression, pre []typesystem.Type, args []ast.Expression, scope *Scope) typesystem.Type {
	argTypes := append([]typesystem.Type{}, pre...)
	argToks := make([]token.Token, len(pre))
	for i := range argToks {
		argToks[i] = tok
	}
	for _, arg := range args {
		at := a.inferExpression(arg, scope)
		if at == nil {
			return nil
		}
		argTypes = append(argTypes, at)
		argToks = append(argToks, arg.GetToken())
	}

	id, isIdent := fn.(*ast.Identifier)
	if !isIdent {
		ft := a.inferExpression(fn, scope)
		if ft == nil {
			return nil
		}
		return a.applyFunctionValue(tok, "expression", ft, argTypes, argToks)
	}
	name := id.Value

	// Local bindings shadow everything, including builtins.
	if b, ok := scope.Resolve(name); ok {
		a.countUse(b, id.Token)
		a.setType(id, b.typ)
		return a.applyFunctionValue(id.Token, name, b.typ, argTypes, argToks)
	}
	if info, ok := a.table.Functions[name]; ok {
		if info.Poisoned {
			return a.freshVar()
		}
		a.requireContexts(id.Token, name, info.Contexts, scope)
		ft := a.instantiate(info.Type)
		a.setType(id, ft)
		return a.checkCall(id.Token, name, ft, argTypes, argToks)
	}
	if ft, ok := a.constructorType(name); ok {
		a.setType(id, ft)
		return a.checkCall(id.Token, name, ft, argTypes, argToks)
	}
	if owner, ok := a.table.VariantOwner[name]; ok {
		enum := a.table.Enums[owner]
		v, _ := enum.VariantNamed(name)
		ft := typesystem.TFunc{Params: v.Payload, ReturnType: enum}
		a.setType(id, ft)
		return a.checkCall(id.Token, name, ft, argTypes, argToks)
	}
	if t, ok := a.builtinCall(id.Token, name, argTypes, argToks); ok {
		return t
	}
	a.errorAt(diagnostics.ErrT006, id.Token, "undefined function %s", name)
	return nil
}

// applyFunctionValue calls through a first-class function value, unifying
// an unconstrained variable with a fresh function shape.
func (a *Analyzer) applyFunctionValue(tok token.Token, what string, ft typesystem.Type, argTypes []typesystem.Type, argToks []token.Token) typesystem.Type {
	switch t := a.resolved(ft).(type) {
	case typesystem.TFunc:
		return a.checkCall(tok, what, t, argTypes, argToks)
	case typesystem.TVar:
		ret := a.freshVar()
		want := typesystem.TFunc{Params: argTypes, ReturnType: ret}
		a.unify(ft, want, tok, "call of "+what)
		return ret
	}
	a.errorAt(diagnostics.ErrT001, tok, "%s is not a function (it has type %s)", what, a.resolved(ft))
	return nil
}

// constructorType returns the builtin Option/Result constructors.
func (a *Analyzer) constructorType(name string) (typesystem.TFunc, bool) {
	switch name {
	case "Some":
		v := a.freshVar()
		return typesystem.TFunc{Params: []typesystem.Type{v}, ReturnType: typesystem.OptionOf(v)}, true
	case "Ok":
		v, e := a.freshVar(), a.freshVar()
		return typesystem.TFunc{Params: []typesystem.Type{v}, ReturnType: typesystem.ResultOf(v, e)}, true
	case "Err":
		v, e := a.freshVar(), a.freshVar()
		return typesystem.TFunc{Params: []typesystem.Type{e}, ReturnType: typesystem.ResultOf(v, e)}, true
	}
	return typesystem.TFunc{}, false
}

// builtinCall handles the runtime intrinsics.
func (a *Analyzer) builtinCall(tok token.Token, name string, argTypes []typesystem.Type, argToks []token.Token) (typesystem.Type, bool) {
	switch name {
	case "println", "print":
		if len(argTypes) != 1 {
			a.errorAt(diagnostics.ErrT001, tok, "%s expects 1 argument, got %d", name, len(argTypes))
		}
		return typesystem.UnitType, true
	case "show":
		if len(argTypes) != 1 {
			a.errorAt(diagnostics.ErrT001, tok, "show expects 1 argument, got %d", len(argTypes))
		}
		return typesystem.StringType, true
	case "exit":
		if len(argTypes) != 1 {
			a.errorAt(diagnostics.ErrT001, tok, "exit expects 1 argument, got %d", len(argTypes))
		} else {
			a.unify(typesystem.IntType, argTypes[0], argToks[0], "argument of exit")
		}
		return typesystem.UnitType, true
	}
	return nil, false
}

// checkCall unifies argument types against the callee's parameters.
func (a *Analyzer) checkCall(tok token.Token, what string, fn typesystem.TFunc, argTypes []typesystem.Type, argToks []token.Token) typesystem.Type {
	if len(argTypes) != len(fn.Params) {
		a.errorAt(diagnostics.ErrT001, tok, "%s expects %d argument(s), got %d",
			what, len(fn.Params), len(argTypes))
		return fn.ReturnType
	}
	for i, p := range fn.Params {
		a.unify(p, argTypes[i], argToks[i], fmt.Sprintf("argument %d of %s", i+1, what))
	}
	return fn.ReturnType
}

// instantiate replaces a signature's generic variables with fresh ones so
// each call site unifies independently.
func (a *Analyzer) instantiate(fn typesystem.TFunc) typesystem.TFunc {
	sub := typesystem.Subst{}
	for _, v := range fn.FreeTypeVariables() {
		if strings.HasPrefix(v.Name, "g_") {
			if _, done := sub[v.Name]; !done {
				sub[v.Name] = a.freshVar()
			}
		}
	}
	if len(sub) == 0 {
		return fn
	}
	return fn.Apply(sub).(typesystem.TFunc)
}

// requireContexts checks that every context a callee demands is provided by
// an enclosing with block or the current function's own signature.
func (a *Analyzer) requireContexts(tok token.Token, callee string, required []string, scope *Scope) {
	for _, name := range required {
		if b, _, ok := scope.ResolveWithScope(name); ok && b.isContext {
			continue
		}
		a.errorAt(diagnostics.ErrT008, tok,
			"%s requires context %s, which is not provided here", callee, name).
			WithHelp(fmt.Sprintf("wrap the call in with %s { ... } { ... } or declare the caller with %s", name, name))
	}
}

// inferBlock checks a statement list; the block's value is the value of the
// trailing expression statement, or Unit.
func (a *Analyzer) inferBlock(blk *ast.BlockExpression, scope *Scope) typesystem.Type {
	var result typesystem.Type = typesystem.UnitType
	for i, stmt := range blk.Statements {
		if es, ok := stmt.(*ast.ExpressionStatement); ok && i == len(blk.Statements)-1 {
			t := a.inferExpression(es.Expression, scope)
			if t == nil {
				return nil
			}
			result = t
			break
		}
		a.checkStatement(stmt, scope)
	}
	return a.setType(blk, result)
}

// snapshotUses captures the usage counters of every binding visible from
// scope, so sibling branches can count independently.
func snapshotUses(scope *Scope) map[*binding]int {
	snap := make(map[*binding]int)
	for s := scope; s != nil; s = s.parent {
		for _, b := range s.bindings {
			snap[b] = b.uses
		}
	}
	return snap
}

func restoreUses(snap map[*binding]int) {
	for b, n := range snap {
		b.uses = n
	}
}

// mergeUses folds one branch's final counters into the accumulator,
// keeping the maximum per binding. Only one branch runs at runtime, so a
// use in each branch is still a single use.
func mergeUses(accum map[*binding]int, scope *Scope) {
	for s := scope; s != nil; s = s.parent {
		for _, b := range s.bindings {
			if b.uses > accum[b] {
				accum[b] = b.uses
			}
		}
	}
}

func (a *Analyzer) inferIf(ie *ast.IfExpression, scope *Scope) typesystem.Type {
	condType := a.inferExpression(ie.Condition, scope)
	if condType != nil {
		a.unify(typesystem.BoolType, condType, ie.Condition.GetToken(), "if condition")
	}

	base := snapshotUses(scope)
	accum := snapshotUses(scope)

	consType := a.inferBlock(ie.Consequence, NewScope(scope))
	mergeUses(accum, scope)

	if ie.Alternative == nil {
		restoreUses(accum)
		if consType == nil {
			return nil
		}
		return typesystem.UnitType
	}

	restoreUses(base)
	altType := a.inferExpression(ie.Alternative, scope)
	mergeUses(accum, scope)
	restoreUses(accum)

	if consType == nil || altType == nil {
		return nil
	}
	a.unify(consType, altType, ie.Token, "if branches")
	return consType
}

func (a *Analyzer) inferMatch(me *ast.MatchExpression, scope *Scope) typesystem.Type {
	scrutType := a.inferExpression(me.Scrutinee, scope)
	if scrutType == nil {
		return nil
	}

	base := snapshotUses(scope)
	accum := snapshotUses(scope)
	var result typesystem.Type
	for _, arm := range me.Arms {
		restoreUses(base)
		armScope := NewScope(scope)
		a.bindPattern(arm.Pattern, scrutType, armScope)
		if arm.Guard != nil {
			if gt := a.inferExpression(arm.Guard, armScope); gt != nil {
				a.unify(typesystem.BoolType, gt, arm.Guard.GetToken(), "match guard")
			}
		}
		bt := a.inferBlock(arm.Body, armScope)
		mergeUses(accum, scope)
		if bt == nil {
			continue
		}
		if result == nil {
			result = bt
		} else {
			a.unify(result, bt, arm.Token, "match arms")
		}
	}
	restoreUses(accum)

	a.checkExhaustive(me, typesystem.Erase(a.resolved(scrutType)))
	if result == nil {
		result = typesystem.UnitType
	}
	return result
}

func (a *Analyzer) inferWithContext(we *ast.WithContextExpression, scope *Scope) typesystem.Type {
	ctx, ok := a.table.Contexts[we.Context.Value]
	if !ok {
		a.errorAt(diagnostics.ErrT006, we.Context.Token, "undefined context %s", we.Context.Value)
		return nil
	}
	a.checkFieldInits(we.Token, ctx, we.Fields, scope, true)

	inner := NewScope(scope)
	inner.Define(&binding{
		name:      we.Context.Value,
		typ:       ctx,
		declTok:   we.Token,
		isContext: true,
	})
	return a.inferBlock(we.Body, inner)
}

func (a *Analyzer) inferWithLifetime(we *ast.WithLifetimeExpression, scope *Scope) typesystem.Type {
	if we.Within != "" && !scope.LifetimeActive(we.Within) {
		a.errorAt(diagnostics.ErrT004, we.Token, "lifetime '%s is not active here", we.Within)
	}
	inner := NewScope(scope)
	inner.lifetime = we.Name

	bt := a.inferBlock(we.Body, inner)
	if bt == nil {
		return nil
	}
	if tt, ok := a.resolved(bt).(typesystem.TTemporal); ok && tt.Tag == we.Name {
		a.errorAt(diagnostics.ErrT004, we.Token,
			"value tagged with lifetime '%s escapes its block", we.Name)
		return tt.Inner
	}
	return bt
}

// inferFieldAccess consumes the whole record: raw field reads move the
// owner. Borrowing is reserved for method calls.
func (a *Analyzer) inferFieldAccess(fa *ast.FieldAccess, scope *Scope) typesystem.Type {
	objType := a.inferExpression(fa.Object, scope)
	if objType == nil {
		return nil
	}
	rec, ok := typesystem.Erase(a.resolved(objType)).(typesystem.TRecord)
	if !ok {
		a.errorAt(diagnostics.ErrT001, fa.Field.Token,
			"field access on a non-record value of type %s", a.resolved(objType))
		return nil
	}
	ft, ok := rec.FieldType(fa.Field.Value)
	if !ok {
		a.errorAt(diagnostics.ErrT006, fa.Field.Token, "%s has no field %s", rec.Name, fa.Field.Value)
		return nil
	}
	return ft
}

// inferMethodCall borrows the receiver: the call does not count as a use,
// but calling through an already-moved binding is still an error.
func (a *Analyzer) inferMethodCall(mc *ast.MethodCall, scope *Scope) typesystem.Type {
	var objType typesystem.Type
	if id, ok := mc.Object.(*ast.Identifier); ok {
		if b, found := scope.Resolve(id.Value); found {
			if !b.mutable && !b.isContext && b.uses > 0 {
				a.errorAt(diagnostics.ErrT002, id.Token,
					"cannot call a method on moved value %s", id.Value).
					WithNote(b.firstUse, "value moved here")
			}
			objType = b.typ
			a.setType(id, b.typ)
		}
	}
	if objType == nil {
		objType = a.inferExpression(mc.Object, scope)
	}
	if objType == nil {
		return nil
	}
	rec, ok := typesystem.Erase(a.resolved(objType)).(typesystem.TRecord)
	if !ok {
		a.errorAt(diagnostics.ErrT001, mc.Method.Token,
			"method call on a non-record value of type %s", a.resolved(objType))
		return nil
	}
	info, ok := a.table.Method(rec.Name, mc.Method.Value)
	if !ok {
		a.errorAt(diagnostics.ErrT006, mc.Method.Token,
			"%s has no method %s", rec.Name, mc.Method.Value)
		return nil
	}
	if info.Poisoned {
		return a.freshVar()
	}
	a.requireContexts(mc.Method.Token, rec.Name+"."+mc.Method.Value, info.Contexts, scope)

	ft := a.instantiate(info.Type)
	argTypes := []typesystem.Type{objType}
	argToks := []token.Token{mc.Object.GetToken()}
	for _, arg := range mc.Arguments {
		at := a.inferExpression(arg, scope)
		if at == nil {
			return nil
		}
		argTypes = append(argTypes, at)
		argToks = append(argToks, arg.GetToken())
	}
	return a.checkCall(mc.Method.Token, rec.Name+"."+mc.Method.Value, ft, argTypes, argToks)
}

// inferClone checks base.clone { f: v }. The source is consumed; the copy
// is a fresh value of the same record type.
func (a *Analyzer) inferClone(ce *ast.CloneExpression, scope *Scope) typesystem.Type {
	srcType := a.inferExpression(ce.Source, scope)
	if srcType == nil {
		return nil
	}
	rec, ok := typesystem.Erase(a.resolved(srcType)).(typesystem.TRecord)
	if !ok {
		a.errorAt(diagnostics.ErrT001, ce.Token,
			"clone applies to record values, not %s", a.resolved(srcType))
		return nil
	}
	a.checkFieldInits(ce.Token, rec, ce.Overrides, scope, false)
	return rec
}

// inferFreeze locks a named binding against reassignment. Freezing is not
// a use.
func (a *Analyzer) inferFreeze(fe *ast.FreezeExpression, scope *Scope) typesystem.Type {
	id, ok := fe.Target.(*ast.Identifier)
	if !ok {
		a.errorAt(diagnostics.ErrT001, fe.Token, "freeze applies to a named binding")
		return nil
	}
	b, found := scope.Resolve(id.Value)
	if !found {
		a.errorAt(diagnostics.ErrT006, id.Token, "undefined name %s", id.Value)
		return nil
	}
	b.frozen = true
	b.mutable = false
	a.setType(id, b.typ)
	return b.typ
}

func (a *Analyzer) inferRecordLiteral(rl *ast.RecordLiteral, scope *Scope) typesystem.Type {
	rec, ok := a.table.Records[rl.Name.Value]
	if !ok {
		a.errorAt(diagnostics.ErrT006, rl.Name.Token, "undefined record %s", rl.Name.Value)
		return nil
	}
	a.checkFieldInits(rl.Token, rec, rl.Fields, scope, true)
	return rec
}

func (a *Analyzer) inferListLiteral(ll *ast.ListLiteral, scope *Scope) typesystem.Type {
	elem := typesystem.Type(a.freshVar())
	for _, e := range ll.Elements {
		et := a.inferExpression(e, scope)
		if et == nil {
			return nil
		}
		a.unify(elem, et, e.GetToken(), "list element")
	}
	return typesystem.ListOf(elem)
}

// checkFieldInits validates field initializers against a record shape.
// requireAll demands every declared field (literals, with-context); clone
// overrides may name any subset.
func (a *Analyzer) checkFieldInits(tok token.Token, rec typesystem.TRecord, inits []*ast.FieldInit, scope *Scope, requireAll bool) {
	seen := make(map[string]bool, len(inits))
	for _, init := range inits {
		name := init.Name.Value
		ft, ok := rec.FieldType(name)
		if !ok {
			a.errorAt(diagnostics.ErrT006, init.Name.Token, "%s has no field %s", rec.Name, name)
			continue
		}
		if seen[name] {
			a.errorAt(diagnostics.ErrT007, init.Name.Token, "field %s initialized twice", name)
			continue
		}
		seen[name] = true
		vt := a.inferExpression(init.Value, scope)
		if vt != nil {
			a.unify(ft, vt, init.Value.GetToken(), "field "+name)
		}
	}
	if requireAll {
		for _, f := range rec.Fields {
			if !seen[f.Name] {
				a.errorAt(diagnostics.ErrT001, tok, "missing field %s in %s", f.Name, rec.Name)
			}
		}
	}
}
