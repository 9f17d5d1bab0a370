// Package analyzer implements the Veld type checker: bidirectional
// inference interleaved with affine usage tracking. Expressions with an
// expected type in context are checked against it; otherwise a type is
// inferred bottom-up and unified at usage sites. Generics resolve per call
// site by plain unification; there is no generalization step.
//
// The checker never guesses: missing or ambiguous type information is a
// diagnostic, and a declaration that failed checking poisons its dependents
// instead of cascading errors through them.
package analyzer

import (
	"fmt"

	"github.com/veld-lang/veld/internal/ast"
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/symbols"
	"github.com/veld-lang/veld/internal/token"
	"github.com/veld-lang/veld/internal/typesystem"
)

// maxDiagsPerDecl bounds the diagnostics emitted while checking a single
// top-level declaration, so one root cause cannot flood the report.
const maxDiagsPerDecl = 10

type Analyzer struct {
	table *symbols.Table
	diags []*diagnostics.Diagnostic

	varCounter int
	subst      typesystem.Subst
	typedNodes []ast.Expression

	declDiags int

	// current function's declared return type and required contexts.
	returnType typesystem.Type
	contexts   []string
}

func New() *Analyzer {
	return &Analyzer{table: symbols.New(), subst: typesystem.Subst{}}
}

// Analyze checks a whole program. It returns the symbol table for codegen
// plus all accumulated diagnostics.
func Analyze(program *ast.Program) (*symbols.Table, []*diagnostics.Diagnostic) {
	a := New()
	a.collectDeclarations(program)
	a.checkProgram(program)
	a.finalize()
	for _, d := range a.diags {
		if d.File == "" {
			d.File = program.File
		}
	}
	return a.table, a.diags
}

func (a *Analyzer) freshVar() typesystem.TVar {
	a.varCounter++
	return typesystem.TVar{Name: fmt.Sprintf("t%d", a.varCounter)}
}

func (a *Analyzer) errorAt(code diagnostics.Code, tok token.Token, format string, args ...interface{}) *diagnostics.Diagnostic {
	d := diagnostics.NewErrorf(code, tok, format, args...)
	a.declDiags++
	if a.declDiags <= maxDiagsPerDecl {
		a.diags = append(a.diags, d)
	}
	return d
}

// unify wraps typesystem.Unify, folding the result into the running
// substitution and reporting a TypeMismatch on failure.
func (a *Analyzer) unify(expected, actual typesystem.Type, tok token.Token, context string) bool {
	s, err := typesystem.Unify(expected.Apply(a.subst), actual.Apply(a.subst))
	if err != nil {
		a.errorAt(diagnostics.ErrT001, tok, "%s: expected %s, got %s",
			context, expected.Apply(a.subst), actual.Apply(a.subst))
		return false
	}
	a.subst = s.Compose(a.subst)
	return true
}

// resolved applies the running substitution to t.
func (a *Analyzer) resolved(t typesystem.Type) typesystem.Type {
	if t == nil {
		return nil
	}
	return t.Apply(a.subst)
}

// collectDeclarations is the first pass: record, enum and context shapes,
// function signatures and the method dispatch table, so bodies can refer
// to declarations in any order.
func (a *Analyzer) collectDeclarations(program *ast.Program) {
	for _, stmt := range program.Statements {
		switch decl := stmt.(type) {
		case *ast.RecordDeclaration:
			a.collectRecord(decl)
		case *ast.EnumDeclaration:
			a.collectEnum(decl)
		case *ast.ContextDeclaration:
			a.collectContext(decl)
		}
	}
	// Functions after types so signatures can resolve record names.
	for _, stmt := range program.Statements {
		switch decl := stmt.(type) {
		case *ast.FunctionDeclaration:
			a.collectFunction(decl)
		case *ast.ImplBlock:
			a.collectImpl(decl)
		}
	}
}

func (a *Analyzer) collectRecord(decl *ast.RecordDeclaration) {
	name := decl.Name.Value
	if a.alreadyDeclared(name) {
		a.errorAt(diagnostics.ErrT007, decl.Name.Token, "duplicate definition of %s", name)
		return
	}
	rec := typesystem.TRecord{Name: name}
	for _, f := range decl.Fields {
		ft := a.resolveTypeExpr(f.TypeAnnotation)
		if ft == nil {
			ft = a.freshVar()
		}
		rec.Fields = append(rec.Fields, typesystem.Field{Name: f.Name.Value, Type: ft})
	}
	a.table.Records[name] = rec
}

func (a *Analyzer) collectEnum(decl *ast.EnumDeclaration) {
	name := decl.Name.Value
	if a.alreadyDeclared(name) {
		a.errorAt(diagnostics.ErrT007, decl.Name.Token, "duplicate definition of %s", name)
		return
	}
	enum := typesystem.TEnum{Name: name}
	for _, v := range decl.Variants {
		variant := typesystem.Variant{Name: v.Name.Value}
		for _, pt := range v.Payload {
			t := a.resolveTypeExpr(pt)
			if t == nil {
				t = a.freshVar()
			}
			variant.Payload = append(variant.Payload, t)
		}
		enum.Variants = append(enum.Variants, variant)
		if prev, taken := a.table.VariantOwner[v.Name.Value]; taken {
			a.errorAt(diagnostics.ErrT007, v.Name.Token,
				"variant %s already declared by enum %s", v.Name.Value, prev)
			continue
		}
		a.table.VariantOwner[v.Name.Value] = name
	}
	a.table.Enums[name] = enum
}

func (a *Analyzer) collectContext(decl *ast.ContextDeclaration) {
	name := decl.Name.Value
	if a.alreadyDeclared(name) {
		a.errorAt(diagnostics.ErrT007, decl.Name.Token, "duplicate definition of %s", name)
		return
	}
	ctx := typesystem.TRecord{Name: name}
	for _, f := range decl.Fields {
		ft := a.resolveTypeExpr(f.TypeAnnotation)
		if ft == nil {
			ft = a.freshVar()
		}
		ctx.Fields = append(ctx.Fields, typesystem.Field{Name: f.Name.Value, Type: ft})
	}
	a.table.Contexts[name] = ctx
}

func (a *Analyzer) collectFunction(decl *ast.FunctionDeclaration) {
	name := decl.Name.Value
	if _, exists := a.table.Functions[name]; exists {
		a.errorAt(diagnostics.ErrT007, decl.Name.Token, "duplicate definition of %s", name)
		return
	}
	a.table.Functions[name] = a.functionInfo(decl, "")
}

func (a *Analyzer) collectImpl(blk *ast.ImplBlock) {
	target := blk.Target.Value
	if _, ok := a.table.Records[target]; !ok {
		a.errorAt(diagnostics.ErrT006, blk.Target.Token, "impl target %s is not a declared record", target)
		return
	}
	for _, m := range blk.Methods {
		if _, dup := a.table.Method(target, m.Name.Value); dup {
			a.errorAt(diagnostics.ErrT007, m.Name.Token, "duplicate method %s on %s", m.Name.Value, target)
			continue
		}
		info := a.functionInfo(m, target)
		a.table.AddMethod(target, &symbols.MethodInfo{
			FuncInfo: *info,
			Receiver: target,
			Symbol:   target + "." + m.Name.Value,
		})
	}
}

// functionInfo resolves a declaration's annotations into a signature.
// A missing return annotation leaves the return type to body inference.
// receiver is the record name for impl methods, where a bare self
// parameter takes the receiver type.
func (a *Analyzer) functionInfo(decl *ast.FunctionDeclaration, receiver string) *symbols.FuncInfo {
	info := &symbols.FuncInfo{Name: decl.Name.Value}
	fn := typesystem.TFunc{}
	for _, p := range decl.Params {
		if p.TypeAnnotation == nil {
			if receiver != "" && p.Name.Value == "self" {
				fn.Params = append(fn.Params, a.table.Records[receiver])
				continue
			}
			a.errorAt(diagnostics.ErrT005, p.Name.Token,
				"parameter %s needs a type annotation", p.Name.Value)
			fn.Params = append(fn.Params, a.freshVar())
			info.Poisoned = true
			continue
		}
		pt := a.resolveTypeExpr(p.TypeAnnotation)
		if pt == nil {
			pt = a.freshVar()
			info.Poisoned = true
		}
		fn.Params = append(fn.Params, pt)
	}
	if decl.ReturnType != nil {
		rt := a.resolveTypeExpr(decl.ReturnType)
		if rt == nil {
			rt = a.freshVar()
			info.Poisoned = true
		}
		fn.ReturnType = rt
	} else {
		fn.ReturnType = a.freshVar()
	}
	for _, c := range decl.Contexts {
		if _, ok := a.table.Contexts[c.Value]; !ok {
			a.errorAt(diagnostics.ErrT006, c.Token, "undefined context %s", c.Value)
			info.Poisoned = true
			continue
		}
		info.Contexts = append(info.Contexts, c.Value)
	}
	info.Type = fn
	return info
}

func (a *Analyzer) alreadyDeclared(name string) bool {
	_, found := a.table.LookupKind(name)
	return found
}

// resolveTypeExpr turns a syntactic annotation into a type. A single
// lowercase letter names a generic type variable; unknown capitalized
// names are an UnresolvedType error.
func (a *Analyzer) resolveTypeExpr(t ast.Type) typesystem.Type {
	switch tt := t.(type) {
	case *ast.NamedType:
		switch tt.Name {
		case "Int":
			return typesystem.IntType
		case "Float":
			return typesystem.FloatType
		case "Bool":
			return typesystem.BoolType
		case "String":
			return typesystem.StringType
		case "Unit":
			return typesystem.UnitType
		}
		if rec, ok := a.table.Records[tt.Name]; ok {
			return rec
		}
		if enum, ok := a.table.Enums[tt.Name]; ok {
			return enum
		}
		if ctx, ok := a.table.Contexts[tt.Name]; ok {
			return ctx
		}
		if isGenericName(tt.Name) {
			return typesystem.TVar{Name: "g_" + tt.Name}
		}
		a.errorAt(diagnostics.ErrT005, tt.Token, "unknown type %s", tt.Name)
		return nil
	case *ast.GenericType:
		args := make([]typesystem.Type, 0, len(tt.Args))
		for _, arg := range tt.Args {
			at := a.resolveTypeExpr(arg)
			if at == nil {
				return nil
			}
			args = append(args, at)
		}
		switch tt.Name {
		case "Option":
			if len(args) != 1 {
				a.errorAt(diagnostics.ErrT005, tt.Token, "Option takes exactly one type argument")
				return nil
			}
			return typesystem.OptionOf(args[0])
		case "Result":
			if len(args) != 2 {
				a.errorAt(diagnostics.ErrT005, tt.Token, "Result takes exactly two type arguments")
				return nil
			}
			return typesystem.ResultOf(args[0], args[1])
		case "List":
			if len(args) != 1 {
				a.errorAt(diagnostics.ErrT005, tt.Token, "List takes exactly one type argument")
				return nil
			}
			return typesystem.ListOf(args[0])
		}
		a.errorAt(diagnostics.ErrT005, tt.Token, "unknown generic type %s", tt.Name)
		return nil
	case *ast.FunctionType:
		fn := typesystem.TFunc{ReturnType: typesystem.UnitType}
		for _, p := range tt.Params {
			pt := a.resolveTypeExpr(p)
			if pt == nil {
				return nil
			}
			fn.Params = append(fn.Params, pt)
		}
		if tt.Return != nil {
			rt := a.resolveTypeExpr(tt.Return)
			if rt == nil {
				return nil
			}
			fn.ReturnType = rt
		}
		return fn
	case *ast.TemporalType:
		inner := a.resolveTypeExpr(tt.Inner)
		if inner == nil {
			return nil
		}
		return typesystem.TTemporal{Inner: inner, Tag: tt.Lifetime}
	}
	return nil
}

// isGenericName reports whether a type name denotes a variable: a single
// lowercase letter, optionally followed by digits (a, b, t1).
func isGenericName(name string) bool {
	if len(name) == 0 || name[0] < 'a' || name[0] > 'z' {
		return false
	}
	for i := 1; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return false
		}
	}
	return true
}

// checkProgram is the second pass: function bodies, then the top-level
// statement sequence in its own scope.
func (a *Analyzer) checkProgram(program *ast.Program) {
	for _, stmt := range program.Statements {
		switch decl := stmt.(type) {
		case *ast.FunctionDeclaration:
			a.checkFunction(decl, a.table.Functions[decl.Name.Value])
		case *ast.ImplBlock:
			for _, m := range decl.Methods {
				if info, ok := a.table.Method(decl.Target.Value, m.Name.Value); ok {
					a.checkFunction(m, &info.FuncInfo)
				}
			}
		}
	}

	// Top-level statements run in an implicit entry scope.
	top := NewScope(nil)
	a.returnType = nil
	a.contexts = nil
	a.declDiags = 0
	for _, stmt := range program.Statements {
		switch stmt.(type) {
		case *ast.FunctionDeclaration, *ast.RecordDeclaration, *ast.EnumDeclaration,
			*ast.ContextDeclaration, *ast.ImplBlock:
			continue
		}
		a.checkStatement(stmt, top)
	}
}

// checkFunction checks one function or method body against its signature.
func (a *Analyzer) checkFunction(decl *ast.FunctionDeclaration, info *symbols.FuncInfo) {
	if info == nil {
		return
	}
	a.declDiags = 0
	before := len(a.diags)

	scope := NewScope(nil)
	for i, p := range decl.Params {
		scope.Define(&binding{
			name:    p.Name.Value,
			typ:     info.Type.Params[i],
			declTok: p.Name.Token,
		})
	}
	// Required contexts are in scope as capability bundles.
	for _, cname := range info.Contexts {
		scope.Define(&binding{
			name:      cname,
			typ:       a.table.Contexts[cname],
			declTok:   decl.Token,
			isContext: true,
		})
	}
	a.returnType = info.Type.ReturnType
	a.contexts = info.Contexts

	bodyType := a.inferExpression(decl.Body, scope)
	if bodyType == nil {
		info.Poisoned = true
		return
	}
	if decl.ReturnType != nil {
		a.unify(info.Type.ReturnType, bodyType, decl.Body.GetToken(),
			fmt.Sprintf("return value of %s", decl.Name.Value))
	} else {
		a.unify(info.Type.ReturnType, bodyType, decl.Body.GetToken(),
			fmt.Sprintf("body of %s", decl.Name.Value))
		rt := a.resolved(info.Type.ReturnType)
		if !typesystem.IsResolved(rt) {
			a.errorAt(diagnostics.ErrT005, decl.Name.Token,
				"cannot infer return type of %s; add an annotation", decl.Name.Value)
			info.Poisoned = true
		}
	}
	info.Type = a.resolved(info.Type).(typesystem.TFunc)

	if len(a.diags) > before {
		info.Poisoned = true
	}
}
