package analyzer

import (
	"sort"
	"strings"

	"github.com/veld-lang/veld/internal/ast"
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/typesystem"
)

// bindPattern checks a pattern against the scrutinee type and introduces
// its bindings into the arm's scope. Pattern bindings are immutable, so
// the affine rule applies to them like any other val.
func (a *Analyzer) bindPattern(pat ast.Pattern, t typesystem.Type, scope *Scope) {
	t = typesystem.Erase(a.resolved(t))

	switch p := pat.(type) {
	case *ast.WildcardPattern:
		// matches anything, binds nothing

	case *ast.IdentifierPattern:
		scope.Define(&binding{name: p.Name, typ: t, declTok: p.Token})

	case *ast.LiteralPattern:
		lt := a.inferExpression(p.Value, scope)
		if lt != nil {
			a.unify(t, lt, p.Token, "literal pattern")
		}

	case *ast.ConstructorPattern:
		a.bindConstructorPattern(p, t, scope)

	case *ast.ListPattern:
		elem := typesystem.Type(a.freshVar())
		a.unify(t, typesystem.ListOf(elem), p.Token, "list pattern")
		if !p.Empty {
			a.bindPattern(p.Head, elem, scope)
			a.bindPattern(p.Tail, typesystem.ListOf(elem), scope)
		}

	case *ast.RecordPattern:
		a.bindRecordPattern(p, t, scope)
	}
}

func (a *Analyzer) bindConstructorPattern(p *ast.ConstructorPattern, t typesystem.Type, scope *Scope) {
	name := p.Name.Value

	bindElems := func(payload []typesystem.Type) {
		if len(p.Elements) != len(payload) {
			a.errorAt(diagnostics.ErrT001, p.Token,
				"%s takes %d element(s), pattern has %d", name, len(payload), len(p.Elements))
			return
		}
		for i, el := range p.Elements {
			a.bindPattern(el, payload[i], scope)
		}
	}

	switch name {
	case "Some":
		v := typesystem.Type(a.freshVar())
		a.unify(t, typesystem.OptionOf(v), p.Token, "pattern "+name)
		bindElems([]typesystem.Type{v})
		return
	case "None":
		a.unify(t, typesystem.OptionOf(a.freshVar()), p.Token, "pattern "+name)
		bindElems(nil)
		return
	case "Ok":
		v, e := typesystem.Type(a.freshVar()), typesystem.Type(a.freshVar())
		a.unify(t, typesystem.ResultOf(v, e), p.Token, "pattern "+name)
		bindElems([]typesystem.Type{v})
		return
	case "Err":
		v, e := typesystem.Type(a.freshVar()), typesystem.Type(a.freshVar())
		a.unify(t, typesystem.ResultOf(v, e), p.Token, "pattern "+name)
		bindElems([]typesystem.Type{e})
		return
	}

	owner, ok := a.table.VariantOwner[name]
	if !ok {
		a.errorAt(diagnostics.ErrT006, p.Name.Token, "unknown constructor %s", name)
		return
	}
	enum := a.table.Enums[owner]
	a.unify(t, enum, p.Token, "pattern "+name)
	v, _ := enum.VariantNamed(name)
	bindElems(v.Payload)
}

func (a *Analyzer) bindRecordPattern(p *ast.RecordPattern, t typesystem.Type, scope *Scope) {
	var rec typesystem.TRecord
	if p.Name != nil {
		declared, ok := a.table.Records[p.Name.Value]
		if !ok {
			a.errorAt(diagnostics.ErrT006, p.Name.Token, "undefined record %s", p.Name.Value)
			return
		}
		a.unify(t, declared, p.Token, "record pattern")
		rec = declared
	} else {
		r, ok := a.resolved(t).(typesystem.TRecord)
		if !ok {
			a.errorAt(diagnostics.ErrT001, p.Token,
				"record pattern needs a record scrutinee, got %s", a.resolved(t))
			return
		}
		rec = r
	}
	for _, f := range p.Fields {
		ft, ok := rec.FieldType(f.Name.Value)
		if !ok {
			a.errorAt(diagnostics.ErrT006, f.Name.Token, "%s has no field %s", rec.Name, f.Name.Value)
			continue
		}
		if f.Pattern == nil {
			// shorthand: { x } binds field x to name x
			scope.Define(&binding{name: f.Name.Value, typ: ft, declTok: f.Name.Token})
			continue
		}
		a.bindPattern(f.Pattern, ft, scope)
	}
}

// irrefutable reports whether a pattern matches every value of its type.
func irrefutable(p ast.Pattern) bool {
	switch pat := p.(type) {
	case *ast.WildcardPattern, *ast.IdentifierPattern:
		return true
	case *ast.RecordPattern:
		for _, f := range pat.Fields {
			if f.Pattern != nil && !irrefutable(f.Pattern) {
				return false
			}
		}
		return true
	}
	return false
}

// checkExhaustive verifies a match covers its scrutinee type. Guarded arms
// never count toward coverage.
func (a *Analyzer) checkExhaustive(me *ast.MatchExpression, t typesystem.Type) {
	for _, arm := range me.Arms {
		if arm.Guard == nil && irrefutable(arm.Pattern) {
			return
		}
	}

	// Collect the constructors covered by unguarded arms whose
	// sub-patterns are themselves irrefutable.
	covered := make(map[string]bool)
	emptyList, consList := false, false
	for _, arm := range me.Arms {
		if arm.Guard != nil {
			continue
		}
		switch pat := arm.Pattern.(type) {
		case *ast.ConstructorPattern:
			all := true
			for _, el := range pat.Elements {
				if !irrefutable(el) {
					all = false
					break
				}
			}
			if all {
				covered[pat.Name.Value] = true
			}
		case *ast.LiteralPattern:
			if b, ok := pat.Value.(*ast.BooleanLiteral); ok {
				if b.Value {
					covered["true"] = true
				} else {
					covered["false"] = true
				}
			}
		case *ast.ListPattern:
			if pat.Empty {
				emptyList = true
			} else if irrefutable(pat.Head) && irrefutable(pat.Tail) {
				consList = true
			}
		}
	}

	missing := func(names ...string) {
		var left []string
		for _, n := range names {
			if !covered[n] {
				left = append(left, n)
			}
		}
		if len(left) == 0 {
			return
		}
		sort.Strings(left)
		a.errorAt(diagnostics.ErrT003, me.Token,
			"match is not exhaustive; missing %s", strings.Join(left, ", "))
	}

	switch tt := t.(type) {
	case typesystem.TCon:
		if tt == typesystem.BoolType {
			missing("true", "false")
			return
		}
	case typesystem.TApp:
		switch tt.Name {
		case "Option":
			missing("Some", "None")
			return
		case "Result":
			missing("Ok", "Err")
			return
		case "List":
			if !emptyList || !consList {
				a.errorAt(diagnostics.ErrT003, me.Token,
					"match is not exhaustive; cover [] and [head|tail]")
			}
			return
		}
	case typesystem.TEnum:
		names := make([]string, len(tt.Variants))
		for i, v := range tt.Variants {
			names[i] = v.Name
		}
		missing(names...)
		return
	}

	a.errorAt(diagnostics.ErrT003, me.Token,
		"match on %s is not exhaustive; add a catch-all arm", t).
		WithHelp("add a trailing _ -> { ... } arm")
}
