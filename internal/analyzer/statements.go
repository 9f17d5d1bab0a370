package analyzer

import (
	"github.com/veld-lang/veld/internal/ast"
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/token"
	"github.com/veld-lang/veld/internal/typesystem"
)

func (a *Analyzer) checkStatement(stmt ast.Statement, scope *Scope) {
	switch s := stmt.(type) {
	case *ast.ValBinding:
		a.checkValBinding(s, scope)
	case *ast.AssignStatement:
		a.checkAssign(s, scope)
	case *ast.ExpressionStatement:
		a.inferExpression(s.Expression, scope)
	}
}

func (a *Analyzer) checkValBinding(s *ast.ValBinding, scope *Scope) {
	valueType := a.inferExpression(s.Value, scope)
	if valueType == nil {
		// Still define the binding so later uses don't cascade.
		scope.Define(&binding{name: s.Name.Value, typ: a.freshVar(), mutable: s.Mutable, declTok: s.Name.Token})
		return
	}

	if s.TypeAnnotation != nil {
		declared := a.resolveTypeExpr(s.TypeAnnotation)
		if declared != nil {
			a.unify(declared, valueType, s.Value.GetToken(), "binding "+s.Name.Value)
			valueType = declared
		}
	}

	b := &binding{
		name:    s.Name.Value,
		typ:     valueType,
		mutable: s.Mutable,
		declTok: s.Name.Token,
	}
	// val x = y.freeze locks the new binding from the start.
	if _, isFreeze := s.Value.(*ast.FreezeExpression); isFreeze {
		b.frozen = true
		b.mutable = false
	}
	a.checkTemporalBinding(valueType, s.Name.Token, scope, scope)
	scope.Define(b)
}

func (a *Analyzer) checkAssign(s *ast.AssignStatement, scope *Scope) {
	valueType := a.inferExpression(s.Value, scope)

	b, defScope, ok := scope.ResolveWithScope(s.Name.Value)
	if !ok {
		a.errorAt(diagnostics.ErrT006, s.Name.Token, "cannot assign to undefined name %s", s.Name.Value)
		return
	}
	if b.frozen {
		a.errorAt(diagnostics.ErrT001, s.Name.Token, "cannot assign to frozen binding %s", s.Name.Value).
			WithNote(b.declTok, "binding declared here")
		return
	}
	if !b.mutable {
		a.errorAt(diagnostics.ErrT001, s.Name.Token, "cannot assign to immutable binding %s; declare it with mut val", s.Name.Value).
			WithNote(b.declTok, "binding declared here")
		return
	}
	if valueType == nil {
		return
	}
	// A mutable binding keeps its declared type for its whole scope.
	a.unify(b.typ, valueType, s.Value.GetToken(), "reassignment of "+s.Name.Value)

	// Escape check: storing a lifetime-tagged value into a binding that
	// outlives the tag's scope.
	a.checkTemporalBinding(valueType, s.Name.Token, scope, defScope)
}

// checkTemporalBinding flags a TemporalEscape when a tagged value is bound
// in (or assigned to a binding defined in) a scope where its tag is not
// active.
func (a *Analyzer) checkTemporalBinding(t typesystem.Type, tok token.Token, scope, defScope *Scope) {
	tt, ok := a.resolved(t).(typesystem.TTemporal)
	if !ok {
		return
	}
	if !defScope.LifetimeActive(tt.Tag) {
		a.errorAt(diagnostics.ErrT004, tok,
			"value tagged with lifetime '%s escapes its scope", tt.Tag)
	}
	_ = scope
}
