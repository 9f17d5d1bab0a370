package analyzer

import (
	"github.com/veld-lang/veld/internal/token"
	"github.com/veld-lang/veld/internal/typesystem"
)

// binding is one name introduced by val, a parameter, a pattern or a with
// block. Usage counting implements the affine rule: an immutable binding
// may be used at most once over its lexical scope.
type binding struct {
	name     string
	typ      typesystem.Type
	mutable  bool
	frozen   bool
	uses     int
	declTok  token.Token
	firstUse token.Token

	// isContext marks with-block and context-parameter bindings, which are
	// capability bundles and exempt from usage counting.
	isContext bool
}

// Scope is one lexical environment. Bindings die with their scope: affine
// usage is scope-local, not program-global.
type Scope struct {
	parent   *Scope
	bindings map[string]*binding

	// lifetime is set on scopes opened by with lifetime<'t> blocks.
	lifetime string
}

func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, bindings: make(map[string]*binding)}
}

// Define introduces a binding, shadowing any outer binding with that name.
func (s *Scope) Define(b *binding) {
	s.bindings[b.name] = b
}

// Resolve finds a binding by name, walking outward.
func (s *Scope) Resolve(name string) (*binding, bool) {
	b, _, ok := s.ResolveWithScope(name)
	return b, ok
}

// ResolveWithScope finds a binding and the scope that defines it.
func (s *Scope) ResolveWithScope(name string) (*binding, *Scope, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if b, ok := scope.bindings[name]; ok {
			return b, scope, true
		}
	}
	return nil, nil, false
}

// ResolveLocal finds a binding in this scope only.
func (s *Scope) ResolveLocal(name string) (*binding, bool) {
	b, ok := s.bindings[name]
	return b, ok
}

// LifetimeActive reports whether tag is introduced by this scope or an
// enclosing one.
func (s *Scope) LifetimeActive(tag string) bool {
	for scope := s; scope != nil; scope = scope.parent {
		if scope.lifetime == tag {
			return true
		}
	}
	return false
}

