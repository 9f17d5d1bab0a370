package typesystem

import (
	"fmt"
)

// Unify attempts to find a substitution that makes t1 and t2 equal.
// Records and enums compare nominally; everything else structurally.
// There is no generalization step: generics resolve per call site.
func Unify(t1, t2 Type) (Subst, error) {
	t1 = Erase(normalize(t1))
	t2 = Erase(normalize(t2))

	switch a := t1.(type) {
	case TVar:
		return bindVar(a, t2)
	case TCon:
		if b, ok := t2.(TCon); ok {
			if a.Name == b.Name {
				return Subst{}, nil
			}
			return nil, mismatch(t1, t2)
		}
		if b, ok := t2.(TVar); ok {
			return bindVar(b, t1)
		}
		return nil, mismatch(t1, t2)
	case TApp:
		if b, ok := t2.(TVar); ok {
			return bindVar(b, t1)
		}
		b, ok := t2.(TApp)
		if !ok || a.Name != b.Name || len(a.Args) != len(b.Args) {
			return nil, mismatch(t1, t2)
		}
		subst := Subst{}
		for i := range a.Args {
			s, err := Unify(a.Args[i].Apply(subst), b.Args[i].Apply(subst))
			if err != nil {
				return nil, err
			}
			subst = s.Compose(subst)
		}
		return subst, nil
	case TRecord:
		if b, ok := t2.(TVar); ok {
			return bindVar(b, t1)
		}
		if b, ok := t2.(TRecord); ok && a.Name == b.Name {
			return Subst{}, nil
		}
		return nil, mismatch(t1, t2)
	case TEnum:
		if b, ok := t2.(TVar); ok {
			return bindVar(b, t1)
		}
		if b, ok := t2.(TEnum); ok && a.Name == b.Name {
			return Subst{}, nil
		}
		return nil, mismatch(t1, t2)
	case TFunc:
		if b, ok := t2.(TVar); ok {
			return bindVar(b, t1)
		}
		b, ok := t2.(TFunc)
		if !ok || len(a.Params) != len(b.Params) {
			return nil, mismatch(t1, t2)
		}
		subst := Subst{}
		for i := range a.Params {
			s, err := Unify(a.Params[i].Apply(subst), b.Params[i].Apply(subst))
			if err != nil {
				return nil, err
			}
			subst = s.Compose(subst)
		}
		s, err := Unify(a.ReturnType.Apply(subst), b.ReturnType.Apply(subst))
		if err != nil {
			return nil, err
		}
		return s.Compose(subst), nil
	}
	return nil, mismatch(t1, t2)
}

// normalize guards against nil types leaking in from poisoned declarations.
func normalize(t Type) Type {
	if t == nil {
		return TVar{Name: "_nil"}
	}
	return t
}

func bindVar(v TVar, t Type) (Subst, error) {
	if tv, ok := t.(TVar); ok && tv.Name == v.Name {
		return Subst{}, nil
	}
	if occurs(v, t) {
		return nil, fmt.Errorf("infinite type: %s occurs in %s", v, t)
	}
	return Subst{v.Name: t}, nil
}

func occurs(v TVar, t Type) bool {
	for _, free := range t.FreeTypeVariables() {
		if free.Name == v.Name {
			return true
		}
	}
	return false
}

func mismatch(t1, t2 Type) error {
	return fmt.Errorf("type mismatch: expected %s, got %s", t1, t2)
}
