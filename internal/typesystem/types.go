// Package typesystem defines the Veld type algebra and unification. The
// algebra is closed: primitives, String, Option/Result/List applications,
// nominal records and enums, function types, type variables for per-call
// inference, and the Temporal lifetime wrapper.
package typesystem

import (
	"strings"
)

// Type is the interface for all types in our system.
type Type interface {
	String() string
	Apply(Subst) Type
	FreeTypeVariables() []TVar
}

// Subst maps type variable names to types.
type Subst map[string]Type

// Compose returns a substitution equivalent to applying s after other.
func (s Subst) Compose(other Subst) Subst {
	result := make(Subst, len(s)+len(other))
	for name, t := range other {
		result[name] = t.Apply(s)
	}
	for name, t := range s {
		if _, ok := result[name]; !ok {
			result[name] = t
		}
	}
	return result
}

// TVar represents a type variable (e.g. t1, t2) introduced per call site.
type TVar struct {
	Name string
}

func (t TVar) String() string { return t.Name }

func (t TVar) Apply(s Subst) Type {
	if replacement, ok := s[t.Name]; ok {
		if tv, isVar := replacement.(TVar); isVar && tv.Name == t.Name {
			return t
		}
		return replacement.Apply(s)
	}
	return t
}

func (t TVar) FreeTypeVariables() []TVar { return []TVar{t} }

// TCon is a primitive type constant: Int, Float, Bool, String, Unit.
type TCon struct {
	Name string
}

func (t TCon) String() string            { return t.Name }
func (t TCon) Apply(Subst) Type          { return t }
func (t TCon) FreeTypeVariables() []TVar { return nil }

// The primitive constants.
var (
	IntType    = TCon{Name: "Int"}
	FloatType  = TCon{Name: "Float"}
	BoolType   = TCon{Name: "Bool"}
	StringType = TCon{Name: "String"}
	UnitType   = TCon{Name: "Unit"}
)

// TApp is an applied builtin constructor: Option<T>, Result<T, E>, List<T>.
type TApp struct {
	Name string
	Args []Type
}

func (t TApp) String() string {
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return t.Name + "<" + strings.Join(parts, ", ") + ">"
}

func (t TApp) Apply(s Subst) Type {
	args := make([]Type, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.Apply(s)
	}
	return TApp{Name: t.Name, Args: args}
}

func (t TApp) FreeTypeVariables() []TVar {
	var vars []TVar
	for _, a := range t.Args {
		vars = append(vars, a.FreeTypeVariables()...)
	}
	return vars
}

// Option/Result/List constructors.
func OptionOf(t Type) Type    { return TApp{Name: "Option", Args: []Type{t}} }
func ResultOf(t, e Type) Type { return TApp{Name: "Result", Args: []Type{t, e}} }
func ListOf(t Type) Type      { return TApp{Name: "List", Args: []Type{t}} }

// TRecord is a nominal record type with an ordered field list. Two record
// types are equal iff their names match; the fields are carried for layout
// and field-access checking.
type TRecord struct {
	Name   string
	Fields []Field
}

// Field is one named, typed record field.
type Field struct {
	Name string
	Type Type
}

func (t TRecord) String() string { return t.Name }

func (t TRecord) Apply(s Subst) Type {
	fields := make([]Field, len(t.Fields))
	for i, f := range t.Fields {
		fields[i] = Field{Name: f.Name, Type: f.Type.Apply(s)}
	}
	return TRecord{Name: t.Name, Fields: fields}
}

func (t TRecord) FreeTypeVariables() []TVar {
	var vars []TVar
	for _, f := range t.Fields {
		vars = append(vars, f.Type.FreeTypeVariables()...)
	}
	return vars
}

// FieldType returns the type of a named field.
func (t TRecord) FieldType(name string) (Type, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// TEnum is a nominal sum type. Variants are carried for exhaustiveness and
// layout; equality is by name.
type TEnum struct {
	Name     string
	Variants []Variant
}

// Variant is one declared enum constructor with its payload types.
type Variant struct {
	Name    string
	Payload []Type
}

func (t TEnum) String() string { return t.Name }

func (t TEnum) Apply(s Subst) Type {
	variants := make([]Variant, len(t.Variants))
	for i, v := range t.Variants {
		payload := make([]Type, len(v.Payload))
		for j, p := range v.Payload {
			payload[j] = p.Apply(s)
		}
		variants[i] = Variant{Name: v.Name, Payload: payload}
	}
	return TEnum{Name: t.Name, Variants: variants}
}

func (t TEnum) FreeTypeVariables() []TVar {
	var vars []TVar
	for _, v := range t.Variants {
		for _, p := range v.Payload {
			vars = append(vars, p.FreeTypeVariables()...)
		}
	}
	return vars
}

// VariantNamed returns the declared variant with the given name.
func (t TEnum) VariantNamed(name string) (Variant, bool) {
	for _, v := range t.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// TFunc is a function type: parameter list plus return type.
type TFunc struct {
	Params     []Type
	ReturnType Type
}

func (t TFunc) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + t.ReturnType.String()
}

func (t TFunc) Apply(s Subst) Type {
	params := make([]Type, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.Apply(s)
	}
	return TFunc{Params: params, ReturnType: t.ReturnType.Apply(s)}
}

func (t TFunc) FreeTypeVariables() []TVar {
	var vars []TVar
	for _, p := range t.Params {
		vars = append(vars, p.FreeTypeVariables()...)
	}
	vars = append(vars, t.ReturnType.FreeTypeVariables()...)
	return vars
}

// TTemporal wraps a type with a lexical lifetime tag. Codegen erases the
// wrapper; only the checker's escape analysis looks at the tag.
type TTemporal struct {
	Inner Type
	Tag   string
}

func (t TTemporal) String() string {
	return "Temporal<" + t.Inner.String() + ", '" + t.Tag + ">"
}

func (t TTemporal) Apply(s Subst) Type {
	return TTemporal{Inner: t.Inner.Apply(s), Tag: t.Tag}
}

func (t TTemporal) FreeTypeVariables() []TVar {
	return t.Inner.FreeTypeVariables()
}

// Erase strips any Temporal wrapper, returning the carried type.
func Erase(t Type) Type {
	if tt, ok := t.(TTemporal); ok {
		return Erase(tt.Inner)
	}
	return t
}

// IsResolved reports whether t contains no free type variables. Codegen
// requires every reaching type to be resolved.
func IsResolved(t Type) bool {
	return t != nil && len(t.FreeTypeVariables()) == 0
}
