// Package symbols holds the program-level declaration table built by the
// checker and consumed by the code generator: record and enum shapes,
// context bundles, function signatures and the static method dispatch table.
package symbols

import (
	"github.com/veld-lang/veld/internal/typesystem"
)

// FuncInfo is the checked signature of a top-level function or method.
type FuncInfo struct {
	Name     string
	Type     typesystem.TFunc
	Contexts []string // required context names, in declaration order
	Poisoned bool     // declaration failed checking; dependents are skipped
}

// MethodInfo is one entry of the static dispatch table. Symbol is the
// mangled codegen name (Record.method).
type MethodInfo struct {
	FuncInfo
	Receiver string
	Symbol   string
}

// Table is the checker's view of all top-level declarations.
type Table struct {
	Records   map[string]typesystem.TRecord
	Enums     map[string]typesystem.TEnum
	Contexts  map[string]typesystem.TRecord
	Functions map[string]*FuncInfo
	Methods   map[string]map[string]*MethodInfo // receiver -> method name

	// VariantOwner maps a user enum constructor to its enum name, so the
	// checker can resolve bare constructor references like Dot.
	VariantOwner map[string]string
}

func New() *Table {
	return &Table{
		Records:      make(map[string]typesystem.TRecord),
		Enums:        make(map[string]typesystem.TEnum),
		Contexts:     make(map[string]typesystem.TRecord),
		Functions:    make(map[string]*FuncInfo),
		Methods:      make(map[string]map[string]*MethodInfo),
		VariantOwner: make(map[string]string),
	}
}

// LookupKind reports what kind of top-level name this is, if any.
func (t *Table) LookupKind(name string) (string, bool) {
	if _, ok := t.Records[name]; ok {
		return "record", true
	}
	if _, ok := t.Enums[name]; ok {
		return "enum", true
	}
	if _, ok := t.Contexts[name]; ok {
		return "context", true
	}
	if _, ok := t.Functions[name]; ok {
		return "fun", true
	}
	if owner, ok := t.VariantOwner[name]; ok {
		return "variant:" + owner, true
	}
	return "", false
}

// Method resolves the static dispatch entry for receiver.name.
func (t *Table) Method(receiver, name string) (*MethodInfo, bool) {
	ms, ok := t.Methods[receiver]
	if !ok {
		return nil, false
	}
	m, ok := ms[name]
	return m, ok
}

// AddMethod registers a method in the dispatch table.
func (t *Table) AddMethod(receiver string, info *MethodInfo) {
	if t.Methods[receiver] == nil {
		t.Methods[receiver] = make(map[string]*MethodInfo)
	}
	t.Methods[receiver][info.Name] = info
}
