package ast

import (
	"strings"

	"github.com/veld-lang/veld/internal/token"
)

// Type is a syntactic type annotation as written in source. The checker
// resolves these into typesystem values.
type Type interface {
	Node
	typeNode()
	GetToken() token.Token
	String() string
}

// NamedType is a bare type name: Int, String, Point, T.
type NamedType struct {
	Token token.Token
	Name  string
}

func (nt *NamedType) typeNode()             {}
func (nt *NamedType) TokenLiteral() string  { return nt.Token.Lexeme }
func (nt *NamedType) GetToken() token.Token { return nt.Token }
func (nt *NamedType) String() string        { return nt.Name }

// GenericType is an applied type constructor: Option<Int>, Result<T, E>.
type GenericType struct {
	Token token.Token
	Name  string
	Args  []Type
}

func (gt *GenericType) typeNode()             {}
func (gt *GenericType) TokenLiteral() string  { return gt.Token.Lexeme }
func (gt *GenericType) GetToken() token.Token { return gt.Token }
func (gt *GenericType) String() string {
	parts := make([]string, len(gt.Args))
	for i, a := range gt.Args {
		parts[i] = a.String()
	}
	return gt.Name + "<" + strings.Join(parts, ", ") + ">"
}

// FunctionType is (A, B) -> C.
type FunctionType struct {
	Token  token.Token
	Params []Type
	Return Type
}

func (ft *FunctionType) typeNode()             {}
func (ft *FunctionType) TokenLiteral() string  { return ft.Token.Lexeme }
func (ft *FunctionType) GetToken() token.Token { return ft.Token }
func (ft *FunctionType) String() string {
	parts := make([]string, len(ft.Params))
	for i, p := range ft.Params {
		parts[i] = p.String()
	}
	ret := "Unit"
	if ft.Return != nil {
		ret = ft.Return.String()
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + ret
}

// TemporalType is Temporal<T, 't>: T tagged with a lexical lifetime.
type TemporalType struct {
	Token    token.Token
	Inner    Type
	Lifetime string
}

func (tt *TemporalType) typeNode()             {}
func (tt *TemporalType) TokenLiteral() string  { return tt.Token.Lexeme }
func (tt *TemporalType) GetToken() token.Token { return tt.Token }
func (tt *TemporalType) String() string {
	return "Temporal<" + tt.Inner.String() + ", '" + tt.Lifetime + ">"
}
