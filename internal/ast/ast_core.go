package ast

import (
	"github.com/veld-lang/veld/internal/token"
	"github.com/veld-lang/veld/internal/typesystem"
)

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
}

// Statement is a Node that represents a statement or declaration.
type Statement interface {
	Node
	statementNode()
	GetToken() token.Token
}

// Expression is a Node that represents an expression. After checking, every
// expression carries its resolved type; codegen refuses to run on nodes
// where ResolvedType is still nil.
type Expression interface {
	Node
	expressionNode()
	GetToken() token.Token
	SetType(typesystem.Type)
	ResolvedType() typesystem.Type
}

// typed is embedded by every expression node to hold the checker's result.
type typed struct {
	typ typesystem.Type
}

func (t *typed) SetType(tt typesystem.Type)    { t.typ = tt }
func (t *typed) ResolvedType() typesystem.Type { return t.typ }

// Program is the root node of every AST our parser produces.
type Program struct {
	File       string // source file path
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

// Param is a single function parameter with its mandatory type annotation.
type Param struct {
	Token          token.Token
	Name           *Identifier
	TypeAnnotation Type
}

// FieldDef is a named, typed field inside a record or context declaration.
type FieldDef struct {
	Token          token.Token
	Name           *Identifier
	TypeAnnotation Type
}

// FunctionDeclaration represents a function.
// fun name(params) -> Ret with Ctx = body
type FunctionDeclaration struct {
	Token      token.Token // the 'fun' token
	Name       *Identifier
	Params     []*Param
	ReturnType Type          // optional
	Contexts   []*Identifier // required contexts (with Logger, Db)
	Body       Expression
}

func (fd *FunctionDeclaration) statementNode()       {}
func (fd *FunctionDeclaration) TokenLiteral() string { return fd.Token.Lexeme }
func (fd *FunctionDeclaration) GetToken() token.Token {
	if fd == nil {
		return token.Token{}
	}
	return fd.Token
}

// RecordDeclaration represents a nominal record type with an ordered field
// list. Field order determines memory layout in codegen.
type RecordDeclaration struct {
	Token  token.Token // the 'record' token
	Name   *Identifier
	Fields []*FieldDef
}

func (rd *RecordDeclaration) statementNode()       {}
func (rd *RecordDeclaration) TokenLiteral() string { return rd.Token.Lexeme }
func (rd *RecordDeclaration) GetToken() token.Token {
	if rd == nil {
		return token.Token{}
	}
	return rd.Token
}

// EnumVariant is one declared variant, with optional payload types.
type EnumVariant struct {
	Token   token.Token
	Name    *Identifier
	Payload []Type
}

// EnumDeclaration represents a closed sum type.
// enum Shape { Dot, Circle(Float) }
type EnumDeclaration struct {
	Token    token.Token
	Name     *Identifier
	Variants []*EnumVariant
}

func (ed *EnumDeclaration) statementNode()       {}
func (ed *EnumDeclaration) TokenLiteral() string { return ed.Token.Lexeme }
func (ed *EnumDeclaration) GetToken() token.Token {
	if ed == nil {
		return token.Token{}
	}
	return ed.Token
}

// ContextDeclaration represents a named capability bundle.
// context Logger { level: Int }
type ContextDeclaration struct {
	Token  token.Token
	Name   *Identifier
	Fields []*FieldDef
}

func (cd *ContextDeclaration) statementNode()       {}
func (cd *ContextDeclaration) TokenLiteral() string { return cd.Token.Lexeme }
func (cd *ContextDeclaration) GetToken() token.Token {
	if cd == nil {
		return token.Token{}
	}
	return cd.Token
}

// ImplBlock groups methods attached to a record type. Dispatch is static:
// the checker resolves each method call to a concrete function symbol.
type ImplBlock struct {
	Token   token.Token
	Target  *Identifier
	Methods []*FunctionDeclaration
}

func (ib *ImplBlock) statementNode()       {}
func (ib *ImplBlock) TokenLiteral() string { return ib.Token.Lexeme }
func (ib *ImplBlock) GetToken() token.Token {
	if ib == nil {
		return token.Token{}
	}
	return ib.Token
}

// ValBinding represents val / mut val.
// val x = e, mut val x: Int = e
type ValBinding struct {
	Token          token.Token // the 'val' token (or 'mut')
	Name           *Identifier
	Mutable        bool
	TypeAnnotation Type // optional
	Value          Expression
}

func (vb *ValBinding) statementNode()       {}
func (vb *ValBinding) TokenLiteral() string { return vb.Token.Lexeme }
func (vb *ValBinding) GetToken() token.Token {
	if vb == nil {
		return token.Token{}
	}
	return vb.Token
}

// AssignStatement rebinds a mutable local: x = e.
type AssignStatement struct {
	Token token.Token // the identifier token
	Name  *Identifier
	Value Expression
}

func (as *AssignStatement) statementNode()       {}
func (as *AssignStatement) TokenLiteral() string { return as.Token.Lexeme }
func (as *AssignStatement) GetToken() token.Token {
	if as == nil {
		return token.Token{}
	}
	return as.Token
}

// ExpressionStatement wraps an expression in statement position.
type ExpressionStatement struct {
	Token      token.Token
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Lexeme }
func (es *ExpressionStatement) GetToken() token.Token {
	if es == nil {
		return token.Token{}
	}
	return es.Token
}
