package ast

import (
	"github.com/veld-lang/veld/internal/token"
)

// Pattern is a Node usable on the left side of a match arm or binding.
type Pattern interface {
	Node
	patternNode()
	GetToken() token.Token
}

// LiteralPattern matches an exact literal value.
type LiteralPattern struct {
	Token token.Token
	Value Expression // IntegerLiteral, FloatLiteral, BooleanLiteral or StringLiteral
}

func (lp *LiteralPattern) patternNode()          {}
func (lp *LiteralPattern) TokenLiteral() string  { return lp.Token.Lexeme }
func (lp *LiteralPattern) GetToken() token.Token { return lp.Token }

// IdentifierPattern binds the scrutinee (or sub-value) to a fresh name.
type IdentifierPattern struct {
	Token token.Token
	Name  string
}

func (ip *IdentifierPattern) patternNode()          {}
func (ip *IdentifierPattern) TokenLiteral() string  { return ip.Token.Lexeme }
func (ip *IdentifierPattern) GetToken() token.Token { return ip.Token }

// WildcardPattern matches anything without binding: _.
type WildcardPattern struct {
	Token token.Token
}

func (wp *WildcardPattern) patternNode()          {}
func (wp *WildcardPattern) TokenLiteral() string  { return wp.Token.Lexeme }
func (wp *WildcardPattern) GetToken() token.Token { return wp.Token }

// ConstructorPattern matches Some(x), Ok(v), or a user enum variant.
type ConstructorPattern struct {
	Token    token.Token
	Name     *Identifier
	Elements []Pattern
}

func (cp *ConstructorPattern) patternNode()          {}
func (cp *ConstructorPattern) TokenLiteral() string  { return cp.Token.Lexeme }
func (cp *ConstructorPattern) GetToken() token.Token { return cp.Token }

// ListPattern matches [] (Empty) or a cons cell [h|t].
type ListPattern struct {
	Token token.Token
	Empty bool
	Head  Pattern
	Tail  Pattern
}

func (lp *ListPattern) patternNode()          {}
func (lp *ListPattern) TokenLiteral() string  { return lp.Token.Lexeme }
func (lp *ListPattern) GetToken() token.Token { return lp.Token }

// RecordPatternField is one field inside a record destructure. A nil
// Pattern means shorthand binding: { x } binds field x to name x.
type RecordPatternField struct {
	Token   token.Token
	Name    *Identifier
	Pattern Pattern
}

// RecordPattern destructures a record: Point { x, y } or { x: 0 }.
type RecordPattern struct {
	Token  token.Token
	Name   *Identifier // optional nominal constraint
	Fields []*RecordPatternField
}

func (rp *RecordPattern) patternNode()          {}
func (rp *RecordPattern) TokenLiteral() string  { return rp.Token.Lexeme }
func (rp *RecordPattern) GetToken() token.Token { return rp.Token }
