package ast

import (
	"github.com/veld-lang/veld/internal/token"
)

// Identifier represents an identifier, e.g. a variable name.
type Identifier struct {
	typed
	Token token.Token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Lexeme }
func (i *Identifier) GetToken() token.Token {
	if i == nil {
		return token.Token{}
	}
	return i.Token
}

// IntegerLiteral represents an integer literal.
type IntegerLiteral struct {
	typed
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode()       {}
func (il *IntegerLiteral) TokenLiteral() string  { return il.Token.Lexeme }
func (il *IntegerLiteral) GetToken() token.Token { return il.Token }

// FloatLiteral represents a floating point literal.
type FloatLiteral struct {
	typed
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) expressionNode()       {}
func (fl *FloatLiteral) TokenLiteral() string  { return fl.Token.Lexeme }
func (fl *FloatLiteral) GetToken() token.Token { return fl.Token }

// BooleanLiteral represents true/false.
type BooleanLiteral struct {
	typed
	Token token.Token
	Value bool
}

func (bl *BooleanLiteral) expressionNode()       {}
func (bl *BooleanLiteral) TokenLiteral() string  { return bl.Token.Lexeme }
func (bl *BooleanLiteral) GetToken() token.Token { return bl.Token }

// StringLiteral represents a string, e.g. "hello".
type StringLiteral struct {
	typed
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()       {}
func (sl *StringLiteral) TokenLiteral() string  { return sl.Token.Lexeme }
func (sl *StringLiteral) GetToken() token.Token { return sl.Token }

// CallExpression is the canonical application node every call form
// desugars into: f(x), x f, (a, b) f all end up here.
type CallExpression struct {
	typed
	Token     token.Token // the '(' token or the subject identifier for OSV
	Function  Expression
	Arguments []Expression
	FromOSV   bool // true when desugared from postfix Object Subject form
}

func (ce *CallExpression) expressionNode()       {}
func (ce *CallExpression) TokenLiteral() string  { return ce.Token.Lexeme }
func (ce *CallExpression) GetToken() token.Token { return ce.Token }

// PipeExpression represents x |> f or x |>> f. The piped value becomes the
// callee's first argument; extra call arguments shift right by one.
type PipeExpression struct {
	typed
	Token   token.Token // the |> token
	Left    Expression
	Right   Expression
	Mutable bool // |>> marks the binding that receives the chain as mutable
}

func (pe *PipeExpression) expressionNode()       {}
func (pe *PipeExpression) TokenLiteral() string  { return pe.Token.Lexeme }
func (pe *PipeExpression) GetToken() token.Token { return pe.Token }

// PrefixExpression represents -x or !x.
type PrefixExpression struct {
	typed
	Token    token.Token
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()       {}
func (pe *PrefixExpression) TokenLiteral() string  { return pe.Token.Lexeme }
func (pe *PrefixExpression) GetToken() token.Token { return pe.Token }

// InfixExpression represents a binary operator application.
type InfixExpression struct {
	typed
	Token    token.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()       {}
func (ie *InfixExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *InfixExpression) GetToken() token.Token { return ie.Token }

// BlockExpression is a brace-delimited statement list; its value is the
// value of the final expression statement, or Unit.
type BlockExpression struct {
	typed
	Token      token.Token // the '{' token
	Statements []Statement
}

func (be *BlockExpression) expressionNode()       {}
func (be *BlockExpression) TokenLiteral() string  { return be.Token.Lexeme }
func (be *BlockExpression) GetToken() token.Token { return be.Token }

// IfExpression represents if cond { ... } else { ... }. Alternative is nil,
// another IfExpression (else if) or a BlockExpression.
type IfExpression struct {
	typed
	Token       token.Token
	Condition   Expression
	Consequence *BlockExpression
	Alternative Expression
}

func (ie *IfExpression) expressionNode()       {}
func (ie *IfExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *IfExpression) GetToken() token.Token { return ie.Token }

// MatchArm is one arm of a match expression. The body is always a
// delimited block.
type MatchArm struct {
	Token   token.Token
	Pattern Pattern
	Guard   Expression // optional
	Body    *BlockExpression
}

// MatchExpression represents match scrutinee { pattern -> { ... } ... }.
type MatchExpression struct {
	typed
	Token     token.Token
	Scrutinee Expression
	Arms      []*MatchArm
}

func (me *MatchExpression) expressionNode()       {}
func (me *MatchExpression) TokenLiteral() string  { return me.Token.Lexeme }
func (me *MatchExpression) GetToken() token.Token { return me.Token }

// FieldInit is a name: value pair inside record literals, clone overrides
// and with-context constructors.
type FieldInit struct {
	Token token.Token
	Name  *Identifier
	Value Expression
}

// WithContextExpression introduces a context for its body:
// with Logger { level: 3 } { body }
type WithContextExpression struct {
	typed
	Token   token.Token // the 'with' token
	Context *Identifier
	Fields  []*FieldInit
	Body    *BlockExpression
}

func (we *WithContextExpression) expressionNode()       {}
func (we *WithContextExpression) TokenLiteral() string  { return we.Token.Lexeme }
func (we *WithContextExpression) GetToken() token.Token { return we.Token }

// WithLifetimeExpression introduces a scope-bounded lifetime tag:
// with lifetime<'t> { body }, with lifetime<'a within 'b> { body }
type WithLifetimeExpression struct {
	typed
	Token  token.Token
	Name   string // the tag, without the tick
	Within string // optional containing lifetime
	Body   *BlockExpression
}

func (we *WithLifetimeExpression) expressionNode()       {}
func (we *WithLifetimeExpression) TokenLiteral() string  { return we.Token.Lexeme }
func (we *WithLifetimeExpression) GetToken() token.Token { return we.Token }

// FieldAccess represents p.x. Raw field access consumes the whole record;
// only method calls through an impl block borrow.
type FieldAccess struct {
	typed
	Token  token.Token // the '.' token
	Object Expression
	Field  *Identifier
}

func (fa *FieldAccess) expressionNode()       {}
func (fa *FieldAccess) TokenLiteral() string  { return fa.Token.Lexeme }
func (fa *FieldAccess) GetToken() token.Token { return fa.Token }

// MethodCall represents p.method(args), resolved statically through the
// record's impl block.
type MethodCall struct {
	typed
	Token     token.Token // the '.' token
	Object    Expression
	Method    *Identifier
	Arguments []Expression
}

func (mc *MethodCall) expressionNode()       {}
func (mc *MethodCall) TokenLiteral() string  { return mc.Token.Lexeme }
func (mc *MethodCall) GetToken() token.Token { return mc.Token }

// CloneExpression represents base.clone { f: v }: a compile-time structural
// copy with field overrides, consuming base.
type CloneExpression struct {
	typed
	Token     token.Token // the 'clone' token
	Source    Expression
	Overrides []*FieldInit
}

func (ce *CloneExpression) expressionNode()       {}
func (ce *CloneExpression) TokenLiteral() string  { return ce.Token.Lexeme }
func (ce *CloneExpression) GetToken() token.Token { return ce.Token }

// FreezeExpression represents x.freeze, locking the binding against further
// reassignment. It has no runtime representation.
type FreezeExpression struct {
	typed
	Token  token.Token // the 'freeze' token
	Target Expression
}

func (fe *FreezeExpression) expressionNode()       {}
func (fe *FreezeExpression) TokenLiteral() string  { return fe.Token.Lexeme }
func (fe *FreezeExpression) GetToken() token.Token { return fe.Token }

// RecordLiteral constructs a record value: Point { x: 1, y: 2 }.
// Unnamed positional form is not supported; fields must appear in
// declaration order unless all are named.
type RecordLiteral struct {
	typed
	Token  token.Token // the type name token
	Name   *Identifier
	Fields []*FieldInit
}

func (rl *RecordLiteral) expressionNode()       {}
func (rl *RecordLiteral) TokenLiteral() string  { return rl.Token.Lexeme }
func (rl *RecordLiteral) GetToken() token.Token { return rl.Token }

// ListLiteral represents [1, 2, 3].
type ListLiteral struct {
	typed
	Token    token.Token
	Elements []Expression
}

func (ll *ListLiteral) expressionNode()       {}
func (ll *ListLiteral) TokenLiteral() string  { return ll.Token.Lexeme }
func (ll *ListLiteral) GetToken() token.Token { return ll.Token }

// TupleLiteral represents (a, b). Tuples only exist as the argument group
// of a tuple-form OSV application; the parser consumes them immediately and
// a surviving bare tuple is rejected by the checker.
type TupleLiteral struct {
	typed
	Token    token.Token
	Elements []Expression
}

func (tl *TupleLiteral) expressionNode()       {}
func (tl *TupleLiteral) TokenLiteral() string  { return tl.Token.Lexeme }
func (tl *TupleLiteral) GetToken() token.Token { return tl.Token }
