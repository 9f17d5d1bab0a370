// Package parser builds the AST from the token stream. It is a Pratt
// parser with a single top-down pass; the only lookahead beyond one token
// is the bounded peek used to distinguish record literals from blocks and
// OSV application chains from statement boundaries.
//
// All surface call forms are desugared here: postfix application `x f` and
// tuple-form `(a, b) f` become ordinary CallExpression nodes. Pipe chains
// stay as PipeExpression nodes so the checker can count the pipe source as
// a consuming use before treating the stage as a call.
package parser

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/veld-lang/veld/internal/ast"
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/pipeline"
	"github.com/veld-lang/veld/internal/token"
)

// Operator precedence levels, lowest binds loosest. Postfix (OSV) binds
// tighter than pipes; calls and field access bind tighter than both.
const (
	LOWEST = iota
	PIPE    // |> |>>
	EQUALS  // == !=
	COMPARE // < > <= >=
	SUM     // + -
	PRODUCT // * / %
	PREFIX  // -x !x
	POSTFIX // x f (OSV application)
	CALL    // f(x), p.x
)

var precedences = map[token.TokenType]int{
	token.PIPE_GT:     PIPE,
	token.PIPE_GT_MUT: PIPE,
	token.EQ:          EQUALS,
	token.NOT_EQ:      EQUALS,
	token.LT:          COMPARE,
	token.GT:          COMPARE,
	token.LT_EQ:       COMPARE,
	token.GT_EQ:       COMPARE,
	token.PLUS:        SUM,
	token.MINUS:       SUM,
	token.ASTERISK:    PRODUCT,
	token.SLASH:       PRODUCT,
	token.PERCENT:     PRODUCT,
	token.IDENT:       POSTFIX,
	token.LPAREN:      CALL,
	token.DOT:         CALL,
	token.LBRACE:      CALL,
}

// MaxRecursionDepth bounds expression nesting to keep pathological inputs
// from blowing the stack.
const MaxRecursionDepth = 500

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	stream *token.Stream
	ctx    *pipeline.PipelineContext

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn

	depth               int
	inRecursionRecovery bool

	// noRecordLiteral suppresses the `Name { ... }` literal form while
	// parsing if/match headers, where `{` opens the body instead.
	noRecordLiteral bool
}

func New(stream *token.Stream, ctx *pipeline.PipelineContext) *Parser {
	p := &Parser{stream: stream, ctx: ctx}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.IDENT:    p.parseIdentifier,
		token.INT:      p.parseIntegerLiteral,
		token.FLOAT:    p.parseFloatLiteral,
		token.STRING:   p.parseStringLiteral,
		token.TRUE:     p.parseBooleanLiteral,
		token.FALSE:    p.parseBooleanLiteral,
		token.MINUS:    p.parsePrefixExpression,
		token.BANG:     p.parsePrefixExpression,
		token.LPAREN:   p.parseGroupedOrTuple,
		token.LBRACKET: p.parseListLiteral,
		token.LBRACE:   p.parseBlockAsExpression,
		token.IF:       p.parseIfExpression,
		token.MATCH:    p.parseMatchExpression,
		token.WITH:     p.parseWithExpression,
	}

	p.infixParseFns = map[token.TokenType]infixParseFn{
		token.PLUS:        p.parseInfixExpression,
		token.MINUS:       p.parseInfixExpression,
		token.ASTERISK:    p.parseInfixExpression,
		token.SLASH:       p.parseInfixExpression,
		token.PERCENT:     p.parseInfixExpression,
		token.EQ:          p.parseInfixExpression,
		token.NOT_EQ:      p.parseInfixExpression,
		token.LT:          p.parseInfixExpression,
		token.GT:          p.parseInfixExpression,
		token.LT_EQ:       p.parseInfixExpression,
		token.GT_EQ:       p.parseInfixExpression,
		token.PIPE_GT:     p.parsePipeExpression,
		token.PIPE_GT_MUT: p.parsePipeExpression,
		token.LPAREN:      p.parseCallExpression,
		token.DOT:         p.parseDotExpression,
		token.IDENT:       p.parsePostfixApplication,
		token.LBRACE:      p.parseRecordLiteral,
	}

	// Prime curToken and peekToken.
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.stream.Next()
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// expectPeek advances when the next token matches, otherwise records an
// expected-token diagnostic.
func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t token.TokenType) {
	p.ctx.Errors = append(p.ctx.Errors, diagnostics.NewErrorf(
		diagnostics.ErrP002,
		p.peekToken,
		"expected %s, got %s", t, describeToken(p.peekToken),
	))
}

func (p *Parser) errorAt(tok token.Token, code diagnostics.Code, format string, args ...interface{}) {
	p.ctx.Errors = append(p.ctx.Errors, diagnostics.NewErrorf(code, tok, format, args...))
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	p.errorAt(tok, diagnostics.ErrP003, "unexpected %s in expression position", describeToken(tok))
}

func describeToken(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of file"
	case token.NEWLINE:
		return "end of line"
	default:
		return fmt.Sprintf("%q", tok.Lexeme)
	}
}

// skipNewlines consumes newline and semicolon separators.
func (p *Parser) skipNewlines() {
	for p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
}

// skipToStatementBoundary drops tokens until the next plausible statement
// start, bounding error cascades from a single malformed construct.
func (p *Parser) skipToStatementBoundary() {
	for !p.curTokenIs(token.NEWLINE) &&
		!p.curTokenIs(token.SEMICOLON) &&
		!p.curTokenIs(token.RBRACE) &&
		!p.curTokenIs(token.EOF) {
		p.nextToken()
	}
}

// ParseProgram parses the whole compilation unit.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}
	p.skipNewlines()
	for !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		} else {
			p.skipToStatementBoundary()
		}
		p.nextToken()
		p.skipNewlines()
	}
	return program
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > MaxRecursionDepth {
		if !p.inRecursionRecovery {
			p.errorAt(p.curToken, diagnostics.ErrP001, "expression too complex: recursion depth limit exceeded")
			p.inRecursionRecovery = true
		}
		p.skipToStatementBoundary()
		p.inRecursionRecovery = false
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for {
		if p.peekTokenIs(token.NEWLINE) {
			// Pipes may continue on the next line.
			if !p.hasContinuationOperator() {
				break
			}
			for p.peekTokenIs(token.NEWLINE) {
				p.nextToken()
			}
		}

		if precedence >= p.peekPrecedence() {
			break
		}

		// Record literals only where a body brace cannot follow.
		if p.peekTokenIs(token.LBRACE) && !p.recordLiteralAllowed(leftExp) {
			break
		}
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		nextExp := infix(leftExp)
		if nextExp == nil {
			return nil
		}
		leftExp = nextExp
	}

	return leftExp
}

// hasContinuationOperator looks past newlines for a pipe operator that
// should continue the current expression.
func (p *Parser) hasContinuationOperator() bool {
	tokens := p.stream.Peek(10)
	for _, tok := range tokens {
		if tok.Type == token.NEWLINE {
			continue
		}
		return tok.Type == token.PIPE_GT || tok.Type == token.PIPE_GT_MUT
	}
	return false
}

// recordLiteralAllowed reports whether a following `{` opens a record
// literal for leftExp. Only capitalized identifiers name record types, and
// if/match headers suppress the form entirely.
func (p *Parser) recordLiteralAllowed(leftExp ast.Expression) bool {
	if p.noRecordLiteral {
		return false
	}
	ident, ok := leftExp.(*ast.Identifier)
	if !ok {
		return false
	}
	return isCapitalized(ident.Value)
}

func isCapitalized(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
