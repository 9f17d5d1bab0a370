package parser

import (
	"github.com/veld-lang/veld/internal/ast"
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/token"
)

// parseMatchExpression parses
//
//	match scrutinee {
//	    pattern -> { body }
//	    pattern if guard -> { body }
//	}
//
// Arm bodies are always delimited blocks.
func (p *Parser) parseMatchExpression() ast.Expression {
	expr := &ast.MatchExpression{Token: p.curToken}

	p.nextToken()
	saved := p.noRecordLiteral
	p.noRecordLiteral = true
	expr.Scrutinee = p.parseExpression(LOWEST)
	p.noRecordLiteral = saved
	if expr.Scrutinee == nil {
		return nil
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	p.skipNewlines()

	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.errorAt(expr.Token, diagnostics.ErrP002, "unterminated match expression, expected \"}\"")
			return nil
		}
		arm := p.parseMatchArm()
		if arm == nil {
			return nil
		}
		expr.Arms = append(expr.Arms, arm)
		p.nextToken()
		p.skipNewlines()
	}
	return expr
}

func (p *Parser) parseMatchArm() *ast.MatchArm {
	arm := &ast.MatchArm{Token: p.curToken}
	arm.Pattern = p.parsePattern()
	if arm.Pattern == nil {
		return nil
	}

	if p.peekTokenIs(token.IF) {
		p.nextToken()
		p.nextToken()
		saved := p.noRecordLiteral
		p.noRecordLiteral = true
		arm.Guard = p.parseExpression(LOWEST)
		p.noRecordLiteral = saved
		if arm.Guard == nil {
			return nil
		}
	}

	if !p.expectPeek(token.ARROW) {
		return nil
	}
	if !p.peekTokenIs(token.LBRACE) {
		p.ctx.Errors = append(p.ctx.Errors, diagnostics.NewError(
			diagnostics.ErrP005,
			p.peekToken,
			"match arm body must be a delimited block",
		))
		return nil
	}
	p.nextToken()
	arm.Body = p.parseBlockExpression()
	if arm.Body == nil {
		return nil
	}
	return arm
}

// parsePattern parses a single pattern with curToken on its first token.
func (p *Parser) parsePattern() ast.Pattern {
	switch p.curToken.Type {
	case token.INT:
		return &ast.LiteralPattern{Token: p.curToken, Value: p.parseIntegerLiteral()}
	case token.FLOAT:
		return &ast.LiteralPattern{Token: p.curToken, Value: p.parseFloatLiteral()}
	case token.STRING:
		return &ast.LiteralPattern{Token: p.curToken, Value: p.parseStringLiteral()}
	case token.TRUE, token.FALSE:
		return &ast.LiteralPattern{Token: p.curToken, Value: p.parseBooleanLiteral()}
	case token.MINUS:
		minus := p.curToken
		if !p.expectPeek(token.INT) {
			return nil
		}
		lit := &ast.IntegerLiteral{Token: p.curToken}
		if v, ok := p.curToken.Literal.(int64); ok {
			lit.Value = -v
		}
		return &ast.LiteralPattern{Token: minus, Value: lit}
	case token.IDENT:
		if p.curToken.Lexeme == "_" {
			return &ast.WildcardPattern{Token: p.curToken}
		}
		if isCapitalized(p.curToken.Lexeme) {
			return p.parseConstructorOrRecordPattern()
		}
		return &ast.IdentifierPattern{Token: p.curToken, Name: p.curToken.Lexeme}
	case token.LBRACKET:
		return p.parseListPattern()
	case token.LBRACE:
		return p.parseRecordPattern(nil)
	default:
		p.errorAt(p.curToken, diagnostics.ErrP001, "expected pattern, got %s", describeToken(p.curToken))
		return nil
	}
}

// parseConstructorOrRecordPattern parses Some(x), None, Ok(v) and
// Point { x, y } with curToken on the capitalized name.
func (p *Parser) parseConstructorOrRecordPattern() ast.Pattern {
	name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	if p.peekTokenIs(token.LBRACE) {
		p.nextToken()
		return p.parseRecordPattern(name)
	}

	pat := &ast.ConstructorPattern{Token: name.Token, Name: name}
	if !p.peekTokenIs(token.LPAREN) {
		return pat
	}
	p.nextToken()
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return pat
	}
	for {
		p.nextToken()
		sub := p.parsePattern()
		if sub == nil {
			return nil
		}
		pat.Elements = append(pat.Elements, sub)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return pat
}

// parseListPattern parses [] and [h|t] with curToken on '['.
func (p *Parser) parseListPattern() ast.Pattern {
	pat := &ast.ListPattern{Token: p.curToken}
	if p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		pat.Empty = true
		return pat
	}
	p.nextToken()
	pat.Head = p.parsePattern()
	if pat.Head == nil {
		return nil
	}
	if !p.expectPeek(token.BAR) {
		return nil
	}
	p.nextToken()
	pat.Tail = p.parsePattern()
	if pat.Tail == nil {
		return nil
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return pat
}

// parseRecordPattern parses { x, y: pat } with curToken on '{'. name is the
// optional nominal constraint already consumed by the caller.
func (p *Parser) parseRecordPattern(name *ast.Identifier) ast.Pattern {
	pat := &ast.RecordPattern{Token: p.curToken, Name: name}
	p.nextToken()
	p.skipNewlines()
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.errorAt(pat.Token, diagnostics.ErrP002, "unterminated record pattern, expected \"}\"")
			return nil
		}
		if !p.curTokenIs(token.IDENT) {
			p.errorAt(p.curToken, diagnostics.ErrP001, "expected field name in record pattern, got %s", describeToken(p.curToken))
			return nil
		}
		field := &ast.RecordPatternField{
			Token: p.curToken,
			Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme},
		}
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			p.nextToken()
			field.Pattern = p.parsePattern()
			if field.Pattern == nil {
				return nil
			}
		}
		pat.Fields = append(pat.Fields, field)
		p.nextToken()
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
		}
		p.skipNewlines()
	}
	return pat
}
