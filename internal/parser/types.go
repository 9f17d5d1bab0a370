package parser

import (
	"github.com/veld-lang/veld/internal/ast"
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/token"
)

// parseType parses a type annotation with curToken on its first token.
// Grammar: Name | Name<T, ...> | (A, B) -> C | Temporal<T, 't>
func (p *Parser) parseType() ast.Type {
	switch p.curToken.Type {
	case token.IDENT:
		name := p.curToken
		if !p.peekTokenIs(token.LT) {
			return &ast.NamedType{Token: name, Name: name.Lexeme}
		}
		p.nextToken() // the '<'
		if name.Lexeme == "Temporal" {
			return p.parseTemporalType(name)
		}
		gt := &ast.GenericType{Token: name, Name: name.Lexeme}
		for {
			p.nextToken()
			arg := p.parseType()
			if arg == nil {
				return nil
			}
			gt.Args = append(gt.Args, arg)
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
		if !p.expectPeek(token.GT) {
			return nil
		}
		return gt
	case token.LPAREN:
		return p.parseFunctionType()
	default:
		p.errorAt(p.curToken, diagnostics.ErrP001, "expected type, got %s", describeToken(p.curToken))
		return nil
	}
}

// parseTemporalType parses the tail of Temporal<T, 't> with curToken on '<'.
func (p *Parser) parseTemporalType(name token.Token) ast.Type {
	tt := &ast.TemporalType{Token: name}
	p.nextToken()
	tt.Inner = p.parseType()
	if tt.Inner == nil {
		return nil
	}
	if !p.expectPeek(token.COMMA) {
		return nil
	}
	if !p.expectPeek(token.LIFETIME) {
		return nil
	}
	tt.Lifetime, _ = p.curToken.Literal.(string)
	if !p.expectPeek(token.GT) {
		return nil
	}
	return tt
}

// parseFunctionType parses (A, B) -> C with curToken on '('.
func (p *Parser) parseFunctionType() ast.Type {
	ft := &ast.FunctionType{Token: p.curToken}
	if !p.peekTokenIs(token.RPAREN) {
		for {
			p.nextToken()
			param := p.parseType()
			if param == nil {
				return nil
			}
			ft.Params = append(ft.Params, param)
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.ARROW) {
		return nil
	}
	p.nextToken()
	ft.Return = p.parseType()
	if ft.Return == nil {
		return nil
	}
	return ft
}
