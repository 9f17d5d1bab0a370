package parser

import (
	"github.com/veld-lang/veld/internal/ast"
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/token"
)

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.VAL, token.MUT:
		return p.parseValBinding()
	case token.FUN:
		return p.parseFunctionDeclaration()
	case token.RECORD:
		return p.parseRecordDeclaration()
	case token.ENUM:
		return p.parseEnumDeclaration()
	case token.CONTEXT:
		return p.parseContextDeclaration()
	case token.IMPL:
		return p.parseImplBlock()
	case token.IDENT:
		if p.peekTokenIs(token.ASSIGN) {
			return p.parseAssignStatement()
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatement()
	}
}

// parseValBinding parses val x = e and mut val x: T = e.
func (p *Parser) parseValBinding() ast.Statement {
	stmt := &ast.ValBinding{Token: p.curToken}

	if p.curTokenIs(token.MUT) {
		stmt.Mutable = true
		if !p.expectPeek(token.VAL) {
			return nil
		}
	}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		stmt.TypeAnnotation = p.parseType()
		if stmt.TypeAnnotation == nil {
			return nil
		}
	}

	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	// A |>> chain makes the receiving binding mutable.
	if pipe, ok := stmt.Value.(*ast.PipeExpression); ok && pipe.Mutable {
		stmt.Mutable = true
	}
	return stmt
}

// parseAssignStatement parses x = e (reassignment of a mutable binding).
func (p *Parser) parseAssignStatement() ast.Statement {
	stmt := &ast.AssignStatement{Token: p.curToken}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
	p.nextToken() // the '='
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

// parseFunctionDeclaration parses
// fun name(params) -> Ret with Ctx1, Ctx2 = body
func (p *Parser) parseFunctionDeclaration() *ast.FunctionDeclaration {
	decl := &ast.FunctionDeclaration{Token: p.curToken}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	decl.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		decl.Params = p.parseFunctionParams()
		if decl.Params == nil {
			return nil
		}
	}

	if p.peekTokenIs(token.ARROW) {
		p.nextToken()
		p.nextToken()
		decl.ReturnType = p.parseType()
		if decl.ReturnType == nil {
			return nil
		}
	}

	if p.peekTokenIs(token.WITH) {
		p.nextToken()
		for {
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			decl.Contexts = append(decl.Contexts, &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme})
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
	}

	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	decl.Body = p.parseExpression(LOWEST)
	if decl.Body == nil {
		return nil
	}
	return decl
}

// parseFunctionParams parses (name: Type, ...) with curToken on '('.
func (p *Parser) parseFunctionParams() []*ast.Param {
	params := []*ast.Param{}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params
	}
	for {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		param := &ast.Param{
			Token: p.curToken,
			Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme},
		}
		// A bare self parameter inside impl blocks carries no annotation.
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			p.nextToken()
			param.TypeAnnotation = p.parseType()
			if param.TypeAnnotation == nil {
				return nil
			}
		}
		params = append(params, param)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return params
}

// parseRecordDeclaration parses record Name { field: Type, ... }.
func (p *Parser) parseRecordDeclaration() ast.Statement {
	decl := &ast.RecordDeclaration{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	decl.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	decl.Fields = p.parseFieldDefs()
	if decl.Fields == nil {
		return nil
	}
	return decl
}

// parseContextDeclaration parses context Name { field: Type, ... }.
func (p *Parser) parseContextDeclaration() ast.Statement {
	decl := &ast.ContextDeclaration{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	decl.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	decl.Fields = p.parseFieldDefs()
	if decl.Fields == nil {
		return nil
	}
	return decl
}

// parseFieldDefs parses { name: Type, ... } with curToken on '{'.
// Fields may be separated by commas or newlines.
func (p *Parser) parseFieldDefs() []*ast.FieldDef {
	fields := []*ast.FieldDef{}
	p.nextToken()
	p.skipNewlines()
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.errorAt(p.curToken, diagnostics.ErrP002, "unterminated declaration body, expected \"}\"")
			return nil
		}
		if !p.curTokenIs(token.IDENT) {
			p.errorAt(p.curToken, diagnostics.ErrP001, "expected field name, got %s", describeToken(p.curToken))
			return nil
		}
		field := &ast.FieldDef{
			Token: p.curToken,
			Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme},
		}
		if !p.expectPeek(token.COLON) {
			return nil
		}
		p.nextToken()
		field.TypeAnnotation = p.parseType()
		if field.TypeAnnotation == nil {
			return nil
		}
		fields = append(fields, field)
		p.nextToken()
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
		}
		p.skipNewlines()
	}
	return fields
}

// parseEnumDeclaration parses enum Name { Variant, Variant(T, U), ... }.
func (p *Parser) parseEnumDeclaration() ast.Statement {
	decl := &ast.EnumDeclaration{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	decl.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	p.skipNewlines()
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.errorAt(p.curToken, diagnostics.ErrP002, "unterminated enum body, expected \"}\"")
			return nil
		}
		if !p.curTokenIs(token.IDENT) {
			p.errorAt(p.curToken, diagnostics.ErrP001, "expected variant name, got %s", describeToken(p.curToken))
			return nil
		}
		variant := &ast.EnumVariant{
			Token: p.curToken,
			Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme},
		}
		if p.peekTokenIs(token.LPAREN) {
			p.nextToken()
			for {
				p.nextToken()
				pt := p.parseType()
				if pt == nil {
					return nil
				}
				variant.Payload = append(variant.Payload, pt)
				if !p.peekTokenIs(token.COMMA) {
					break
				}
				p.nextToken()
			}
			if !p.expectPeek(token.RPAREN) {
				return nil
			}
		}
		decl.Variants = append(decl.Variants, variant)
		p.nextToken()
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
		}
		p.skipNewlines()
	}
	return decl
}

// parseImplBlock parses impl Record { fun method(self, ...) = body ... }.
func (p *Parser) parseImplBlock() ast.Statement {
	blk := &ast.ImplBlock{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	blk.Target = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	p.skipNewlines()
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.errorAt(p.curToken, diagnostics.ErrP002, "unterminated impl block, expected \"}\"")
			return nil
		}
		if !p.curTokenIs(token.FUN) {
			p.errorAt(p.curToken, diagnostics.ErrP001, "only fun declarations are allowed inside impl blocks")
			p.skipToStatementBoundary()
			p.skipNewlines()
			continue
		}
		method := p.parseFunctionDeclaration()
		if method == nil {
			p.skipToStatementBoundary()
			p.skipNewlines()
			continue
		}
		blk.Methods = append(blk.Methods, method)
		p.nextToken()
		p.skipNewlines()
	}
	return blk
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}
	return stmt
}
