package parser

import (
	"github.com/veld-lang/veld/internal/ast"
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/token"
)

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	lit := &ast.IntegerLiteral{Token: p.curToken}
	if v, ok := p.curToken.Literal.(int64); ok {
		lit.Value = v
	}
	return lit
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	lit := &ast.FloatLiteral{Token: p.curToken}
	if v, ok := p.curToken.Literal.(float64); ok {
		lit.Value = v
	}
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	lit := &ast.StringLiteral{Token: p.curToken}
	if v, ok := p.curToken.Literal.(string); ok {
		lit.Value = v
	}
	return lit
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.PrefixExpression{Token: p.curToken, Operator: p.curToken.Lexeme}
	p.nextToken()
	expr.Right = p.parseExpression(PREFIX)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Lexeme,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}
	return expr
}

// parsePipeExpression parses x |> f and x |>> f. The right side is parsed
// at pipe precedence so postfix application and calls bind tighter.
func (p *Parser) parsePipeExpression(left ast.Expression) ast.Expression {
	expr := &ast.PipeExpression{
		Token:   p.curToken,
		Left:    left,
		Mutable: p.curTokenIs(token.PIPE_GT_MUT),
	}
	p.nextToken()
	// Allow the stage to start on the next line.
	p.skipNewlines()
	expr.Right = p.parseExpression(PIPE)
	if expr.Right == nil {
		return nil
	}
	// Mutability is a property of the whole chain result.
	if inner, ok := expr.Left.(*ast.PipeExpression); ok && inner.Mutable {
		expr.Mutable = true
	}
	return expr
}

// parseCallExpression parses f(a, b) with curToken on '('.
func (p *Parser) parseCallExpression(fn ast.Expression) ast.Expression {
	call := &ast.CallExpression{Token: p.curToken, Function: fn}
	call.Arguments = p.parseExpressionList(token.RPAREN)
	if call.Arguments == nil {
		return nil
	}
	return call
}

// parsePostfixApplication desugars OSV forms: `x f` becomes f(x) and
// `(a, b) f` becomes f(a, b). The subject is the current identifier.
func (p *Parser) parsePostfixApplication(object ast.Expression) ast.Expression {
	subject := &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
	call := &ast.CallExpression{Token: p.curToken, Function: subject, FromOSV: true}
	if tuple, ok := object.(*ast.TupleLiteral); ok {
		call.Arguments = tuple.Elements
	} else {
		call.Arguments = []ast.Expression{object}
	}
	return call
}

// parseGroupedOrTuple parses (expr) as grouping and (a, b) as a tuple
// argument group for OSV application.
func (p *Parser) parseGroupedOrTuple() ast.Expression {
	lparen := p.curToken
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return &ast.TupleLiteral{Token: lparen}
	}
	p.nextToken()
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return first
	}
	tuple := &ast.TupleLiteral{Token: lparen, Elements: []ast.Expression{first}}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		el := p.parseExpression(LOWEST)
		if el == nil {
			return nil
		}
		tuple.Elements = append(tuple.Elements, el)
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return tuple
}

// parseExpressionList parses a comma-separated list up to the end token,
// with curToken on the opening delimiter.
func (p *Parser) parseExpressionList(end token.TokenType) []ast.Expression {
	list := []ast.Expression{}
	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}
	p.nextToken()
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}
	list = append(list, first)
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		el := p.parseExpression(LOWEST)
		if el == nil {
			return nil
		}
		list = append(list, el)
	}
	if !p.expectPeek(end) {
		return nil
	}
	return list
}

func (p *Parser) parseListLiteral() ast.Expression {
	lit := &ast.ListLiteral{Token: p.curToken}
	lit.Elements = p.parseExpressionList(token.RBRACKET)
	if lit.Elements == nil {
		return nil
	}
	return lit
}

func (p *Parser) parseBlockAsExpression() ast.Expression {
	block := p.parseBlockExpression()
	if block == nil {
		return nil
	}
	return block
}

// parseBlockExpression parses { stmt; stmt; ... } with curToken on '{'.
func (p *Parser) parseBlockExpression() *ast.BlockExpression {
	block := &ast.BlockExpression{Token: p.curToken}
	p.nextToken()
	p.skipNewlines()
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.errorAt(block.Token, diagnostics.ErrP002, "unterminated block, expected \"}\"")
			return nil
		}
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		} else {
			p.skipToStatementBoundary()
		}
		p.nextToken()
		p.skipNewlines()
	}
	return block
}

// parseIfExpression parses if cond { ... } else { ... } with optional
// else-if chaining.
func (p *Parser) parseIfExpression() ast.Expression {
	expr := &ast.IfExpression{Token: p.curToken}

	p.nextToken()
	saved := p.noRecordLiteral
	p.noRecordLiteral = true
	expr.Condition = p.parseExpression(LOWEST)
	p.noRecordLiteral = saved
	if expr.Condition == nil {
		return nil
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expr.Consequence = p.parseBlockExpression()
	if expr.Consequence == nil {
		return nil
	}

	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if p.peekTokenIs(token.IF) {
			p.nextToken()
			expr.Alternative = p.parseIfExpression()
		} else {
			if !p.expectPeek(token.LBRACE) {
				return nil
			}
			alt := p.parseBlockExpression()
			if alt == nil {
				return nil
			}
			expr.Alternative = alt
		}
		if expr.Alternative == nil {
			return nil
		}
	}
	return expr
}

// parseDotExpression handles field access, clone, freeze and method calls,
// with curToken on '.'.
func (p *Parser) parseDotExpression(object ast.Expression) ast.Expression {
	dot := p.curToken
	switch p.peekToken.Type {
	case token.CLONE:
		p.nextToken()
		cloneTok := p.curToken
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		overrides := p.parseFieldInits()
		if overrides == nil {
			return nil
		}
		return &ast.CloneExpression{Token: cloneTok, Source: object, Overrides: overrides}
	case token.FREEZE:
		p.nextToken()
		return &ast.FreezeExpression{Token: p.curToken, Target: object}
	case token.IDENT:
		p.nextToken()
		name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
		if p.peekTokenIs(token.LPAREN) {
			p.nextToken()
			call := &ast.MethodCall{Token: dot, Object: object, Method: name}
			call.Arguments = p.parseExpressionList(token.RPAREN)
			if call.Arguments == nil {
				return nil
			}
			return call
		}
		return &ast.FieldAccess{Token: dot, Object: object, Field: name}
	default:
		p.errorAt(p.peekToken, diagnostics.ErrP001, "expected field, method, clone or freeze after \".\", got %s", describeToken(p.peekToken))
		return nil
	}
}

// parseFieldInits parses { name: expr, ... } with curToken on '{'.
func (p *Parser) parseFieldInits() []*ast.FieldInit {
	fields := []*ast.FieldInit{}
	p.nextToken()
	p.skipNewlines()
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.errorAt(p.curToken, diagnostics.ErrP002, "unterminated field list, expected \"}\"")
			return nil
		}
		if !p.curTokenIs(token.IDENT) {
			p.errorAt(p.curToken, diagnostics.ErrP001, "expected field name, got %s", describeToken(p.curToken))
			return nil
		}
		init := &ast.FieldInit{
			Token: p.curToken,
			Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme},
		}
		if !p.expectPeek(token.COLON) {
			return nil
		}
		p.nextToken()
		init.Value = p.parseExpression(LOWEST)
		if init.Value == nil {
			return nil
		}
		fields = append(fields, init)
		p.nextToken()
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
		}
		p.skipNewlines()
	}
	return fields
}

// parseRecordLiteral parses Name { field: expr, ... } with curToken on '{'
// and the type name already parsed as left.
func (p *Parser) parseRecordLiteral(left ast.Expression) ast.Expression {
	name, ok := left.(*ast.Identifier)
	if !ok {
		p.errorAt(p.curToken, diagnostics.ErrP001, "record literal requires a type name")
		return nil
	}
	lit := &ast.RecordLiteral{Token: name.Token, Name: name}
	lit.Fields = p.parseFieldInits()
	if lit.Fields == nil {
		return nil
	}
	return lit
}

// parseWithExpression parses the two with forms:
// with lifetime<'t> { body } and with Ctx { fields } { body }
func (p *Parser) parseWithExpression() ast.Expression {
	withTok := p.curToken

	if p.peekTokenIs(token.LIFETIME_KW) {
		p.nextToken()
		expr := &ast.WithLifetimeExpression{Token: withTok}
		if !p.expectPeek(token.LT) {
			return nil
		}
		if !p.expectPeek(token.LIFETIME) {
			return nil
		}
		expr.Name, _ = p.curToken.Literal.(string)
		if p.peekTokenIs(token.WITHIN) {
			p.nextToken()
			if !p.expectPeek(token.LIFETIME) {
				return nil
			}
			expr.Within, _ = p.curToken.Literal.(string)
		}
		if !p.expectPeek(token.GT) {
			return nil
		}
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		expr.Body = p.parseBlockExpression()
		if expr.Body == nil {
			return nil
		}
		return expr
	}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	expr := &ast.WithContextExpression{Token: withTok}
	expr.Context = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expr.Fields = p.parseFieldInits()
	if expr.Fields == nil {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expr.Body = p.parseBlockExpression()
	if expr.Body == nil {
		return nil
	}
	return expr
}
