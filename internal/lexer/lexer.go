package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/token"
)

// Lexer turns Veld source text into a token stream. It never skips bad
// input silently: unknown runes and unterminated literals produce ILLEGAL
// tokens plus a diagnostic, and lexing continues.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number

	errors []*diagnostics.Diagnostic
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

// Errors returns the diagnostics accumulated so far.
func (l *Lexer) Errors() []*diagnostics.Diagnostic {
	return l.errors
}

// Tokenize consumes the whole input and returns the token list, ending with
// an EOF token.
func (l *Lexer) Tokenize() []token.Token {
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
		l.ch = r
		l.position = l.readPosition
		l.readPosition += w
		l.column++
		return
	}

	l.position = l.readPosition
	l.readPosition++
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) peekCharAt(offset int) rune {
	pos := l.readPosition
	for i := 0; i < offset; i++ {
		if pos >= len(l.input) {
			return 0
		}
		_, w := utf8.DecodeRuneInString(l.input[pos:])
		pos += w
	}
	if pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[pos:])
	return r
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	// Comments are skipped here so every call yields a real token.
	for {
		if l.ch == '/' && l.peekChar() == '/' {
			l.skipLineComment()
			l.skipWhitespace()
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			l.skipBlockComment()
			l.skipWhitespace()
			continue
		}
		break
	}

	startLine, startCol := l.line, l.column

	var tok token.Token
	switch l.ch {
	case '\n':
		tok = l.newToken(token.NEWLINE, "\n", startLine, startCol)
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.newToken(token.EQ, "==", startLine, startCol)
		} else if l.peekChar() == '>' {
			l.readChar()
			tok = l.newToken(token.FAT_ARROW, "=>", startLine, startCol)
		} else {
			tok = l.newToken(token.ASSIGN, "=", startLine, startCol)
		}
	case '+':
		tok = l.newToken(token.PLUS, "+", startLine, startCol)
	case '-':
		if l.peekChar() == '>' {
			l.readChar()
			tok = l.newToken(token.ARROW, "->", startLine, startCol)
		} else {
			tok = l.newToken(token.MINUS, "-", startLine, startCol)
		}
	case '*':
		tok = l.newToken(token.ASTERISK, "*", startLine, startCol)
	case '/':
		tok = l.newToken(token.SLASH, "/", startLine, startCol)
	case '%':
		tok = l.newToken(token.PERCENT, "%", startLine, startCol)
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.newToken(token.NOT_EQ, "!=", startLine, startCol)
		} else {
			tok = l.newToken(token.BANG, "!", startLine, startCol)
		}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.newToken(token.LT_EQ, "<=", startLine, startCol)
		} else {
			tok = l.newToken(token.LT, "<", startLine, startCol)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.newToken(token.GT_EQ, ">=", startLine, startCol)
		} else {
			tok = l.newToken(token.GT, ">", startLine, startCol)
		}
	case '|':
		// Longest match: |>> before |> before bare |.
		if l.peekChar() == '>' && l.peekCharAt(1) == '>' {
			l.readChar()
			l.readChar()
			tok = l.newToken(token.PIPE_GT_MUT, "|>>", startLine, startCol)
		} else if l.peekChar() == '>' {
			l.readChar()
			tok = l.newToken(token.PIPE_GT, "|>", startLine, startCol)
		} else {
			tok = l.newToken(token.BAR, "|", startLine, startCol)
		}
	case '.':
		tok = l.newToken(token.DOT, ".", startLine, startCol)
	case ',':
		tok = l.newToken(token.COMMA, ",", startLine, startCol)
	case ':':
		tok = l.newToken(token.COLON, ":", startLine, startCol)
	case ';':
		tok = l.newToken(token.SEMICOLON, ";", startLine, startCol)
	case '(':
		tok = l.newToken(token.LPAREN, "(", startLine, startCol)
	case ')':
		tok = l.newToken(token.RPAREN, ")", startLine, startCol)
	case '{':
		tok = l.newToken(token.LBRACE, "{", startLine, startCol)
	case '}':
		tok = l.newToken(token.RBRACE, "}", startLine, startCol)
	case '[':
		tok = l.newToken(token.LBRACKET, "[", startLine, startCol)
	case ']':
		tok = l.newToken(token.RBRACKET, "]", startLine, startCol)
	case '"':
		return l.readString(startLine, startCol)
	case '\'':
		return l.readLifetime(startLine, startCol)
	case 0:
		tok = token.Token{Type: token.EOF, Line: startLine, Column: startCol, EndLine: startLine, EndColumn: startCol}
	default:
		if isLetter(l.ch) {
			return l.readIdentifier(startLine, startCol)
		}
		if isDigit(l.ch) {
			return l.readNumber(startLine, startCol)
		}
		lexeme := string(l.ch)
		tok = l.newToken(token.ILLEGAL, lexeme, startLine, startCol)
		l.errors = append(l.errors, diagnostics.NewErrorf(diagnostics.ErrL001, tok, "unexpected character %q", lexeme))
	}

	l.readChar()
	return tok
}

func (l *Lexer) newToken(tt token.TokenType, lexeme string, line, col int) token.Token {
	return token.Token{
		Type:      tt,
		Lexeme:    lexeme,
		Literal:   lexeme,
		Line:      line,
		Column:    col,
		EndLine:   l.line,
		EndColumn: l.column + 1,
	}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// skipBlockComment handles nested /* */ comments. An unterminated comment is
// a lex error anchored at its opening delimiter.
func (l *Lexer) skipBlockComment() {
	openTok := l.newToken(token.ILLEGAL, "/*", l.line, l.column)
	depth := 0
	for {
		if l.ch == 0 {
			l.errors = append(l.errors, diagnostics.NewError(diagnostics.ErrL003, openTok, "unterminated block comment"))
			return
		}
		if l.ch == '/' && l.peekChar() == '*' {
			depth++
			l.readChar()
			l.readChar()
			continue
		}
		if l.ch == '*' && l.peekChar() == '/' {
			depth--
			l.readChar()
			l.readChar()
			if depth == 0 {
				return
			}
			continue
		}
		l.readChar()
	}
}

func (l *Lexer) readIdentifier(startLine, startCol int) token.Token {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	lexeme := l.input[start:l.position]
	return token.Token{
		Type:      token.LookupIdent(lexeme),
		Lexeme:    lexeme,
		Literal:   lexeme,
		Line:      startLine,
		Column:    startCol,
		EndLine:   startLine,
		EndColumn: startCol + len(lexeme),
	}
}

// readLifetime reads a 't-style lifetime marker.
func (l *Lexer) readLifetime(startLine, startCol int) token.Token {
	l.readChar() // consume '
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	name := l.input[start:l.position]
	tok := token.Token{
		Type:      token.LIFETIME,
		Lexeme:    "'" + name,
		Literal:   name,
		Line:      startLine,
		Column:    startCol,
		EndLine:   startLine,
		EndColumn: startCol + len(name) + 1,
	}
	if name == "" {
		tok.Type = token.ILLEGAL
		l.errors = append(l.errors, diagnostics.NewError(diagnostics.ErrL001, tok, "expected lifetime name after '"))
	}
	return tok
}

func (l *Lexer) readNumber(startLine, startCol int) token.Token {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	isFloat := false
	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	lexeme := l.input[start:l.position]
	tok := token.Token{
		Lexeme:    lexeme,
		Line:      startLine,
		Column:    startCol,
		EndLine:   startLine,
		EndColumn: startCol + len(lexeme),
	}
	if isFloat {
		tok.Type = token.FLOAT
		v, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			tok.Type = token.ILLEGAL
			l.errors = append(l.errors, diagnostics.NewErrorf(diagnostics.ErrL004, tok, "malformed float literal %q", lexeme))
		}
		tok.Literal = v
	} else {
		tok.Type = token.INT
		v, err := strconv.ParseInt(lexeme, 10, 64)
		if err != nil {
			tok.Type = token.ILLEGAL
			l.errors = append(l.errors, diagnostics.NewErrorf(diagnostics.ErrL004, tok, "malformed integer literal %q", lexeme))
		}
		tok.Literal = v
	}
	return tok
}

func (l *Lexer) readString(startLine, startCol int) token.Token {
	var sb strings.Builder
	l.readChar() // consume opening quote
	for {
		switch l.ch {
		case '"':
			l.readChar() // consume closing quote
			return token.Token{
				Type:      token.STRING,
				Lexeme:    `"` + sb.String() + `"`,
				Literal:   sb.String(),
				Line:      startLine,
				Column:    startCol,
				EndLine:   l.line,
				EndColumn: l.column,
			}
		case 0, '\n':
			tok := token.Token{
				Type:      token.ILLEGAL,
				Lexeme:    sb.String(),
				Line:      startLine,
				Column:    startCol,
				EndLine:   l.line,
				EndColumn: l.column,
			}
			l.errors = append(l.errors, diagnostics.NewError(diagnostics.ErrL002, tok, "unterminated string literal"))
			return tok
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case '0':
				sb.WriteByte(0)
			default:
				bad := l.newToken(token.ILLEGAL, "\\"+string(l.ch), l.line, l.column-1)
				l.errors = append(l.errors, diagnostics.NewErrorf(diagnostics.ErrL002, bad, "unknown escape sequence \\%c", l.ch))
			}
			l.readChar()
		default:
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
