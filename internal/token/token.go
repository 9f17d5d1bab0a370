package token

// TokenType identifies the lexical class of a token.
type TokenType string

// Token is a single lexical unit with its source span. Literal carries the
// decoded value for literal tokens (int64, float64, string).
type Token struct {
	Type      TokenType
	Lexeme    string
	Literal   interface{}
	Line      int // 1-based start line
	Column    int // 1-based start column
	EndLine   int
	EndColumn int
}

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"
	NEWLINE = "NEWLINE"

	// Identifiers and literals
	IDENT    = "IDENT"
	INT      = "INT"
	FLOAT    = "FLOAT"
	STRING   = "STRING"
	LIFETIME = "LIFETIME" // 't

	// Operators
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	ASTERISK = "*"
	SLASH    = "/"
	PERCENT  = "%"
	BANG     = "!"

	EQ     = "=="
	NOT_EQ = "!="
	LT     = "<"
	GT     = ">"
	LT_EQ  = "<="
	GT_EQ  = ">="

	PIPE_GT     = "|>"
	PIPE_GT_MUT = "|>>"
	BAR         = "|"
	ARROW       = "->"
	FAT_ARROW   = "=>"
	DOT         = "."

	// Delimiters
	COMMA     = ","
	COLON     = ":"
	SEMICOLON = ";"
	LPAREN    = "("
	RPAREN    = ")"
	LBRACE    = "{"
	RBRACE    = "}"
	LBRACKET  = "["
	RBRACKET  = "]"

	// Keywords
	VAL         = "VAL"
	MUT         = "MUT"
	FUN         = "FUN"
	RECORD      = "RECORD"
	ENUM        = "ENUM"
	CONTEXT     = "CONTEXT"
	IMPL        = "IMPL"
	WITH        = "WITH"
	LIFETIME_KW = "LIFETIME_KW"
	WITHIN      = "WITHIN"
	MATCH       = "MATCH"
	IF          = "IF"
	ELSE        = "ELSE"
	CLONE       = "CLONE"
	FREEZE      = "FREEZE"
	TRUE        = "TRUE"
	FALSE       = "FALSE"
)

var keywords = map[string]TokenType{
	"val":      VAL,
	"mut":      MUT,
	"fun":      FUN,
	"record":   RECORD,
	"enum":     ENUM,
	"context":  CONTEXT,
	"impl":     IMPL,
	"with":     WITH,
	"lifetime": LIFETIME_KW,
	"within":   WITHIN,
	"match":    MATCH,
	"if":       IF,
	"else":     ELSE,
	"clone":    CLONE,
	"freeze":   FREEZE,
	"true":     TRUE,
	"false":    FALSE,
}

// LookupIdent returns the keyword type for ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if tt, ok := keywords[ident]; ok {
		return tt
	}
	return IDENT
}
