package lexer_test

import (
	"testing"

	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/lexer"
	"github.com/veld-lang/veld/internal/token"
)

// tokenTypes lexes the input and returns every token type except layout
// noise (NEWLINE, EOF), so cases can be written on one line.
func tokenTypes(input string) []token.TokenType {
	l := lexer.New(input)
	var out []token.TokenType
	for _, tok := range l.Tokenize() {
		if tok.Type == token.NEWLINE || tok.Type == token.EOF {
			continue
		}
		out = append(out, tok.Type)
	}
	return out
}

func TestTokenTypes(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []token.TokenType
	}{
		{"val_binding", "val x = 1",
			[]token.TokenType{token.VAL, token.IDENT, token.ASSIGN, token.INT}},
		{"mut_val", "mut val x = 1",
			[]token.TokenType{token.MUT, token.VAL, token.IDENT, token.ASSIGN, token.INT}},
		{"pipes", "a |> f |>> g",
			[]token.TokenType{token.IDENT, token.PIPE_GT, token.IDENT, token.PIPE_GT_MUT, token.IDENT}},
		{"bar_in_list_pattern", "[h | t]",
			[]token.TokenType{token.LBRACKET, token.IDENT, token.BAR, token.IDENT, token.RBRACKET}},
		{"arrows", "-> => - >",
			[]token.TokenType{token.ARROW, token.FAT_ARROW, token.MINUS, token.GT}},
		{"comparisons", "< <= > >= == !=",
			[]token.TokenType{token.LT, token.LT_EQ, token.GT, token.GT_EQ, token.EQ, token.NOT_EQ}},
		{"keywords", "fun record enum context impl with lifetime within match if else clone freeze",
			[]token.TokenType{token.FUN, token.RECORD, token.ENUM, token.CONTEXT, token.IMPL,
				token.WITH, token.LIFETIME_KW, token.WITHIN, token.MATCH, token.IF, token.ELSE,
				token.CLONE, token.FREEZE}},
		{"booleans", "true false",
			[]token.TokenType{token.TRUE, token.FALSE}},
		{"lifetime_marker", "'t",
			[]token.TokenType{token.LIFETIME}},
		{"line_comment_skipped", "1 // nothing here\n2",
			[]token.TokenType{token.INT, token.INT}},
		{"block_comment_skipped", "1 /* a /* nested */ b */ 2",
			[]token.TokenType{token.INT, token.INT}},
		{"osv_call", "(1, 2) add",
			[]token.TokenType{token.LPAREN, token.INT, token.COMMA, token.INT, token.RPAREN, token.IDENT}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tokenTypes(tc.input)
			if len(got) != len(tc.expected) {
				t.Fatalf("token count: got %d (%v), want %d (%v)", len(got), got, len(tc.expected), tc.expected)
			}
			for i := range got {
				if got[i] != tc.expected[i] {
					t.Errorf("token %d: got %s, want %s", i, got[i], tc.expected[i])
				}
			}
		})
	}
}

func TestLiteralValues(t *testing.T) {
	t.Run("integer", func(t *testing.T) {
		toks := lexer.New("42").Tokenize()
		if toks[0].Type != token.INT {
			t.Fatalf("got %s, want INT", toks[0].Type)
		}
		if v, _ := toks[0].Literal.(int64); v != 42 {
			t.Errorf("literal: got %v, want 42", toks[0].Literal)
		}
	})
	t.Run("float", func(t *testing.T) {
		toks := lexer.New("3.5").Tokenize()
		if toks[0].Type != token.FLOAT {
			t.Fatalf("got %s, want FLOAT", toks[0].Type)
		}
		if v, _ := toks[0].Literal.(float64); v != 3.5 {
			t.Errorf("literal: got %v, want 3.5", toks[0].Literal)
		}
	})
	t.Run("string_with_escapes", func(t *testing.T) {
		toks := lexer.New(`"a\nb\"c"`).Tokenize()
		if toks[0].Type != token.STRING {
			t.Fatalf("got %s, want STRING", toks[0].Type)
		}
		if v, _ := toks[0].Literal.(string); v != "a\nb\"c" {
			t.Errorf("literal: got %q", toks[0].Literal)
		}
	})
	t.Run("lifetime_name", func(t *testing.T) {
		toks := lexer.New("'region").Tokenize()
		if toks[0].Type != token.LIFETIME {
			t.Fatalf("got %s, want LIFETIME", toks[0].Type)
		}
		if v, _ := toks[0].Literal.(string); v != "region" {
			t.Errorf("literal: got %q, want region", toks[0].Literal)
		}
	})
	t.Run("dot_not_consumed_by_int", func(t *testing.T) {
		toks := lexer.New("p.x").Tokenize()
		want := []token.TokenType{token.IDENT, token.DOT, token.IDENT, token.EOF}
		for i, w := range want {
			if toks[i].Type != w {
				t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
			}
		}
	})
}

func TestLexErrors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		code  diagnostics.Code
	}{
		{"unexpected_character", "val x = @", diagnostics.ErrL001},
		{"unterminated_string", `"abc`, diagnostics.ErrL002},
		{"unknown_escape", `"a\qb"`, diagnostics.ErrL002},
		{"unterminated_block_comment", "/* never closed", diagnostics.ErrL003},
		{"integer_overflow", "99999999999999999999", diagnostics.ErrL004},
		{"bare_tick", "' ", diagnostics.ErrL001},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := lexer.New(tc.input)
			l.Tokenize()
			errs := l.Errors()
			if len(errs) == 0 {
				t.Fatal("expected a diagnostic, got none")
			}
			if errs[0].Code != tc.code {
				t.Errorf("code: got %s, want %s", errs[0].Code, tc.code)
			}
		})
	}
}

func TestSpans(t *testing.T) {
	toks := lexer.New("val answer = 42").Tokenize()
	ident := toks[1]
	if ident.Line != 1 || ident.Column != 5 {
		t.Errorf("ident start: got %d:%d, want 1:5", ident.Line, ident.Column)
	}
	if ident.EndColumn != 11 {
		t.Errorf("ident end column: got %d, want 11", ident.EndColumn)
	}
	lit := toks[3]
	if lit.Line != 1 || lit.Column != 14 {
		t.Errorf("literal start: got %d:%d, want 1:14", lit.Line, lit.Column)
	}
}
