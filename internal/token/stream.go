package token

// Stream is an immutable token sequence with bounded lookahead, consumed
// left-to-right by the parser.
type Stream struct {
	tokens []Token
	pos    int
}

func NewStream(tokens []Token) *Stream {
	return &Stream{tokens: tokens}
}

// Next returns the next token, or EOF forever once exhausted.
func (s *Stream) Next() Token {
	if s.pos >= len(s.tokens) {
		return Token{Type: EOF}
	}
	tok := s.tokens[s.pos]
	s.pos++
	return tok
}

// Peek returns up to n upcoming tokens without consuming them.
func (s *Stream) Peek(n int) []Token {
	end := s.pos + n
	if end > len(s.tokens) {
		end = len(s.tokens)
	}
	return s.tokens[s.pos:end]
}

// Tokens returns the full underlying sequence.
func (s *Stream) Tokens() []Token {
	return s.tokens
}
