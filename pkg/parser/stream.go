package parser

import (
	"fmt"
	"strings"

	"github.com/sandrolain/goexpr/pkg/types"
)

// TokenStream is a forward-only cursor over a token sequence.
type TokenStream struct {
	tokens   []Token
	position int
	source   string
}

// NewTokenStream creates a stream over tokens. If the sequence does not
// end with a TokenEOF token, one is appended.
func NewTokenStream(tokens []Token, source string) *TokenStream {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != TokenEOF {
		tokens = append(tokens, Token{Type: TokenEOF, Position: len(source)})
	}
	return &TokenStream{tokens: tokens, source: source}
}

// Current returns the token under the cursor.
func (s *TokenStream) Current() Token {
	return s.tokens[s.position]
}

// Next advances the cursor. Moving past the end of the stream is an error.
func (s *TokenStream) Next() error {
	if s.position+1 >= len(s.tokens) {
		return types.NewSyntaxError("Unexpected end of expression", s.Current().Position, s.source)
	}
	s.position++
	return nil
}

// Expect checks that the current token has type tt (and value, when not
// empty), then advances. message, when set, prefixes the error.
func (s *TokenStream) Expect(tt TokenType, value, message string) error {
	t := s.Current()
	if !t.Test(tt) || (value != "" && t.Value != value) {
		var b strings.Builder
		if message != "" {
			b.WriteString(message)
			b.WriteString(". ")
		}
		fmt.Fprintf(&b, "Unexpected token %q of value %q (%q expected", t.Type.String(), t.Value, tt.String())
		if value != "" {
			fmt.Fprintf(&b, " with value %q", value)
		}
		b.WriteString(")")
		return types.NewSyntaxError(b.String(), t.Position, s.source).WithToken(t.Value)
	}
	return s.Next()
}

// IsEOF reports whether the cursor is on the end-of-stream token.
func (s *TokenStream) IsEOF() bool {
	return s.Current().Type == TokenEOF
}

// Source returns the expression text the tokens were produced from.
func (s *TokenStream) Source() string {
	return s.source
}

// Tokens returns a copy of the whole token sequence.
func (s *TokenStream) Tokens() []Token {
	out := make([]Token, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// String returns one token per line, for debugging.
func (s *TokenStream) String() string {
	lines := make([]string, len(s.tokens))
	for i, t := range s.tokens {
		lines[i] = t.String()
	}
	return strings.Join(lines, "\n")
}
