package parser

import (
	"fmt"
	"sort"
)

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// TokenEOF marks the end of the stream.
	TokenEOF TokenType = iota
	// TokenName is an identifier, keyword literal or function name.
	TokenName
	// TokenNumber is an integer or floating point literal.
	TokenNumber
	// TokenString is a quoted string literal; Value holds the unescaped text.
	TokenString
	// TokenOperator is a unary or binary operator, including word operators.
	TokenOperator
	// TokenPunctuation is one of . , ? : ( ) [ ] { } ?. ??
	TokenPunctuation
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "end of expression"
	case TokenName:
		return "name"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenOperator:
		return "operator"
	case TokenPunctuation:
		return "punctuation"
	default:
		return "(unknown)"
	}
}

// Token represents a lexical token of an expression. Tokens are values and
// are never modified once produced.
type Token struct {
	Type     TokenType // Type of the token
	Value    string    // Literal value of the token
	Position int       // Byte offset in the source text
}

// Test reports whether the token has type tt and, when values are given,
// one of those values.
func (t Token) Test(tt TokenType, values ...string) bool {
	if t.Type != tt {
		return false
	}
	if len(values) == 0 {
		return true
	}
	for _, v := range values {
		if t.Value == v {
			return true
		}
	}
	return false
}

// String returns a debug representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%3d %-11s %s", t.Position, t.Type, t.Value)
}

// operators lists every operator the lexer recognizes, longest first so
// that multi-character operators win over their prefixes.
var operators = func() []string {
	ops := []string{
		"not in", "starts with", "ends with", "contains", "matches",
		"not", "and", "xor", "or", "in",
		"===", "!==",
		"==", "!=", "<=", ">=", "<<", ">>", "**", "..", "&&", "||",
		"<", ">", "+", "-", "*", "/", "%", "~", "!", "|", "^", "&",
	}
	sort.SliceStable(ops, func(i, j int) bool {
		return len(ops[i]) > len(ops[j])
	})
	return ops
}()

// punctuation2 lists the two-character punctuation tokens.
var punctuation2 = [...]string{"?.", "??"}

// isPunctuation reports whether r is a single-character punctuation token.
func isPunctuation(r rune) bool {
	switch r {
	case '.', ',', '?', ':', '(', ')', '[', ']', '{', '}':
		return true
	default:
		return false
	}
}

// closing maps opening brackets to their closing counterpart.
var closing = map[rune]rune{
	'(': ')',
	'[': ']',
	'{': '}',
}

// isWordOperator reports whether op is made of letters, e.g. "and".
func isWordOperator(op string) bool {
	c := op[len(op)-1]
	return c >= 'a' && c <= 'z'
}
