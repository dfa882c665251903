package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sandrolain/goexpr/pkg/types"
)

const eof = -1

// Lexer converts an expression into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input    string // Input string being scanned
	length   int    // Length of input string
	start    int    // Start position of current token
	current  int    // Current position in input
	width    int    // Width of last rune read
	brackets []bracket
}

type bracket struct {
	char     rune
	position int
}

// NewLexer creates a new lexer for input.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Tokenize scans source and returns the resulting token stream.
func Tokenize(source string) (*TokenStream, error) {
	return NewLexer(source).Tokenize()
}

// Tokenize scans the whole input. The returned stream always ends with a
// TokenEOF token.
func (l *Lexer) Tokenize() (*TokenStream, error) {
	var tokens []Token
	for {
		l.skipWhitespace()
		if l.current >= l.length {
			break
		}
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}

	if len(l.brackets) > 0 {
		b := l.brackets[len(l.brackets)-1]
		return nil, l.errorAt(fmt.Sprintf("Unclosed %q", string(b.char)), b.position)
	}

	tokens = append(tokens, Token{Type: TokenEOF, Position: l.current})
	return NewTokenStream(tokens, l.input), nil
}

// next scans one token starting at the current position.
func (l *Lexer) next() (Token, error) {
	ch := l.nextRune()

	switch {
	case isDigit(ch) || (ch == '.' && isDigit(l.peek())):
		l.current = l.start
		return l.scanNumber()

	case ch == '(' || ch == '[' || ch == '{':
		l.brackets = append(l.brackets, bracket{char: ch, position: l.start})
		return l.newToken(TokenPunctuation), nil

	case ch == ')' || ch == ']' || ch == '}':
		if len(l.brackets) == 0 {
			return Token{}, l.errorAt(fmt.Sprintf("Unexpected %q", string(ch)), l.start)
		}
		top := l.brackets[len(l.brackets)-1]
		if closing[top.char] != ch {
			return Token{}, l.errorAt(fmt.Sprintf("Unclosed %q", string(top.char)), top.position)
		}
		l.brackets = l.brackets[:len(l.brackets)-1]
		return l.newToken(TokenPunctuation), nil

	case ch == '"' || ch == '\'':
		l.ignore()
		return l.scanString(ch)
	}

	l.current = l.start
	if op, ok := l.matchOperator(); ok {
		l.current += len(op)
		return l.newToken(TokenOperator), nil
	}

	for _, p := range punctuation2 {
		if strings.HasPrefix(l.input[l.current:], p) {
			// "?.5" is a ternary followed by a number, not a null-safe access.
			if p == "?." && l.current+2 < l.length && isDigit(rune(l.input[l.current+2])) {
				continue
			}
			l.current += len(p)
			return l.newToken(TokenPunctuation), nil
		}
	}

	ch = l.nextRune()
	if isPunctuation(ch) {
		return l.newToken(TokenPunctuation), nil
	}

	if isNameStart(ch) {
		l.acceptAll(isNameChar)
		return l.newToken(TokenName), nil
	}

	return Token{}, l.errorAt(fmt.Sprintf("Unexpected character %q", string(ch)), l.start)
}

// matchOperator returns the longest operator at the current position.
// Word operators must stand alone: "notable" is a name, not "not" + "able".
func (l *Lexer) matchOperator() (string, bool) {
	rest := l.input[l.current:]
	for _, op := range operators {
		if !strings.HasPrefix(rest, op) {
			continue
		}
		if isWordOperator(op) {
			if l.current > 0 {
				prev, _ := utf8.DecodeLastRuneInString(l.input[:l.current])
				if isNameChar(prev) || prev == '.' {
					continue
				}
			}
			if next, _ := utf8.DecodeRuneInString(rest[len(op):]); len(rest) > len(op) && isNameChar(next) {
				continue
			}
		}
		return op, true
	}
	return "", false
}

// scanNumber reads a number literal from the current position.
// Format: [0-9][0-9_]*(\.[0-9_]+)?([eE][+-]?[0-9_]+)? or .[0-9]+
// Underscores are digit separators and are dropped from the token value.
func (l *Lexer) scanNumber() (Token, error) {
	l.acceptAll(isDigitOrSeparator)

	// A dot starts the fractional part only when followed by a digit,
	// so that "1..5" lexes as 1, .., 5.
	if l.peek() == '.' && l.current+1 < l.length && isDigit(rune(l.input[l.current+1])) {
		l.nextRune()
		l.acceptAll(isDigitOrSeparator)
	}

	if l.acceptRunes2('e', 'E') {
		l.acceptRunes2('+', '-')
		if !l.acceptAll(isDigitOrSeparator) {
			return Token{}, l.errorAt("Invalid number exponent", l.start)
		}
	}

	t := l.newToken(TokenNumber)
	t.Value = strings.ReplaceAll(t.Value, "_", "")
	return t, nil
}

// scanString reads a string literal. The opening quote has already been
// consumed. The token value holds the unescaped content.
func (l *Lexer) scanString(quote rune) (Token, error) {
	pos := l.start - 1
Loop:
	for {
		switch l.nextRune() {
		case quote:
			break Loop
		case '\\':
			if r := l.nextRune(); r != eof {
				break
			}
			fallthrough
		case eof:
			return Token{}, l.errorAt("Unterminated string literal", pos)
		}
	}

	l.backup()
	raw := l.input[l.start:l.current]
	l.acceptRune(quote)
	l.width = 0
	l.start = l.current

	return Token{Type: TokenString, Value: unescapeString(raw), Position: pos}, nil
}

// unescapeString processes backslash escapes the way C-style strings do:
// \n \t \r \v \f \e \0..\777 \xHH, and any other escaped character stands
// for itself.
func unescapeString(s string) string {
	if !strings.Contains(s, "\\") {
		return s // Fast path: no escapes
	}

	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			result.WriteByte(s[i])
			continue
		}
		i++
		switch c := s[i]; c {
		case 'n':
			result.WriteByte('\n')
		case 't':
			result.WriteByte('\t')
		case 'r':
			result.WriteByte('\r')
		case 'v':
			result.WriteByte('\v')
		case 'f':
			result.WriteByte('\f')
		case 'e':
			result.WriteByte(0x1b)
		case 'x':
			j := i + 1
			for j < len(s) && j < i+3 && isHex(s[j]) {
				j++
			}
			if j == i+1 {
				result.WriteByte('x')
				continue
			}
			n, _ := strconv.ParseUint(s[i+1:j], 16, 8)
			result.WriteByte(byte(n))
			i = j - 1
		default:
			if c >= '0' && c <= '7' {
				j := i
				for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
					j++
				}
				n, _ := strconv.ParseUint(s[i:j], 8, 16)
				result.WriteByte(byte(n))
				i = j - 1
				continue
			}
			result.WriteByte(c)
		}
	}

	return result.String()
}

// Helper methods

func (l *Lexer) errorAt(message string, position int) error {
	token := ""
	if position < l.length {
		r, _ := utf8.DecodeRuneInString(l.input[position:])
		token = string(r)
	}
	return types.NewSyntaxError(message, position, l.input).WithToken(token)
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) peek() rune {
	r := l.nextRune()
	l.backup()
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
	l.width = 0
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

func (l *Lexer) skipWhitespace() {
	l.acceptAll(isWhitespace)
	l.ignore()
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isDigitOrSeparator(r rune) bool {
	return isDigit(r) || r == '_'
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isNameStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r >= 0x80
}

func isNameChar(r rune) bool {
	return isNameStart(r) || isDigit(r)
}
