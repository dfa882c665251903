package parser_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/goexpr/pkg/parser"
	"github.com/sandrolain/goexpr/pkg/types"
)

type lexerTestCase struct {
	name     string
	input    string
	expected []parser.Token
}

func tok(tt parser.TokenType, value string, pos int) parser.Token {
	return parser.Token{Type: tt, Value: value, Position: pos}
}

func runLexerTests(t *testing.T, tests []lexerTestCase) {
	t.Helper()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			stream, err := parser.Tokenize(tc.input)
			require.NoError(t, err)

			tokens := stream.Tokens()
			require.NotEmpty(t, tokens)
			last := tokens[len(tokens)-1]
			assert.Equal(t, parser.TokenEOF, last.Type)
			assert.Equal(t, tc.expected, tokens[:len(tokens)-1])
		})
	}
}

func TestLexerWhitespace(t *testing.T) {
	t.Parallel()
	runLexerTests(t, []lexerTestCase{
		{name: "no whitespace", input: "abc", expected: []parser.Token{tok(parser.TokenName, "abc", 0)}},
		{name: "leading whitespace", input: "   abc", expected: []parser.Token{tok(parser.TokenName, "abc", 3)}},
		{name: "trailing whitespace", input: "abc   ", expected: []parser.Token{tok(parser.TokenName, "abc", 0)}},
		{name: "mixed whitespace", input: " \t\n\r\vabc", expected: []parser.Token{tok(parser.TokenName, "abc", 5)}},
		{name: "empty", input: "", expected: []parser.Token{}},
	})
}

func TestLexerNumbers(t *testing.T) {
	t.Parallel()
	runLexerTests(t, []lexerTestCase{
		{name: "integer", input: "42", expected: []parser.Token{tok(parser.TokenNumber, "42", 0)}},
		{name: "float", input: "3.14", expected: []parser.Token{tok(parser.TokenNumber, "3.14", 0)}},
		{name: "leading dot", input: ".5", expected: []parser.Token{tok(parser.TokenNumber, ".5", 0)}},
		{name: "exponent", input: "1e3", expected: []parser.Token{tok(parser.TokenNumber, "1e3", 0)}},
		{name: "signed exponent", input: "2.5E-4", expected: []parser.Token{tok(parser.TokenNumber, "2.5E-4", 0)}},
		{name: "separators dropped", input: "1_000_000", expected: []parser.Token{tok(parser.TokenNumber, "1000000", 0)}},
		{
			name:  "range is not a fraction",
			input: "1..5",
			expected: []parser.Token{
				tok(parser.TokenNumber, "1", 0),
				tok(parser.TokenOperator, "..", 1),
				tok(parser.TokenNumber, "5", 3),
			},
		},
	})
}

func TestLexerStrings(t *testing.T) {
	t.Parallel()
	runLexerTests(t, []lexerTestCase{
		{name: "double quoted", input: `"hello"`, expected: []parser.Token{tok(parser.TokenString, "hello", 0)}},
		{name: "single quoted", input: `'hello'`, expected: []parser.Token{tok(parser.TokenString, "hello", 0)}},
		{name: "empty string", input: `""`, expected: []parser.Token{tok(parser.TokenString, "", 0)}},
		{name: "escaped quote", input: `"a\"b"`, expected: []parser.Token{tok(parser.TokenString, `a"b`, 0)}},
		{name: "newline escape", input: `"a\nb"`, expected: []parser.Token{tok(parser.TokenString, "a\nb", 0)}},
		{name: "hex escape", input: `"\x41"`, expected: []parser.Token{tok(parser.TokenString, "A", 0)}},
		{name: "octal escape", input: `"\101"`, expected: []parser.Token{tok(parser.TokenString, "A", 0)}},
		{name: "other escape", input: `'\d+'`, expected: []parser.Token{tok(parser.TokenString, `d+`, 0)}},
		{name: "escaped backslash", input: `'a\\b'`, expected: []parser.Token{tok(parser.TokenString, `a\b`, 0)}},
		{name: "position after name", input: `a ~ "b"`, expected: []parser.Token{
			tok(parser.TokenName, "a", 0),
			tok(parser.TokenOperator, "~", 2),
			tok(parser.TokenString, "b", 4),
		}},
	})
}

func TestLexerOperators(t *testing.T) {
	t.Parallel()
	runLexerTests(t, []lexerTestCase{
		{
			name:  "longest match",
			input: "a === b",
			expected: []parser.Token{
				tok(parser.TokenName, "a", 0),
				tok(parser.TokenOperator, "===", 2),
				tok(parser.TokenName, "b", 6),
			},
		},
		{
			name:  "power",
			input: "2**3",
			expected: []parser.Token{
				tok(parser.TokenNumber, "2", 0),
				tok(parser.TokenOperator, "**", 1),
				tok(parser.TokenNumber, "3", 3),
			},
		},
		{
			name:  "not in",
			input: "a not in b",
			expected: []parser.Token{
				tok(parser.TokenName, "a", 0),
				tok(parser.TokenOperator, "not in", 2),
				tok(parser.TokenName, "b", 9),
			},
		},
		{
			name:  "starts with",
			input: "a starts with 'x'",
			expected: []parser.Token{
				tok(parser.TokenName, "a", 0),
				tok(parser.TokenOperator, "starts with", 2),
				tok(parser.TokenString, "x", 14),
			},
		},
		{
			name:     "word operator prefix is a name",
			input:    "notable",
			expected: []parser.Token{tok(parser.TokenName, "notable", 0)},
		},
		{
			name:  "word operator after dot is a name",
			input: "a.and",
			expected: []parser.Token{
				tok(parser.TokenName, "a", 0),
				tok(parser.TokenPunctuation, ".", 1),
				tok(parser.TokenName, "and", 2),
			},
		},
		{
			name:  "unary not",
			input: "not a",
			expected: []parser.Token{
				tok(parser.TokenOperator, "not", 0),
				tok(parser.TokenName, "a", 4),
			},
		},
	})
}

func TestLexerPunctuation(t *testing.T) {
	t.Parallel()
	runLexerTests(t, []lexerTestCase{
		{
			name:  "null safe",
			input: "a?.b",
			expected: []parser.Token{
				tok(parser.TokenName, "a", 0),
				tok(parser.TokenPunctuation, "?.", 1),
				tok(parser.TokenName, "b", 3),
			},
		},
		{
			name:  "coalesce",
			input: "a ?? b",
			expected: []parser.Token{
				tok(parser.TokenName, "a", 0),
				tok(parser.TokenPunctuation, "??", 2),
				tok(parser.TokenName, "b", 5),
			},
		},
		{
			name:  "ternary before fraction",
			input: "a?.5:1",
			expected: []parser.Token{
				tok(parser.TokenName, "a", 0),
				tok(parser.TokenPunctuation, "?", 1),
				tok(parser.TokenNumber, ".5", 2),
				tok(parser.TokenPunctuation, ":", 4),
				tok(parser.TokenNumber, "1", 5),
			},
		},
		{
			name:  "brackets",
			input: "f([1], {a: 2})",
			expected: []parser.Token{
				tok(parser.TokenName, "f", 0),
				tok(parser.TokenPunctuation, "(", 1),
				tok(parser.TokenPunctuation, "[", 2),
				tok(parser.TokenNumber, "1", 3),
				tok(parser.TokenPunctuation, "]", 4),
				tok(parser.TokenPunctuation, ",", 5),
				tok(parser.TokenPunctuation, "{", 7),
				tok(parser.TokenName, "a", 8),
				tok(parser.TokenPunctuation, ":", 9),
				tok(parser.TokenNumber, "2", 11),
				tok(parser.TokenPunctuation, "}", 12),
				tok(parser.TokenPunctuation, ")", 13),
			},
		},
	})
}

func TestLexerErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		message  string
		position int
	}{
		{name: "unterminated string", input: `"abc`, message: "Unterminated string literal", position: 0},
		{name: "unclosed bracket", input: "(1 + 2", message: `Unclosed "("`, position: 0},
		{name: "unexpected closing", input: "1)", message: `Unexpected ")"`, position: 1},
		{name: "mismatched bracket", input: "[1)", message: `Unclosed "["`, position: 0},
		{name: "unexpected character", input: "a # b", message: `Unexpected character "#"`, position: 2},
		{name: "bad exponent", input: "1e", message: "Invalid number exponent", position: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := parser.Tokenize(tc.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrSyntax))

			var perr *types.Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tc.message, perr.Message)
			assert.Equal(t, tc.position, perr.Position)
			assert.Equal(t, tc.input, perr.Source)
		})
	}
}

func TestLexerErrorMessage(t *testing.T) {
	t.Parallel()
	_, err := parser.Tokenize(`a + "b`)
	require.Error(t, err)
	assert.Equal(t, "Unterminated string literal around position 4 for expression `a + \"b`.", err.Error())
}
