package parser_test

import (
	"testing"

	"github.com/sandrolain/goexpr/pkg/parser"
)

func FuzzParser(f *testing.F) {
	seeds := []string{
		`a.b.c`,
		`a?.b['c'] ?? 'd'`,
		`max(1, 2) + min(3, 4)`,
		`{a: [1, 2], 'b': (c)}`,
		`1 + 2 * 3 ** 4`,
		`not a and b or c`,
		`a ? b : c ?: d`,
		`"unterminated`,
		``,
		`(`,
		`foo(`,
	}
	for _, s := range seeds {
		f.Add(s)
	}
	p := parser.New(nil, parser.WithFlags(parser.IgnoreUnknownFunctions|parser.IgnoreUnknownVariables))
	f.Fuzz(func(t *testing.T, input string) {
		_, _ = p.ParseString(input, nil)
	})
}
