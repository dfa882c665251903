package extstring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/goexpr/pkg/ext/extstring"
	"github.com/sandrolain/goexpr/pkg/functions"
	"github.com/sandrolain/goexpr/pkg/types"
)

func call(t *testing.T, fn functions.Function, args ...any) (any, error) {
	t.Helper()
	return fn.Evaluator(nil, args...)
}

func TestStringFunctions(t *testing.T) {
	t.Parallel()

	hash := types.NewMap()
	require.NoError(t, hash.Set("a", 1))
	require.NoError(t, hash.Set("b", 2))

	tests := []struct {
		name     string
		fn       functions.Function
		args     []any
		expected any
	}{
		{name: "lower", fn: extstring.Lower(), args: []any{"ÀBC"}, expected: "àbc"},
		{name: "upper", fn: extstring.Upper(), args: []any{"abc"}, expected: "ABC"},
		{name: "trim spaces", fn: extstring.Trim(), args: []any{"  x \n"}, expected: "x"},
		{name: "trim cutset", fn: extstring.Trim(), args: []any{"--x--", "-"}, expected: "x"},
		{name: "length string", fn: extstring.Length(), args: []any{"héllo"}, expected: 5},
		{name: "length list", fn: extstring.Length(), args: []any{[]any{1, 2}}, expected: 2},
		{name: "length hash", fn: extstring.Length(), args: []any{hash}, expected: 2},
		{name: "length null", fn: extstring.Length(), args: []any{nil}, expected: 0},
		{name: "slug", fn: extstring.Slug(), args: []any{"Hello World"}, expected: "hello-world"},
		{name: "join", fn: extstring.Join(), args: []any{[]any{"a", 1, nil, 2.5}, "|"}, expected: "a|1||2.5"},
		{name: "join no glue", fn: extstring.Join(), args: []any{[]any{"a", "b"}}, expected: "ab"},
		{name: "join hash", fn: extstring.Join(), args: []any{hash, ","}, expected: "1,2"},
		{name: "replace", fn: extstring.Replace(), args: []any{"a-b-c", "-", "+"}, expected: "a+b+c"},
		{name: "capitalize", fn: extstring.Capitalize(), args: []any{"hELLO"}, expected: "Hello"},
		{name: "capitalize empty", fn: extstring.Capitalize(), args: []any{""}, expected: ""},
		{name: "camelCase", fn: extstring.CamelCase(), args: []any{"foo_bar baz"}, expected: "fooBarBaz"},
		{name: "camelCase from pascal", fn: extstring.CamelCase(), args: []any{"HelloWorld"}, expected: "helloWorld"},
		{name: "snakeCase", fn: extstring.SnakeCase(), args: []any{"fooBar"}, expected: "foo_bar"},
		{name: "snakeCase dashes", fn: extstring.SnakeCase(), args: []any{"Foo-Bar baz"}, expected: "foo_bar_baz"},
		{name: "repeat", fn: extstring.Repeat(), args: []any{"ab", 3}, expected: "ababab"},
		{name: "repeat float count", fn: extstring.Repeat(), args: []any{"x", 2.0}, expected: "xx"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := call(t, tc.fn, tc.args...)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestStringFunctionErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fn      functions.Function
		args    []any
		message string
	}{
		{name: "arity", fn: extstring.Upper(), args: nil, message: "upper() expects 1 arguments, 0 given"},
		{name: "not a string", fn: extstring.Lower(), args: []any{1}, message: "lower() expects a string as argument 1, int given"},
		{name: "join not a list", fn: extstring.Join(), args: []any{"a"}, message: "join() expects a list, string given"},
		{name: "length bool", fn: extstring.Length(), args: []any{true}, message: "length() expects a string, a list or a hash, bool given"},
		{name: "replace arity", fn: extstring.Replace(), args: []any{"a", "b"}, message: "replace() expects 3 arguments, 2 given"},
		{name: "repeat negative", fn: extstring.Repeat(), args: []any{"a", -1}, message: "non-negative integer"},
		{name: "repeat fraction", fn: extstring.Repeat(), args: []any{"a", 1.5}, message: "non-negative integer"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := call(t, tc.fn, tc.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrRuntime)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestCompilers(t *testing.T) {
	t.Parallel()

	for _, fn := range extstring.All() {
		assert.Equal(t, fn.Name+"(a, b)", fn.Compiler("a", "b"))
	}
	assert.Len(t, extstring.Provider().Functions(), len(extstring.All()))
}
