package ast_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/goexpr/pkg/ast"
	"github.com/sandrolain/goexpr/pkg/functions"
	"github.com/sandrolain/goexpr/pkg/parser"
	"github.com/sandrolain/goexpr/pkg/types"
)

type address struct {
	City string
}

type user struct {
	Name    string
	Email   string `expr:"mail"`
	Tags    []string
	Meta    map[string]int
	Address *address
}

func (u user) Greet(prefix string) string {
	return prefix + " " + u.Name
}

func (u *user) Shout() string {
	return strings.ToUpper(u.Name)
}

type getter map[string]any

func (g getter) GetProperty(name string) (any, bool) {
	v, ok := g[name]
	return v, ok
}

func newRegistry(t testing.TB) *functions.Registry {
	t.Helper()
	reg := functions.NewRegistry()
	require.NoError(t, reg.RegisterProvider(functions.Builtins(map[string]any{"PI": 3.14})))
	require.NoError(t, reg.Register(functions.MustFromFunc("double", func(n int) int { return n * 2 })))
	reg.Seal()
	return reg
}

func eval(t *testing.T, expr string, values map[string]any) (any, error) {
	t.Helper()
	reg := newRegistry(t)
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)

	node, err := parser.New(reg).ParseString(expr, types.Names(names...))
	require.NoError(t, err, "parse %q", expr)
	return ast.Evaluate(node, reg, values)
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		values   map[string]any
		expected any
	}{
		{name: "precedence", input: "1 + 2 * 3", expected: 7},
		{name: "parentheses", input: "(1 + 2) * 3", expected: 9},
		{name: "and", input: "true and false", expected: false},
		{name: "or", input: "false or 'x'", expected: true},
		{name: "xor", input: "true xor true", expected: false},
		{name: "not", input: "not 0", expected: true},
		{name: "exact division", input: "4 / 2", expected: 2},
		{name: "float division", input: "1 / 2", expected: 0.5},
		{name: "modulo", input: "7 % 3", expected: 1},
		{name: "integer power", input: "2 ** 10", expected: 1024},
		{name: "float power", input: "2.0 ** 2", expected: 4.0},
		{name: "float sum", input: "1.5 + 1", expected: 2.5},
		{name: "unary minus", input: "-3", expected: -3},
		{name: "bitwise or", input: "5 | 3", expected: 7},
		{name: "bitwise and", input: "5 & 3", expected: 1},
		{name: "bitwise xor", input: "5 ^ 3", expected: 6},
		{name: "shift", input: "1 << 3", expected: 8},
		{name: "concat", input: "'a' ~ 1 ~ true ~ null", expected: "a11"},
		{name: "range", input: "1..3", expected: []any{1, 2, 3}},
		{name: "descending range", input: "3..1", expected: []any{3, 2, 1}},
		{name: "in", input: "1 in [1, 2]", expected: true},
		{name: "in is strict", input: "'1' in [1, 2]", expected: false},
		{name: "not in", input: "2 not in [1]", expected: true},
		{name: "loose equality", input: "1 == '1'", expected: true},
		{name: "strict equality", input: "1 === 1.0", expected: false},
		{name: "strict inequality", input: "'a' !== 'a'", expected: false},
		{name: "compare", input: "2 < 10", expected: true},
		{name: "compare numeric strings", input: "'2' < '10'", expected: true},
		{name: "compare strings", input: "'b' >= 'a'", expected: true},
		{name: "matches", input: "'Abc' matches '/^a/i'", expected: true},
		{name: "contains", input: "'foobar' contains 'oba'", expected: true},
		{name: "starts with", input: "'foobar' starts with 'foo'", expected: true},
		{name: "ends with", input: "'foobar' ends with 'foo'", expected: false},
		{name: "ternary", input: "1 > 2 ? 'a' : 'b'", expected: "b"},
		{name: "short ternary", input: "false ? 'a'", expected: nil},
		{name: "elvis", input: "'' ?: 'fallback'", expected: "fallback"},
		{name: "coalesce null", input: "null ?? 'x'", expected: "x"},
		{name: "coalesce value", input: "0 ?? 'x'", expected: 0},
		{name: "list", input: "[1, 'a', null]", expected: []any{1, "a", nil}},
		{name: "max", input: "max(1, 5, 3)", expected: 5},
		{name: "min of list", input: "min([4, 2])", expected: 2},
		{name: "constant", input: "constant('PI')", expected: 3.14},
		{name: "native function", input: "double(21)", expected: 42},
		{name: "variable", input: "a + b", values: map[string]any{"a": 1, "b": 2}, expected: 3},
		{name: "int overflow becomes float", input: "a + 1", values: map[string]any{"a": int(^uint(0) >> 1)}, expected: float64(int(^uint(0)>>1)) + 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := eval(t, tc.input, tc.values)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestEvaluateHash(t *testing.T) {
	t.Parallel()

	got, err := eval(t, "{a: 1, 'b': [2], 3: 'c'}", nil)
	require.NoError(t, err)
	require.IsType(t, &types.Map{}, got)

	m := got.(*types.Map)
	assert.Equal(t, []any{"a", "b", 3}, m.Keys())
	assert.Equal(t, []any{1, []any{2}, "c"}, m.Values())
}

func TestEvaluateAccess(t *testing.T) {
	t.Parallel()

	u := &user{
		Name:  "Ada",
		Email: "ada@example.com",
		Tags:  []string{"admin", "ops"},
		Meta:  map[string]int{"logins": 3},
	}
	values := map[string]any{
		"foo":  types.MapOf("b", "a", 0, "b"),
		"user": u,
		"obj":  getter{"x": 10},
		"raw":  map[string]any{"k": map[string]any{"v": true}},
		"val":  *u,
		"nope": nil,
	}

	tests := []struct {
		name     string
		input    string
		expected any
	}{
		{name: "map string key", input: "foo['b']", expected: "a"},
		{name: "map int key", input: "foo[0]", expected: "b"},
		{name: "map property", input: "foo.b", expected: "a"},
		{name: "struct field", input: "user.Name", expected: "Ada"},
		{name: "capitalized field", input: "user.name", expected: "Ada"},
		{name: "tagged field", input: "user.mail", expected: "ada@example.com"},
		{name: "slice item", input: "user.tags[1]", expected: "ops"},
		{name: "typed map item", input: "user.meta['logins']", expected: 3},
		{name: "method", input: "user.greet('Hi')", expected: "Hi Ada"},
		{name: "pointer method on value", input: "val.shout()", expected: "ADA"},
		{name: "property getter", input: "obj.x", expected: 10},
		{name: "nested map", input: "raw.k.v", expected: true},
		{name: "null safe nil pointer", input: "user.address?.city", expected: nil},
		{name: "null safe propagates", input: "nope?.bar.baz", expected: nil},
		{name: "null safe method", input: "nope?.bar()", expected: nil},
		{name: "coalesce missing key", input: "foo['missing'] ?? 'd'", expected: "d"},
		{name: "coalesce missing chain", input: "raw.x.y.z ?? 'd'", expected: "d"},
		{name: "coalesce missing field", input: "user.unknown ?? 'd'", expected: "d"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := eval(t, tc.input, values)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	t.Parallel()

	values := map[string]any{
		"foo":  types.MapOf("b", "a"),
		"user": &user{Name: "Ada"},
		"nope": nil,
		"list": []any{1},
	}

	tests := []struct {
		name    string
		input   string
		message string
	}{
		{name: "division by zero", input: "1 / 0", message: "Division by zero"},
		{name: "modulo by zero", input: "1 % 0", message: "Modulo by zero"},
		{name: "property of null", input: "nope.bar", message: `Unable to get property "bar" of non-object "nope"`},
		{name: "method of null", input: "nope.bar()", message: `Unable to call method "bar" of non-object "nope"`},
		{name: "unknown field", input: "user.unknown", message: `Unable to get property "unknown" of object "user"`},
		{name: "unknown method", input: "user.unknown()", message: `Unable to call method "unknown" of object "user"`},
		{name: "method on list", input: "list.count()", message: `Unable to call method "count" of non-object "list"`},
		{name: "missing key", input: "foo['x']", message: `Key "x" does not exist in array "foo"`},
		{name: "index out of range", input: "list[3]", message: `Key "3" does not exist in array "list"`},
		{name: "in non list", input: "1 in 'abc'", message: "The right operand of in must be an array, string given"},
		{name: "bad operands", input: "list + 1", message: "Unsupported operand types: array + int"},
		{name: "bad comparison", input: "list < 1", message: "Unable to compare array with int"},
		{name: "bad pattern", input: "'a' matches 'abc'", message: `Invalid regular expression "abc"`},
		{name: "negative shift", input: "1 << -1", message: "Bit shift by negative number"},
		{name: "undefined constant", input: "constant('X')", message: `Undefined constant "X"`},
		{name: "native arity", input: "double(1, 2)", message: `Function "double" expects 1 arguments, 2 given`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := eval(t, tc.input, values)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrRuntime)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestEvaluateUndefinedVariable(t *testing.T) {
	t.Parallel()

	_, err := ast.Evaluate(ast.NewName("missing"), nil, map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrRuntime)
	assert.Contains(t, err.Error(), `Variable "missing" is not defined`)
}

func TestEvaluateShortCircuit(t *testing.T) {
	t.Parallel()

	// the right side would fail if it were evaluated
	got, err := eval(t, "false and (1 / 0)", nil)
	require.NoError(t, err)
	assert.Equal(t, false, got)

	got, err = eval(t, "true or (1 / 0)", nil)
	require.NoError(t, err)
	assert.Equal(t, true, got)

	got, err = eval(t, "1 ?? (1 / 0)", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestEvaluateUnknownFunction(t *testing.T) {
	t.Parallel()

	node := ast.NewFunction("nope", ast.NewArguments())
	_, err := ast.Evaluate(node, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `The function "nope" does not exist`)
}

func TestEvaluateDoesNotMutateTree(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)
	node, err := parser.New(reg).ParseString("foo?.bar ?? 'x'", types.Names("foo"))
	require.NoError(t, err)
	before := ast.String(node)

	for _, foo := range []any{nil, map[string]any{"bar": 1}, map[string]any{}} {
		_, err := ast.Evaluate(node, reg, map[string]any{"foo": foo})
		require.NoError(t, err)
	}
	assert.Equal(t, before, ast.String(node))
}

func TestEvaluateConcurrent(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)
	node, err := parser.New(reg).ParseString("a * 2 + double(a)", types.Names("a"))
	require.NoError(t, err)

	done := make(chan struct{})
	for i := range 16 {
		go func() {
			defer func() { done <- struct{}{} }()
			got, err := ast.Evaluate(node, reg, map[string]any{"a": i})
			assert.NoError(t, err)
			assert.Equal(t, i*4, got)
		}()
	}
	for range 16 {
		<-done
	}
}
