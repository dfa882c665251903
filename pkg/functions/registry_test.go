package functions_test

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/goexpr/pkg/functions"
	"github.com/sandrolain/goexpr/pkg/types"
)

func greet() functions.Function {
	return functions.Function{
		Name: "greet",
		Compiler: func(args ...string) string {
			return "greet(" + strings.Join(args, ", ") + ")"
		},
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			return fmt.Sprintf("Hello, %v!", args[0]), nil
		},
	}
}

func TestRegistryRegister(t *testing.T) {
	t.Parallel()

	reg := functions.NewRegistry()
	require.NoError(t, reg.Register(greet()))
	require.NoError(t, reg.RegisterProvider(functions.Builtins(nil)))

	assert.Equal(t, []string{"constant", "greet", "max", "min"}, reg.Names())
	assert.Equal(t, 4, reg.Len())

	fn, ok := reg.Function("greet")
	require.True(t, ok)
	v, err := fn.Evaluator(nil, "Ada")
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada!", v)
	assert.Equal(t, "greet(a)", fn.Compiler("a"))

	_, ok = reg.Function("nope")
	assert.False(t, ok)
}

func TestRegistryLastRegistrationWins(t *testing.T) {
	t.Parallel()

	reg := functions.NewRegistry()
	require.NoError(t, reg.Register(greet()))

	other := greet()
	other.Evaluator = func(map[string]any, ...any) (any, error) { return "replaced", nil }
	require.NoError(t, reg.Register(other))

	fn, _ := reg.Function("greet")
	v, err := fn.Evaluator(nil)
	require.NoError(t, err)
	assert.Equal(t, "replaced", v)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryInvalidFunction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fn      functions.Function
		message string
	}{
		{name: "no name", fn: functions.Function{Compiler: functions.Call("x")}, message: "A function must have a name"},
		{name: "no evaluator", fn: functions.Function{Name: "x", Compiler: functions.Call("x")}, message: `Function "x" must define both`},
		{name: "no compiler", fn: functions.Function{Name: "x", Evaluator: greet().Evaluator}, message: `Function "x" must define both`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := functions.NewRegistry().Register(tc.fn)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrLogic)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestRegistrySeal(t *testing.T) {
	t.Parallel()

	reg := functions.NewRegistry()
	assert.False(t, reg.Sealed())
	assert.True(t, reg.Seal())
	assert.False(t, reg.Seal(), "sealing twice is a no-op")
	assert.True(t, reg.Sealed())

	err := reg.Register(greet())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrLogic)
	assert.Contains(t, err.Error(), "Registering functions after calling evaluate(), compile() or parse() is not supported")

	err = reg.RegisterProvider(functions.Builtins(nil))
	assert.ErrorIs(t, err, types.ErrLogic)
	assert.Zero(t, reg.Len())
}

func TestRegistryConcurrentReads(t *testing.T) {
	t.Parallel()

	reg := functions.NewRegistry()
	require.NoError(t, reg.RegisterProvider(functions.Builtins(nil)))
	reg.Seal()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_, ok := reg.Function("max")
				assert.True(t, ok)
				assert.Len(t, reg.Names(), 3)
			}
		}()
	}
	wg.Wait()
}

func TestProviderFunc(t *testing.T) {
	t.Parallel()

	p := functions.ProviderFunc(func() []functions.Function {
		return []functions.Function{greet()}
	})
	fns := p.Functions()
	require.Len(t, fns, 1)
	assert.Equal(t, "greet", fns[0].Name)
}

func TestBuiltins(t *testing.T) {
	t.Parallel()

	reg := functions.NewRegistry()
	require.NoError(t, reg.RegisterProvider(functions.Builtins(map[string]any{"PI": 3.14})))

	call := func(name string, args ...any) (any, error) {
		fn, ok := reg.Function(name)
		require.True(t, ok, name)
		return fn.Evaluator(nil, args...)
	}

	v, err := call("constant", "PI")
	require.NoError(t, err)
	assert.Equal(t, 3.14, v)

	_, err = call("constant", "E")
	assert.ErrorIs(t, err, types.ErrRuntime)
	_, err = call("constant", 1)
	assert.ErrorIs(t, err, types.ErrRuntime)
	_, err = call("constant")
	assert.ErrorIs(t, err, types.ErrRuntime)

	v, err = call("max", 1, 3.5, 2)
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)

	v, err = call("min", []any{4, 2, 8})
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = call("min")
	assert.ErrorIs(t, err, types.ErrRuntime)
	_, err = call("max", 1, "a")
	assert.ErrorIs(t, err, types.ErrRuntime)

	fn, _ := reg.Function("max")
	assert.Equal(t, "max(a, b)", fn.Compiler("a", "b"))
}

func TestFromFunc(t *testing.T) {
	t.Parallel()

	add := functions.MustFromFunc("add", func(a, b int) int { return a + b })
	v, err := add.Evaluator(nil, 1, 2.0)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, "add(x, y)", add.Compiler("x", "y"))

	join := functions.MustFromFunc("join", func(sep string, parts ...string) string {
		return strings.Join(parts, sep)
	})
	v, err = join.Evaluator(nil, "-", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a-b", v)

	boom := errors.New("boom")
	failing := functions.MustFromFunc("fail", func() (int, error) { return 0, boom })
	_, err = failing.Evaluator(nil)
	assert.ErrorIs(t, err, boom)

	nilable := functions.MustFromFunc("isNil", func(m map[string]any) bool { return m == nil })
	v, err = nilable.Evaluator(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestFromFuncErrors(t *testing.T) {
	t.Parallel()

	_, err := functions.FromFunc("x", 42)
	assert.ErrorIs(t, err, types.ErrLogic)

	_, err = functions.FromFunc("x", func() {})
	assert.ErrorIs(t, err, types.ErrLogic)

	_, err = functions.FromFunc("x", func() (int, int) { return 0, 0 })
	assert.ErrorIs(t, err, types.ErrLogic)

	_, err = functions.FromFunc("x", func() error { return nil })
	assert.ErrorIs(t, err, types.ErrLogic, "a lone error result carries no value")

	_, err = functions.FromFunc("x", func() (error, int) { return nil, 0 })
	assert.ErrorIs(t, err, types.ErrLogic)

	assert.Panics(t, func() { functions.MustFromFunc("x", "not a func") })

	add := functions.MustFromFunc("add", func(a, b int) int { return a + b })
	_, err = add.Evaluator(nil, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Function "add" expects 2 arguments, 1 given`)

	_, err = add.Evaluator(nil, 1, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Function "add" argument 2: cannot use string as int`)

	_, err = add.Evaluator(nil, nil, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot use null as int")

	variadic := functions.MustFromFunc("v", func(a int, rest ...int) int { return a })
	_, err = variadic.Evaluator(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Function "v" expects at least 1 arguments, 0 given`)
}
