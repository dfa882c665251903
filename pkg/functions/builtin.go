package functions

import (
	"github.com/sandrolain/goexpr/pkg/types"
)

// Builtins returns the functions every ExpressionLanguage starts with:
//   - constant(name): looks name up in constants
//   - min(a, b, ...), max(a, b, ...): numeric extremes
func Builtins(constants map[string]any) Provider {
	return ProviderFunc(func() []Function {
		return []Function{
			Constant(constants),
			Min(),
			Max(),
		}
	})
}

// Constant returns the definition for constant(name).
func Constant(constants map[string]any) Function {
	return Function{
		Name:     "constant",
		Compiler: Call("constant"),
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			if len(args) != 1 {
				return nil, types.NewRuntimeError("constant() expects exactly 1 argument, %d given", len(args))
			}
			name, ok := args[0].(string)
			if !ok {
				return nil, types.NewRuntimeError("constant() expects a string, %T given", args[0])
			}
			v, ok := constants[name]
			if !ok {
				return nil, types.NewRuntimeError("Undefined constant %q", name)
			}
			return v, nil
		},
	}
}

// Min returns the definition for min(a, b, ...).
func Min() Function {
	return extreme("min", func(a, b float64) bool { return a < b })
}

// Max returns the definition for max(a, b, ...).
func Max() Function {
	return extreme("max", func(a, b float64) bool { return a > b })
}

func extreme(name string, better func(a, b float64) bool) Function {
	return Function{
		Name:     name,
		Compiler: Call(name),
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			if len(args) == 1 {
				if list, ok := args[0].([]any); ok {
					args = list
				}
			}
			if len(args) == 0 {
				return nil, types.NewRuntimeError("%s() expects at least 1 argument", name)
			}
			var best any
			var bestNum float64
			for i, a := range args {
				n, ok := number(a)
				if !ok {
					return nil, types.NewRuntimeError("%s() expects numbers, %T given", name, a)
				}
				if i == 0 || better(n, bestNum) {
					best, bestNum = a, n
				}
			}
			return best, nil
		},
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}
