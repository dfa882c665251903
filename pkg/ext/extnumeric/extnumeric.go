// Package extnumeric provides numeric functions for expressions.
package extnumeric

import (
	"math"

	"github.com/sandrolain/goexpr/pkg/functions"
	"github.com/sandrolain/goexpr/pkg/types"
)

// All returns every numeric function.
func All() []functions.Function {
	return []functions.Function{
		Abs(),
		Ceil(),
		Floor(),
		Round(),
		Trunc(),
		Sqrt(),
		Sign(),
		Log(),
		Clamp(),
	}
}

// Provider exposes All for bulk registration.
func Provider() functions.Provider {
	return functions.ProviderFunc(All)
}

// Abs returns the definition for abs(n). Integers stay integers.
func Abs() functions.Function {
	return functions.Function{
		Name:     "abs",
		Compiler: functions.Call("abs"),
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			if len(args) != 1 {
				return nil, arity("abs", 1, len(args))
			}
			if i, ok := args[0].(int); ok {
				if i < 0 && i != math.MinInt {
					return -i, nil
				}
				if i >= 0 {
					return i, nil
				}
			}
			n, err := toFloat("abs", args[0])
			if err != nil {
				return nil, err
			}
			return math.Abs(n), nil
		},
	}
}

// Ceil returns the definition for ceil(n).
func Ceil() functions.Function { return mathFunc1("ceil", math.Ceil) }

// Floor returns the definition for floor(n).
func Floor() functions.Function { return mathFunc1("floor", math.Floor) }

// Trunc returns the definition for trunc(n), truncating toward zero.
func Trunc() functions.Function { return mathFunc1("trunc", math.Trunc) }

// Sqrt returns the definition for sqrt(n).
func Sqrt() functions.Function { return mathFunc1("sqrt", math.Sqrt) }

// Round returns the definition for round(n [, precision]).
// Halves are rounded away from zero.
func Round() functions.Function {
	return functions.Function{
		Name:     "round",
		Compiler: functions.Call("round"),
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			if len(args) < 1 || len(args) > 2 {
				return nil, types.NewRuntimeError("round() expects 1 or 2 arguments, %d given", len(args))
			}
			n, err := toFloat("round", args[0])
			if err != nil {
				return nil, err
			}
			precision := 0.0
			if len(args) == 2 {
				if precision, err = toFloat("round", args[1]); err != nil {
					return nil, err
				}
			}
			scale := math.Pow(10, math.Trunc(precision))
			return math.Round(n*scale) / scale, nil
		},
	}
}

// Sign returns the definition for sign(n): -1, 0 or 1.
func Sign() functions.Function {
	return functions.Function{
		Name:     "sign",
		Compiler: functions.Call("sign"),
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			if len(args) != 1 {
				return nil, arity("sign", 1, len(args))
			}
			n, err := toFloat("sign", args[0])
			if err != nil {
				return nil, err
			}
			switch {
			case n < 0:
				return -1, nil
			case n > 0:
				return 1, nil
			default:
				return 0, nil
			}
		},
	}
}

// Log returns the definition for log(n [, base]).
// Without base, returns the natural logarithm.
func Log() functions.Function {
	return functions.Function{
		Name:     "log",
		Compiler: functions.Call("log"),
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			if len(args) < 1 || len(args) > 2 {
				return nil, types.NewRuntimeError("log() expects 1 or 2 arguments, %d given", len(args))
			}
			n, err := toFloat("log", args[0])
			if err != nil {
				return nil, err
			}
			if n <= 0 {
				return nil, types.NewRuntimeError("log() argument must be positive")
			}
			if len(args) == 2 {
				base, err := toFloat("log", args[1])
				if err != nil {
					return nil, err
				}
				if base <= 0 || base == 1 {
					return nil, types.NewRuntimeError("log() base must be positive and not 1")
				}
				return math.Log(n) / math.Log(base), nil
			}
			return math.Log(n), nil
		},
	}
}

// Clamp returns the definition for clamp(n, min, max).
func Clamp() functions.Function {
	return functions.Function{
		Name:     "clamp",
		Compiler: functions.Call("clamp"),
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			if len(args) != 3 {
				return nil, arity("clamp", 3, len(args))
			}
			var f [3]float64
			for i, a := range args {
				n, err := toFloat("clamp", a)
				if err != nil {
					return nil, err
				}
				f[i] = n
			}
			switch {
			case f[0] < f[1]:
				return args[1], nil
			case f[0] > f[2]:
				return args[2], nil
			default:
				return args[0], nil
			}
		},
	}
}

func mathFunc1(name string, fn func(float64) float64) functions.Function {
	return functions.Function{
		Name:     name,
		Compiler: functions.Call(name),
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			if len(args) != 1 {
				return nil, arity(name, 1, len(args))
			}
			n, err := toFloat(name, args[0])
			if err != nil {
				return nil, err
			}
			return fn(n), nil
		},
	}
}

func arity(name string, want, got int) error {
	return types.NewRuntimeError("%s() expects %d arguments, %d given", name, want, got)
}

func toFloat(name string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, types.NewRuntimeError("%s() expects a number, %T given", name, v)
	}
}
