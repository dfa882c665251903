package functions

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/sandrolain/goexpr/pkg/types"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Call returns a CodeGenerator emitting a plain call: name(a, b, ...).
func Call(name string) CodeGenerator {
	return func(args ...string) string {
		return name + "(" + strings.Join(args, ", ") + ")"
	}
}

// FromFunc adapts a Go function to a Function. The generated code is a
// plain call to name; evaluation calls fn through reflection, converting
// numeric arguments to the declared parameter types.
//
// fn must return one value, or a value and an error.
func FromFunc(name string, fn any) (Function, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return Function{}, types.NewLogicError("FromFunc(%q): expected a function, got %T", name, fn)
	}
	t := v.Type()
	switch {
	case t.NumOut() == 1 && t.Out(0) != errorType:
	case t.NumOut() == 2 && t.Out(1) == errorType:
	default:
		return Function{}, types.NewLogicError("FromFunc(%q): function must return (value) or (value, error)", name)
	}

	return Function{
		Name:     name,
		Compiler: Call(name),
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			return Invoke(name, v, args)
		},
	}, nil
}

// Invoke calls fn with args converted to its parameter types. fn must
// return (value) or (value, error); a non-nil error is returned as is.
func Invoke(name string, fn reflect.Value, args []any) (any, error) {
	t := fn.Type()
	switch {
	case t.NumOut() == 1 && t.Out(0) != errorType:
	case t.NumOut() == 2 && t.Out(1) == errorType:
	default:
		return nil, types.NewRuntimeError("%q must return a value, or a value and an error", name)
	}
	in, err := convertArgs(name, t, args)
	if err != nil {
		return nil, err
	}
	out := fn.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

// MustFromFunc is like FromFunc but panics on an invalid function.
func MustFromFunc(name string, fn any) Function {
	f, err := FromFunc(name, fn)
	if err != nil {
		panic(err)
	}
	return f
}

func convertArgs(name string, t reflect.Type, args []any) ([]reflect.Value, error) {
	n := t.NumIn()
	if t.IsVariadic() {
		if len(args) < n-1 {
			return nil, types.NewRuntimeError("Function %q expects at least %d arguments, %d given", name, n-1, len(args))
		}
	} else if len(args) != n {
		return nil, types.NewRuntimeError("Function %q expects %d arguments, %d given", name, n, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var pt reflect.Type
		if t.IsVariadic() && i >= n-1 {
			pt = t.In(n - 1).Elem()
		} else {
			pt = t.In(i)
		}
		av, err := ConvertValue(arg, pt)
		if err != nil {
			return nil, types.NewRuntimeError("Function %q argument %d: %v", name, i+1, err)
		}
		in[i] = av
	}
	return in, nil
}

// ConvertValue converts arg to a reflect.Value of type pt. Assignable
// values pass through; numbers convert between numeric kinds; nil becomes
// the zero value of nillable types.
func ConvertValue(arg any, pt reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch pt.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(pt), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use null as %s", pt)
	}
	av := reflect.ValueOf(arg)
	if av.Type().AssignableTo(pt) {
		return av, nil
	}
	if isNumberKind(av.Kind()) && isNumberKind(pt.Kind()) {
		return av.Convert(pt), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", arg, pt)
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
