// Package celexec runs expressions compiled with the CEL syntax on
// github.com/google/cel-go.
//
// The environment declares every variable as dyn and binds the helper
// calls the CEL syntax emits for arithmetic and for operators CEL lacks.
// Helpers compute with goexpr number rules, so 7 / 2 is 3.5 and 1 + 2.5 is
// accepted. Optional types and cel.bind are enabled for null-coalescing
// chains, and the functions of a goexpr registry are exposed, so a
// compiled expression computes the same value as a direct evaluation.
//
// # Example
//
//	engine := celexec.NewEngine(registry, []string{"a", "b"})
//	prg, err := engine.Compile(source)
//	v, err := prg.Eval(map[string]any{"a": 1, "b": 2})
package celexec

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	celtypes "github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	celext "github.com/google/cel-go/ext"

	"github.com/sandrolain/goexpr/pkg/ast"
	"github.com/sandrolain/goexpr/pkg/functions"
	"github.com/sandrolain/goexpr/pkg/types"
)

const (
	// DefaultMaxExpressionLength bounds the length of a compiled expression.
	DefaultMaxExpressionLength = 10000

	// DefaultCostLimit bounds the runtime cost of a program.
	DefaultCostLimit = 1000000

	// MaxArity is the highest argument count declared for registry
	// functions.
	MaxArity = 6
)

// operatorHelpers maps the helper calls of the CEL syntax to the goexpr
// operator they stand for.
var operatorHelpers = map[string]string{
	"add":        "+",
	"sub":        "-",
	"mul":        "*",
	"div":        "/",
	"mod":        "%",
	"pow":        "**",
	"range":      "..",
	"bitAnd":     "&",
	"bitOr":      "|",
	"bitXor":     "^",
	"shiftLeft":  "<<",
	"shiftRight": ">>",
}

// reserved are CEL standard functions that registry functions must not
// overload.
var reserved = map[string]bool{
	"size": true, "matches": true, "contains": true, "startsWith": true,
	"endsWith": true, "string": true, "int": true, "uint": true,
	"double": true, "bool": true, "bytes": true, "type": true, "dyn": true,
	"duration": true, "timestamp": true, "has": true,
}

// Engine compiles CEL source into programs. It is safe for concurrent use.
type Engine struct {
	funcs               functions.Lookup
	names               []string
	maxExpressionLength int
	costLimit           uint64

	once sync.Once
	env  *cel.Env
	err  error
}

// NewEngine creates an engine declaring names as variables and exposing
// the functions of funcs. funcs may be nil.
func NewEngine(funcs functions.Lookup, names []string) *Engine {
	return &Engine{
		funcs:               funcs,
		names:               names,
		maxExpressionLength: DefaultMaxExpressionLength,
		costLimit:           DefaultCostLimit,
	}
}

// WithMaxExpressionLength sets the maximum accepted source length.
func (e *Engine) WithMaxExpressionLength(maxLen int) *Engine {
	e.maxExpressionLength = maxLen
	return e
}

// WithCostLimit sets the runtime cost limit of compiled programs.
func (e *Engine) WithCostLimit(limit uint64) *Engine {
	e.costLimit = limit
	return e
}

func (e *Engine) getEnv() (*cel.Env, error) {
	e.once.Do(func() {
		e.env, e.err = cel.NewEnv(e.options()...)
	})
	return e.env, e.err
}

func (e *Engine) options() []cel.EnvOption {
	opts := []cel.EnvOption{cel.OptionalTypes(), celext.Bindings()}
	for _, name := range e.names {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}

	for helper, op := range operatorHelpers {
		opts = append(opts, cel.Function(helper,
			cel.Overload(helper+"_dyn_dyn", []*cel.Type{cel.DynType, cel.DynType}, cel.DynType,
				cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
					node := ast.NewBinary(op, ast.NewConstant(native(lhs)), ast.NewConstant(native(rhs)))
					v, err := ast.Evaluate(node, nil, nil)
					if err != nil {
						return celtypes.NewErr("%s", err.Error())
					}
					return toVal(v)
				}),
			),
		))
	}

	if e.funcs == nil {
		return opts
	}
	for _, name := range e.funcs.Names() {
		if _, isHelper := operatorHelpers[name]; isHelper || reserved[name] {
			continue
		}
		fn, ok := e.funcs.Function(name)
		if !ok {
			continue
		}
		overloads := make([]cel.FunctionOpt, 0, MaxArity+1)
		for arity := 0; arity <= MaxArity; arity++ {
			args := make([]*cel.Type, arity)
			for i := range args {
				args[i] = cel.DynType
			}
			overloads = append(overloads, cel.Overload(
				fmt.Sprintf("goexpr_%s_%d", name, arity), args, cel.DynType,
				binding(arity, bind(fn)),
			))
		}
		opts = append(opts, cel.Function(name, overloads...))
	}
	return opts
}

// binding picks the binding kind cel-go dispatches on for arity.
func binding(arity int, call func(args ...ref.Val) ref.Val) cel.OverloadOpt {
	switch arity {
	case 1:
		return cel.UnaryBinding(func(arg ref.Val) ref.Val { return call(arg) })
	case 2:
		return cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val { return call(lhs, rhs) })
	}
	return cel.FunctionBinding(call)
}

func bind(fn functions.Function) func(args ...ref.Val) ref.Val {
	return func(args ...ref.Val) ref.Val {
		in := make([]any, len(args))
		for i, a := range args {
			in[i] = native(a)
		}
		v, err := fn.Evaluator(nil, in...)
		if err != nil {
			return celtypes.NewErr("%s", err.Error())
		}
		return toVal(v)
	}
}

// Program is a compiled CEL program.
type Program struct {
	source  string
	program cel.Program
}

// Source returns the CEL source of the program.
func (p *Program) Source() string {
	return p.source
}

// Compile parses, checks and plans source.
func (e *Engine) Compile(source string) (*Program, error) {
	if len(source) > e.maxExpressionLength {
		return nil, types.NewLogicError("CEL expression length %d exceeds maximum of %d", len(source), e.maxExpressionLength)
	}
	env, err := e.getEnv()
	if err != nil {
		return nil, types.NewLogicError("Unable to create the CEL environment").WithCause(err)
	}

	checked, iss := env.Compile(source)
	if iss.Err() != nil {
		return nil, types.NewLogicError("CEL rejected %q", source).WithCause(iss.Err())
	}
	prg, err := env.Program(checked, cel.CostLimit(e.costLimit))
	if err != nil {
		return nil, types.NewLogicError("Unable to plan CEL program %q", source).WithCause(err)
	}
	return &Program{source: source, program: prg}, nil
}

// Eval runs the program with values bound to the declared variables and
// converts the result back to goexpr values: int, float64, string, bool,
// nil, []any and *types.Map.
func (p *Program) Eval(values map[string]any) (any, error) {
	activation := make(map[string]any, len(values))
	for k, v := range values {
		activation[k] = toNative(v)
	}
	out, _, err := p.program.Eval(activation)
	if err != nil {
		return nil, types.NewRuntimeError("CEL evaluation failed").WithCause(err)
	}
	return native(out), nil
}

// toNative rewrites goexpr values into shapes the CEL type adapter
// understands.
func toNative(v any) any {
	switch x := v.(type) {
	case *types.Map:
		if x.IsList() {
			return toNative(x.Values())
		}
		keys := x.Keys()
		stringKeys := true
		for _, k := range keys {
			if _, ok := k.(string); !ok {
				stringKeys = false
				break
			}
		}
		if stringKeys {
			out := make(map[string]any, len(keys))
			for _, k := range keys {
				item, _ := x.Get(k)
				out[k.(string)] = toNative(item)
			}
			return out
		}
		out := make(map[any]any, len(keys))
		for _, k := range keys {
			item, _ := x.Get(k)
			out[k] = toNative(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = toNative(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = toNative(item)
		}
		return out
	}
	return v
}

func toVal(v any) ref.Val {
	return celtypes.DefaultTypeAdapter.NativeToValue(toNative(v))
}

// native converts a CEL value to its goexpr form.
func native(v ref.Val) any {
	switch x := v.(type) {
	case celtypes.Null:
		return nil
	case celtypes.Bool:
		return bool(x)
	case celtypes.Int:
		return int(x)
	case celtypes.Uint:
		return int(x)
	case celtypes.Double:
		return float64(x)
	case celtypes.String:
		return string(x)
	case traits.Mapper:
		m := types.NewMap()
		for it := x.Iterator(); it.HasNext() == celtypes.True; {
			k := it.Next()
			_ = m.Set(native(k), native(x.Get(k)))
		}
		return m
	case traits.Lister:
		out := []any{}
		for it := x.Iterator(); it.HasNext() == celtypes.True; {
			out = append(out, native(it.Next()))
		}
		return out
	}
	if v == nil {
		return nil
	}
	return v.Value()
}
