// Package functions provides the function registry used by goexpr.
//
// A function pairs two behaviors: a code generator used when an expression
// is compiled to host source text, and an evaluator used when it is
// evaluated directly. Functions are registered before the first parse and
// the registry is sealed afterwards.
//
// # Example
//
//	reg := functions.NewRegistry()
//	err := reg.Register(functions.Function{
//	    Name: "greet",
//	    Compiler: func(args ...string) string {
//	        return "greet(" + strings.Join(args, ", ") + ")"
//	    },
//	    Evaluator: func(_ map[string]any, args ...any) (any, error) {
//	        return fmt.Sprintf("Hello, %v!", args[0]), nil
//	    },
//	})
package functions

import (
	"sort"
	"sync"

	"github.com/sandrolain/goexpr/pkg/types"
)

// CodeGenerator produces host source text for a call, given the compiled
// text of each argument in order.
type CodeGenerator func(args ...string) string

// Evaluator computes the value of a call. values holds the variables bound
// for the current evaluation; args holds the evaluated arguments in order.
type Evaluator func(values map[string]any, args ...any) (any, error)

// Function describes a function callable from expressions.
type Function struct {
	// Name is the function name as it appears inside expressions.
	Name string
	// Compiler generates code for the compile traversal.
	Compiler CodeGenerator
	// Evaluator computes the runtime value.
	Evaluator Evaluator
}

// Provider exposes a set of functions for bulk registration.
type Provider interface {
	Functions() []Function
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func() []Function

// Functions implements Provider.
func (f ProviderFunc) Functions() []Function {
	return f()
}

// Lookup resolves registered functions by name. It is the read-only view
// handed to the parser, the compiler and the evaluator.
type Lookup interface {
	Function(name string) (Function, bool)
	Names() []string
}

type phase uint8

const (
	phaseOpen phase = iota
	phaseSealed
)

// Registry stores functions by name. The last registration for a name wins.
//
// A Registry starts Open and moves to Sealed on the first Seal call; it is
// read-only from then on and safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	fns   map[string]Function
	phase phase
}

// NewRegistry creates an empty, open registry.
func NewRegistry() *Registry {
	return &Registry{fns: make(map[string]Function)}
}

// Register stores fn. It fails with a logic error once the registry is sealed.
func (r *Registry) Register(fn Function) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == phaseSealed {
		return types.NewLogicError("Registering functions after calling evaluate(), compile() or parse() is not supported")
	}
	if fn.Name == "" {
		return types.NewLogicError("A function must have a name")
	}
	if fn.Compiler == nil || fn.Evaluator == nil {
		return types.NewLogicError("Function %q must define both a compiler and an evaluator", fn.Name)
	}
	r.fns[fn.Name] = fn
	return nil
}

// RegisterProvider registers every function exposed by p, in order.
func (r *Registry) RegisterProvider(p Provider) error {
	for _, fn := range p.Functions() {
		if err := r.Register(fn); err != nil {
			return err
		}
	}
	return nil
}

// Seal freezes the registry. Calling it more than once is harmless.
// It reports whether this call performed the transition.
func (r *Registry) Seal() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase == phaseSealed {
		return false
	}
	r.phase = phaseSealed
	return true
}

// Sealed reports whether the registry has been sealed.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.phase == phaseSealed
}

// Function returns the function registered under name.
func (r *Registry) Function(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.fns[name]
	return fn, ok
}

// Names returns the registered function names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fns)
}
