package ast

import (
	"fmt"

	"github.com/sandrolain/goexpr/pkg/functions"
	"github.com/sandrolain/goexpr/pkg/types"
)

// Evaluate computes the value of node against values, calling functions
// resolved from funcs. Evaluation never modifies the tree.
func Evaluate(node Node, funcs functions.Lookup, values map[string]any) (any, error) {
	e := &evaluator{funcs: funcs, values: values}
	v, _, err := e.eval(node)
	return v, err
}

type evaluator struct {
	funcs  functions.Lookup
	values map[string]any
}

// eval returns the value of n and whether n short-circuited: an
// attribute access that yielded null because of a null-safe or
// null-coalescing link, here or further down its chain.
func (e *evaluator) eval(n Node) (any, bool, error) {
	switch n := n.(type) {
	case *Constant:
		return n.Value, false, nil

	case *Name:
		v, ok := e.values[n.Name]
		if !ok {
			return nil, false, types.NewRuntimeError("Variable %q is not defined", n.Name)
		}
		return v, false, nil

	case *Unary:
		operand, err := e.value(n.Node)
		if err != nil {
			return nil, false, err
		}
		v, err := unaryOp(n.Operator, operand)
		return v, false, err

	case *Binary:
		v, err := e.binary(n)
		return v, false, err

	case *Conditional:
		cond, err := e.value(n.Expr1)
		if err != nil {
			return nil, false, err
		}
		if Truthy(cond) {
			v, err := e.value(n.Expr2)
			return v, false, err
		}
		v, err := e.value(n.Expr3)
		return v, false, err

	case *Array:
		v, err := e.array(n)
		return v, false, err

	case *Arguments:
		v, err := e.all(n.Nodes)
		return v, false, err

	case *Function:
		fn, ok := e.function(n.Name)
		if !ok {
			return nil, false, types.NewRuntimeError("The function %q does not exist", n.Name)
		}
		args, err := e.all(n.Arguments.Nodes)
		if err != nil {
			return nil, false, err
		}
		v, err := fn.Evaluator(e.values, args...)
		return v, false, err

	case *GetAttr:
		return e.getAttr(n)

	case *NullCoalesce:
		v, err := e.value(n.Expr1)
		if err != nil {
			return nil, false, err
		}
		if !isNil(v) {
			return v, false, nil
		}
		v, err = e.value(n.Expr2)
		return v, false, err

	case *Sequence:
		v, err := e.all(n.Nodes)
		return v, false, err

	case nil:
		return nil, false, types.NewRuntimeError("Cannot evaluate a nil node")
	}
	return nil, false, types.NewRuntimeError("Cannot evaluate node of type %T", n)
}

func (e *evaluator) value(n Node) (any, error) {
	v, _, err := e.eval(n)
	return v, err
}

func (e *evaluator) all(nodes []Node) ([]any, error) {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		v, err := e.value(n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *evaluator) function(name string) (functions.Function, bool) {
	if e.funcs == nil {
		return functions.Function{}, false
	}
	return e.funcs.Function(name)
}

func (e *evaluator) binary(n *Binary) (any, error) {
	left, err := e.value(n.Left)
	if err != nil {
		return nil, err
	}

	switch n.Operator {
	case "or", "||":
		if Truthy(left) {
			return true, nil
		}
		right, err := e.value(n.Right)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	case "and", "&&":
		if !Truthy(left) {
			return false, nil
		}
		right, err := e.value(n.Right)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	}

	right, err := e.value(n.Right)
	if err != nil {
		return nil, err
	}
	return binaryOp(n.Operator, left, right)
}

func (e *evaluator) array(n *Array) (any, error) {
	values, err := e.all(n.Values)
	if err != nil {
		return nil, err
	}
	if !n.Hash {
		return values, nil
	}
	m := types.NewMap()
	for i, kn := range n.Keys {
		k, err := e.value(kn)
		if err != nil {
			return nil, err
		}
		if err := m.Set(k, values[i]); err != nil {
			return nil, types.NewRuntimeError("Illegal offset type %s", typeName(k))
		}
	}
	return m, nil
}

func (e *evaluator) getAttr(n *GetAttr) (any, bool, error) {
	base, short, err := e.eval(n.Node)
	if err != nil {
		return nil, false, err
	}

	if isNil(base) {
		if n.NullSafe || n.NullCoalesce || short {
			return nil, true, nil
		}
		switch n.Kind {
		case PropertyCall:
			return nil, false, types.NewRuntimeError("Unable to get property %q of non-object %q", n.name(), describe(n.Node))
		case MethodCall:
			return nil, false, types.NewRuntimeError("Unable to call method %q of non-object %q", n.name(), describe(n.Node))
		default:
			return nil, false, types.NewRuntimeError("Unable to get an item of non-array %q", describe(n.Node))
		}
	}

	switch n.Kind {
	case PropertyCall:
		res := property(base, n.name())
		switch {
		case !res.object:
			return nil, false, types.NewRuntimeError("Unable to get property %q of non-object %q", n.name(), describe(n.Node))
		case !res.found && !n.NullCoalesce:
			return nil, false, types.NewRuntimeError("Unable to get property %q of object %q", n.name(), describe(n.Node))
		}
		return res.value, false, nil

	case MethodCall:
		args, err := e.all(n.Arguments.Nodes)
		if err != nil {
			return nil, false, err
		}
		v, res, err := callMethod(base, n.name(), args)
		if err != nil {
			return nil, false, err
		}
		if !res.found {
			if !res.object {
				return nil, false, types.NewRuntimeError("Unable to call method %q of non-object %q", n.name(), describe(n.Node))
			}
			return nil, false, types.NewRuntimeError("Unable to call method %q of object %q", n.name(), describe(n.Node))
		}
		return v, false, nil

	default:
		key, err := e.value(n.Attribute)
		if err != nil {
			return nil, false, err
		}
		res := item(base, key)
		switch {
		case !res.object:
			return nil, false, types.NewRuntimeError("Unable to get an item of non-array %q", describe(n.Node))
		case !res.found && !n.NullCoalesce:
			return nil, false, types.NewRuntimeError("Key %q does not exist in array %q", fmt.Sprint(key), describe(n.Node))
		}
		return res.value, false, nil
	}
}

// describe dumps n for error messages, falling back to its type.
func describe(n Node) string {
	s, err := Dump(n)
	if err != nil {
		return fmt.Sprintf("%T", n)
	}
	return s
}
