// Package ast defines the node model of a parsed expression and its
// traversals.
//
// The node set is closed: Constant, Name, Unary, Binary, Conditional,
// Array, Arguments, Function, GetAttr, NullCoalesce and Sequence. Every
// node exposes its named children and scalar attributes, and compiles
// itself into a compiler.Compiler. Evaluation and dumping are done by
// Evaluate and Dump, which switch over the variants.
//
// Nodes are not modified after the parser builds them, so a tree can be
// evaluated concurrently with different variable bindings.
package ast

import (
	"strconv"

	"github.com/sandrolain/goexpr/pkg/compiler"
)

// Node is a node of the expression tree.
type Node interface {
	compiler.Node
	// Children returns the child nodes in their fixed order.
	Children() []Child
	// Attributes returns the scalar attributes of the node.
	Attributes() map[string]any

	node()
}

// Child is a named child node.
type Child struct {
	Name string
	Node Node
}

// CallKind tells how a GetAttr node reaches into its target.
type CallKind uint8

const (
	// PropertyCall reads a property: foo.bar
	PropertyCall CallKind = iota + 1
	// MethodCall invokes a method: foo.bar()
	MethodCall
	// ArrayCall reads an item: foo["bar"]
	ArrayCall
)

// String returns the name of the call kind.
func (k CallKind) String() string {
	switch k {
	case PropertyCall:
		return "property"
	case MethodCall:
		return "method"
	case ArrayCall:
		return "array"
	default:
		return "unknown"
	}
}

// Constant is a literal value. Identifier marks property and method names
// stored as constants, which dump without quotes.
type Constant struct {
	Value      any
	Identifier bool
}

// NewConstant creates a literal node.
func NewConstant(value any) *Constant {
	return &Constant{Value: value}
}

// NewIdentifier creates a constant holding a property or method name.
func NewIdentifier(name string) *Constant {
	return &Constant{Value: name, Identifier: true}
}

func (*Constant) node() {}
func (*Constant) Children() []Child { return nil }
func (n *Constant) Attributes() map[string]any {
	return map[string]any{"value": n.Value}
}

// Name references a variable.
type Name struct {
	Name string
}

// NewName creates a variable reference.
func NewName(name string) *Name {
	return &Name{Name: name}
}

func (*Name) node() {}
func (*Name) Children() []Child { return nil }
func (n *Name) Attributes() map[string]any {
	return map[string]any{"name": n.Name}
}

// Unary applies a prefix operator.
type Unary struct {
	Operator string
	Node     Node
}

// NewUnary creates a unary node.
func NewUnary(operator string, node Node) *Unary {
	return &Unary{Operator: operator, Node: node}
}

func (*Unary) node() {}
func (n *Unary) Children() []Child {
	return []Child{{"node", n.Node}}
}
func (n *Unary) Attributes() map[string]any {
	return map[string]any{"operator": n.Operator}
}

// Binary applies an infix operator.
type Binary struct {
	Operator    string
	Left, Right Node
}

// NewBinary creates a binary node.
func NewBinary(operator string, left, right Node) *Binary {
	return &Binary{Operator: operator, Left: left, Right: right}
}

func (*Binary) node() {}
func (n *Binary) Children() []Child {
	return []Child{{"left", n.Left}, {"right", n.Right}}
}
func (n *Binary) Attributes() map[string]any {
	return map[string]any{"operator": n.Operator}
}

// Conditional is the ternary expr1 ? expr2 : expr3.
type Conditional struct {
	Expr1, Expr2, Expr3 Node
}

// NewConditional creates a ternary node.
func NewConditional(expr1, expr2, expr3 Node) *Conditional {
	return &Conditional{Expr1: expr1, Expr2: expr2, Expr3: expr3}
}

func (*Conditional) node() {}
func (n *Conditional) Children() []Child {
	return []Child{{"expr1", n.Expr1}, {"expr2", n.Expr2}, {"expr3", n.Expr3}}
}
func (*Conditional) Attributes() map[string]any { return map[string]any{} }

// Array is a list literal [a, b] or, when Hash is set, a map literal
// {k: v}. For lists Keys is nil.
type Array struct {
	Keys   []Node
	Values []Node
	Hash   bool
}

// NewList creates a list literal.
func NewList(values ...Node) *Array {
	return &Array{Values: values}
}

// NewHash creates an empty map literal; use Add to fill it.
func NewHash() *Array {
	return &Array{Hash: true}
}

// Add appends a key/value pair to a map literal.
func (n *Array) Add(key, value Node) {
	n.Keys = append(n.Keys, key)
	n.Values = append(n.Values, value)
}

func (*Array) node() {}

// Children returns keys and values interleaved for maps, values for lists.
func (n *Array) Children() []Child {
	var out []Child
	for i, v := range n.Values {
		if n.Hash {
			out = append(out, Child{"key" + strconv.Itoa(i), n.Keys[i]})
		}
		out = append(out, Child{strconv.Itoa(i), v})
	}
	return out
}
func (n *Array) Attributes() map[string]any {
	return map[string]any{"hash": n.Hash}
}

// Arguments is the argument list of a function or method call.
type Arguments struct {
	Nodes []Node
}

// NewArguments creates an argument list.
func NewArguments(nodes ...Node) *Arguments {
	return &Arguments{Nodes: nodes}
}

func (*Arguments) node() {}
func (n *Arguments) Children() []Child {
	out := make([]Child, len(n.Nodes))
	for i, a := range n.Nodes {
		out[i] = Child{strconv.Itoa(i), a}
	}
	return out
}
func (*Arguments) Attributes() map[string]any { return map[string]any{} }

// Function calls a registered function.
type Function struct {
	Name      string
	Arguments *Arguments
}

// NewFunction creates a function call node.
func NewFunction(name string, args *Arguments) *Function {
	if args == nil {
		args = NewArguments()
	}
	return &Function{Name: name, Arguments: args}
}

func (*Function) node() {}
func (n *Function) Children() []Child {
	return []Child{{"arguments", n.Arguments}}
}
func (n *Function) Attributes() map[string]any {
	return map[string]any{"name": n.Name}
}

// GetAttr accesses a property, a method or an item of Node.
//
// Attribute is an identifier constant for property and method calls and
// an arbitrary expression for array calls. Arguments is always present
// and is empty unless Kind is MethodCall.
type GetAttr struct {
	Node         Node
	Attribute    Node
	Arguments    *Arguments
	Kind         CallKind
	NullSafe     bool
	NullCoalesce bool
}

// NewGetAttr creates an attribute access node.
func NewGetAttr(node, attribute Node, args *Arguments, kind CallKind) *GetAttr {
	if args == nil {
		args = NewArguments()
	}
	return &GetAttr{Node: node, Attribute: attribute, Arguments: args, Kind: kind}
}

func (*GetAttr) node() {}
func (n *GetAttr) Children() []Child {
	return []Child{{"node", n.Node}, {"attribute", n.Attribute}, {"arguments", n.Arguments}}
}
func (n *GetAttr) Attributes() map[string]any {
	return map[string]any{
		"type":             n.Kind,
		"is_null_safe":     n.NullSafe,
		"is_null_coalesce": n.NullCoalesce,
	}
}

// name returns the property or method name.
func (n *GetAttr) name() string {
	if c, ok := n.Attribute.(*Constant); ok {
		if s, ok := c.Value.(string); ok {
			return s
		}
	}
	return ""
}

// MarkNullCoalesce flags n as the left side of a ?? operator. The flag
// spreads to every GetAttr reached through the target or attribute of a
// flagged GetAttr; other nodes stop the walk.
func MarkNullCoalesce(n Node) {
	ga, ok := n.(*GetAttr)
	if !ok {
		return
	}
	ga.NullCoalesce = true
	MarkNullCoalesce(ga.Node)
	MarkNullCoalesce(ga.Attribute)
}

// NullCoalesce is expr1 ?? expr2.
type NullCoalesce struct {
	Expr1, Expr2 Node
}

// NewNullCoalesce creates a null-coalescing node.
func NewNullCoalesce(expr1, expr2 Node) *NullCoalesce {
	return &NullCoalesce{Expr1: expr1, Expr2: expr2}
}

func (*NullCoalesce) node() {}
func (n *NullCoalesce) Children() []Child {
	return []Child{{"expr1", n.Expr1}, {"expr2", n.Expr2}}
}
func (*NullCoalesce) Attributes() map[string]any { return map[string]any{} }

// Sequence is a plain container of nodes. It compiles and evaluates its
// nodes in order but has no source form.
type Sequence struct {
	Nodes []Node
}

// NewSequence creates a sequence node.
func NewSequence(nodes ...Node) *Sequence {
	return &Sequence{Nodes: nodes}
}

func (*Sequence) node() {}
func (n *Sequence) Children() []Child {
	out := make([]Child, len(n.Nodes))
	for i, c := range n.Nodes {
		out[i] = Child{strconv.Itoa(i), c}
	}
	return out
}
func (*Sequence) Attributes() map[string]any { return map[string]any{} }
