package ast

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ParsedExpression pairs expression text with its tree. It is immutable
// and may be shared and evaluated concurrently.
type ParsedExpression struct {
	source string
	root   Node
}

// NewParsedExpression creates a parsed expression.
func NewParsedExpression(source string, root Node) *ParsedExpression {
	return &ParsedExpression{source: source, root: root}
}

// Source returns the expression text.
func (p *ParsedExpression) Source() string {
	return p.source
}

// Root returns the root node of the tree.
func (p *ParsedExpression) Root() Node {
	return p.root
}

// String returns the expression text.
func (p *ParsedExpression) String() string {
	return p.source
}

// wireNode is the JSON form of a node. Only the fields relevant to Kind
// are set.
type wireNode struct {
	Kind         string      `json:"kind"`
	Value        *wireValue  `json:"value,omitempty"`
	Identifier   bool        `json:"identifier,omitempty"`
	Name         string      `json:"name,omitempty"`
	Operator     string      `json:"operator,omitempty"`
	Hash         bool        `json:"hash,omitempty"`
	Call         string      `json:"call,omitempty"`
	NullSafe     bool        `json:"null_safe,omitempty"`
	NullCoalesce bool        `json:"null_coalesce,omitempty"`
	Nodes        []*wireNode `json:"nodes,omitempty"`
	Keys         []*wireNode `json:"keys,omitempty"`
}

// wireValue keeps the Go type of a constant across a JSON round trip,
// so that 2 and 2.0 stay distinct.
type wireValue struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

type wireParsed struct {
	Source string    `json:"source"`
	Root   *wireNode `json:"root"`
}

// MarshalParsed encodes p as JSON.
func MarshalParsed(p *ParsedExpression) ([]byte, error) {
	root, err := encodeNode(p.root)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireParsed{Source: p.source, Root: root})
}

// UnmarshalParsed decodes JSON produced by MarshalParsed.
func UnmarshalParsed(data []byte) (*ParsedExpression, error) {
	var w wireParsed
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode parsed expression: %w", err)
	}
	root, err := decodeNode(w.Root)
	if err != nil {
		return nil, err
	}
	return NewParsedExpression(w.Source, root), nil
}

func encodeNode(n Node) (*wireNode, error) {
	w := &wireNode{Kind: kindName(n)}
	var children []Node
	switch n := n.(type) {
	case *Constant:
		v, err := encodeValue(n.Value)
		if err != nil {
			return nil, err
		}
		w.Value = v
		w.Identifier = n.Identifier
	case *Name:
		w.Name = n.Name
	case *Unary:
		w.Operator = n.Operator
		children = []Node{n.Node}
	case *Binary:
		w.Operator = n.Operator
		children = []Node{n.Left, n.Right}
	case *Conditional:
		children = []Node{n.Expr1, n.Expr2, n.Expr3}
	case *Array:
		w.Hash = n.Hash
		children = n.Values
		keys, err := encodeNodes(n.Keys)
		if err != nil {
			return nil, err
		}
		w.Keys = keys
	case *Arguments:
		children = n.Nodes
	case *Function:
		w.Name = n.Name
		children = n.Arguments.Nodes
	case *GetAttr:
		w.Call = n.Kind.String()
		w.NullSafe = n.NullSafe
		w.NullCoalesce = n.NullCoalesce
		children = append([]Node{n.Node, n.Attribute}, n.Arguments.Nodes...)
	case *NullCoalesce:
		children = []Node{n.Expr1, n.Expr2}
	case *Sequence:
		children = n.Nodes
	default:
		return nil, fmt.Errorf("encode node: unknown node type %T", n)
	}
	nodes, err := encodeNodes(children)
	if err != nil {
		return nil, err
	}
	w.Nodes = nodes
	return w, nil
}

func encodeNodes(nodes []Node) ([]*wireNode, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	out := make([]*wireNode, len(nodes))
	for i, n := range nodes {
		w, err := encodeNode(n)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

func encodeValue(v any) (*wireValue, error) {
	switch x := v.(type) {
	case nil:
		return &wireValue{Type: "null"}, nil
	case bool:
		return &wireValue{Type: "bool", Value: strconv.FormatBool(x)}, nil
	case int:
		return &wireValue{Type: "int", Value: strconv.Itoa(x)}, nil
	case float64:
		return &wireValue{Type: "float", Value: strconv.FormatFloat(x, 'g', -1, 64)}, nil
	case string:
		return &wireValue{Type: "string", Value: x}, nil
	}
	return nil, fmt.Errorf("encode node: unsupported constant type %T", v)
}

func decodeNode(w *wireNode) (Node, error) {
	if w == nil {
		return nil, fmt.Errorf("decode node: missing node")
	}
	nodes := make([]Node, len(w.Nodes))
	for i, c := range w.Nodes {
		n, err := decodeNode(c)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	arity := func(n int) error {
		if len(nodes) != n {
			return fmt.Errorf("decode node: %s expects %d children, got %d", w.Kind, n, len(nodes))
		}
		return nil
	}

	switch w.Kind {
	case "Constant":
		v, err := decodeValue(w.Value)
		if err != nil {
			return nil, err
		}
		return &Constant{Value: v, Identifier: w.Identifier}, nil
	case "Name":
		return NewName(w.Name), nil
	case "Unary":
		if err := arity(1); err != nil {
			return nil, err
		}
		return NewUnary(w.Operator, nodes[0]), nil
	case "Binary":
		if err := arity(2); err != nil {
			return nil, err
		}
		return NewBinary(w.Operator, nodes[0], nodes[1]), nil
	case "Conditional":
		if err := arity(3); err != nil {
			return nil, err
		}
		return NewConditional(nodes[0], nodes[1], nodes[2]), nil
	case "Array":
		a := &Array{Hash: w.Hash, Values: nodes}
		if w.Hash {
			for _, k := range w.Keys {
				kn, err := decodeNode(k)
				if err != nil {
					return nil, err
				}
				a.Keys = append(a.Keys, kn)
			}
			if len(a.Keys) != len(a.Values) {
				return nil, fmt.Errorf("decode node: hash has %d keys and %d values", len(a.Keys), len(a.Values))
			}
		}
		return a, nil
	case "Arguments":
		return NewArguments(nodes...), nil
	case "Function":
		return NewFunction(w.Name, NewArguments(nodes...)), nil
	case "GetAttr":
		if len(nodes) < 2 {
			return nil, fmt.Errorf("decode node: GetAttr expects at least 2 children, got %d", len(nodes))
		}
		kind, err := parseCallKind(w.Call)
		if err != nil {
			return nil, err
		}
		ga := NewGetAttr(nodes[0], nodes[1], NewArguments(nodes[2:]...), kind)
		ga.NullSafe = w.NullSafe
		ga.NullCoalesce = w.NullCoalesce
		return ga, nil
	case "NullCoalesce":
		if err := arity(2); err != nil {
			return nil, err
		}
		return NewNullCoalesce(nodes[0], nodes[1]), nil
	case "Sequence":
		return NewSequence(nodes...), nil
	}
	return nil, fmt.Errorf("decode node: unknown kind %q", w.Kind)
}

func decodeValue(w *wireValue) (any, error) {
	if w == nil {
		return nil, fmt.Errorf("decode node: constant without value")
	}
	switch w.Type {
	case "null":
		return nil, nil
	case "bool":
		return strconv.ParseBool(w.Value)
	case "int":
		return strconv.Atoi(w.Value)
	case "float":
		return strconv.ParseFloat(w.Value, 64)
	case "string":
		return w.Value, nil
	}
	return nil, fmt.Errorf("decode node: unknown constant type %q", w.Type)
}

func parseCallKind(s string) (CallKind, error) {
	for _, k := range []CallKind{PropertyCall, MethodCall, ArrayCall} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("decode node: unknown call kind %q", s)
}
