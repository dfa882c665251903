package ast

import (
	"fmt"
	"strings"

	"github.com/sandrolain/goexpr/pkg/compiler"
	"github.com/sandrolain/goexpr/pkg/types"
)

// Compile appends the literal form of the value.
func (n *Constant) Compile(c *compiler.Compiler) {
	c.Repr(n.Value)
}

// Compile appends a variable reference.
func (n *Name) Compile(c *compiler.Compiler) {
	c.Variable(n.Name)
}

func (n *Unary) Compile(c *compiler.Compiler) {
	form, ok := c.Syntax().Unary[n.Operator]
	if !ok {
		c.Fail(unsupportedOperator(c, n.Operator))
		return
	}
	c.Rawf(form, c.Subcompile(n.Node))
}

func (n *Binary) Compile(c *compiler.Compiler) {
	s := c.Syntax()
	form, ok := s.Binary[n.Operator]
	if !ok {
		c.Fail(unsupportedOperator(c, n.Operator))
		return
	}

	left := c.Subcompile(n.Left)
	var right string
	if pattern, isConst := constantString(n.Right); n.Operator == "matches" && isConst {
		re, err := ConvertPattern(pattern)
		if err != nil {
			c.Fail(err)
			return
		}
		if s.DelimitedRegex {
			right = c.Subcompile(n.Right)
		} else {
			right = s.Quote(re)
		}
	} else {
		right = c.Subcompile(n.Right)
	}
	c.Rawf(form, left, right)
}

func (n *Conditional) Compile(c *compiler.Compiler) {
	c.Rawf(c.Syntax().Conditional, c.Subcompile(n.Expr1), c.Subcompile(n.Expr2), c.Subcompile(n.Expr3))
}

func (n *Array) Compile(c *compiler.Compiler) {
	values := subcompileAll(c, n.Values)
	if !n.Hash {
		c.Raw(c.List(values))
		return
	}
	c.Raw(c.Hash(subcompileAll(c, n.Keys), values))
}

// Compile appends the arguments separated by the syntax separator.
func (n *Arguments) Compile(c *compiler.Compiler) {
	c.Raw(strings.Join(subcompileAll(c, n.Nodes), c.Syntax().Separator))
}

func (n *Function) Compile(c *compiler.Compiler) {
	fn, ok := c.Function(n.Name)
	if !ok {
		c.Fail(types.NewLogicError("The function %q does not exist", n.Name))
		return
	}
	c.Raw(fn.Compiler(subcompileAll(c, n.Arguments.Nodes)...))
}

// Compile emits the whole access chain ending at n. Null-coalescing links
// use the host's optional selection when it has one; other links the host
// cannot navigate safely are guarded so that a null target yields null
// for the remainder of the chain. Every link is emitted once.
func (n *GetAttr) Compile(c *compiler.Compiler) {
	var links []*GetAttr
	var root Node = n
	for {
		ga, ok := root.(*GetAttr)
		if !ok {
			break
		}
		links = append(links, ga)
		root = ga.Node
	}
	// links were collected outermost first
	for i, j := 0, len(links)-1; i < j; i, j = i+1, j-1 {
		links[i], links[j] = links[j], links[i]
	}
	c.Raw(compileChain(c, c.Subcompile(root), links))
}

func compileChain(c *compiler.Compiler, target string, links []*GetAttr) string {
	s := c.Syntax()
	optional := false
	for i, link := range links {
		lenient := link.NullCoalesce && !s.NativeNullCoalesce()
		if (lenient || optional) && s.Optional() && link.Kind != MethodCall {
			target = compileOptional(c, target, link)
			optional = true
			continue
		}
		if optional {
			target = fmt.Sprintf(s.OptionalValue, target)
			optional = false
		}
		if lenient || (link.NullSafe && !s.NativeNullSafe()) {
			rest := links[i:]
			return once(c, target, func(t string) string {
				return fmt.Sprintf(s.Guard, t, s.Null, compileChain(c, compileLink(c, t, rest[0]), rest[1:]))
			})
		}
		target = compileLink(c, target, link)
	}
	if optional {
		target = fmt.Sprintf(s.OptionalValue, target)
	}
	return target
}

func compileOptional(c *compiler.Compiler, target string, n *GetAttr) string {
	s := c.Syntax()
	if n.Kind == PropertyCall {
		return fmt.Sprintf(s.OptionalProperty, target, n.name())
	}
	return fmt.Sprintf(s.OptionalIndex, target, c.Subcompile(n.Attribute))
}

func compileLink(c *compiler.Compiler, target string, n *GetAttr) string {
	s := c.Syntax()
	nativeSafe := n.NullSafe && s.NativeNullSafe()

	switch n.Kind {
	case PropertyCall:
		if nativeSafe {
			return fmt.Sprintf(s.NullSafeProperty, target, n.name())
		}
		return fmt.Sprintf(s.Property, target, n.name())

	case MethodCall:
		args := c.Subcompile(n.Arguments)
		if nativeSafe {
			return fmt.Sprintf(s.NullSafeMethod, target, n.name(), args)
		}
		return fmt.Sprintf(s.Method, target, n.name(), args)

	default:
		return fmt.Sprintf(s.Index, target, c.Subcompile(n.Attribute))
	}
}

// once hands value to body, binding it to the syntax temporary first
// unless it is a plain name that can be repeated as is.
func once(c *compiler.Compiler, value string, body func(string) string) string {
	s := c.Syntax()
	if s.Bind == "" || isIdentifier(value) {
		return body(value)
	}
	return fmt.Sprintf(s.Bind, s.Temp, value, body(s.Temp))
}

func isIdentifier(s string) bool {
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case ch == '_', ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}

func (n *NullCoalesce) Compile(c *compiler.Compiler) {
	s := c.Syntax()
	left, right := c.Subcompile(n.Expr1), c.Subcompile(n.Expr2)
	c.Raw(once(c, left, func(v string) string {
		return fmt.Sprintf(s.NullCoalesce, v, right)
	}))
}

// Compile compiles every node in order.
func (n *Sequence) Compile(c *compiler.Compiler) {
	for _, child := range n.Nodes {
		c.Compile(child)
	}
}

func subcompileAll(c *compiler.Compiler, nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, node := range nodes {
		out[i] = c.Subcompile(node)
	}
	return out
}

func constantString(n Node) (string, bool) {
	if k, ok := n.(*Constant); ok {
		s, ok := k.Value.(string)
		return s, ok
	}
	return "", false
}

func unsupportedOperator(c *compiler.Compiler, op string) error {
	return types.NewError(types.KindUnsupported,
		fmt.Sprintf("Operator %q is not supported by the %s syntax", op, c.Syntax().Name), -1)
}
