package ast

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/sandrolain/goexpr/pkg/types"
)

// Dump reconstructs expression source text from node. Operations keep
// their grouping through explicit parentheses, so the output parses back
// to an equivalent tree. Sequence nodes have no source form.
func Dump(node Node) (string, error) {
	var b strings.Builder
	if err := dump(&b, node); err != nil {
		return "", err
	}
	return b.String(), nil
}

func dump(b *strings.Builder, n Node) error {
	switch n := n.(type) {
	case *Constant:
		if s, ok := n.Value.(string); ok && n.Identifier {
			b.WriteString(s)
			return nil
		}
		return dumpValue(b, n.Value)

	case *Name:
		b.WriteString(n.Name)

	case *Unary:
		b.WriteString("(" + n.Operator + " ")
		if err := dump(b, n.Node); err != nil {
			return err
		}
		b.WriteString(")")

	case *Binary:
		b.WriteString("(")
		if err := dump(b, n.Left); err != nil {
			return err
		}
		b.WriteString(" " + n.Operator + " ")
		if err := dump(b, n.Right); err != nil {
			return err
		}
		b.WriteString(")")

	case *Conditional:
		return dumpSeq(b, "(", n.Expr1, " ? ", n.Expr2, " : ", n.Expr3, ")")

	case *Array:
		if !n.Hash {
			b.WriteString("[")
			if err := dumpList(b, n.Values); err != nil {
				return err
			}
			b.WriteString("]")
			return nil
		}
		b.WriteString("{")
		for i := range n.Values {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := dumpSeq(b, n.Keys[i], ": ", n.Values[i]); err != nil {
				return err
			}
		}
		b.WriteString("}")

	case *Arguments:
		return dumpList(b, n.Nodes)

	case *Function:
		b.WriteString(n.Name + "(")
		if err := dumpList(b, n.Arguments.Nodes); err != nil {
			return err
		}
		b.WriteString(")")

	case *GetAttr:
		if err := dump(b, n.Node); err != nil {
			return err
		}
		dot := "."
		if n.NullSafe {
			dot = "?."
		}
		switch n.Kind {
		case PropertyCall:
			b.WriteString(dot + n.name())
		case MethodCall:
			b.WriteString(dot + n.name() + "(")
			if err := dumpList(b, n.Arguments.Nodes); err != nil {
				return err
			}
			b.WriteString(")")
		default:
			return dumpSeq(b, "[", n.Attribute, "]")
		}

	case *NullCoalesce:
		return dumpSeq(b, "(", n.Expr1, ") ?? (", n.Expr2, ")")

	default:
		return types.NewError(types.KindUnsupported, fmt.Sprintf("Dumping a %s is not supported", kindName(n)), -1)
	}
	return nil
}

// dumpSeq writes strings as is and dumps nodes.
func dumpSeq(b *strings.Builder, parts ...any) error {
	for _, p := range parts {
		switch p := p.(type) {
		case string:
			b.WriteString(p)
		case Node:
			if err := dump(b, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func dumpList(b *strings.Builder, nodes []Node) error {
	for i, n := range nodes {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := dump(b, n); err != nil {
			return err
		}
	}
	return nil
}

func dumpValue(b *strings.Builder, v any) error {
	switch x := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(x))
	case string:
		b.WriteString(quote(x))
	case float64:
		s := strconv.FormatFloat(x, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eIN") {
			s += ".0"
		}
		b.WriteString(s)
	case []any:
		b.WriteString("[")
		for i, item := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := dumpValue(b, item); err != nil {
				return err
			}
		}
		b.WriteString("]")
	case *types.Map:
		if x.IsList() {
			return dumpValue(b, x.Values())
		}
		b.WriteString("{")
		for i, k := range x.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := dumpValue(b, k); err != nil {
				return err
			}
			b.WriteString(": ")
			item, _ := x.Get(k)
			if err := dumpValue(b, item); err != nil {
				return err
			}
		}
		b.WriteString("}")
	case int:
		b.WriteString(strconv.Itoa(x))
	default:
		n, ok := toNumber(v, false)
		if !ok {
			return types.NewError(types.KindUnsupported, fmt.Sprintf("Dumping a constant of type %T is not supported", v), -1)
		}
		return dumpValue(b, n.value())
	}
	return nil
}

// quote renders s as a double-quoted expression string literal.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case 0:
			b.WriteString(`\0`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// String renders node as an indented debug tree, one node per line:
//
//	Binary(operator: "+"
//	    Constant(value: 1)
//	    Name(name: "a")
//	)
func String(node Node) string {
	var b strings.Builder
	writeTree(&b, node, "")
	return b.String()
}

func writeTree(b *strings.Builder, n Node, indent string) {
	if n == nil {
		b.WriteString(indent + "nil")
		return
	}
	attrs := n.Attributes()
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + attributeString(attrs[name])
	}

	b.WriteString(indent + kindName(n) + "(" + strings.Join(parts, ", "))
	children := n.Children()
	if len(children) == 0 {
		b.WriteString(")")
		return
	}
	for _, c := range children {
		b.WriteString("\n")
		writeTree(b, c.Node, indent+"    ")
	}
	b.WriteString("\n" + indent + ")")
}

func attributeString(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case CallKind:
		return x.String()
	}
	var b strings.Builder
	if err := dumpValue(&b, v); err == nil {
		return b.String()
	}
	return fmt.Sprintf("%v", v)
}

// kindName returns the variant name of n, e.g. "GetAttr".
func kindName(n Node) string {
	t := reflect.TypeOf(n)
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
