// Package compiler turns a parsed expression back into source text for a
// host language.
//
// The Compiler is a text accumulator: AST nodes drive it during the compile
// traversal and decide every control-flow question themselves. How each
// construct is spelled comes from a Syntax table, CEL by default.
//
// # Example
//
//	c := compiler.New(registry, compiler.WithSyntax(compiler.PHP))
//	src := c.Compile(node).Source()
package compiler

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/sandrolain/goexpr/pkg/functions"
	"github.com/sandrolain/goexpr/pkg/types"
)

// Node is anything that can write itself into a Compiler.
type Node interface {
	Compile(c *Compiler)
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithSyntax selects the host language syntax.
func WithSyntax(s Syntax) Option {
	return func(c *Compiler) {
		c.syntax = s
	}
}

// Compiler accumulates generated source text.
type Compiler struct {
	buf    *strings.Builder
	funcs  functions.Lookup
	syntax Syntax
	err    error
}

// New creates a compiler resolving function code generators from funcs.
func New(funcs functions.Lookup, opts ...Option) *Compiler {
	c := &Compiler{
		buf:    &strings.Builder{},
		funcs:  funcs,
		syntax: CEL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Syntax returns the host syntax in use.
func (c *Compiler) Syntax() Syntax {
	return c.syntax
}

// Function returns the registered function called name.
func (c *Compiler) Function(name string) (functions.Function, bool) {
	if c.funcs == nil {
		return functions.Function{}, false
	}
	return c.funcs.Function(name)
}

// Source returns the text accumulated so far.
func (c *Compiler) Source() string {
	return c.buf.String()
}

// Err returns the first error reported during compilation, if any.
func (c *Compiler) Err() error {
	return c.err
}

// Fail records err. Only the first failure is kept.
func (c *Compiler) Fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// Reset clears the buffer and any recorded error.
func (c *Compiler) Reset() *Compiler {
	c.buf.Reset()
	c.err = nil
	return c
}

// Compile appends the code for node.
func (c *Compiler) Compile(node Node) *Compiler {
	node.Compile(c)
	return c
}

// Subcompile compiles node into a separate buffer and returns the text,
// leaving the current buffer untouched.
func (c *Compiler) Subcompile(node Node) string {
	outer := c.buf
	c.buf = &strings.Builder{}
	node.Compile(c)
	out := c.buf.String()
	c.buf = outer
	return out
}

// Raw appends text as is.
func (c *Compiler) Raw(text string) *Compiler {
	c.buf.WriteString(text)
	return c
}

// Rawf appends formatted text.
func (c *Compiler) Rawf(format string, args ...any) *Compiler {
	fmt.Fprintf(c.buf, format, args...)
	return c
}

// String appends value as a quoted string literal.
func (c *Compiler) String(value string) *Compiler {
	c.buf.WriteString(c.syntax.Quote(value))
	return c
}

// Variable appends a reference to the variable name.
func (c *Compiler) Variable(name string) *Compiler {
	c.buf.WriteString(c.syntax.Variable(name))
	return c
}

// Repr appends the literal form of value, recursing into lists and maps.
func (c *Compiler) Repr(value any) *Compiler {
	c.buf.WriteString(c.repr(value))
	return c
}

// List wraps already compiled items in the list literal syntax.
func (c *Compiler) List(items []string) string {
	return c.syntax.ListOpen + strings.Join(items, c.syntax.Separator) + c.syntax.ListClose
}

// Hash wraps already compiled key/value pairs in the map literal syntax.
func (c *Compiler) Hash(keys, values []string) string {
	pairs := make([]string, len(keys))
	for i := range keys {
		pairs[i] = keys[i] + c.syntax.HashPair + values[i]
	}
	return c.syntax.HashOpen + strings.Join(pairs, c.syntax.Separator) + c.syntax.HashClose
}

func (c *Compiler) repr(value any) string {
	s := c.syntax
	switch v := value.(type) {
	case nil:
		return s.Null
	case bool:
		if v {
			return s.True
		}
		return s.False
	case string:
		return s.Quote(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return c.float(v)
	case float32:
		return c.float(float64(v))
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = c.repr(item)
		}
		return c.List(items)
	case *types.Map:
		if v.IsList() {
			return c.repr(v.Values())
		}
		keys := make([]string, 0, v.Len())
		values := make([]string, 0, v.Len())
		for _, k := range v.Keys() {
			item, _ := v.Get(k)
			keys = append(keys, c.repr(k))
			values = append(values, c.repr(item))
		}
		return c.Hash(keys, values)
	case fmt.Stringer:
		return s.Quote(v.String())
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Slice, reflect.Array:
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = c.repr(rv.Index(i).Interface())
		}
		return c.List(items)
	case reflect.Map:
		mkeys := rv.MapKeys()
		sort.Slice(mkeys, func(i, j int) bool {
			return fmt.Sprint(mkeys[i].Interface()) < fmt.Sprint(mkeys[j].Interface())
		})
		keys := make([]string, len(mkeys))
		values := make([]string, len(mkeys))
		for i, k := range mkeys {
			keys[i] = c.repr(k.Interface())
			values[i] = c.repr(rv.MapIndex(k).Interface())
		}
		return c.Hash(keys, values)
	}
	return s.Quote(fmt.Sprint(value))
}

// float formats f without depending on any locale. The result always
// reads back as a float: it carries a decimal point or an exponent.
func (c *Compiler) float(f float64) string {
	switch {
	case math.IsNaN(f):
		return c.syntax.NaN
	case math.IsInf(f, 1):
		return c.syntax.PosInf
	case math.IsInf(f, -1):
		return c.syntax.NegInf
	}
	var out string
	if abs := math.Abs(f); abs == 0 || (abs >= 1e-4 && abs < 1e21) {
		out = strconv.FormatFloat(f, 'f', -1, 64)
	} else {
		out = strconv.FormatFloat(f, 'e', -1, 64)
	}
	if !strings.ContainsAny(out, ".e") {
		out += ".0"
	}
	return out
}
