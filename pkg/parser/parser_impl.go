package parser

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sandrolain/goexpr/pkg/ast"
	"github.com/sandrolain/goexpr/pkg/types"
)

type associativity uint8

const (
	left associativity = iota
	right
)

type operator struct {
	precedence    int
	associativity associativity
}

// Operator precedence tables. Higher values bind more tightly.
var (
	unaryOperators = map[string]operator{
		"not": {50, left},
		"!":   {50, left},
		"-":   {500, left},
		"+":   {500, left},
	}

	binaryOperators = map[string]operator{
		"or":          {10, left},
		"||":          {10, left},
		"xor":         {12, left},
		"and":         {15, left},
		"&&":          {15, left},
		"|":           {16, left},
		"^":           {17, left},
		"&":           {18, left},
		"==":          {20, left},
		"===":         {20, left},
		"!=":          {20, left},
		"!==":         {20, left},
		"<":           {20, left},
		">":           {20, left},
		">=":          {20, left},
		"<=":          {20, left},
		"not in":      {20, left},
		"in":          {20, left},
		"matches":     {20, left},
		"contains":    {20, left},
		"starts with": {20, left},
		"ends with":   {20, left},
		"..":          {25, left},
		"<<":          {25, left},
		">>":          {25, left},
		"+":           {30, left},
		"-":           {30, left},
		"~":           {40, left},
		"*":           {60, left},
		"/":           {60, left},
		"%":           {60, left},
		"**":          {200, right},
	}
)

// state holds what a single Parse call needs.
type state struct {
	*Parser
	stream   *TokenStream
	flags    Flags
	names    map[string]string // external -> internal
	external []string
	depth    int
}

// errorf creates a syntax error located at t.
func (s *state) errorf(t Token, format string, args ...any) *types.Error {
	return types.NewSyntaxError(fmt.Sprintf(format, args...), t.Position, s.stream.Source()).WithToken(t.Value)
}

// parseExpression parses operands joined by binary operators binding at
// least as tightly as precedence. At precedence 0 it also handles the
// conditional operators.
func (s *state) parseExpression(precedence int) (ast.Node, error) {
	s.depth++
	defer func() { s.depth-- }()
	if s.depth > s.maxDepth {
		return nil, s.errorf(s.stream.Current(), "Expression is nested more than %d levels deep", s.maxDepth)
	}

	expr, err := s.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		t := s.stream.Current()
		if t.Type != TokenOperator {
			break
		}
		op, ok := binaryOperators[t.Value]
		if !ok || op.precedence < precedence {
			break
		}
		if err := s.stream.Next(); err != nil {
			return nil, err
		}
		next := op.precedence
		if op.associativity == left {
			next++
		}
		rhs, err := s.parseExpression(next)
		if err != nil {
			return nil, err
		}
		expr = ast.NewBinary(t.Value, expr, rhs)
	}

	if precedence == 0 {
		return s.parseConditionalExpression(expr)
	}
	return expr, nil
}

// parsePrimary handles unary operators and parenthesized expressions
// before falling back to parsePrimaryExpression.
func (s *state) parsePrimary() (ast.Node, error) {
	t := s.stream.Current()

	if t.Type == TokenOperator {
		if op, ok := unaryOperators[t.Value]; ok {
			if err := s.stream.Next(); err != nil {
				return nil, err
			}
			operand, err := s.parseExpression(op.precedence)
			if err != nil {
				return nil, err
			}
			return s.parsePostfixExpression(ast.NewUnary(t.Value, operand))
		}
	}

	if t.Test(TokenPunctuation, "(") {
		if err := s.stream.Next(); err != nil {
			return nil, err
		}
		expr, err := s.parseExpression(0)
		if err != nil {
			return nil, err
		}
		if err := s.stream.Expect(TokenPunctuation, ")", "An opened parenthesis is not properly closed"); err != nil {
			return nil, err
		}
		return s.parsePostfixExpression(expr)
	}

	return s.parsePrimaryExpression()
}

// parseConditionalExpression folds "??" chains, then ternaries:
// a ? b : c, the short form a ? b (else null) and a ?: b.
func (s *state) parseConditionalExpression(expr ast.Node) (ast.Node, error) {
	for s.stream.Current().Test(TokenPunctuation, "??") {
		if err := s.stream.Next(); err != nil {
			return nil, err
		}
		expr2, err := s.parseExpression(0)
		if err != nil {
			return nil, err
		}
		ast.MarkNullCoalesce(expr)
		expr = ast.NewNullCoalesce(expr, expr2)
	}

	for s.stream.Current().Test(TokenPunctuation, "?") {
		if err := s.stream.Next(); err != nil {
			return nil, err
		}
		var expr2, expr3 ast.Node
		var err error
		if !s.stream.Current().Test(TokenPunctuation, ":") {
			if expr2, err = s.parseExpression(0); err != nil {
				return nil, err
			}
			if s.stream.Current().Test(TokenPunctuation, ":") {
				if err := s.stream.Next(); err != nil {
					return nil, err
				}
				if expr3, err = s.parseExpression(0); err != nil {
					return nil, err
				}
			} else {
				expr3 = ast.NewConstant(nil)
			}
		} else {
			if err := s.stream.Next(); err != nil {
				return nil, err
			}
			expr2 = expr
			if expr3, err = s.parseExpression(0); err != nil {
				return nil, err
			}
		}
		expr = ast.NewConditional(expr, expr2, expr3)
	}

	return expr, nil
}

func (s *state) parsePrimaryExpression() (ast.Node, error) {
	t := s.stream.Current()
	var node ast.Node

	switch t.Type {
	case TokenName:
		if err := s.stream.Next(); err != nil {
			return nil, err
		}
		switch t.Value {
		case "true", "TRUE":
			return ast.NewConstant(true), nil
		case "false", "FALSE":
			return ast.NewConstant(false), nil
		case "null", "NULL":
			return ast.NewConstant(nil), nil
		}

		if s.stream.Current().Test(TokenPunctuation, "(") {
			if s.flags&IgnoreUnknownFunctions == 0 && !s.hasFunction(t.Value) {
				return nil, s.errorf(t, "The function %q does not exist", t.Value).WithSuggestion(t.Value, s.functionNames())
			}
			args, err := s.parseArguments()
			if err != nil {
				return nil, err
			}
			node = ast.NewFunction(t.Value, args)
		} else {
			name := t.Value
			if s.flags&IgnoreUnknownVariables == 0 {
				internal, ok := s.names[t.Value]
				if !ok {
					return nil, s.errorf(t, "Variable %q is not valid", t.Value).WithSuggestion(t.Value, s.external)
				}
				name = internal
			}
			node = ast.NewName(name)
		}

	case TokenNumber:
		if err := s.stream.Next(); err != nil {
			return nil, err
		}
		v, err := s.number(t)
		if err != nil {
			return nil, err
		}
		return ast.NewConstant(v), nil

	case TokenString:
		if err := s.stream.Next(); err != nil {
			return nil, err
		}
		return ast.NewConstant(t.Value), nil

	default:
		var err error
		switch {
		case t.Test(TokenPunctuation, "["):
			node, err = s.parseArrayExpression()
		case t.Test(TokenPunctuation, "{"):
			node, err = s.parseHashExpression()
		default:
			return nil, s.errorf(t, "Unexpected token %q of value %q", t.Type.String(), t.Value)
		}
		if err != nil {
			return nil, err
		}
	}

	return s.parsePostfixExpression(node)
}

func (s *state) parseArrayExpression() (ast.Node, error) {
	if err := s.stream.Expect(TokenPunctuation, "[", "An array element was expected"); err != nil {
		return nil, err
	}

	node := ast.NewList()
	for first := true; !s.stream.Current().Test(TokenPunctuation, "]"); first = false {
		if !first {
			if err := s.stream.Expect(TokenPunctuation, ",", "An array element must be followed by a comma"); err != nil {
				return nil, err
			}
			// trailing comma
			if s.stream.Current().Test(TokenPunctuation, "]") {
				break
			}
		}
		value, err := s.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Values = append(node.Values, value)
	}

	if err := s.stream.Expect(TokenPunctuation, "]", "An opened array is not properly closed"); err != nil {
		return nil, err
	}
	return node, nil
}

func (s *state) parseHashExpression() (ast.Node, error) {
	if err := s.stream.Expect(TokenPunctuation, "{", "A hash element was expected"); err != nil {
		return nil, err
	}

	node := ast.NewHash()
	for first := true; !s.stream.Current().Test(TokenPunctuation, "}"); first = false {
		if !first {
			if err := s.stream.Expect(TokenPunctuation, ",", "A hash value must be followed by a comma"); err != nil {
				return nil, err
			}
			// trailing comma
			if s.stream.Current().Test(TokenPunctuation, "}") {
				break
			}
		}

		// A key is a quoted string, a number, a bare name (taken as a
		// string) or an expression enclosed in parentheses.
		var key ast.Node
		t := s.stream.Current()
		switch {
		case t.Type == TokenString || t.Type == TokenName:
			key = ast.NewConstant(t.Value)
			if err := s.stream.Next(); err != nil {
				return nil, err
			}
		case t.Type == TokenNumber:
			v, err := s.number(t)
			if err != nil {
				return nil, err
			}
			key = ast.NewConstant(v)
			if err := s.stream.Next(); err != nil {
				return nil, err
			}
		case t.Test(TokenPunctuation, "("):
			var err error
			if key, err = s.parseExpression(0); err != nil {
				return nil, err
			}
		default:
			return nil, s.errorf(t, "A hash key must be a quoted string, a number, a name, or an expression enclosed in parentheses (unexpected token %q of value %q)", t.Type.String(), t.Value)
		}

		if err := s.stream.Expect(TokenPunctuation, ":", "A hash key must be followed by a colon (:)"); err != nil {
			return nil, err
		}
		value, err := s.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Add(key, value)
	}

	if err := s.stream.Expect(TokenPunctuation, "}", "An opened hash is not properly closed"); err != nil {
		return nil, err
	}
	return node, nil
}

// parsePostfixExpression consumes property, method and index accesses
// following node.
func (s *state) parsePostfixExpression(node ast.Node) (ast.Node, error) {
	for t := s.stream.Current(); t.Type == TokenPunctuation; t = s.stream.Current() {
		switch t.Value {
		case ".", "?.":
			nullSafe := t.Value == "?."
			if err := s.stream.Next(); err != nil {
				return nil, err
			}
			name := s.stream.Current()
			if err := s.stream.Next(); err != nil {
				return nil, err
			}
			// Word operators such as "not" or "matches" are valid
			// property and method names.
			if name.Type != TokenName && (name.Type != TokenOperator || !isWordOperator(name.Value)) {
				return nil, s.errorf(name, "Expected name")
			}

			kind := ast.PropertyCall
			args := ast.NewArguments()
			if s.stream.Current().Test(TokenPunctuation, "(") {
				kind = ast.MethodCall
				var err error
				if args, err = s.parseArguments(); err != nil {
					return nil, err
				}
			}
			access := ast.NewGetAttr(node, ast.NewIdentifier(name.Value), args, kind)
			access.NullSafe = nullSafe
			node = access

		case "[":
			if err := s.stream.Next(); err != nil {
				return nil, err
			}
			key, err := s.parseExpression(0)
			if err != nil {
				return nil, err
			}
			if err := s.stream.Expect(TokenPunctuation, "]", ""); err != nil {
				return nil, err
			}
			node = ast.NewGetAttr(node, key, ast.NewArguments(), ast.ArrayCall)

		default:
			return node, nil
		}
	}
	return node, nil
}

// parseArguments parses "(" [expr {"," expr} [","]] ")".
func (s *state) parseArguments() (*ast.Arguments, error) {
	if err := s.stream.Expect(TokenPunctuation, "(", "A list of arguments must begin with an opening parenthesis"); err != nil {
		return nil, err
	}

	args := ast.NewArguments()
	for !s.stream.Current().Test(TokenPunctuation, ")") {
		if len(args.Nodes) > 0 {
			if err := s.stream.Expect(TokenPunctuation, ",", "Arguments must be separated by a comma"); err != nil {
				return nil, err
			}
			if s.stream.Current().Test(TokenPunctuation, ")") {
				break
			}
		}
		arg, err := s.parseExpression(0)
		if err != nil {
			return nil, err
		}
		args.Nodes = append(args.Nodes, arg)
	}

	if err := s.stream.Expect(TokenPunctuation, ")", "A list of arguments must be closed by a parenthesis"); err != nil {
		return nil, err
	}
	return args, nil
}

// number converts a number token. Integers that fit an int stay
// integers; everything else is a float.
func (s *state) number(t Token) (any, error) {
	if !strings.ContainsAny(t.Value, ".eE") {
		if i, err := strconv.Atoi(t.Value); err == nil {
			return i, nil
		}
	}
	f, err := strconv.ParseFloat(t.Value, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, s.errorf(t, "Invalid number %q", t.Value)
	}
	return f, nil
}

func (s *state) hasFunction(name string) bool {
	if s.funcs == nil {
		return false
	}
	_, ok := s.funcs.Function(name)
	return ok
}

func (s *state) functionNames() []string {
	if s.funcs == nil {
		return nil
	}
	names := s.funcs.Names()
	sort.Strings(names)
	return names
}
