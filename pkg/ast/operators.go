package ast

import (
	"math"
	"math/bits"
	"strings"

	"github.com/sandrolain/goexpr/pkg/types"
)

// binaryOp computes left op right for every operator except the
// short-circuiting ones, which the evaluator handles itself.
func binaryOp(op string, left, right any) (any, error) {
	switch op {
	case "xor":
		return Truthy(left) != Truthy(right), nil

	case "==":
		return LooseEqual(left, right), nil
	case "!=":
		return !LooseEqual(left, right), nil
	case "===":
		return StrictEqual(left, right), nil
	case "!==":
		return !StrictEqual(left, right), nil

	case "<", ">", "<=", ">=":
		c, err := compare(left, right)
		if err != nil {
			return nil, err
		}
		switch op {
		case "<":
			return c < 0, nil
		case ">":
			return c > 0, nil
		case "<=":
			return c <= 0, nil
		default:
			return c >= 0, nil
		}

	case "in", "not in":
		found, err := contains(left, right)
		if err != nil {
			return nil, err
		}
		return found == (op == "in"), nil

	case "matches":
		subject, err := ToString(left)
		if err != nil {
			return nil, err
		}
		pattern, ok := right.(string)
		if !ok {
			return nil, types.NewRuntimeError("The right operand of matches must be a string, %s given", typeName(right))
		}
		re, err := compilePattern(pattern)
		if err != nil {
			return nil, err
		}
		return re.MatchString(subject), nil

	case "contains", "starts with", "ends with":
		l, err := ToString(left)
		if err != nil {
			return nil, err
		}
		r, err := ToString(right)
		if err != nil {
			return nil, err
		}
		switch op {
		case "contains":
			return strings.Contains(l, r), nil
		case "starts with":
			return strings.HasPrefix(l, r), nil
		default:
			return strings.HasSuffix(l, r), nil
		}

	case "~":
		l, err := ToString(left)
		if err != nil {
			return nil, err
		}
		r, err := ToString(right)
		if err != nil {
			return nil, err
		}
		return l + r, nil

	case "..":
		return rangeOf(left, right)

	case "|", "^", "&", "<<", ">>":
		return bitwise(op, left, right)

	case "+", "-", "*", "/", "%", "**":
		return arithmetic(op, left, right)
	}
	return nil, types.NewRuntimeError("Unknown operator %q", op)
}

// unaryOp computes op operand.
func unaryOp(op string, operand any) (any, error) {
	switch op {
	case "not", "!":
		return !Truthy(operand), nil
	case "-", "+":
		n, ok := toNumber(operand, true)
		if !ok {
			return nil, types.NewRuntimeError("Unsupported operand type for unary %s: %s", op, typeName(operand))
		}
		if op == "+" {
			return n.value(), nil
		}
		if n.isFloat {
			return -n.f, nil
		}
		if n.i == math.MinInt {
			return -float64(n.i), nil
		}
		return -n.i, nil
	}
	return nil, types.NewRuntimeError("Unknown operator %q", op)
}

// contains reports whether needle is strictly equal to an element of
// haystack, which must be a list or a map.
func contains(needle, haystack any) (bool, error) {
	items, ok := list(haystack)
	if !ok {
		return false, types.NewRuntimeError("The right operand of in must be an array, %s given", typeName(haystack))
	}
	for _, item := range items {
		if StrictEqual(needle, item) {
			return true, nil
		}
	}
	return false, nil
}

func rangeOf(left, right any) ([]any, error) {
	from, okFrom := toNumber(left, true)
	to, okTo := toNumber(right, true)
	if !okFrom || !okTo {
		return nil, types.NewRuntimeError("Range bounds must be numbers, %s and %s given", typeName(left), typeName(right))
	}
	a, b := int(from.float()), int(to.float())
	step := 1
	if a > b {
		step = -1
	}
	out := make([]any, 0, abs(b-a)+1)
	for i := a; ; i += step {
		out = append(out, i)
		if i == b {
			break
		}
	}
	return out, nil
}

func bitwise(op string, left, right any) (any, error) {
	l, okL := toNumber(left, true)
	r, okR := toNumber(right, true)
	if !okL || !okR {
		return nil, unsupportedOperands(op, left, right)
	}
	a, b := int(l.float()), int(r.float())
	if !l.isFloat {
		a = l.i
	}
	if !r.isFloat {
		b = r.i
	}
	switch op {
	case "|":
		return a | b, nil
	case "^":
		return a ^ b, nil
	case "&":
		return a & b, nil
	}
	if b < 0 {
		return nil, types.NewRuntimeError("Bit shift by negative number")
	}
	if op == "<<" {
		return a << uint(b), nil
	}
	return a >> uint(b), nil
}

func arithmetic(op string, left, right any) (any, error) {
	l, okL := toNumber(left, true)
	r, okR := toNumber(right, true)
	if !okL || !okR {
		return nil, unsupportedOperands(op, left, right)
	}

	switch op {
	case "/":
		if r.float() == 0 {
			return nil, types.NewRuntimeError("Division by zero")
		}
		if !l.isFloat && !r.isFloat && l.i%r.i == 0 && !(l.i == math.MinInt && r.i == -1) {
			return l.i / r.i, nil
		}
		return l.float() / r.float(), nil

	case "%":
		a, b := int(l.float()), int(r.float())
		if !l.isFloat {
			a = l.i
		}
		if !r.isFloat {
			b = r.i
		}
		if b == 0 {
			return nil, types.NewRuntimeError("Modulo by zero")
		}
		if b == -1 {
			return 0, nil
		}
		return a % b, nil

	case "**":
		if !l.isFloat && !r.isFloat && r.i >= 0 {
			if v, ok := powInt(l.i, r.i); ok {
				return v, nil
			}
		}
		return math.Pow(l.float(), r.float()), nil
	}

	if l.isFloat || r.isFloat {
		a, b := l.float(), r.float()
		switch op {
		case "+":
			return a + b, nil
		case "-":
			return a - b, nil
		default:
			return a * b, nil
		}
	}

	a, b := l.i, r.i
	switch op {
	case "+":
		sum := a + b
		if (sum > a) == (b > 0) {
			return sum, nil
		}
	case "-":
		diff := a - b
		if (diff < a) == (b > 0) {
			return diff, nil
		}
	default:
		hi, lo := bits.Mul64(uint64(absInt(a)), uint64(absInt(b)))
		if hi == 0 && lo <= math.MaxInt64 && a != math.MinInt && b != math.MinInt {
			return a * b, nil
		}
	}
	// integer overflow falls back to float arithmetic
	return arithmetic(op, float64(a), float64(b))
}

func powInt(base, exp int) (int, bool) {
	result := 1
	for exp > 0 {
		if exp&1 == 1 {
			hi, lo := bits.Mul64(uint64(absInt(result)), uint64(absInt(base)))
			if hi != 0 || lo > math.MaxInt64 {
				return 0, false
			}
			result *= base
		}
		exp >>= 1
		if exp > 0 {
			hi, lo := bits.Mul64(uint64(absInt(base)), uint64(absInt(base)))
			if hi != 0 || lo > math.MaxInt64 {
				return 0, false
			}
			base *= base
		}
	}
	return result, true
}

func unsupportedOperands(op string, left, right any) error {
	return types.NewRuntimeError("Unsupported operand types: %s %s %s", typeName(left), op, typeName(right))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func absInt(n int) int {
	if n == math.MinInt {
		return math.MaxInt
	}
	return abs(n)
}
