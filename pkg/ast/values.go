package ast

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/sandrolain/goexpr/pkg/types"
)

// Truthy reports the boolean meaning of v: null, false, zero numbers,
// "" and "0", and empty lists or maps are false.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != "" && x != "0"
	case int:
		return x != 0
	case float64:
		return x != 0
	case []any:
		return len(x) > 0
	case *types.Map:
		return x.Len() > 0
	}
	if isNil(v) {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32:
		return rv.Float() != 0
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	}
	return true
}

// isNil reports whether v is nil or a nil pointer, map, slice or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// number is a numeric operand: an int or a float.
type number struct {
	i       int
	f       float64
	isFloat bool
}

func (n number) float() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

func (n number) value() any {
	if n.isFloat {
		return n.f
	}
	return n.i
}

// toNumber converts Go numbers of any kind. With lenient set, booleans,
// null and numeric strings are accepted as well.
func toNumber(v any, lenient bool) (number, bool) {
	switch x := v.(type) {
	case int:
		return number{i: x}, true
	case float64:
		return number{f: x, isFloat: true}, true
	case nil:
		return number{}, lenient
	case bool:
		if !lenient {
			return number{}, false
		}
		if x {
			return number{i: 1}, true
		}
		return number{}, true
	case string:
		if !lenient {
			return number{}, false
		}
		return parseNumeric(x)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{i: int(rv.Int())}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return number{i: int(rv.Uint())}, true
	case reflect.Float32, reflect.Float64:
		return number{f: rv.Float(), isFloat: true}, true
	}
	return number{}, false
}

func parseNumeric(s string) (number, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return number{}, false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return number{i: i}, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return number{f: f, isFloat: true}, true
	}
	return number{}, false
}

func isNumeric(v any) bool {
	_, ok := toNumber(v, false)
	return ok
}

// ToString converts a scalar to its string form: null and false are "",
// true is "1", numbers use the shortest exact representation.
func ToString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		if x {
			return "1", nil
		}
		return "", nil
	case fmt.Stringer:
		return x.String(), nil
	}
	if n, ok := toNumber(v, false); ok {
		if !n.isFloat {
			return strconv.Itoa(n.i), nil
		}
		return formatFloat(n.f), nil
	}
	return "", types.NewRuntimeError("Unable to convert %s to string", typeName(v))
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}
	return strconv.FormatFloat(f, 'G', -1, 64)
}

// typeName describes v for error messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any, *types.Map:
		return "array"
	}
	return fmt.Sprintf("%T", v)
}

// list returns the elements of a list-like value: a []any, a *types.Map
// (its values) or any Go slice, array or map.
func list(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case *types.Map:
		return x.Values(), true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	case reflect.Map:
		out := make([]any, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out = append(out, iter.Value().Interface())
		}
		return out, true
	}
	return nil, false
}

// LooseEqual compares a and b the way == does: numbers compare by value
// across int and float, numeric strings compare as numbers, booleans
// compare by truthiness, null equals any falsy value and lists compare
// element by element.
func LooseEqual(a, b any) bool {
	if isNil(a) || isNil(b) {
		if isNil(a) && isNil(b) {
			return true
		}
		other := a
		if isNil(a) {
			other = b
		}
		if s, ok := other.(string); ok {
			return s == ""
		}
		return !Truthy(other)
	}
	if ab, ok := a.(bool); ok {
		return ab == Truthy(b)
	}
	if bb, ok := b.(bool); ok {
		return bb == Truthy(a)
	}

	na, aNum := toNumber(a, false)
	nb, bNum := toNumber(b, false)
	switch {
	case aNum && bNum:
		return compareNumbers(na, nb) == 0
	case aNum:
		if s, ok := b.(string); ok {
			if n, ok := parseNumeric(s); ok {
				return compareNumbers(na, n) == 0
			}
			str, _ := ToString(a)
			return str == s
		}
	case bNum:
		return LooseEqual(b, a)
	}

	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		return ok && sa == sb
	}

	la, aList := list(a)
	lb, bList := list(b)
	if aList && bList {
		if len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !LooseEqual(la[i], lb[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// StrictEqual compares a and b the way === does: both must have the same
// kind of value. Integers of any Go width are the same kind, as are
// floats.
func StrictEqual(a, b any) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	na, aNum := toNumber(a, false)
	nb, bNum := toNumber(b, false)
	if aNum || bNum {
		if !aNum || !bNum || na.isFloat != nb.isFloat {
			return false
		}
		if na.isFloat {
			return na.f == nb.f
		}
		return na.i == nb.i
	}

	switch x := a.(type) {
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case *types.Map:
		y, ok := b.(*types.Map)
		if !ok || x.Len() != y.Len() {
			return false
		}
		xk, yk := x.Keys(), y.Keys()
		for i := range xk {
			if xk[i] != yk[i] {
				return false
			}
			xv, _ := x.Get(xk[i])
			yv, _ := y.Get(yk[i])
			if !StrictEqual(xv, yv) {
				return false
			}
		}
		return true
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !StrictEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func compareNumbers(a, b number) int {
	if !a.isFloat && !b.isFloat {
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		}
		return 0
	}
	fa, fb := a.float(), b.float()
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	}
	return 0
}

// compare orders a and b. Numbers (and numeric strings) compare as
// numbers, two strings compare lexically; other pairs are an error.
func compare(a, b any) (int, error) {
	sa, aStr := a.(string)
	sb, bStr := b.(string)
	if aStr && bStr {
		na, aNum := parseNumeric(sa)
		nb, bNum := parseNumeric(sb)
		if aNum && bNum {
			return compareNumbers(na, nb), nil
		}
		return strings.Compare(sa, sb), nil
	}
	na, aOK := toNumber(a, true)
	nb, bOK := toNumber(b, true)
	if aOK && bOK {
		return compareNumbers(na, nb), nil
	}
	return 0, types.NewRuntimeError("Unable to compare %s with %s", typeName(a), typeName(b))
}
