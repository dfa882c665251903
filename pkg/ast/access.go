package ast

import (
	"reflect"
	"unicode"
	"unicode/utf8"

	"github.com/sandrolain/goexpr/pkg/functions"
	"github.com/sandrolain/goexpr/pkg/types"
)

// PropertyGetter is implemented by caller objects that resolve their own
// properties instead of exposing struct fields.
type PropertyGetter interface {
	GetProperty(name string) (any, bool)
}

// lookup is the outcome of a member access on a Go value.
type lookup struct {
	value  any
	found  bool // the member exists
	object bool // the base supports this kind of access at all
}

// property reads name from base. Maps with string keys, *types.Map,
// PropertyGetter implementations and structs are supported. Struct fields
// match by `expr` tag, then exact name, then capitalized name.
func property(base any, name string) lookup {
	switch b := base.(type) {
	case PropertyGetter:
		v, ok := b.GetProperty(name)
		return lookup{v, ok, true}
	case *types.Map:
		v, ok := b.Get(name)
		return lookup{v, ok, true}
	case map[string]any:
		v, ok := b[name]
		return lookup{v, ok, true}
	}

	rv := indirect(reflect.ValueOf(base))
	if !rv.IsValid() {
		return lookup{}
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return lookup{}
		}
		mv := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return lookup{object: true}
		}
		return lookup{mv.Interface(), true, true}
	case reflect.Struct:
		fv, ok := field(rv, name)
		if !ok {
			return lookup{object: true}
		}
		return lookup{fv.Interface(), true, true}
	}
	return lookup{}
}

func field(rv reflect.Value, name string) (reflect.Value, bool) {
	t := rv.Type()
	upper := capitalize(name)
	var exact, capital []int
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		if tag, ok := f.Tag.Lookup("expr"); ok && tag == name {
			return fieldByIndex(rv, f.Index)
		}
		switch f.Name {
		case name:
			exact = f.Index
		case upper:
			if capital == nil {
				capital = f.Index
			}
		}
	}
	if exact != nil {
		return fieldByIndex(rv, exact)
	}
	if capital != nil {
		return fieldByIndex(rv, capital)
	}
	return reflect.Value{}, false
}

func fieldByIndex(rv reflect.Value, index []int) (reflect.Value, bool) {
	fv, err := rv.FieldByIndexErr(index)
	if err != nil {
		return reflect.Value{}, false
	}
	return fv, true
}

// callMethod invokes the method name on base with args. Lists and maps
// built by expressions are not objects and have no callable methods.
func callMethod(base any, name string, args []any) (any, lookup, error) {
	switch base.(type) {
	case []any, *types.Map, map[string]any:
		return nil, lookup{}, nil
	}
	rv := reflect.ValueOf(base)
	if !rv.IsValid() {
		return nil, lookup{}, nil
	}

	candidates := []reflect.Value{rv}
	if rv.Kind() != reflect.Pointer && rv.Kind() != reflect.Interface {
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		candidates = append(candidates, p)
	}
	object := rv.NumMethod() > 0 || indirect(rv).Kind() == reflect.Struct
	for _, cand := range candidates {
		for _, n := range []string{name, capitalize(name)} {
			m := cand.MethodByName(n)
			if !m.IsValid() {
				continue
			}
			v, err := functions.Invoke(n, m, args)
			return v, lookup{v, true, true}, err
		}
	}
	return nil, lookup{object: object}, nil
}

// item reads key from an indexable base: lists, slices, arrays and maps.
func item(base any, key any) lookup {
	switch b := base.(type) {
	case *types.Map:
		v, ok := b.Get(key)
		return lookup{v, ok, true}
	case []any:
		i, ok := listIndex(key, len(b))
		if !ok {
			return lookup{object: true}
		}
		return lookup{b[i], true, true}
	}

	rv := indirect(reflect.ValueOf(base))
	if !rv.IsValid() {
		return lookup{}
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		i, ok := listIndex(key, rv.Len())
		if !ok {
			return lookup{object: true}
		}
		return lookup{rv.Index(i).Interface(), true, true}
	case reflect.Map:
		kt := rv.Type().Key()
		kv, err := functions.ConvertValue(key, kt)
		if err != nil {
			if s, isStr := key.(string); isStr && kt.Kind() == reflect.String {
				kv = reflect.ValueOf(s).Convert(kt)
			} else {
				return lookup{object: true}
			}
		}
		mv := rv.MapIndex(kv)
		if !mv.IsValid() {
			return lookup{object: true}
		}
		return lookup{mv.Interface(), true, true}
	}
	return lookup{}
}

func listIndex(key any, length int) (int, bool) {
	n, ok := toNumber(key, true)
	if !ok {
		return 0, false
	}
	i := n.i
	if n.isFloat {
		i = int(n.f)
	}
	if i < 0 || i >= length {
		return 0, false
	}
	return i, true
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
