// Package extstring provides string functions for expressions. Register
// them with goexpr.WithProviders(extstring.Provider()) or one at a time
// through AddFunction.
package extstring

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gosimple/slug"

	"github.com/sandrolain/goexpr/pkg/functions"
	"github.com/sandrolain/goexpr/pkg/types"
)

// All returns every string function.
func All() []functions.Function {
	return []functions.Function{
		Lower(),
		Upper(),
		Trim(),
		Length(),
		Slug(),
		Join(),
		Replace(),
		Capitalize(),
		CamelCase(),
		SnakeCase(),
		Repeat(),
	}
}

// Provider exposes All for bulk registration.
func Provider() functions.Provider {
	return functions.ProviderFunc(All)
}

// Lower returns the definition for lower(str).
func Lower() functions.Function {
	return unary("lower", strings.ToLower)
}

// Upper returns the definition for upper(str).
func Upper() functions.Function {
	return unary("upper", strings.ToUpper)
}

// Trim returns the definition for trim(str [, cutset]).
// Without cutset, leading and trailing white space is removed.
func Trim() functions.Function {
	return functions.Function{
		Name:     "trim",
		Compiler: functions.Call("trim"),
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			if len(args) < 1 || len(args) > 2 {
				return nil, arity("trim", "1 or 2", len(args))
			}
			str, err := stringArg("trim", args, 0)
			if err != nil {
				return nil, err
			}
			if len(args) == 1 {
				return strings.TrimSpace(str), nil
			}
			cutset, err := stringArg("trim", args, 1)
			if err != nil {
				return nil, err
			}
			return strings.Trim(str, cutset), nil
		},
	}
}

// Length returns the definition for length(v).
// Strings count characters, lists and hashes count elements.
func Length() functions.Function {
	return functions.Function{
		Name:     "length",
		Compiler: functions.Call("length"),
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			if len(args) != 1 {
				return nil, arity("length", "1", len(args))
			}
			switch v := args[0].(type) {
			case nil:
				return 0, nil
			case string:
				return utf8.RuneCountInString(v), nil
			case []any:
				return len(v), nil
			case *types.Map:
				return v.Len(), nil
			case map[string]any:
				return len(v), nil
			default:
				return nil, types.NewRuntimeError("length() expects a string, a list or a hash, %T given", v)
			}
		},
	}
}

// Slug returns the definition for slug(str), an URL-friendly form of str.
func Slug() functions.Function {
	return unary("slug", slug.Make)
}

// Join returns the definition for join(list [, glue]).
func Join() functions.Function {
	return functions.Function{
		Name:     "join",
		Compiler: functions.Call("join"),
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			if len(args) < 1 || len(args) > 2 {
				return nil, arity("join", "1 or 2", len(args))
			}
			var items []any
			switch v := args[0].(type) {
			case []any:
				items = v
			case *types.Map:
				items = v.Values()
			default:
				return nil, types.NewRuntimeError("join() expects a list, %T given", v)
			}
			glue := ""
			if len(args) == 2 {
				g, err := stringArg("join", args, 1)
				if err != nil {
					return nil, err
				}
				glue = g
			}
			parts := make([]string, len(items))
			for i, item := range items {
				if item != nil {
					parts[i] = fmt.Sprint(item)
				}
			}
			return strings.Join(parts, glue), nil
		},
	}
}

// Replace returns the definition for replace(str, search, replacement).
func Replace() functions.Function {
	return functions.Function{
		Name:     "replace",
		Compiler: functions.Call("replace"),
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			if len(args) != 3 {
				return nil, arity("replace", "3", len(args))
			}
			var s [3]string
			for i := range s {
				v, err := stringArg("replace", args, i)
				if err != nil {
					return nil, err
				}
				s[i] = v
			}
			return strings.ReplaceAll(s[0], s[1], s[2]), nil
		},
	}
}

// Capitalize returns the definition for capitalize(str).
// Uppercases the first character, lowercases the rest.
func Capitalize() functions.Function {
	return unary("capitalize", func(str string) string {
		if str == "" {
			return str
		}
		runes := []rune(strings.ToLower(str))
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes)
	})
}

// splitWordsRe matches word separators and lower-to-upper case transitions.
var splitWordsRe = regexp.MustCompile(`[_\-\s]+|([a-z])([A-Z])`)

func splitIntoWords(str string) []string {
	expanded := splitWordsRe.ReplaceAllStringFunc(str, func(s string) string {
		if len(s) == 2 && s[0] >= 'a' && s[0] <= 'z' {
			return string(s[0]) + " " + string(s[1])
		}
		return " "
	})
	return strings.Fields(expanded)
}

// CamelCase returns the definition for camelCase(str).
func CamelCase() functions.Function {
	return unary("camelCase", func(str string) string {
		words := splitIntoWords(str)
		if len(words) == 0 {
			return ""
		}
		var b strings.Builder
		b.WriteString(strings.ToLower(words[0]))
		for _, w := range words[1:] {
			runes := []rune(strings.ToLower(w))
			runes[0] = unicode.ToUpper(runes[0])
			b.WriteString(string(runes))
		}
		return b.String()
	})
}

// SnakeCase returns the definition for snakeCase(str).
func SnakeCase() functions.Function {
	return unary("snakeCase", func(str string) string {
		words := splitIntoWords(str)
		for i, w := range words {
			words[i] = strings.ToLower(w)
		}
		return strings.Join(words, "_")
	})
}

// Repeat returns the definition for repeat(str, n).
func Repeat() functions.Function {
	return functions.Function{
		Name:     "repeat",
		Compiler: functions.Call("repeat"),
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			if len(args) != 2 {
				return nil, arity("repeat", "2", len(args))
			}
			str, err := stringArg("repeat", args, 0)
			if err != nil {
				return nil, err
			}
			n, ok := toInt(args[1])
			if !ok || n < 0 {
				return nil, types.NewRuntimeError("repeat() expects a non-negative integer as argument 2")
			}
			return strings.Repeat(str, n), nil
		},
	}
}

func unary(name string, fn func(string) string) functions.Function {
	return functions.Function{
		Name:     name,
		Compiler: functions.Call(name),
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			if len(args) != 1 {
				return nil, arity(name, "1", len(args))
			}
			str, err := stringArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			return fn(str), nil
		},
	}
}

func stringArg(name string, args []any, i int) (string, error) {
	str, ok := args[i].(string)
	if !ok {
		return "", types.NewRuntimeError("%s() expects a string as argument %d, %T given", name, i+1, args[i])
	}
	return str, nil
}

func arity(name, want string, got int) error {
	return types.NewRuntimeError("%s() expects %s arguments, %d given", name, want, got)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
