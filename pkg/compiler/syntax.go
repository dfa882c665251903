package compiler

import (
	"strconv"
	"strings"
)

// Syntax describes how a host language spells the constructs the compiler
// emits. Operator and access forms are fmt format strings; binary forms
// receive the left operand as %[1]s and the right operand as %[2]s.
type Syntax struct {
	// Name identifies the syntax, e.g. "cel".
	Name string

	Null, True, False string
	NaN, PosInf, NegInf string

	// Variable renders a variable reference.
	Variable func(name string) string
	// Quote renders a string literal.
	Quote func(s string) string

	// Binary maps each binary operator to its form.
	Binary map[string]string
	// Unary maps each unary operator to its form (%s is the operand).
	Unary map[string]string
	// Conditional is the ternary form: condition, then, else.
	Conditional string
	// NullCoalesce is the form of "a ?? b". When SafeCoalesce is set the
	// host operator also swallows null or missing members anywhere along
	// the left chain; otherwise the chain is guarded link by link.
	NullCoalesce string
	SafeCoalesce bool
	// DelimitedRegex is set when the host matches "/pattern/flags" strings
	// natively; otherwise constant patterns are converted to RE2 syntax.
	DelimitedRegex bool

	ListOpen, ListClose           string
	HashOpen, HashPair, HashClose string
	Separator                     string

	// Property, Method and Index render member access on a target.
	// Property: target, name. Method: target, name, args. Index: target, key.
	Property string
	Method   string
	Index    string
	// NullSafeProperty and NullSafeMethod are the native null-safe forms;
	// empty when the host lacks a safe-navigation operator.
	NullSafeProperty string
	NullSafeMethod   string
	// Guard is the conditional used to emulate null-safe access:
	// target, null literal, guarded expression.
	Guard string
	// OptionalProperty and OptionalIndex select a member that may be
	// absent and yield an optional value; OptionalValue unwraps it to the
	// member or null. Empty when the host has no optional selection.
	OptionalProperty string
	OptionalIndex    string
	OptionalValue    string
	// Bind evaluates a value once and exposes it to a body under the
	// name Temp: name, value, body. Empty when the host cannot bind.
	Bind string
	Temp string
}

// NativeNullSafe reports whether the host has a safe-navigation operator.
func (s Syntax) NativeNullSafe() bool {
	return s.NullSafeProperty != ""
}

// Optional reports whether the host can select members that may be absent.
func (s Syntax) Optional() bool {
	return s.OptionalProperty != ""
}

// NativeNullCoalesce reports whether the host null-coalescing operator
// covers a whole access chain.
func (s Syntax) NativeNullCoalesce() bool {
	return s.SafeCoalesce
}

// CEL targets the Common Expression Language. Output can be executed with
// github.com/google/cel-go when the referenced variables are declared.
// Arithmetic and the operators CEL lacks are emitted as calls the host
// environment must declare (add, sub, mul, div, mod, pow, range, bitAnd,
// bitOr, bitXor, shiftLeft, shiftRight). Null-coalescing chains use
// optional selection and need cel.OptionalTypes; repeated operands are
// bound once with cel.bind from the bindings extension.
var CEL = Syntax{
	Name:   "cel",
	Null:   "null",
	True:   "true",
	False:  "false",
	NaN:    `double("NaN")`,
	PosInf: `double("Infinity")`,
	NegInf: `double("-Infinity")`,

	Variable: func(name string) string { return name },
	Quote:    strconv.Quote,

	Binary: map[string]string{
		"or":          "(%[1]s || %[2]s)",
		"||":          "(%[1]s || %[2]s)",
		"xor":         "(%[1]s != %[2]s)",
		"and":         "(%[1]s && %[2]s)",
		"&&":          "(%[1]s && %[2]s)",
		"|":           "bitOr(%[1]s, %[2]s)",
		"^":           "bitXor(%[1]s, %[2]s)",
		"&":           "bitAnd(%[1]s, %[2]s)",
		"==":          "(%[1]s == %[2]s)",
		"===":         "(%[1]s == %[2]s)",
		"!=":          "(%[1]s != %[2]s)",
		"!==":         "(%[1]s != %[2]s)",
		"<":           "(%[1]s < %[2]s)",
		">":           "(%[1]s > %[2]s)",
		"<=":          "(%[1]s <= %[2]s)",
		">=":          "(%[1]s >= %[2]s)",
		"in":          "(%[1]s in %[2]s)",
		"not in":      "!(%[1]s in %[2]s)",
		"matches":     "matches(%[1]s, %[2]s)",
		"contains":    "%[1]s.contains(%[2]s)",
		"starts with": "%[1]s.startsWith(%[2]s)",
		"ends with":   "%[1]s.endsWith(%[2]s)",
		"..":          "range(%[1]s, %[2]s)",
		"<<":          "shiftLeft(%[1]s, %[2]s)",
		">>":          "shiftRight(%[1]s, %[2]s)",
		"+":           "add(%[1]s, %[2]s)",
		"-":           "sub(%[1]s, %[2]s)",
		"~":           "(string(%[1]s) + string(%[2]s))",
		"*":           "mul(%[1]s, %[2]s)",
		"/":           "div(%[1]s, %[2]s)",
		"%":           "mod(%[1]s, %[2]s)",
		"**":          "pow(%[1]s, %[2]s)",
	},
	Unary: map[string]string{
		"not": "(!%s)",
		"!":   "(!%s)",
		"-":   "(-%s)",
		"+":   "(%s)",
	},
	Conditional:  "((%s) ? (%s) : (%s))",
	NullCoalesce: "(%[1]s == null ? %[2]s : %[1]s)",

	ListOpen:  "[",
	ListClose: "]",
	HashOpen:  "{",
	HashPair:  ": ",
	HashClose: "}",
	Separator: ", ",

	Property:         "%s.%s",
	Method:           "%s.%s(%s)",
	Index:            "%s[%s]",
	Guard:            "(%[1]s == %[2]s ? %[2]s : %[3]s)",
	OptionalProperty: "%s.?%s",
	OptionalIndex:    "%s[?%s]",
	OptionalValue:    "%s.orValue(null)",
	Bind:             "cel.bind(%s, %s, %s)",
	Temp:             "_v",
}

// PHP targets PHP 8, the language the expression syntax originates from.
var PHP = Syntax{
	Name:   "php",
	Null:   "null",
	True:   "true",
	False:  "false",
	NaN:    "NAN",
	PosInf: "INF",
	NegInf: "-INF",

	Variable: func(name string) string { return "$" + name },
	Quote:    quotePHP,

	Binary: map[string]string{
		"or":          "(%[1]s || %[2]s)",
		"||":          "(%[1]s || %[2]s)",
		"xor":         "(%[1]s xor %[2]s)",
		"and":         "(%[1]s && %[2]s)",
		"&&":          "(%[1]s && %[2]s)",
		"|":           "(%[1]s | %[2]s)",
		"^":           "(%[1]s ^ %[2]s)",
		"&":           "(%[1]s & %[2]s)",
		"==":          "(%[1]s == %[2]s)",
		"===":         "(%[1]s === %[2]s)",
		"!=":          "(%[1]s != %[2]s)",
		"!==":         "(%[1]s !== %[2]s)",
		"<":           "(%[1]s < %[2]s)",
		">":           "(%[1]s > %[2]s)",
		"<=":          "(%[1]s <= %[2]s)",
		">=":          "(%[1]s >= %[2]s)",
		"in":          "\\in_array(%[1]s, %[2]s, true)",
		"not in":      "!\\in_array(%[1]s, %[2]s, true)",
		"matches":     "\\preg_match(%[2]s, %[1]s)",
		"contains":    "\\str_contains(%[1]s, %[2]s)",
		"starts with": "\\str_starts_with(%[1]s, %[2]s)",
		"ends with":   "\\str_ends_with(%[1]s, %[2]s)",
		"..":          "\\range(%[1]s, %[2]s)",
		"<<":          "(%[1]s << %[2]s)",
		">>":          "(%[1]s >> %[2]s)",
		"+":           "(%[1]s + %[2]s)",
		"-":           "(%[1]s - %[2]s)",
		"~":           "(%[1]s . %[2]s)",
		"*":           "(%[1]s * %[2]s)",
		"/":           "(%[1]s / %[2]s)",
		"%":           "(%[1]s %% %[2]s)",
		"**":          "(%[1]s ** %[2]s)",
	},
	Unary: map[string]string{
		"not": "(!%s)",
		"!":   "(!%s)",
		"-":   "(-%s)",
		"+":   "(+%s)",
	},
	Conditional:    "((%s) ? (%s) : (%s))",
	NullCoalesce:   "((%s) ?? (%s))",
	SafeCoalesce:   true,
	DelimitedRegex: true,

	ListOpen:  "[",
	ListClose: "]",
	HashOpen:  "[",
	HashPair:  " => ",
	HashClose: "]",
	Separator: ", ",

	Property:         "%s->%s",
	Method:           "%s->%s(%s)",
	Index:            "%s[%s]",
	NullSafeProperty: "%s?->%s",
	NullSafeMethod:   "%s?->%s(%s)",
	Guard:            "(null === %[1]s ? %[2]s : %[3]s)",
}

// SyntaxByName returns the built-in syntax with the given name.
func SyntaxByName(name string) (Syntax, bool) {
	switch strings.ToLower(name) {
	case "", "cel":
		return CEL, true
	case "php":
		return PHP, true
	default:
		return Syntax{}, false
	}
}

// quotePHP renders s as a double-quoted PHP string, escaping NUL, tab,
// double quote, dollar sign and backslash.
func quotePHP(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case 0:
			b.WriteString(`\000`)
		case '\t':
			b.WriteString(`\t`)
		case '"', '$', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
