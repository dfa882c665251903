// Package types defines the shared vocabulary of goexpr.
//
// This package contains type definitions for:
//   - Expression: raw expression text supplied by a caller
//   - Name: a variable name allowed in an expression, optionally aliased
//   - Map: the ordered key/value runtime value
//   - Error: structured errors classified by kind
package types

// Expression is the source text of an expression, not yet parsed.
//
// It exists so that callers can pass typed expressions through APIs that
// also accept already parsed ones.
type Expression string

// String returns the expression text.
func (e Expression) String() string {
	return string(e)
}
