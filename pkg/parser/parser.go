// Package parser turns expression text into an AST.
//
// The package consists of three components:
//   - Lexer: scans the text into a TokenStream
//   - TokenStream: a forward-only cursor with expect/advance helpers
//   - Parser: a precedence-climbing recursive descent parser producing ast.Node
//
// # Example
//
//	stream, err := parser.Tokenize("user.age >= 18 and user.country in ['IT', 'FR']")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	node, err := parser.New(registry).Parse(stream, types.Names("user"))
//
// Variable names are validated against the allow-list given to Parse and
// function names against the registry, so unknown identifiers are reported
// as syntax errors with a "Did you mean" hint.
package parser

import (
	"github.com/sandrolain/goexpr/pkg/ast"
	"github.com/sandrolain/goexpr/pkg/functions"
	"github.com/sandrolain/goexpr/pkg/types"
)

// DefaultMaxDepth is the nesting limit applied when none is configured.
const DefaultMaxDepth = 256

// Flags relax validation.
type Flags uint8

const (
	// IgnoreUnknownVariables accepts any free name as a variable.
	IgnoreUnknownVariables Flags = 1 << iota
	// IgnoreUnknownFunctions accepts calls to functions that are not registered.
	IgnoreUnknownFunctions
)

// Option configures a Parser.
type Option func(*Parser)

// WithMaxDepth limits how deeply expressions may nest. Values below 1
// restore the default.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		if depth < 1 {
			depth = DefaultMaxDepth
		}
		p.maxDepth = depth
	}
}

// WithFlags sets validation flags.
func WithFlags(flags Flags) Option {
	return func(p *Parser) {
		p.flags = flags
	}
}

// Parser builds ASTs from token streams. A Parser holds configuration
// only and may be shared between goroutines.
type Parser struct {
	funcs    functions.Lookup
	maxDepth int
	flags    Flags
}

// New creates a parser resolving function names in funcs. funcs may be
// nil, in which case no function is known.
func New(funcs functions.Lookup, opts ...Option) *Parser {
	p := &Parser{
		funcs:    funcs,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse builds the AST of stream. names lists the variables that may
// appear free in the expression.
func (p *Parser) Parse(stream *TokenStream, names []types.Name) (ast.Node, error) {
	return p.run(stream, names, p.flags)
}

// Lint checks stream without returning the tree. A nil names slice
// disables variable validation.
func (p *Parser) Lint(stream *TokenStream, names []types.Name) error {
	flags := p.flags
	if names == nil {
		flags |= IgnoreUnknownVariables
	}
	_, err := p.run(stream, names, flags)
	return err
}

// ParseString tokenizes and parses source in one step.
func (p *Parser) ParseString(source string, names []types.Name) (ast.Node, error) {
	stream, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return p.Parse(stream, names)
}

func (p *Parser) run(stream *TokenStream, names []types.Name, flags Flags) (ast.Node, error) {
	s := &state{
		Parser: p,
		stream: stream,
		flags:  flags,
		names:  make(map[string]string, len(names)),
	}
	for _, n := range names {
		s.names[n.External] = n.Internal
		s.external = append(s.external, n.External)
	}

	node, err := s.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if !stream.IsEOF() {
		t := stream.Current()
		return nil, s.errorf(t, "Unexpected token %q of value %q", t.Type.String(), t.Value)
	}
	return node, nil
}
