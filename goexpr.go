// Package goexpr is an embeddable expression language.
//
// Expressions are small, side-effect free formulas such as
//
//	user.age >= 18 and user.country in ['IT', 'FR']
//
// An ExpressionLanguage parses them against an allow-list of variable
// names and then either evaluates them directly or compiles them to the
// source text of a host language (CEL by default, PHP as an alternative).
//
// # Quick Start
//
//	// One-shot evaluation
//	result, err := goexpr.Evaluate("1 + 2 * 3", nil)
//
//	// Parse once, evaluate many times
//	el, err := goexpr.New()
//	parsed, err := el.Parse("price * qty", types.Names("price", "qty"))
//	total, err := el.Evaluate(parsed, map[string]any{"price": 2.5, "qty": 4})
//
//	// Generate host source text
//	src, err := el.Compile("a?.b ?? 'none'", types.Names("a")...)
//
// # Functions
//
// Functions are registered before first use. The first Parse, Compile,
// Evaluate or Lint seals the registry; registering afterwards fails with
// a logic error.
//
//	el, err := goexpr.New(goexpr.WithProviders(ext.Provider()))
//	err = el.AddFunction(functions.MustFromFunc("double", func(n int) int { return n * 2 }))
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/sandrolain/goexpr/pkg/parser
//   - AST and evaluation: github.com/sandrolain/goexpr/pkg/ast
//   - Compiler: github.com/sandrolain/goexpr/pkg/compiler
//   - Running CEL output: github.com/sandrolain/goexpr/pkg/celexec
//   - Functions: github.com/sandrolain/goexpr/pkg/functions
//   - Cache: github.com/sandrolain/goexpr/pkg/cache
package goexpr

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sandrolain/goexpr/pkg/ast"
	"github.com/sandrolain/goexpr/pkg/cache"
	"github.com/sandrolain/goexpr/pkg/celexec"
	"github.com/sandrolain/goexpr/pkg/compiler"
	"github.com/sandrolain/goexpr/pkg/functions"
	"github.com/sandrolain/goexpr/pkg/parser"
	"github.com/sandrolain/goexpr/pkg/types"
)

// Version returns the current version of goexpr.
func Version() string {
	return "v0.1.0-dev"
}

// Option configures an ExpressionLanguage.
type Option func(*settings)

type settings struct {
	backend   cache.Backend
	logger    *slog.Logger
	providers []functions.Provider
	syntax    compiler.Syntax
	maxDepth  int
	flags     parser.Flags
	constants map[string]any
}

// WithCache stores parsed expressions in backend. A nil backend disables
// caching. The default is an in-process LRU of cache.DefaultCapacity entries.
func WithCache(backend cache.Backend) Option {
	return func(s *settings) {
		s.backend = backend
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProviders registers the functions of each provider, in order.
func WithProviders(providers ...functions.Provider) Option {
	return func(s *settings) {
		s.providers = append(s.providers, providers...)
	}
}

// WithSyntax selects the host language targeted by Compile.
func WithSyntax(syntax compiler.Syntax) Option {
	return func(s *settings) {
		s.syntax = syntax
	}
}

// WithMaxDepth limits expression nesting. See parser.WithMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(s *settings) {
		s.maxDepth = depth
	}
}

// WithParserFlags relaxes name validation. See parser.Flags.
func WithParserFlags(flags parser.Flags) Option {
	return func(s *settings) {
		s.flags = flags
	}
}

// WithConstants sets the table read by the constant() function.
func WithConstants(constants map[string]any) Option {
	return func(s *settings) {
		s.constants = constants
	}
}

// ExpressionLanguage parses, compiles and evaluates expressions.
//
// It is safe for concurrent use once sealed; registration methods must
// not race with the first Parse, Compile, Evaluate or Lint.
type ExpressionLanguage struct {
	registry *functions.Registry
	cache    *cache.ParsedCache
	logger   *slog.Logger
	syntax   compiler.Syntax
	maxDepth int
	flags    parser.Flags

	once   sync.Once
	parser *parser.Parser
}

// New creates an ExpressionLanguage with the built-in functions
// (constant, min, max) and the functions of any configured provider.
func New(opts ...Option) (*ExpressionLanguage, error) {
	s := &settings{
		backend: cache.NewMemory(cache.DefaultCapacity),
		logger:  slog.Default(),
		syntax:  compiler.CEL,
	}
	for _, opt := range opts {
		opt(s)
	}

	el := &ExpressionLanguage{
		registry: functions.NewRegistry(),
		logger:   s.logger,
		syntax:   s.syntax,
		maxDepth: s.maxDepth,
		flags:    s.flags,
	}
	if s.backend != nil {
		el.cache = cache.New(s.backend, cache.WithLogger(s.logger))
	}

	providers := append([]functions.Provider{functions.Builtins(s.constants)}, s.providers...)
	for _, p := range providers {
		if err := el.registry.RegisterProvider(p); err != nil {
			return nil, fmt.Errorf("register provider: %w", err)
		}
	}
	return el, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *ExpressionLanguage {
	el, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("goexpr: New: %v", err))
	}
	return el
}

// Register adds a function built from a code generator and an evaluator.
func (el *ExpressionLanguage) Register(name string, codeGen functions.CodeGenerator, evaluator functions.Evaluator) error {
	return el.registry.Register(functions.Function{
		Name:      name,
		Compiler:  codeGen,
		Evaluator: evaluator,
	})
}

// AddFunction adds fn.
func (el *ExpressionLanguage) AddFunction(fn functions.Function) error {
	return el.Register(fn.Name, fn.Compiler, fn.Evaluator)
}

// RegisterProvider adds every function exposed by p.
func (el *ExpressionLanguage) RegisterProvider(p functions.Provider) error {
	for _, fn := range p.Functions() {
		if err := el.AddFunction(fn); err != nil {
			return err
		}
	}
	return nil
}

// Functions returns the read-only view of the registered functions.
func (el *ExpressionLanguage) Functions() functions.Lookup {
	return el.registry
}

// Parse returns the parsed form of expr. expr is a string, a
// types.Expression or an *ast.ParsedExpression, which is returned as is.
func (el *ExpressionLanguage) Parse(expr any, names ...types.Name) (*ast.ParsedExpression, error) {
	p := el.getParser()
	if parsed, ok := expr.(*ast.ParsedExpression); ok {
		return parsed, nil
	}
	source, err := sourceOf(expr)
	if err != nil {
		return nil, err
	}

	compute := func() (*ast.ParsedExpression, error) {
		start := time.Now()
		node, err := p.ParseString(source, names)
		if err != nil {
			return nil, err
		}
		el.logger.Debug("expression parsed",
			slog.String("expression", source),
			slog.Duration("duration", time.Since(start)),
		)
		return ast.NewParsedExpression(source, node), nil
	}
	if el.cache == nil {
		return compute()
	}
	return el.cache.GetOrCompute(source, names, compute)
}

// Compile returns the host source text of expr for the configured syntax.
func (el *ExpressionLanguage) Compile(expr any, names ...types.Name) (string, error) {
	parsed, err := el.Parse(expr, names...)
	if err != nil {
		return "", err
	}
	c := compiler.New(el.registry, compiler.WithSyntax(el.syntax)).Compile(parsed.Root())
	if err := c.Err(); err != nil {
		return "", err
	}
	return c.Source(), nil
}

// Program compiles expr to CEL and plans it on cel-go, whatever syntax
// Compile targets. Run the program with the variables of names, keyed by
// their internal names.
func (el *ExpressionLanguage) Program(expr any, names ...types.Name) (*celexec.Program, error) {
	parsed, err := el.Parse(expr, names...)
	if err != nil {
		return nil, err
	}
	c := compiler.New(el.registry).Compile(parsed.Root())
	if err := c.Err(); err != nil {
		return nil, err
	}

	internal := make([]string, len(names))
	for i, n := range names {
		internal[i] = n.Internal
	}
	return celexec.NewEngine(el.registry, internal).Compile(c.Source())
}

// Evaluate computes the value of expr. The keys of values are the names
// the expression may use.
func (el *ExpressionLanguage) Evaluate(expr any, values map[string]any) (any, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	parsed, err := el.Parse(expr, types.Names(names...)...)
	if err != nil {
		return nil, err
	}
	return ast.Evaluate(parsed.Root(), el.registry, values)
}

// Lint checks expr without caching the result. A nil names slice accepts
// any variable.
func (el *ExpressionLanguage) Lint(expr any, names []types.Name) error {
	p := el.getParser()
	if _, ok := expr.(*ast.ParsedExpression); ok {
		return nil
	}
	source, err := sourceOf(expr)
	if err != nil {
		return err
	}
	stream, err := parser.Tokenize(source)
	if err != nil {
		return err
	}
	return p.Lint(stream, names)
}

// CacheStats returns the parsed expression cache counters. Both are zero
// when caching is disabled.
func (el *ExpressionLanguage) CacheStats() cache.Stats {
	if el.cache == nil {
		return cache.Stats{}
	}
	return el.cache.Stats()
}

// getParser seals the registry on first use and returns the shared parser.
func (el *ExpressionLanguage) getParser() *parser.Parser {
	el.once.Do(func() {
		if el.registry.Seal() {
			el.logger.Debug("function registry sealed", slog.Int("functions", el.registry.Len()))
		}
		el.parser = parser.New(el.registry,
			parser.WithMaxDepth(el.maxDepth),
			parser.WithFlags(el.flags),
		)
	})
	return el.parser
}

func sourceOf(expr any) (string, error) {
	switch e := expr.(type) {
	case string:
		return e, nil
	case types.Expression:
		return string(e), nil
	default:
		return "", types.NewLogicError("Expected a string, an Expression or a ParsedExpression, %T given", expr)
	}
}

var (
	defaultOnce sync.Once
	defaultEL   *ExpressionLanguage
)

func defaultLanguage() *ExpressionLanguage {
	defaultOnce.Do(func() {
		defaultEL = MustNew()
	})
	return defaultEL
}

// Evaluate evaluates expr with a shared ExpressionLanguage holding the
// built-in functions only.
func Evaluate(expr string, values map[string]any) (any, error) {
	return defaultLanguage().Evaluate(expr, values)
}

// Compile compiles expr to CEL with the shared ExpressionLanguage.
func Compile(expr string, names ...types.Name) (string, error) {
	return defaultLanguage().Compile(expr, names...)
}

// MustParse is like Parse on the shared ExpressionLanguage but panics if
// the expression cannot be parsed. It simplifies safe initialization of
// global variables.
func MustParse(expr string, names ...types.Name) *ast.ParsedExpression {
	parsed, err := defaultLanguage().Parse(expr, names...)
	if err != nil {
		panic(fmt.Sprintf("goexpr: Parse(%q): %v", expr, err))
	}
	return parsed
}
