// Package cache memoizes parsed expressions.
//
// A ParsedCache derives a key from the expression text and the allowed
// variable names, and stores ParsedExpression values in a Backend. Three
// backends are provided: an in-process LRU (Memory), Redis and SQLite.
//
// Backend failures are returned to the caller as errors matching
// types.ErrCache; the expression is not parsed as a fallback.
//
// # Example
//
//	c := cache.New(cache.NewMemory(1024))
//	parsed, err := c.GetOrCompute("a + b", types.Names("b", "a"), parse)
package cache

import (
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/sandrolain/goexpr/pkg/ast"
	"github.com/sandrolain/goexpr/pkg/types"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/backend.go -package=mocks github.com/sandrolain/goexpr/pkg/cache Backend

// Backend stores parsed expressions by key.
type Backend interface {
	// Get returns the expression stored under key. A missing key is not
	// an error: it returns (nil, false, nil).
	Get(key string) (*ast.ParsedExpression, bool, error)
	// Put stores expr under key, replacing any previous value.
	Put(key string, expr *ast.ParsedExpression) error
}

// Key returns the cache key of expression parsed with names. Names are
// sorted so that the declaration order does not matter; an alias
// contributes "internal:external".
func Key(expression string, names []types.Name) string {
	sorted := make([]types.Name, len(names))
	copy(sorted, names)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].External != sorted[j].External {
			return sorted[i].External < sorted[j].External
		}
		return sorted[i].Internal < sorted[j].Internal
	})

	items := make([]string, len(sorted))
	for i, n := range sorted {
		items[i] = n.String()
	}
	return url.PathEscape(expression + "//" + strings.Join(items, "|"))
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// Option configures a ParsedCache.
type Option func(*ParsedCache)

// WithLogger sets the logger used for hit, miss and failure events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *ParsedCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// ParsedCache implements get-or-compute over a Backend.
//
// Safe for concurrent use when the backend is.
type ParsedCache struct {
	backend Backend
	logger  *slog.Logger
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// New creates a ParsedCache over backend.
func New(backend Backend, opts ...Option) *ParsedCache {
	c := &ParsedCache{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backend returns the underlying storage.
func (c *ParsedCache) Backend() Backend {
	return c.backend
}

// GetOrCompute returns the expression cached for (expression, names) or
// calls compute, stores its result and returns it. Errors from compute
// are returned as is and nothing is stored.
func (c *ParsedCache) GetOrCompute(expression string, names []types.Name, compute func() (*ast.ParsedExpression, error)) (*ast.ParsedExpression, error) {
	key := Key(expression, names)

	parsed, ok, err := c.backend.Get(key)
	if err != nil {
		c.logger.Warn("parsed expression cache read failed", slog.String("key", key), slog.Any("error", err))
		return nil, types.NewError(types.KindCache, "Unable to read the parsed expression cache", -1).WithCause(err)
	}
	if ok {
		c.hits.Add(1)
		c.logger.Debug("parsed expression cache hit", slog.String("key", key))
		return parsed, nil
	}

	c.misses.Add(1)
	c.logger.Debug("parsed expression cache miss", slog.String("key", key))
	parsed, err = compute()
	if err != nil {
		return nil, err
	}
	if err := c.backend.Put(key, parsed); err != nil {
		c.logger.Warn("parsed expression cache write failed", slog.String("key", key), slog.Any("error", err))
		return nil, types.NewError(types.KindCache, "Unable to write the parsed expression cache", -1).WithCause(err)
	}
	return parsed, nil
}

// Stats returns the hit and miss counters.
func (c *ParsedCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}
