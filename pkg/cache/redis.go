package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/sandrolain/goexpr/pkg/ast"
)

// RedisClient is the subset of the go-redis client the Redis backend uses.
// *redis.Client, *redis.ClusterClient and *redis.Ring satisfy it.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Redis stores parsed expressions as JSON documents in Redis. Calls go
// through a circuit breaker so that an unavailable server fails fast.
type Redis struct {
	client  RedisClient
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

// RedisOption configures a Redis backend.
type RedisOption func(*Redis)

// WithPrefix namespaces every key, e.g. "goexpr:".
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// WithTTL sets the expiration of stored entries. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

// WithTimeout bounds each Redis call.
func WithTimeout(timeout time.Duration) RedisOption {
	return func(r *Redis) {
		r.timeout = timeout
	}
}

// WithBreakerSettings replaces the default circuit breaker settings.
func WithBreakerSettings(st gobreaker.Settings) RedisOption {
	return func(r *Redis) {
		r.breaker = gobreaker.NewCircuitBreaker(st)
	}
}

// NewRedis creates a Redis backend. The default breaker opens after 3
// requests with at least 60% failures and retries after 3 seconds.
func NewRedis(client RedisClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client:  client,
		prefix:  "goexpr:",
		timeout: time.Second,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "goexpr-redis-cache",
			MaxRequests: 1,
			Interval:    5 * time.Second,
			Timeout:     3 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get fetches and decodes the expression stored under key.
func (r *Redis) Get(key string) (*ast.ParsedExpression, bool, error) {
	res, err := r.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		data, err := r.client.Get(ctx, r.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			// a miss is not a failure for the breaker
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cache: %w", err)
	}
	data, _ := res.([]byte)
	if data == nil {
		return nil, false, nil
	}

	parsed, err := ast.UnmarshalParsed(data)
	if err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return parsed, true, nil
}

// Put encodes parsed and stores it under key.
func (r *Redis) Put(key string, parsed *ast.ParsedExpression) error {
	data, err := ast.MarshalParsed(parsed)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	_, err = r.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		return nil, r.client.Set(ctx, r.prefix+key, data, r.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// State returns the circuit breaker state.
func (r *Redis) State() gobreaker.State {
	return r.breaker.State()
}
