// Package config loads goexpr settings from a YAML file and GOEXPR_*
// environment variables, and turns them into facade options.
//
//	cache:
//	  backend: redis        # memory | redis | sqlite | none
//	  size: 1024
//	  redis:
//	    addr: localhost:6379
//	    prefix: "goexpr:"
//	    ttl: 1h
//	  sqlite:
//	    path: ./goexpr-cache.db
//	parser:
//	  max_depth: 128
//	compiler:
//	  syntax: php           # cel | php
//	log:
//	  level: debug
//	  format: text
//
// GOEXPR_CACHE_BACKEND=none overrides cache.backend, and so on.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/sandrolain/goexpr"
	"github.com/sandrolain/goexpr/pkg/cache"
	"github.com/sandrolain/goexpr/pkg/compiler"
	"github.com/sandrolain/goexpr/pkg/logging"
	"github.com/sandrolain/goexpr/pkg/parser"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GOEXPR"

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Config holds the goexpr settings.
type Config struct {
	Cache    Cache
	Parser   Parser
	Compiler Compiler
	Log      Log
}

// Cache selects and configures the parsed expression cache.
type Cache struct {
	Backend string
	Size    int
	Redis   Redis
	SQLite  SQLite
}

// Redis configures the Redis cache backend.
type Redis struct {
	Addr   string
	Prefix string
	TTL    time.Duration
}

// SQLite configures the SQLite cache backend.
type SQLite struct {
	Path string
}

// Parser configures the parser.
type Parser struct {
	MaxDepth int
}

// Compiler configures the compiler.
type Compiler struct {
	Syntax string
}

// Log configures logging.
type Log struct {
	Level  string
	Format string
}

// Default returns the in-process defaults.
func Default() *Config {
	return &Config{
		Cache: Cache{
			Backend: BackendMemory,
			Size:    cache.DefaultCapacity,
			Redis: Redis{
				Addr:   "localhost:6379",
				Prefix: "goexpr:",
			},
			SQLite: SQLite{Path: "goexpr-cache.db"},
		},
		Parser:   Parser{MaxDepth: parser.DefaultMaxDepth},
		Compiler: Compiler{Syntax: "cel"},
		Log:      Log{Level: "info", Format: "json"},
	}
}

// Load reads the file at path, if any, and applies environment overrides
// on top of Default.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Cache: Cache{
			Backend: strings.ToLower(v.GetString("cache.backend")),
			Size:    v.GetInt("cache.size"),
			Redis: Redis{
				Addr:   v.GetString("cache.redis.addr"),
				Prefix: v.GetString("cache.redis.prefix"),
				TTL:    v.GetDuration("cache.redis.ttl"),
			},
			SQLite: SQLite{Path: v.GetString("cache.sqlite.path")},
		},
		Parser:   Parser{MaxDepth: v.GetInt("parser.max_depth")},
		Compiler: Compiler{Syntax: strings.ToLower(v.GetString("compiler.syntax"))},
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.size", d.Cache.Size)
	v.SetDefault("cache.redis.addr", d.Cache.Redis.Addr)
	v.SetDefault("cache.redis.prefix", d.Cache.Redis.Prefix)
	v.SetDefault("cache.redis.ttl", d.Cache.Redis.TTL)
	v.SetDefault("cache.sqlite.path", d.Cache.SQLite.Path)
	v.SetDefault("parser.max_depth", d.Parser.MaxDepth)
	v.SetDefault("compiler.syntax", d.Compiler.Syntax)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendMemory, BackendRedis, BackendSQLite, BackendNone:
	default:
		return fmt.Errorf("invalid cache backend %q", c.Cache.Backend)
	}
	if _, ok := compiler.SyntaxByName(c.Compiler.Syntax); !ok {
		return fmt.Errorf("invalid compiler syntax %q", c.Compiler.Syntax)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return err
	}
	return nil
}

// Logger builds the configured logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := logging.ParseLevel(c.Log.Level)
	format, _ := logging.ParseFormat(c.Log.Format)
	return logging.New(
		logging.WithLevel(level),
		logging.WithFormat(format),
		logging.WithOutput(w),
	)
}

// Options turns the settings into facade options. The returned close
// function releases the cache connection and must be called when the
// ExpressionLanguage is no longer used.
func (c *Config) Options(logger *slog.Logger) ([]goexpr.Option, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	syntax, _ := compiler.SyntaxByName(c.Compiler.Syntax)
	opts := []goexpr.Option{
		goexpr.WithLogger(logger),
		goexpr.WithSyntax(syntax),
		goexpr.WithMaxDepth(c.Parser.MaxDepth),
	}
	closer := func() error { return nil }

	switch c.Cache.Backend {
	case BackendMemory:
		opts = append(opts, goexpr.WithCache(cache.NewMemory(c.Cache.Size)))
	case BackendNone:
		opts = append(opts, goexpr.WithCache(nil))
	case BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: c.Cache.Redis.Addr})
		backend := cache.NewRedis(client,
			cache.WithPrefix(c.Cache.Redis.Prefix),
			cache.WithTTL(c.Cache.Redis.TTL),
		)
		opts = append(opts, goexpr.WithCache(backend))
		closer = client.Close
	case BackendSQLite:
		backend, err := cache.OpenSQLite(c.Cache.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, goexpr.WithCache(backend))
		closer = backend.Close
	}
	return opts, closer, nil
}
