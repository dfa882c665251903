package config_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/goexpr"
	"github.com/sandrolain/goexpr/pkg/cache"
	"github.com/sandrolain/goexpr/pkg/config"
	"github.com/sandrolain/goexpr/pkg/parser"
	"github.com/sandrolain/goexpr/pkg/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "goexpr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, config.BackendMemory, cfg.Cache.Backend)
	assert.Equal(t, cache.DefaultCapacity, cfg.Cache.Size)
	assert.Equal(t, parser.DefaultMaxDepth, cfg.Parser.MaxDepth)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
cache:
  backend: Redis
  redis:
    addr: redis:6380
    prefix: "app:"
    ttl: 1h
parser:
  max_depth: 16
compiler:
  syntax: PHP
log:
  level: debug
  format: text
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.BackendRedis, cfg.Cache.Backend)
	assert.Equal(t, "redis:6380", cfg.Cache.Redis.Addr)
	assert.Equal(t, "app:", cfg.Cache.Redis.Prefix)
	assert.Equal(t, time.Hour, cfg.Cache.Redis.TTL)
	assert.Equal(t, 16, cfg.Parser.MaxDepth)
	assert.Equal(t, "php", cfg.Compiler.Syntax)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, cache.DefaultCapacity, cfg.Cache.Size, "unset keys keep their defaults")
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "cache:\n  backend: sqlite\n")
	t.Setenv("GOEXPR_CACHE_BACKEND", "none")
	t.Setenv("GOEXPR_PARSER_MAX_DEPTH", "8")
	t.Setenv("GOEXPR_LOG_LEVEL", "warn")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.BackendNone, cfg.Cache.Backend)
	assert.Equal(t, 8, cfg.Parser.MaxDepth)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	_, err = config.Load(writeConfig(t, "cache:\n  backend: memcached\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid cache backend "memcached"`)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		message string
	}{
		{name: "backend", mutate: func(c *config.Config) { c.Cache.Backend = "disk" }, message: `invalid cache backend "disk"`},
		{name: "syntax", mutate: func(c *config.Config) { c.Compiler.Syntax = "lua" }, message: `invalid compiler syntax "lua"`},
		{name: "level", mutate: func(c *config.Config) { c.Log.Level = "loud" }, message: `unknown log level "loud"`},
		{name: "format", mutate: func(c *config.Config) { c.Log.Format = "xml" }, message: `unknown log format "xml"`},
	}

	require.NoError(t, config.Default().Validate())

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		cfg.Cache.Size = 4

		opts, closer, err := cfg.Options(logger)
		require.NoError(t, err)
		defer func() { assert.NoError(t, closer()) }()

		el, err := goexpr.New(opts...)
		require.NoError(t, err)
		for range 2 {
			_, err = el.Evaluate("a + 1", map[string]any{"a": 1})
			require.NoError(t, err)
		}
		assert.Equal(t, cache.Stats{Hits: 1, Misses: 1}, el.CacheStats())
	})

	t.Run("none", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		cfg.Cache.Backend = config.BackendNone

		opts, closer, err := cfg.Options(logger)
		require.NoError(t, err)
		defer func() { assert.NoError(t, closer()) }()

		el, err := goexpr.New(opts...)
		require.NoError(t, err)
		_, err = el.Evaluate("1", nil)
		require.NoError(t, err)
		assert.Equal(t, cache.Stats{}, el.CacheStats())
	})

	t.Run("sqlite and php", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		cfg.Cache.Backend = config.BackendSQLite
		cfg.Cache.SQLite.Path = filepath.Join(t.TempDir(), "cache.db")
		cfg.Compiler.Syntax = "php"

		opts, closer, err := cfg.Options(logger)
		require.NoError(t, err)
		defer func() { assert.NoError(t, closer()) }()

		el, err := goexpr.New(opts...)
		require.NoError(t, err)
		src, err := el.Compile("a ~ 'x'", types.Names("a")...)
		require.NoError(t, err)
		assert.Equal(t, `($a . "x")`, src)
		assert.FileExists(t, cfg.Cache.SQLite.Path)
	})

	t.Run("redis", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		cfg.Cache.Backend = config.BackendRedis

		opts, closer, err := cfg.Options(logger)
		require.NoError(t, err)
		assert.NotEmpty(t, opts)
		assert.NoError(t, closer())
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		cfg.Compiler.Syntax = "lua"
		_, _, err := cfg.Options(logger)
		require.Error(t, err)
	})
}

func TestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Log.Level = "warn"
	cfg.Log.Format = "text"

	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "k=v")
}
