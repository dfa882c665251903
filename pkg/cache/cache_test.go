package cache_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sandrolain/goexpr/pkg/ast"
	"github.com/sandrolain/goexpr/pkg/cache"
	"github.com/sandrolain/goexpr/pkg/cache/mocks"
	"github.com/sandrolain/goexpr/pkg/types"
)

func parsed(source string) *ast.ParsedExpression {
	return ast.NewParsedExpression(source, ast.NewBinary("+", ast.NewName("a"), ast.NewConstant(1)))
}

func TestKey(t *testing.T) {
	t.Parallel()

	k1 := cache.Key("a + b", types.Names("a", "b"))
	k2 := cache.Key("a + b", types.Names("b", "a"))
	assert.Equal(t, k1, k2, "name order does not matter")

	assert.NotEqual(t, k1, cache.Key("a + b", types.Names("a", "b", "c")))
	assert.NotEqual(t, k1, cache.Key("a+b", types.Names("a", "b")))
	assert.NotEqual(t,
		cache.Key("this", []types.Name{types.Alias("this", "container")}),
		cache.Key("this", types.Names("container")),
		"aliases are part of the key",
	)
	assert.Equal(t,
		cache.Key("x", []types.Name{types.Alias("i", "e"), types.N("a")}),
		cache.Key("x", []types.Name{types.N("a"), types.Alias("i", "e")}),
	)

	assert.NotContains(t, cache.Key("a / b", types.Names("a")), " ")
	assert.Equal(t, cache.Key("1", nil), cache.Key("1", []types.Name{}))
}

func TestGetOrComputeMissThenHit(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)
	names := types.Names("a")
	key := cache.Key("a + 1", names)
	expr := parsed("a + 1")

	gomock.InOrder(
		backend.EXPECT().Get(key).Return(nil, false, nil),
		backend.EXPECT().Put(key, expr).Return(nil),
		backend.EXPECT().Get(key).Return(expr, true, nil),
	)

	c := cache.New(backend)
	calls := 0
	compute := func() (*ast.ParsedExpression, error) {
		calls++
		return expr, nil
	}

	got, err := c.GetOrCompute("a + 1", names, compute)
	require.NoError(t, err)
	assert.Same(t, expr, got)

	got, err = c.GetOrCompute("a + 1", names, compute)
	require.NoError(t, err)
	assert.Same(t, expr, got)

	assert.Equal(t, 1, calls)
	assert.Equal(t, cache.Stats{Hits: 1, Misses: 1}, c.Stats())
	assert.Same(t, backend, c.Backend())
}

func TestGetOrComputeBackendErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")

	t.Run("read", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		backend := mocks.NewMockBackend(ctrl)
		backend.EXPECT().Get(gomock.Any()).Return(nil, false, boom)

		_, err := cache.New(backend).GetOrCompute("1", nil, func() (*ast.ParsedExpression, error) {
			t.Fatal("compute must not run when the cache cannot be read")
			return nil, nil
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrCache)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("write", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		backend := mocks.NewMockBackend(ctrl)
		backend.EXPECT().Get(gomock.Any()).Return(nil, false, nil)
		backend.EXPECT().Put(gomock.Any(), gomock.Any()).Return(boom)

		_, err := cache.New(backend).GetOrCompute("1", nil, func() (*ast.ParsedExpression, error) {
			return parsed("1"), nil
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrCache)
		assert.Contains(t, err.Error(), "Unable to write the parsed expression cache")
	})
}

func TestGetOrComputeDoesNotStoreFailures(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)
	backend.EXPECT().Get(gomock.Any()).Return(nil, false, nil)
	// no Put expected

	parseErr := types.NewSyntaxError("Unexpected end of expression", 3, "1 +")
	_, err := cache.New(backend).GetOrCompute("1 +", nil, func() (*ast.ParsedExpression, error) {
		return nil, parseErr
	})
	assert.Same(t, parseErr, err)
}

func TestMemoryLRU(t *testing.T) {
	t.Parallel()

	m := cache.NewMemory(2)
	assert.Equal(t, 2, m.Capacity())

	require.NoError(t, m.Put("a", parsed("a")))
	require.NoError(t, m.Put("b", parsed("b")))

	// touch a so that b becomes the least recently used entry
	_, ok, err := m.Get("a")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, m.Put("c", parsed("c")))
	assert.Equal(t, 2, m.Len())

	_, ok, _ = m.Get("b")
	assert.False(t, ok, "b should have been evicted")
	got, ok, _ := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "a", got.Source())

	require.NoError(t, m.Put("a", parsed("a2")))
	got, _, _ = m.Get("a")
	assert.Equal(t, "a2", got.Source())
	assert.Equal(t, 2, m.Len())

	m.Delete("a")
	assert.Equal(t, 1, m.Len())
	m.Clear()
	assert.Zero(t, m.Len())
}

func TestMemoryDefaultCapacity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, cache.DefaultCapacity, cache.NewMemory(0).Capacity())
	assert.Equal(t, cache.DefaultCapacity, cache.NewMemory(-5).Capacity())
}

func TestMemoryConcurrent(t *testing.T) {
	t.Parallel()

	c := cache.New(cache.NewMemory(8))
	exprs := []string{"a", "b", "c", "d"}

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			src := exprs[i%len(exprs)]
			got, err := c.GetOrCompute(src, nil, func() (*ast.ParsedExpression, error) {
				return parsed(src), nil
			})
			assert.NoError(t, err)
			assert.Equal(t, src, got.Source())
		}()
	}
	wg.Wait()

	stats := c.Stats()
	assert.Equal(t, uint64(32), stats.Hits+stats.Misses)
	assert.GreaterOrEqual(t, stats.Misses, uint64(len(exprs)))
}

func TestMemorySameKeyReadWrite(t *testing.T) {
	t.Parallel()

	m := cache.NewMemory(4)
	require.NoError(t, m.Put("k", parsed("v0")))

	sources := []string{"v0", "v1", "v2", "v3"}
	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				assert.NoError(t, m.Put("k", parsed(sources[i%len(sources)])))
				return
			}
			got, ok, err := m.Get("k")
			assert.NoError(t, err)
			if assert.True(t, ok) {
				assert.Contains(t, sources, got.Source())
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, m.Len())
}
