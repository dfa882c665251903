package extnumeric_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/goexpr/pkg/ext/extnumeric"
	"github.com/sandrolain/goexpr/pkg/functions"
	"github.com/sandrolain/goexpr/pkg/types"
)

func TestNumericFunctions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fn       functions.Function
		args     []any
		expected any
	}{
		{name: "abs int", fn: extnumeric.Abs(), args: []any{-3}, expected: 3},
		{name: "abs positive int", fn: extnumeric.Abs(), args: []any{4}, expected: 4},
		{name: "abs float", fn: extnumeric.Abs(), args: []any{-1.5}, expected: 1.5},
		{name: "abs min int", fn: extnumeric.Abs(), args: []any{math.MinInt}, expected: -float64(math.MinInt)},
		{name: "ceil", fn: extnumeric.Ceil(), args: []any{1.2}, expected: 2.0},
		{name: "floor", fn: extnumeric.Floor(), args: []any{-1.2}, expected: -2.0},
		{name: "trunc", fn: extnumeric.Trunc(), args: []any{-1.7}, expected: -1.0},
		{name: "sqrt", fn: extnumeric.Sqrt(), args: []any{9}, expected: 3.0},
		{name: "round", fn: extnumeric.Round(), args: []any{2.5}, expected: 3.0},
		{name: "round negative half", fn: extnumeric.Round(), args: []any{-2.5}, expected: -3.0},
		{name: "sign negative", fn: extnumeric.Sign(), args: []any{-0.1}, expected: -1},
		{name: "sign zero", fn: extnumeric.Sign(), args: []any{0}, expected: 0},
		{name: "sign positive", fn: extnumeric.Sign(), args: []any{7}, expected: 1},
		{name: "log", fn: extnumeric.Log(), args: []any{1}, expected: 0.0},
		{name: "clamp low", fn: extnumeric.Clamp(), args: []any{-5, 0, 10}, expected: 0},
		{name: "clamp high", fn: extnumeric.Clamp(), args: []any{15, 0, 10.5}, expected: 10.5},
		{name: "clamp inside", fn: extnumeric.Clamp(), args: []any{5, 0, 10}, expected: 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := tc.fn.Evaluator(nil, tc.args...)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestRoundAndLogApproximate(t *testing.T) {
	t.Parallel()

	got, err := extnumeric.Round().Evaluator(nil, 2.345, 2)
	require.NoError(t, err)
	assert.InDelta(t, 2.35, got, 1e-9)

	got, err = extnumeric.Log().Evaluator(nil, 8, 2)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, got, 1e-9)

	got, err = extnumeric.Log().Evaluator(nil, math.E)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestNumericErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fn      functions.Function
		args    []any
		message string
	}{
		{name: "abs arity", fn: extnumeric.Abs(), args: nil, message: "abs() expects 1 arguments, 0 given"},
		{name: "not a number", fn: extnumeric.Ceil(), args: []any{"1"}, message: "ceil() expects a number, string given"},
		{name: "round arity", fn: extnumeric.Round(), args: []any{1, 2, 3}, message: "round() expects 1 or 2 arguments, 3 given"},
		{name: "log zero", fn: extnumeric.Log(), args: []any{0}, message: "log() argument must be positive"},
		{name: "log base one", fn: extnumeric.Log(), args: []any{2, 1}, message: "log() base must be positive and not 1"},
		{name: "clamp arity", fn: extnumeric.Clamp(), args: []any{1, 2}, message: "clamp() expects 3 arguments, 2 given"},
		{name: "clamp type", fn: extnumeric.Clamp(), args: []any{1, nil, 2}, message: "clamp() expects a number, <nil> given"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := tc.fn.Evaluator(nil, tc.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrRuntime)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}
