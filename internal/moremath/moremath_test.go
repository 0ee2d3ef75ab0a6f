package moremath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWasmCompatMin(t *testing.T) {
	require.Equal(t, -1.1, WasmCompatMin(-1.1, 123))
	require.Equal(t, -1.1, WasmCompatMin(-1.1, math.Inf(1)))
	require.Equal(t, math.Inf(-1), WasmCompatMin(math.Inf(-1), 123))
	require.True(t, math.IsNaN(WasmCompatMin(math.NaN(), 1.0)))
	require.True(t, math.IsNaN(WasmCompatMin(1.0, math.NaN())))

	// -0 < +0 per Wasm 1.0 min semantics.
	require.True(t, math.Signbit(WasmCompatMin(0, math.Copysign(0, -1))))
	require.True(t, math.Signbit(WasmCompatMin(math.Copysign(0, -1), 0)))
}

func TestWasmCompatMax(t *testing.T) {
	require.Equal(t, 123.1, WasmCompatMax(-1.1, 123.1))
	require.Equal(t, math.Inf(1), WasmCompatMax(-1.1, math.Inf(1)))
	require.True(t, math.IsNaN(WasmCompatMax(math.NaN(), 1.0)))
	require.True(t, math.IsNaN(WasmCompatMax(1.0, math.NaN())))

	require.False(t, math.Signbit(WasmCompatMax(0, math.Copysign(0, -1))))
	require.False(t, math.Signbit(WasmCompatMax(math.Copysign(0, -1), 0)))
}
