package moremath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWasmCompatMin_NegativeZeroBeatsPositiveZero(t *testing.T) {
	require.True(t, math.Signbit(WasmCompatMin(0, math.Copysign(0, -1))))
	require.True(t, math.Signbit(WasmCompatMin(math.Copysign(0, -1), 0)))
}

func TestWasmCompatMin_NaNPropagatesOverInf(t *testing.T) {
	require.True(t, math.IsNaN(WasmCompatMin(math.NaN(), math.Inf(-1))))
	require.True(t, math.IsNaN(WasmCompatMin(math.Inf(-1), math.NaN())))
}

func TestWasmCompatMin_OrdinaryValues(t *testing.T) {
	require.Equal(t, 1.0, WasmCompatMin(1, 2))
}

func TestWasmCompatMax_PositiveZeroBeatsNegativeZero(t *testing.T) {
	require.False(t, math.Signbit(WasmCompatMax(0, math.Copysign(0, -1))))
	require.False(t, math.Signbit(WasmCompatMax(math.Copysign(0, -1), 0)))
}

func TestWasmCompatMax_NaNPropagatesOverInf(t *testing.T) {
	require.True(t, math.IsNaN(WasmCompatMax(math.NaN(), math.Inf(1))))
}

func TestWasmCompatNearestF32_TiesRoundToEven(t *testing.T) {
	require.Equal(t, float32(2), WasmCompatNearestF32(1.5))
	require.Equal(t, float32(2), WasmCompatNearestF32(2.5))
}

func TestWasmCompatNearestF32_PreservesSpecialValues(t *testing.T) {
	require.Equal(t, float32(0), WasmCompatNearestF32(0))
	require.True(t, math.IsInf(float64(WasmCompatNearestF32(float32(math.Inf(1)))), 1))
}

func TestWasmCompatNearestF64_TiesRoundToEven(t *testing.T) {
	require.Equal(t, 2.0, WasmCompatNearestF64(1.5))
	require.Equal(t, 2.0, WasmCompatNearestF64(2.5))
}
