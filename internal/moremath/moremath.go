// Package moremath fills gaps between Go's math package and the exact
// IEEE-754 behavior the Wasm spec requires for min/max/nearest.
package moremath

import "math"

// math.Min doen't comply with the Wasm spec, so we borrow from the original
// with a change that either one of NaN results in NaN even if another is -Inf.
// https://github.com/golang/go/blob/1d20a362d0ca4898d77865e314ef6f73582daef0/src/math/dim.go#L74-L91
func WasmCompatMin(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, -1) || math.IsInf(y, -1):
		return math.Inf(-1)
	case x == 0 && x == y:
		if math.Signbit(x) {
			return x
		}
		return y
	}
	if x < y {
		return x
	}
	return y
}

// math.Max doen't comply with the Wasm spec, so we borrow from the original
// with a change that either one of NaN results in NaN even if another is Inf.
// https://github.com/golang/go/blob/1d20a362d0ca4898d77865e314ef6f73582daef0/src/math/dim.go#L42-L59
func WasmCompatMax(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, 1) || math.IsInf(y, 1):
		return math.Inf(1)

	case x == 0 && x == y:
		if math.Signbit(x) {
			return y
		}
		return x
	}
	if x > y {
		return x
	}
	return y
}

// WasmCompatNearestF32 implements float.nearest (round to nearest, ties to
// even) per the Wasm spec, which matches math.RoundToEven except for the
// need to preserve float32 precision through the round-trip.
func WasmCompatNearestF32(f float32) float32 {
	// Widening to float64 is exact, and every integer a float32 can round
	// to is representable in float32, so rounding in float64 and narrowing
	// back gives the same tie-breaking result as rounding in float32.
	if f == 0 || math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return f
	}
	return float32(math.RoundToEven(float64(f)))
}

// WasmCompatNearestF64 implements float.nearest for f64.
func WasmCompatNearestF64(f float64) float64 {
	return math.RoundToEven(f)
}

// CanonicalNaN32 is the canonical NaN bit pattern for f32, used whenever the
// Wasm spec requires "a" NaN rather than a payload-preserving one.
const CanonicalNaN32 uint32 = 0x7fc00000

// CanonicalNaN64 is the canonical NaN bit pattern for f64.
const CanonicalNaN64 uint64 = 0x7ff8000000000000
