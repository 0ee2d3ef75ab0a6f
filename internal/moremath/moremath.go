// Package moremath supplies the floating-point min/max semantics
// WebAssembly requires but math.Min/math.Max don't quite provide:
// NaN propagates unconditionally, and -0 is ordered below +0.
package moremath

import "math"

// WasmCompatMin returns the smaller of x and y per the Wasm f32.min/f64.min
// semantics: NaN if either operand is NaN, and -0 < +0 (unlike the IEEE-754
// total-order-agnostic comparisons Go's own operators use).
func WasmCompatMin(x, y float64) float64 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN()
	} else if x == 0 && x == y {
		if math.Signbit(x) {
			return x
		}
		return y
	}
	return math.Min(x, y)
}

// WasmCompatMax mirrors WasmCompatMin for f32.max/f64.max, where +0 > -0.
func WasmCompatMax(x, y float64) float64 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN()
	} else if x == 0 && x == y {
		if math.Signbit(x) {
			return y
		}
		return x
	}
	return math.Max(x, y)
}
