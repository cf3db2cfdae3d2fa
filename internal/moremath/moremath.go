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

// WasmCompatNearestF64 rounds to the nearest integer, ties to even, as
// required by the f64.nearest instruction (math.Round ties away from zero,
// which disagrees with Wasm on exact .5 boundaries).
func WasmCompatNearestF64(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return f
	}
	ceil := math.Ceil(f)
	floor := math.Floor(f)
	distToCeil := ceil - f
	distToFloor := f - floor
	switch {
	case distToCeil < distToFloor:
		return ceil
	case distToCeil > distToFloor:
		return floor
	case math.Mod(ceil, 2) == 0:
		return ceil
	default:
		return floor
	}
}

// WasmCompatNearestF32 is the float32 form of WasmCompatNearestF64.
func WasmCompatNearestF32(f float32) float32 {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) || f == 0 {
		return f
	}
	ceil := float32(math.Ceil(float64(f)))
	floor := float32(math.Floor(float64(f)))
	distToCeil := ceil - f
	distToFloor := f - floor
	switch {
	case distToCeil < distToFloor:
		return ceil
	case distToCeil > distToFloor:
		return floor
	case math.Mod(float64(ceil), 2) == 0:
		return ceil
	default:
		return floor
	}
}
