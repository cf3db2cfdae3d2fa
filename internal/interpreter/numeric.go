package interpreter

import (
	"math"
	"math/bits"

	"github.com/wasmine-go/wasmine/internal/moremath"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// evalUnary executes one IKUnary instruction's operator, keyed by the same
// opcode byte internal/parser/numeric.go used to classify it (the
// saturating-truncation family is disambiguated the same way, via the high
// bit set by truncSatImmediate).
func evalUnary(op byte, in wasmtypes.RawSlot, frame string) wasmtypes.RawSlot {
	if op&0x80 != 0 {
		return evalTruncSat(op&0x7f, in)
	}
	switch op {
	case 0x45: // i32.eqz
		return boolSlot(wasmtypes.RawToU32(in) == 0)
	case 0x50: // i64.eqz
		return boolSlot(wasmtypes.RawToU64(in) == 0)

	case 0x67: // i32.clz
		return wasmtypes.U32ToRaw(uint32(bits.LeadingZeros32(wasmtypes.RawToU32(in))))
	case 0x68: // i32.ctz
		return wasmtypes.U32ToRaw(uint32(bits.TrailingZeros32(wasmtypes.RawToU32(in))))
	case 0x69: // i32.popcnt
		return wasmtypes.U32ToRaw(uint32(bits.OnesCount32(wasmtypes.RawToU32(in))))
	case 0x79: // i64.clz
		return wasmtypes.U64ToRaw(uint64(bits.LeadingZeros64(wasmtypes.RawToU64(in))))
	case 0x7a: // i64.ctz
		return wasmtypes.U64ToRaw(uint64(bits.TrailingZeros64(wasmtypes.RawToU64(in))))
	case 0x7b: // i64.popcnt
		return wasmtypes.U64ToRaw(uint64(bits.OnesCount64(wasmtypes.RawToU64(in))))

	case 0x8b: // f32.abs
		return wasmtypes.F32ToRaw(float32(math.Abs(float64(wasmtypes.RawToF32(in)))))
	case 0x8c: // f32.neg
		return wasmtypes.F32ToRaw(-wasmtypes.RawToF32(in))
	case 0x8d: // f32.ceil
		return wasmtypes.F32ToRaw(float32(math.Ceil(float64(wasmtypes.RawToF32(in)))))
	case 0x8e: // f32.floor
		return wasmtypes.F32ToRaw(float32(math.Floor(float64(wasmtypes.RawToF32(in)))))
	case 0x8f: // f32.trunc
		return wasmtypes.F32ToRaw(float32(math.Trunc(float64(wasmtypes.RawToF32(in)))))
	case 0x90: // f32.nearest
		return wasmtypes.F32ToRaw(moremath.WasmCompatNearestF32(wasmtypes.RawToF32(in)))
	case 0x91: // f32.sqrt
		return wasmtypes.F32ToRaw(float32(math.Sqrt(float64(wasmtypes.RawToF32(in)))))
	case 0x99: // f64.abs
		return wasmtypes.F64ToRaw(math.Abs(wasmtypes.RawToF64(in)))
	case 0x9a: // f64.neg
		return wasmtypes.F64ToRaw(-wasmtypes.RawToF64(in))
	case 0x9b: // f64.ceil
		return wasmtypes.F64ToRaw(math.Ceil(wasmtypes.RawToF64(in)))
	case 0x9c: // f64.floor
		return wasmtypes.F64ToRaw(math.Floor(wasmtypes.RawToF64(in)))
	case 0x9d: // f64.trunc
		return wasmtypes.F64ToRaw(math.Trunc(wasmtypes.RawToF64(in)))
	case 0x9e: // f64.nearest
		return wasmtypes.F64ToRaw(moremath.WasmCompatNearestF64(wasmtypes.RawToF64(in)))
	case 0x9f: // f64.sqrt
		return wasmtypes.F64ToRaw(math.Sqrt(wasmtypes.RawToF64(in)))

	case 0xa7: // i32.wrap_i64
		return wasmtypes.U32ToRaw(uint32(wasmtypes.RawToU64(in)))
	case 0xa8: // i32.trunc_f32_s
		return wasmtypes.I32ToRaw(int32(truncChecked(float64(wasmtypes.RawToF32(in)), -2147483648, 2147483648, frame)))
	case 0xa9: // i32.trunc_f32_u
		return wasmtypes.U32ToRaw(uint32(truncChecked(float64(wasmtypes.RawToF32(in)), 0, 4294967296, frame)))
	case 0xaa: // i32.trunc_f64_s
		return wasmtypes.I32ToRaw(int32(truncChecked(wasmtypes.RawToF64(in), -2147483648, 2147483648, frame)))
	case 0xab: // i32.trunc_f64_u
		return wasmtypes.U32ToRaw(uint32(truncChecked(wasmtypes.RawToF64(in), 0, 4294967296, frame)))
	case 0xac: // i64.extend_i32_s
		return wasmtypes.I64ToRaw(int64(wasmtypes.RawToI32(in)))
	case 0xad: // i64.extend_i32_u
		return wasmtypes.U64ToRaw(uint64(wasmtypes.RawToU32(in)))
	case 0xae: // i64.trunc_f32_s
		return wasmtypes.I64ToRaw(int64(truncChecked(float64(wasmtypes.RawToF32(in)), -9223372036854775808, 9223372036854775808, frame)))
	case 0xaf: // i64.trunc_f32_u
		return wasmtypes.U64ToRaw(truncU64(float64(wasmtypes.RawToF32(in)), frame))
	case 0xb0: // i64.trunc_f64_s
		return wasmtypes.I64ToRaw(int64(truncChecked(wasmtypes.RawToF64(in), -9223372036854775808, 9223372036854775808, frame)))
	case 0xb1: // i64.trunc_f64_u
		return wasmtypes.U64ToRaw(truncU64(wasmtypes.RawToF64(in), frame))
	case 0xb2: // f32.convert_i32_s
		return wasmtypes.F32ToRaw(float32(wasmtypes.RawToI32(in)))
	case 0xb3: // f32.convert_i32_u
		return wasmtypes.F32ToRaw(float32(wasmtypes.RawToU32(in)))
	case 0xb4: // f32.convert_i64_s
		return wasmtypes.F32ToRaw(float32(wasmtypes.RawToI64(in)))
	case 0xb5: // f32.convert_i64_u
		return wasmtypes.F32ToRaw(float32(wasmtypes.RawToU64(in)))
	case 0xb6: // f32.demote_f64
		return wasmtypes.F32ToRaw(float32(wasmtypes.RawToF64(in)))
	case 0xb7: // f64.convert_i32_s
		return wasmtypes.F64ToRaw(float64(wasmtypes.RawToI32(in)))
	case 0xb8: // f64.convert_i32_u
		return wasmtypes.F64ToRaw(float64(wasmtypes.RawToU32(in)))
	case 0xb9: // f64.convert_i64_s
		return wasmtypes.F64ToRaw(float64(wasmtypes.RawToI64(in)))
	case 0xba: // f64.convert_i64_u
		return wasmtypes.F64ToRaw(float64(wasmtypes.RawToU64(in)))
	case 0xbb: // f64.promote_f32
		return wasmtypes.F64ToRaw(float64(wasmtypes.RawToF32(in)))
	case 0xbc, 0xbd, 0xbe, 0xbf: // reinterprets: the raw bits are already identical.
		return in

	case 0xc0: // i32.extend8_s
		return wasmtypes.I32ToRaw(int32(int8(in)))
	case 0xc1: // i32.extend16_s
		return wasmtypes.I32ToRaw(int32(int16(in)))
	case 0xc2: // i64.extend8_s
		return wasmtypes.I64ToRaw(int64(int8(in)))
	case 0xc3: // i64.extend16_s
		return wasmtypes.I64ToRaw(int64(int16(in)))
	case 0xc4: // i64.extend32_s
		return wasmtypes.I64ToRaw(int64(int32(in)))
	}
	panic(wasmtypes.NewTrap(wasmtypes.TrapCodeUnreachable, frame))
}

// evalBinary executes one IKBinary instruction's operator.
func evalBinary(op byte, lhs, rhs wasmtypes.RawSlot, frame string) wasmtypes.RawSlot {
	switch {
	case op >= 0x46 && op <= 0x4f:
		return evalI32Relational(op, wasmtypes.RawToI32(lhs), wasmtypes.RawToI32(rhs))
	case op >= 0x51 && op <= 0x5a:
		return evalI64Relational(op, wasmtypes.RawToI64(lhs), wasmtypes.RawToI64(rhs))
	case op >= 0x5b && op <= 0x60:
		return evalFloatRelational(op-0x5b, float64(wasmtypes.RawToF32(lhs)), float64(wasmtypes.RawToF32(rhs)))
	case op >= 0x61 && op <= 0x66:
		return evalFloatRelational(op-0x61, wasmtypes.RawToF64(lhs), wasmtypes.RawToF64(rhs))
	case op >= 0x6a && op <= 0x78:
		return evalI32Arith(op, wasmtypes.RawToI32(lhs), wasmtypes.RawToI32(rhs), frame)
	case op >= 0x7c && op <= 0x8a:
		return evalI64Arith(op, wasmtypes.RawToI64(lhs), wasmtypes.RawToI64(rhs), frame)
	case op >= 0x92 && op <= 0x98:
		return wasmtypes.F32ToRaw(evalFloatArith(op-0x92, float64(wasmtypes.RawToF32(lhs)), float64(wasmtypes.RawToF32(rhs)), true))
	case op >= 0xa0 && op <= 0xa6:
		return wasmtypes.F64ToRaw(evalFloatArith(op-0xa0, wasmtypes.RawToF64(lhs), wasmtypes.RawToF64(rhs), false))
	}
	panic(wasmtypes.NewTrap(wasmtypes.TrapCodeUnreachable, frame))
}

func evalI32Relational(op byte, l, r int32) wasmtypes.RawSlot {
	ul, ur := uint32(l), uint32(r)
	switch op {
	case 0x46:
		return boolSlot(l == r)
	case 0x47:
		return boolSlot(l != r)
	case 0x48:
		return boolSlot(l < r)
	case 0x49:
		return boolSlot(ul < ur)
	case 0x4a:
		return boolSlot(l > r)
	case 0x4b:
		return boolSlot(ul > ur)
	case 0x4c:
		return boolSlot(l <= r)
	case 0x4d:
		return boolSlot(ul <= ur)
	case 0x4e:
		return boolSlot(l >= r)
	default: // 0x4f
		return boolSlot(ul >= ur)
	}
}

func evalI64Relational(op byte, l, r int64) wasmtypes.RawSlot {
	ul, ur := uint64(l), uint64(r)
	switch op {
	case 0x51:
		return boolSlot(l == r)
	case 0x52:
		return boolSlot(l != r)
	case 0x53:
		return boolSlot(l < r)
	case 0x54:
		return boolSlot(ul < ur)
	case 0x55:
		return boolSlot(l > r)
	case 0x56:
		return boolSlot(ul > ur)
	case 0x57:
		return boolSlot(l <= r)
	case 0x58:
		return boolSlot(ul <= ur)
	case 0x59:
		return boolSlot(l >= r)
	default: // 0x5a
		return boolSlot(ul >= ur)
	}
}

// evalFloatRelational handles both f32 (rel 0x00-0x05 relative to 0x5b) and
// f64 (relative to 0x61) relational families, since Wasm's comparison
// semantics are identical once widened to float64.
func evalFloatRelational(rel byte, l, r float64) wasmtypes.RawSlot {
	switch rel {
	case 0x00:
		return boolSlot(l == r)
	case 0x01:
		return boolSlot(l != r)
	case 0x02:
		return boolSlot(l < r)
	case 0x03:
		return boolSlot(l > r)
	case 0x04:
		return boolSlot(l <= r)
	default: // 0x05
		return boolSlot(l >= r)
	}
}

func evalI32Arith(op byte, l, r int32, frame string) wasmtypes.RawSlot {
	ul, ur := uint32(l), uint32(r)
	switch op {
	case 0x6a:
		return wasmtypes.I32ToRaw(l + r)
	case 0x6b:
		return wasmtypes.I32ToRaw(l - r)
	case 0x6c:
		return wasmtypes.I32ToRaw(l * r)
	case 0x6d: // div_s
		if r == 0 {
			panic(wasmtypes.NewTrap(wasmtypes.TrapCodeIntegerDivideByZero, frame))
		}
		if l == -2147483648 && r == -1 {
			panic(wasmtypes.NewTrap(wasmtypes.TrapCodeIntegerOverflow, frame))
		}
		return wasmtypes.I32ToRaw(l / r)
	case 0x6e: // div_u
		if ur == 0 {
			panic(wasmtypes.NewTrap(wasmtypes.TrapCodeIntegerDivideByZero, frame))
		}
		return wasmtypes.U32ToRaw(ul / ur)
	case 0x6f: // rem_s
		if r == 0 {
			panic(wasmtypes.NewTrap(wasmtypes.TrapCodeIntegerDivideByZero, frame))
		}
		if l == -2147483648 && r == -1 {
			return wasmtypes.I32ToRaw(0)
		}
		return wasmtypes.I32ToRaw(l % r)
	case 0x70: // rem_u
		if ur == 0 {
			panic(wasmtypes.NewTrap(wasmtypes.TrapCodeIntegerDivideByZero, frame))
		}
		return wasmtypes.U32ToRaw(ul % ur)
	case 0x71:
		return wasmtypes.U32ToRaw(ul & ur)
	case 0x72:
		return wasmtypes.U32ToRaw(ul | ur)
	case 0x73:
		return wasmtypes.U32ToRaw(ul ^ ur)
	case 0x74:
		return wasmtypes.U32ToRaw(ul << (ur & 31))
	case 0x75:
		return wasmtypes.I32ToRaw(l >> (ur & 31))
	case 0x76:
		return wasmtypes.U32ToRaw(ul >> (ur & 31))
	case 0x77:
		return wasmtypes.U32ToRaw(bits.RotateLeft32(ul, int(ur&31)))
	default: // 0x78 rotr
		return wasmtypes.U32ToRaw(bits.RotateLeft32(ul, -int(ur&31)))
	}
}

func evalI64Arith(op byte, l, r int64, frame string) wasmtypes.RawSlot {
	ul, ur := uint64(l), uint64(r)
	switch op {
	case 0x7c:
		return wasmtypes.I64ToRaw(l + r)
	case 0x7d:
		return wasmtypes.I64ToRaw(l - r)
	case 0x7e:
		return wasmtypes.I64ToRaw(l * r)
	case 0x7f: // div_s
		if r == 0 {
			panic(wasmtypes.NewTrap(wasmtypes.TrapCodeIntegerDivideByZero, frame))
		}
		if l == -9223372036854775808 && r == -1 {
			panic(wasmtypes.NewTrap(wasmtypes.TrapCodeIntegerOverflow, frame))
		}
		return wasmtypes.I64ToRaw(l / r)
	case 0x80: // div_u
		if ur == 0 {
			panic(wasmtypes.NewTrap(wasmtypes.TrapCodeIntegerDivideByZero, frame))
		}
		return wasmtypes.U64ToRaw(ul / ur)
	case 0x81: // rem_s
		if r == 0 {
			panic(wasmtypes.NewTrap(wasmtypes.TrapCodeIntegerDivideByZero, frame))
		}
		if l == -9223372036854775808 && r == -1 {
			return wasmtypes.I64ToRaw(0)
		}
		return wasmtypes.I64ToRaw(l % r)
	case 0x82: // rem_u
		if ur == 0 {
			panic(wasmtypes.NewTrap(wasmtypes.TrapCodeIntegerDivideByZero, frame))
		}
		return wasmtypes.U64ToRaw(ul % ur)
	case 0x83:
		return wasmtypes.U64ToRaw(ul & ur)
	case 0x84:
		return wasmtypes.U64ToRaw(ul | ur)
	case 0x85:
		return wasmtypes.U64ToRaw(ul ^ ur)
	case 0x86:
		return wasmtypes.U64ToRaw(ul << (ur & 63))
	case 0x87:
		return wasmtypes.I64ToRaw(l >> (ur & 63))
	case 0x88:
		return wasmtypes.U64ToRaw(ul >> (ur & 63))
	case 0x89:
		return wasmtypes.U64ToRaw(bits.RotateLeft64(ul, int(ur&63)))
	default: // 0x8a rotr
		return wasmtypes.U64ToRaw(bits.RotateLeft64(ul, -int(ur&63)))
	}
}

// evalFloatArith covers both f32 (op relative to 0x92, narrow=true) and f64
// (op relative to 0xa0, narrow=false) arithmetic; min/max/copysign need the
// float32 rounding that narrow selects, everything else is exact in
// float64.
func evalFloatArith(rel byte, l, r float64, narrow bool) float64 {
	switch rel {
	case 0x00:
		return l + r
	case 0x01:
		return l - r
	case 0x02:
		return l * r
	case 0x03:
		return l / r
	case 0x04:
		if narrow {
			return float64(moremath.WasmCompatMin(float64(float32(l)), float64(float32(r))))
		}
		return moremath.WasmCompatMin(l, r)
	case 0x05:
		if narrow {
			return float64(moremath.WasmCompatMax(float64(float32(l)), float64(float32(r))))
		}
		return moremath.WasmCompatMax(l, r)
	default: // 0x06 copysign
		if narrow {
			return float64(float32(math.Copysign(l, r)))
		}
		return math.Copysign(l, r)
	}
}

// truncChecked implements the trapping (non-saturating) trunc conversions:
// NaN raises InvalidConversionToInteger and out-of-range values raise
// IntegerOverflow, matching the core spec's trunc_s/trunc_u rather than the
// sat variants.
func truncChecked(f float64, lo, hi float64, frame string) float64 {
	if math.IsNaN(f) {
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeInvalidConversionToInteger, frame))
	}
	t := math.Trunc(f)
	if t < lo || t >= hi {
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeIntegerOverflow, frame))
	}
	return t
}

// truncU64 handles i64.trunc_f32_u/f64_u, whose upper bound (2^64) doesn't
// fit in a float64 comparison the way the other three conversions' bounds
// do, so it is split out rather than folded into truncChecked's signature.
func truncU64(f float64, frame string) uint64 {
	if math.IsNaN(f) {
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeInvalidConversionToInteger, frame))
	}
	t := math.Trunc(f)
	if t < 0 || t >= 18446744073709551616.0 {
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeIntegerOverflow, frame))
	}
	return uint64(t)
}

// evalTruncSat implements the non-trapping saturating conversions
// (MiscOpcodeI32TruncSatF32S etc, selector 0-7), clamping NaN to 0 and
// out-of-range magnitudes to the nearest representable bound instead of
// trapping.
func evalTruncSat(sel byte, in wasmtypes.RawSlot) wasmtypes.RawSlot {
	switch sel {
	case 0: // i32.trunc_sat_f32_s
		return wasmtypes.I32ToRaw(satI32(float64(wasmtypes.RawToF32(in))))
	case 1: // i32.trunc_sat_f32_u
		return wasmtypes.U32ToRaw(satU32(float64(wasmtypes.RawToF32(in))))
	case 2: // i32.trunc_sat_f64_s
		return wasmtypes.I32ToRaw(satI32(wasmtypes.RawToF64(in)))
	case 3: // i32.trunc_sat_f64_u
		return wasmtypes.U32ToRaw(satU32(wasmtypes.RawToF64(in)))
	case 4: // i64.trunc_sat_f32_s
		return wasmtypes.I64ToRaw(satI64(float64(wasmtypes.RawToF32(in))))
	case 5: // i64.trunc_sat_f32_u
		return wasmtypes.U64ToRaw(satU64(float64(wasmtypes.RawToF32(in))))
	case 6: // i64.trunc_sat_f64_s
		return wasmtypes.I64ToRaw(satI64(wasmtypes.RawToF64(in)))
	default: // 7: i64.trunc_sat_f64_u
		return wasmtypes.U64ToRaw(satU64(wasmtypes.RawToF64(in)))
	}
}

func satI32(f float64) int32 {
	if math.IsNaN(f) {
		return 0
	}
	t := math.Trunc(f)
	if t < -2147483648 {
		return math.MinInt32
	}
	if t >= 2147483648 {
		return math.MaxInt32
	}
	return int32(t)
}

func satU32(f float64) uint32 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	t := math.Trunc(f)
	if t >= 4294967296 {
		return math.MaxUint32
	}
	return uint32(t)
}

func satI64(f float64) int64 {
	if math.IsNaN(f) {
		return 0
	}
	t := math.Trunc(f)
	if t < -9223372036854775808 {
		return math.MinInt64
	}
	if t >= 9223372036854775808 {
		return math.MaxInt64
	}
	return int64(t)
}

func satU64(f float64) uint64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	t := math.Trunc(f)
	if t >= 18446744073709551616.0 {
		return math.MaxUint64
	}
	return uint64(t)
}

func boolSlot(b bool) wasmtypes.RawSlot {
	if b {
		return 1
	}
	return 0
}
