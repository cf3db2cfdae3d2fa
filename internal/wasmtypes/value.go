package wasmtypes

import "math"

// RawSlot is the 64-bit raw storage used for every runtime value slot:
// variable, local, global and operand-stack entries are all a RawSlot,
// reinterpreted according to their declared ValueType (spec.md §3).
type RawSlot = uint64

func I32ToRaw(v int32) RawSlot  { return RawSlot(uint32(v)) }
func U32ToRaw(v uint32) RawSlot { return RawSlot(v) }
func I64ToRaw(v int64) RawSlot  { return RawSlot(v) }
func U64ToRaw(v uint64) RawSlot { return v }

func F32ToRaw(v float32) RawSlot { return RawSlot(math.Float32bits(v)) }
func F64ToRaw(v float64) RawSlot { return RawSlot(math.Float64bits(v)) }

func RawToI32(s RawSlot) int32  { return int32(uint32(s)) }
func RawToU32(s RawSlot) uint32 { return uint32(s) }
func RawToI64(s RawSlot) int64  { return int64(s) }
func RawToU64(s RawSlot) uint64 { return s }

func RawToF32(s RawSlot) float32 { return math.Float32frombits(uint32(s)) }
func RawToF64(s RawSlot) float64 { return math.Float64frombits(s) }

// CanonicalNaN32 / CanonicalNaN64 are the single canonical NaN payloads used
// whenever an arithmetic instruction's result is NaN but the input was not
// already a specific NaN to propagate (spec.md §4.3).
const (
	CanonicalNaN32Bits uint32 = 0x7fc00000
	CanonicalNaN64Bits uint64 = 0x7ff8000000000000
)

func CanonicalNaN32() float32 { return math.Float32frombits(CanonicalNaN32Bits) }
func CanonicalNaN64() float64 { return math.Float64frombits(CanonicalNaN64Bits) }
