package parser

import "github.com/wasmine-go/wasmine/internal/wasmtypes"

// numericOp describes one numeric instruction's stack effect: how many
// operands it consumes and what each operand/result type is. The parser's
// instruction loop uses this table to decide how many variables to pop, what
// IKUnary/IKBinary opcode byte to record, and what type to push.
type numericOp struct {
	binary  bool
	operand wasmtypes.ValueType // input type (both operands share it, except conversions)
	result  wasmtypes.ValueType
}

// unaryOps and binaryOps cover the contiguous test/relational/numeric opcode
// range 0x45-0xc4 of the core spec plus the sign-extension proposal
// (0xc0-0xc4). Conversions are unary with differing operand/result types.
var unaryOps = map[wasmtypes.Opcode]numericOp{
	wasmtypes.Opcode(0x45): {operand: wasmtypes.ValueTypeI32, result: wasmtypes.ValueTypeI32}, // i32.eqz
	wasmtypes.Opcode(0x50): {operand: wasmtypes.ValueTypeI64, result: wasmtypes.ValueTypeI32}, // i64.eqz

	wasmtypes.Opcode(0x67): {operand: wasmtypes.ValueTypeI32, result: wasmtypes.ValueTypeI32}, // i32.clz
	wasmtypes.Opcode(0x68): {operand: wasmtypes.ValueTypeI32, result: wasmtypes.ValueTypeI32}, // i32.ctz
	wasmtypes.Opcode(0x69): {operand: wasmtypes.ValueTypeI32, result: wasmtypes.ValueTypeI32}, // i32.popcnt
	wasmtypes.Opcode(0x79): {operand: wasmtypes.ValueTypeI64, result: wasmtypes.ValueTypeI64}, // i64.clz
	wasmtypes.Opcode(0x7a): {operand: wasmtypes.ValueTypeI64, result: wasmtypes.ValueTypeI64}, // i64.ctz
	wasmtypes.Opcode(0x7b): {operand: wasmtypes.ValueTypeI64, result: wasmtypes.ValueTypeI64}, // i64.popcnt

	wasmtypes.Opcode(0x8b): {operand: wasmtypes.ValueTypeF32, result: wasmtypes.ValueTypeF32}, // f32.abs
	wasmtypes.Opcode(0x8c): {operand: wasmtypes.ValueTypeF32, result: wasmtypes.ValueTypeF32}, // f32.neg
	wasmtypes.Opcode(0x8d): {operand: wasmtypes.ValueTypeF32, result: wasmtypes.ValueTypeF32}, // f32.ceil
	wasmtypes.Opcode(0x8e): {operand: wasmtypes.ValueTypeF32, result: wasmtypes.ValueTypeF32}, // f32.floor
	wasmtypes.Opcode(0x8f): {operand: wasmtypes.ValueTypeF32, result: wasmtypes.ValueTypeF32}, // f32.trunc
	wasmtypes.Opcode(0x90): {operand: wasmtypes.ValueTypeF32, result: wasmtypes.ValueTypeF32}, // f32.nearest
	wasmtypes.Opcode(0x91): {operand: wasmtypes.ValueTypeF32, result: wasmtypes.ValueTypeF32}, // f32.sqrt
	wasmtypes.Opcode(0x99): {operand: wasmtypes.ValueTypeF64, result: wasmtypes.ValueTypeF64}, // f64.abs
	wasmtypes.Opcode(0x9a): {operand: wasmtypes.ValueTypeF64, result: wasmtypes.ValueTypeF64}, // f64.neg
	wasmtypes.Opcode(0x9b): {operand: wasmtypes.ValueTypeF64, result: wasmtypes.ValueTypeF64}, // f64.ceil
	wasmtypes.Opcode(0x9c): {operand: wasmtypes.ValueTypeF64, result: wasmtypes.ValueTypeF64}, // f64.floor
	wasmtypes.Opcode(0x9d): {operand: wasmtypes.ValueTypeF64, result: wasmtypes.ValueTypeF64}, // f64.trunc
	wasmtypes.Opcode(0x9e): {operand: wasmtypes.ValueTypeF64, result: wasmtypes.ValueTypeF64}, // f64.nearest
	wasmtypes.Opcode(0x9f): {operand: wasmtypes.ValueTypeF64, result: wasmtypes.ValueTypeF64}, // f64.sqrt

	wasmtypes.Opcode(0xa7): {operand: wasmtypes.ValueTypeI64, result: wasmtypes.ValueTypeI32}, // i32.wrap_i64
	wasmtypes.Opcode(0xa8): {operand: wasmtypes.ValueTypeF32, result: wasmtypes.ValueTypeI32}, // i32.trunc_f32_s
	wasmtypes.Opcode(0xa9): {operand: wasmtypes.ValueTypeF32, result: wasmtypes.ValueTypeI32}, // i32.trunc_f32_u
	wasmtypes.Opcode(0xaa): {operand: wasmtypes.ValueTypeF64, result: wasmtypes.ValueTypeI32}, // i32.trunc_f64_s
	wasmtypes.Opcode(0xab): {operand: wasmtypes.ValueTypeF64, result: wasmtypes.ValueTypeI32}, // i32.trunc_f64_u
	wasmtypes.Opcode(0xac): {operand: wasmtypes.ValueTypeI32, result: wasmtypes.ValueTypeI64}, // i64.extend_i32_s
	wasmtypes.Opcode(0xad): {operand: wasmtypes.ValueTypeI32, result: wasmtypes.ValueTypeI64}, // i64.extend_i32_u
	wasmtypes.Opcode(0xae): {operand: wasmtypes.ValueTypeF32, result: wasmtypes.ValueTypeI64}, // i64.trunc_f32_s
	wasmtypes.Opcode(0xaf): {operand: wasmtypes.ValueTypeF32, result: wasmtypes.ValueTypeI64}, // i64.trunc_f32_u
	wasmtypes.Opcode(0xb0): {operand: wasmtypes.ValueTypeF64, result: wasmtypes.ValueTypeI64}, // i64.trunc_f64_s
	wasmtypes.Opcode(0xb1): {operand: wasmtypes.ValueTypeF64, result: wasmtypes.ValueTypeI64}, // i64.trunc_f64_u
	wasmtypes.Opcode(0xb2): {operand: wasmtypes.ValueTypeI32, result: wasmtypes.ValueTypeF32}, // f32.convert_i32_s
	wasmtypes.Opcode(0xb3): {operand: wasmtypes.ValueTypeI32, result: wasmtypes.ValueTypeF32}, // f32.convert_i32_u
	wasmtypes.Opcode(0xb4): {operand: wasmtypes.ValueTypeI64, result: wasmtypes.ValueTypeF32}, // f32.convert_i64_s
	wasmtypes.Opcode(0xb5): {operand: wasmtypes.ValueTypeI64, result: wasmtypes.ValueTypeF32}, // f32.convert_i64_u
	wasmtypes.Opcode(0xb6): {operand: wasmtypes.ValueTypeF64, result: wasmtypes.ValueTypeF32}, // f32.demote_f64
	wasmtypes.Opcode(0xb7): {operand: wasmtypes.ValueTypeI32, result: wasmtypes.ValueTypeF64}, // f64.convert_i32_s
	wasmtypes.Opcode(0xb8): {operand: wasmtypes.ValueTypeI32, result: wasmtypes.ValueTypeF64}, // f64.convert_i32_u
	wasmtypes.Opcode(0xb9): {operand: wasmtypes.ValueTypeI64, result: wasmtypes.ValueTypeF64}, // f64.convert_i64_s
	wasmtypes.Opcode(0xba): {operand: wasmtypes.ValueTypeI64, result: wasmtypes.ValueTypeF64}, // f64.convert_i64_u
	wasmtypes.Opcode(0xbb): {operand: wasmtypes.ValueTypeF32, result: wasmtypes.ValueTypeF64}, // f64.promote_f32
	wasmtypes.Opcode(0xbc): {operand: wasmtypes.ValueTypeF32, result: wasmtypes.ValueTypeI32}, // i32.reinterpret_f32
	wasmtypes.Opcode(0xbd): {operand: wasmtypes.ValueTypeF64, result: wasmtypes.ValueTypeI64}, // i64.reinterpret_f64
	wasmtypes.Opcode(0xbe): {operand: wasmtypes.ValueTypeI32, result: wasmtypes.ValueTypeF32}, // f32.reinterpret_i32
	wasmtypes.Opcode(0xbf): {operand: wasmtypes.ValueTypeI64, result: wasmtypes.ValueTypeF64}, // f64.reinterpret_i64

	wasmtypes.Opcode(0xc0): {operand: wasmtypes.ValueTypeI32, result: wasmtypes.ValueTypeI32}, // i32.extend8_s
	wasmtypes.Opcode(0xc1): {operand: wasmtypes.ValueTypeI32, result: wasmtypes.ValueTypeI32}, // i32.extend16_s
	wasmtypes.Opcode(0xc2): {operand: wasmtypes.ValueTypeI64, result: wasmtypes.ValueTypeI64}, // i64.extend8_s
	wasmtypes.Opcode(0xc3): {operand: wasmtypes.ValueTypeI64, result: wasmtypes.ValueTypeI64}, // i64.extend16_s
	wasmtypes.Opcode(0xc4): {operand: wasmtypes.ValueTypeI64, result: wasmtypes.ValueTypeI64}, // i64.extend32_s
}

var binaryOps = map[wasmtypes.Opcode]numericOp{}

func init() {
	// i32 relational, 0x46-0x4f, all i32,i32 -> i32.
	for op := wasmtypes.Opcode(0x46); op <= 0x4f; op++ {
		binaryOps[op] = numericOp{binary: true, operand: wasmtypes.ValueTypeI32, result: wasmtypes.ValueTypeI32}
	}
	// i64 relational, 0x51-0x5a, i64,i64 -> i32.
	for op := wasmtypes.Opcode(0x51); op <= 0x5a; op++ {
		binaryOps[op] = numericOp{binary: true, operand: wasmtypes.ValueTypeI64, result: wasmtypes.ValueTypeI32}
	}
	// f32 relational, 0x5b-0x60, f32,f32 -> i32.
	for op := wasmtypes.Opcode(0x5b); op <= 0x60; op++ {
		binaryOps[op] = numericOp{binary: true, operand: wasmtypes.ValueTypeF32, result: wasmtypes.ValueTypeI32}
	}
	// f64 relational, 0x61-0x66, f64,f64 -> i32.
	for op := wasmtypes.Opcode(0x61); op <= 0x66; op++ {
		binaryOps[op] = numericOp{binary: true, operand: wasmtypes.ValueTypeF64, result: wasmtypes.ValueTypeI32}
	}
	// i32 arithmetic/bitwise/shift, 0x6a-0x78, i32,i32 -> i32.
	for op := wasmtypes.Opcode(0x6a); op <= 0x78; op++ {
		binaryOps[op] = numericOp{binary: true, operand: wasmtypes.ValueTypeI32, result: wasmtypes.ValueTypeI32}
	}
	// i64 arithmetic/bitwise/shift, 0x7c-0x8a, i64,i64 -> i64.
	for op := wasmtypes.Opcode(0x7c); op <= 0x8a; op++ {
		binaryOps[op] = numericOp{binary: true, operand: wasmtypes.ValueTypeI64, result: wasmtypes.ValueTypeI64}
	}
	// f32 arithmetic, 0x92-0x98, f32,f32 -> f32.
	for op := wasmtypes.Opcode(0x92); op <= 0x98; op++ {
		binaryOps[op] = numericOp{binary: true, operand: wasmtypes.ValueTypeF32, result: wasmtypes.ValueTypeF32}
	}
	// f64 arithmetic, 0xa0-0xa6, f64,f64 -> f64.
	for op := wasmtypes.Opcode(0xa0); op <= 0xa6; op++ {
		binaryOps[op] = numericOp{binary: true, operand: wasmtypes.ValueTypeF64, result: wasmtypes.ValueTypeF64}
	}
}

// truncSatTypes resolves the operand/result types of a
// non-trapping (saturating) conversion, keyed by its MiscOpcode.
func truncSatTypes(m wasmtypes.MiscOpcode) (operand, result wasmtypes.ValueType) {
	switch m {
	case wasmtypes.MiscOpcodeI32TruncSatF32S, wasmtypes.MiscOpcodeI32TruncSatF32U:
		return wasmtypes.ValueTypeF32, wasmtypes.ValueTypeI32
	case wasmtypes.MiscOpcodeI32TruncSatF64S, wasmtypes.MiscOpcodeI32TruncSatF64U:
		return wasmtypes.ValueTypeF64, wasmtypes.ValueTypeI32
	case wasmtypes.MiscOpcodeI64TruncSatF32S, wasmtypes.MiscOpcodeI64TruncSatF32U:
		return wasmtypes.ValueTypeF32, wasmtypes.ValueTypeI64
	case wasmtypes.MiscOpcodeI64TruncSatF64S, wasmtypes.MiscOpcodeI64TruncSatF64U:
		return wasmtypes.ValueTypeF64, wasmtypes.ValueTypeI64
	default:
		return 0, 0
	}
}

// truncSatImmediate packs a MiscOpcode selector with its high bit set, so
// the interpreter's IKUnary dispatch can tell it apart from the plain
// Opcode space recorded for every other unary operator (instruction.go).
func truncSatImmediate(m wasmtypes.MiscOpcode) byte {
	return byte(m) | 0x80
}
