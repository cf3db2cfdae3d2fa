package ir

// InstructionKind tags each entry in a basic block's instruction-type
// stream (spec.md §3 "IR"). It is a closed enum: the encoder and decoder
// share the exact same switch over these values, and every kind has a
// fixed, documented read/write sequence across the four side streams
// (immediate bytes, variable IDs, value types) described in spec.md §4.2.
//
// Terminators (Jmp, JmpCond, JmpTable, Call, CallIndirect, Return,
// Unreachable-as-terminator) are not InstructionKinds: they live in the
// block's dedicated Terminator field, never in this stream.
type InstructionKind byte

const (
	// IKConst pushes a constant. Immediate: the raw 4 (i32/f32) or 8
	// (i64/f64) bytes of the constant value. Variable: one
	// output. ValueType: the constant's type.
	IKConst InstructionKind = iota

	// IKUnary applies a unary numeric operator. Immediate: one byte, the
	// wasmtypes.Opcode of the specific operator (clz, ctz, popcnt, fneg,
	// fabs, sqrt, ceil, floor, trunc, nearest, wrap, the sign/extend
	// family, eqz, the convert/demote/promote/reinterpret family, and the
	// saturating-truncation family addressed via their MiscOpcode cast to
	// byte with the high bit set to disambiguate from the main Opcode
	// space). Variable: one input, one output. ValueType: the output type.
	IKUnary

	// IKBinary applies a binary numeric or relational operator. Immediate:
	// one byte operator code as in IKUnary. Variable: two inputs (left,
	// right), one output. ValueType: the output type (i32 for every
	// relational comparison).
	IKBinary

	// IKLoad reads from linear memory. Immediate: memory index (u32),
	// align exponent (u32), offset (u32), then the LoadStoreOp width byte.
	// Variable: one input (address), one output. ValueType: the loaded
	// (possibly sign/zero-extended) result type.
	IKLoad

	// IKStore writes to linear memory. Immediate: memory index, align
	// exponent, offset, then the LoadStoreOp width byte. Variable: two
	// inputs (address, value). No output.
	IKStore

	// IKMemorySize / IKMemoryGrow. Immediate: memory index (u32). Variable:
	// IKMemorySize has zero inputs and one output (page count); IKMemoryGrow
	// has one input (delta pages) and one output (previous page count or
	// -1).
	IKMemorySize
	IKMemoryGrow

	// IKMemoryCopy/IKMemoryFill/IKMemoryInit/IKDataDrop. Immediate: the
	// relevant memory/data indices (u32 each). Variable: three inputs
	// (dst, src-or-value, len) for copy/fill/init; none for data.drop.
	IKMemoryCopy
	IKMemoryFill
	IKMemoryInit
	IKDataDrop

	// IKTableGet/IKTableSet. Immediate: table index. Variable: one input
	// (index) for Get (+ one more for Set's value); Get has one output.
	IKTableGet
	IKTableSet
	// IKTableGrow/IKTableFill/IKTableCopy/IKTableInit/IKTableSize/IKElemDrop
	// mirror their memory counterparts with table/element indices.
	IKTableGrow
	IKTableFill
	IKTableCopy
	IKTableInit
	IKTableSize
	IKElemDrop

	// IKLocalGet/IKLocalSet/IKLocalTee. Immediate: local index (u32).
	// Variable: LocalGet has one output; LocalSet has one input; LocalTee
	// has one input and one output (the input is stored into the local and
	// also copied to the output).
	IKLocalGet
	IKLocalSet
	IKLocalTee

	// IKGlobalGet/IKGlobalSet. Immediate: global index (u32).
	IKGlobalGet
	IKGlobalSet

	// IKDrop discards an operand. Variable: one input, no output.
	IKDrop
	// IKSelect picks one of two values by a condition. Variable: three
	// inputs (a, b, cond), one output. ValueType: the output's type.
	IKSelect

	// IKRefNull produces a null reference of the value type recorded in the
	// value-type stream. IKRefIsNull tests a reference for null. IKRefFunc
	// produces a function reference; immediate carries the function index.
	IKRefNull
	IKRefIsNull
	IKRefFunc
)

// LoadStoreOp further distinguishes IKLoad/IKStore by width and signedness;
// stored as the last immediate of those instructions, after the memory
// index, align exponent and offset.
type LoadStoreOp byte

const (
	LSOpI32 LoadStoreOp = iota
	LSOpI64
	LSOpF32
	LSOpF64
	LSOpI32Load8S
	LSOpI32Load8U
	LSOpI32Load16S
	LSOpI32Load16U
	LSOpI64Load8S
	LSOpI64Load8U
	LSOpI64Load16S
	LSOpI64Load16U
	LSOpI64Load32S
	LSOpI64Load32U
	LSOpI32Store8
	LSOpI32Store16
	LSOpI64Store8
	LSOpI64Store16
	LSOpI64Store32
)
