package wasmtypes

// Opcode is a single-byte Wasm instruction opcode as it appears in the
// binary format. Multi-byte instructions (bulk-memory, sign-extension,
// saturating truncation) are reached through the 0xFC "misc" prefix byte;
// their secondary selector is decoded separately into a MiscOpcode.
type Opcode byte

const (
	OpcodeUnreachable Opcode = 0x00
	OpcodeNop         Opcode = 0x01
	OpcodeBlock       Opcode = 0x02
	OpcodeLoop        Opcode = 0x03
	OpcodeIf          Opcode = 0x04
	OpcodeElse        Opcode = 0x05
	OpcodeEnd         Opcode = 0x0b
	OpcodeBr          Opcode = 0x0c
	OpcodeBrIf        Opcode = 0x0d
	OpcodeBrTable     Opcode = 0x0e
	OpcodeReturn      Opcode = 0x0f
	OpcodeCall        Opcode = 0x10
	OpcodeCallIndirect Opcode = 0x11

	OpcodeDrop   Opcode = 0x1a
	OpcodeSelect Opcode = 0x1b
	// OpcodeSelectT is the typed select from the reference-types proposal.
	OpcodeSelectT Opcode = 0x1c

	OpcodeLocalGet  Opcode = 0x20
	OpcodeLocalSet  Opcode = 0x21
	OpcodeLocalTee  Opcode = 0x22
	OpcodeGlobalGet Opcode = 0x23
	OpcodeGlobalSet Opcode = 0x24

	OpcodeTableGet Opcode = 0x25
	OpcodeTableSet Opcode = 0x26

	OpcodeI32Load    Opcode = 0x28
	OpcodeI64Load    Opcode = 0x29
	OpcodeF32Load    Opcode = 0x2a
	OpcodeF64Load    Opcode = 0x2b
	OpcodeI32Load8S  Opcode = 0x2c
	OpcodeI32Load8U  Opcode = 0x2d
	OpcodeI32Load16S Opcode = 0x2e
	OpcodeI32Load16U Opcode = 0x2f
	OpcodeI64Load8S  Opcode = 0x30
	OpcodeI64Load8U  Opcode = 0x31
	OpcodeI64Load16S Opcode = 0x32
	OpcodeI64Load16U Opcode = 0x33
	OpcodeI64Load32S Opcode = 0x34
	OpcodeI64Load32U Opcode = 0x35
	OpcodeI32Store   Opcode = 0x36
	OpcodeI64Store   Opcode = 0x37
	OpcodeF32Store   Opcode = 0x38
	OpcodeF64Store   Opcode = 0x39
	OpcodeI32Store8  Opcode = 0x3a
	OpcodeI32Store16 Opcode = 0x3b
	OpcodeI64Store8  Opcode = 0x3c
	OpcodeI64Store16 Opcode = 0x3d
	OpcodeI64Store32 Opcode = 0x3e
	OpcodeMemorySize Opcode = 0x3f
	OpcodeMemoryGrow Opcode = 0x40

	OpcodeI32Const Opcode = 0x41
	OpcodeI64Const Opcode = 0x42
	OpcodeF32Const Opcode = 0x43
	OpcodeF64Const Opcode = 0x44

	// OpcodeI32Eqz .. OpcodeF64Ge cover the i32/i64/f32/f64 test and
	// relational operators 0x45-0x66, consumed directly by their numeric
	// byte value rather than individually named: the parser's numeric
	// table (see parser/numeric.go) maps the whole contiguous range.
	OpcodeI32Eqz Opcode = 0x45
	OpcodeF64Ge  Opcode = 0x66

	// OpcodeI32Clz .. OpcodeF64ReinterpretI64 cover 0x67-0xbf, the unary
	// and binary numeric operators plus conversions; likewise handled as a
	// contiguous numeric range.
	OpcodeI32Clz               Opcode = 0x67
	OpcodeF64ReinterpretI64    Opcode = 0xbf

	OpcodeI32Extend8S  Opcode = 0xc0
	OpcodeI32Extend16S Opcode = 0xc1
	OpcodeI64Extend8S  Opcode = 0xc2
	OpcodeI64Extend16S Opcode = 0xc3
	OpcodeI64Extend32S Opcode = 0xc4

	OpcodeRefNull   Opcode = 0xd0
	OpcodeRefIsNull Opcode = 0xd1
	OpcodeRefFunc   Opcode = 0xd2

	// OpcodeMiscPrefix introduces the bulk-memory / saturating-truncation
	// two-byte instruction family; the second byte is read as a LEB128 and
	// interpreted as a MiscOpcode.
	OpcodeMiscPrefix Opcode = 0xfc
	// OpcodeVecPrefix introduces the SIMD instruction family. SIMD
	// execution semantics are a declared Non-goal (spec.md §1); the parser
	// recognizes the prefix only to reject it with an unsupported-feature
	// error rather than mis-parsing the stream.
	OpcodeVecPrefix Opcode = 0xfd
)

// MiscOpcode is the secondary selector following OpcodeMiscPrefix (0xFC).
type MiscOpcode uint32

const (
	MiscOpcodeI32TruncSatF32S MiscOpcode = 0
	MiscOpcodeI32TruncSatF32U MiscOpcode = 1
	MiscOpcodeI32TruncSatF64S MiscOpcode = 2
	MiscOpcodeI32TruncSatF64U MiscOpcode = 3
	MiscOpcodeI64TruncSatF32S MiscOpcode = 4
	MiscOpcodeI64TruncSatF32U MiscOpcode = 5
	MiscOpcodeI64TruncSatF64S MiscOpcode = 6
	MiscOpcodeI64TruncSatF64U MiscOpcode = 7

	MiscOpcodeMemoryInit MiscOpcode = 8
	MiscOpcodeDataDrop   MiscOpcode = 9
	MiscOpcodeMemoryCopy MiscOpcode = 10
	MiscOpcodeMemoryFill MiscOpcode = 11
	MiscOpcodeTableInit  MiscOpcode = 12
	MiscOpcodeElemDrop   MiscOpcode = 13
	MiscOpcodeTableCopy  MiscOpcode = 14
	MiscOpcodeTableGrow  MiscOpcode = 15
	MiscOpcodeTableSize  MiscOpcode = 16
	MiscOpcodeTableFill  MiscOpcode = 17
)

// BlockType is the signature attached to block/loop/if, either the empty
// type, a single value type, or an index into the module's type section
// (multi-value proposal).
type BlockType struct {
	// ValueType and HasValueType cover the 0x40 (empty) and single-valtype
	// encodings.
	ValueType    ValueType
	HasValueType bool
	// TypeIndex covers the SLEB128 non-negative encoding that indexes the
	// module's type section for multi-value signatures.
	TypeIndex    uint32
	HasTypeIndex bool
}
