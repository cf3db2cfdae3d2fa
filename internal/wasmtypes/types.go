// Package wasmtypes holds the value/type/opcode vocabulary shared by the
// parser, the IR and the runtime: everything that is a closed enum in the
// Wasm binary format lives here so that no other package needs to redefine
// it.
package wasmtypes

import "fmt"

// ValueType is a Wasm value type: a numeric type, a reference type, or the
// vector type. It is encoded in the binary format as a single byte and used
// throughout the IR as the type tag of a variable, a local or a phi input.
type ValueType byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
	ValueTypeV128 ValueType = 0x7b
	ValueTypeFuncRef ValueType = 0x70
	ValueTypeExternRef ValueType = 0x6f
)

// IsReference reports whether v is funcref or externref.
func (v ValueType) IsReference() bool {
	return v == ValueTypeFuncRef || v == ValueTypeExternRef
}

// IsNumeric reports whether v is one of i32/i64/f32/f64.
func (v ValueType) IsNumeric() bool {
	switch v {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64:
		return true
	}
	return false
}

// Size returns the slot width in bytes needed to hold a value of this type
// in the runtime's raw 64-bit slots; v128 needs two slots.
func (v ValueType) Size() int {
	if v == ValueTypeV128 {
		return 16
	}
	return 8
}

func (v ValueType) String() string {
	switch v {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeV128:
		return "v128"
	case ValueTypeFuncRef:
		return "funcref"
	case ValueTypeExternRef:
		return "externref"
	default:
		return fmt.Sprintf("unknown(0x%x)", byte(v))
	}
}

// RefType is the subset of ValueType that is valid as a table element type.
type RefType = ValueType

// Limits describes the min/max page (for memories) or element (for tables)
// bounds carried by a memory or table type.
type Limits struct {
	Min uint32
	Max uint32
	// HasMax is false when the declaration omitted the maximum, meaning the
	// object may grow without the runtime-imposed ceiling other than the
	// engine's own hard cap.
	HasMax bool
}

// FuncType is a function signature: a tuple of parameter types mapping to a
// tuple of result types. Multi-value results are a first-class citizen per
// the multi-value proposal named in spec.md §6.
type FuncType struct {
	Params  []ValueType
	Results []ValueType
}

func (t *FuncType) String() string {
	return fmt.Sprintf("%v -> %v", t.Params, t.Results)
}

// Equals reports structural equality, used to check call_indirect and
// import signatures.
func (t *FuncType) Equals(o *FuncType) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	return valueTypesEqual(t.Params, o.Params) && valueTypesEqual(t.Results, o.Results)
}

func valueTypesEqual(a, b []ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ExternKind tags the kind of an import or export descriptor.
type ExternKind byte

const (
	ExternKindFunc ExternKind = iota
	ExternKindTable
	ExternKindMemory
	ExternKindGlobal
)

func (k ExternKind) String() string {
	switch k {
	case ExternKindFunc:
		return "func"
	case ExternKindTable:
		return "table"
	case ExternKindMemory:
		return "memory"
	case ExternKindGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// SegmentMode is the element/data segment loading mode from spec.md §3.
type SegmentMode byte

const (
	SegmentActive SegmentMode = iota
	SegmentPassive
	SegmentDeclarative
)

// WasmPageSize is 2^16 bytes, the unit of memory.grow/memory.size.
const WasmPageSize = 1 << 16

// MaxMemoryPages is the hard ceiling imposed by 32-bit addressing:
// 2^32 bytes / 2^16 bytes-per-page.
const MaxMemoryPages = 1 << 16
