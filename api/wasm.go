// Package api includes constants and interfaces shared between end users and
// this module's internal packages.
package api

import (
	"context"
	"fmt"
	"math"
)

// ExternType classifies an import or export by the kind of extern space it
// occupies (func/table/memory/global).
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#external-types%E2%91%A0
type ExternType = byte

const (
	ExternTypeFunc   ExternType = 0x00
	ExternTypeTable  ExternType = 0x01
	ExternTypeMemory ExternType = 0x02
	ExternTypeGlobal ExternType = 0x03
)

const (
	ExternTypeFuncName   = "func"
	ExternTypeTableName  = "table"
	ExternTypeMemoryName = "memory"
	ExternTypeGlobalName = "global"
)

// ExternTypeName returns the text-format field name of et.
func ExternTypeName(et ExternType) string {
	switch et {
	case ExternTypeFunc:
		return ExternTypeFuncName
	case ExternTypeTable:
		return ExternTypeTableName
	case ExternTypeMemory:
		return ExternTypeMemoryName
	case ExternTypeGlobal:
		return ExternTypeGlobalName
	}
	return fmt.Sprintf("%#x", et)
}

// ValueType is a numeric type usable as a function parameter, result, local,
// or global. Every value in this API is carried as a uint64 raw slot; see
// EncodeI32 et al. for the conversions between Go and Wasm representations.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-valtype
type ValueType = byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c

	// ValueTypeFuncref and ValueTypeExternref are opaque reference types,
	// carried as a zero-extended pointer-shaped raw slot; zero means null.
	ValueTypeFuncref   ValueType = 0x70
	ValueTypeExternref ValueType = 0x6f
)

// ValueTypeName returns the text-format name of t, or "unknown".
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	}
	return "unknown"
}

// Module is a module instance: its exported functions, memories and globals,
// post-instantiation.
type Module interface {
	fmt.Stringer

	// Name this module was instantiated under. Other modules import from it
	// using this name.
	Name() string

	// Memory returns the module's first memory, or nil if it declares none.
	Memory() Memory

	ExportedFunction(name string) Function
	ExportedMemory(name string) Memory
	ExportedGlobal(name string) Global

	// Close releases this instance, making its name available for reuse.
	Close(ctx context.Context) error
}

// Function is an exported function, callable with raw value slots encoded
// per ParamTypes/ResultTypes (see EncodeI32 et al.).
type Function interface {
	ParamTypes() []ValueType
	ResultTypes() []ValueType

	// Call invokes the function. When ctx is nil, context.Background is used.
	Call(ctx context.Context, params ...uint64) ([]uint64, error)
}

// Global is an exported global variable.
type Global interface {
	fmt.Stringer

	Type() ValueType
	Get() uint64
}

// MutableGlobal is a Global whose value can change at runtime.
type MutableGlobal interface {
	Global
	Set(v uint64)
}

// Memory gives byte-level access to a module's linear memory.
//
// All multi-byte accessors are little-endian, matching the Wasm spec's
// memory instruction encoding.
type Memory interface {
	// Size returns the current size in bytes (always a multiple of the
	// 64KiB page size).
	Size() uint32

	// Grow increases memory by deltaPages 64KiB pages, returning the
	// previous size in pages, or ok=false if the growth was refused.
	Grow(deltaPages uint32) (previousPages uint32, ok bool)

	ReadByte(offset uint32) (byte, bool)
	ReadUint32Le(offset uint32) (uint32, bool)
	ReadUint64Le(offset uint32) (uint64, bool)
	ReadFloat32Le(offset uint32) (float32, bool)
	ReadFloat64Le(offset uint32) (float64, bool)

	// Read returns a live view of byteCount bytes at offset: writes through
	// this slice are visible to Wasm code and vice versa.
	Read(offset, byteCount uint32) ([]byte, bool)

	WriteByte(offset uint32, v byte) bool
	WriteUint32Le(offset, v uint32) bool
	WriteUint64Le(offset uint32, v uint64) bool
	WriteFloat32Le(offset uint32, v float32) bool
	WriteFloat64Le(offset uint32, v float64) bool
	Write(offset uint32, v []byte) bool
}

// GoFunc is a host function implementation: it receives raw argument slots
// ordered per its declared param types and must return one slot per its
// declared result types.
type GoFunc func(ctx context.Context, args []uint64) ([]uint64, error)

// EncodeI32 encodes input as a ValueTypeI32 raw slot.
func EncodeI32(input int32) uint64 { return uint64(uint32(input)) }

// EncodeI64 encodes input as a ValueTypeI64 raw slot.
func EncodeI64(input int64) uint64 { return uint64(input) }

// EncodeF32 encodes input as a ValueTypeF32 raw slot.
func EncodeF32(input float32) uint64 { return uint64(math.Float32bits(input)) }

// DecodeF32 decodes a ValueTypeF32 raw slot.
func DecodeF32(input uint64) float32 { return math.Float32frombits(uint32(input)) }

// EncodeF64 encodes input as a ValueTypeF64 raw slot.
func EncodeF64(input float64) uint64 { return math.Float64bits(input) }

// DecodeF64 decodes a ValueTypeF64 raw slot.
func DecodeF64(input uint64) float64 { return math.Float64frombits(input) }

// EncodeExternref encodes input as a ValueTypeExternref raw slot.
func EncodeExternref(input uintptr) uint64 { return uint64(input) }

// DecodeExternref decodes a ValueTypeExternref raw slot.
func DecodeExternref(input uint64) uintptr { return uintptr(input) }
