package interpreter

import (
	"encoding/binary"

	"github.com/wasmine-go/wasmine/internal/ir"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// doLoad reads a value from linear memory 0 at addr+offset, sign/zero
// extending narrow loads to the declared result width (spec.md §4.3).
func (fr *frame) doLoad(op ir.LoadStoreOp, addr, offset uint32) wasmtypes.RawSlot {
	mem := fr.inst.Memories[0]
	eff, overflow := addOffset(addr, offset)
	if overflow {
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeOutOfBoundsMemoryAccess, fr.name))
	}

	width := loadWidth(op)
	b, ok := mem.Read(eff, width)
	if !ok {
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeOutOfBoundsMemoryAccess, fr.name))
	}

	switch op {
	case ir.LSOpI32, ir.LSOpF32:
		return wasmtypes.RawSlot(binary.LittleEndian.Uint32(b))
	case ir.LSOpI64, ir.LSOpF64:
		return wasmtypes.RawSlot(binary.LittleEndian.Uint64(b))
	case ir.LSOpI32Load8S:
		return wasmtypes.I32ToRaw(int32(int8(b[0])))
	case ir.LSOpI32Load8U:
		return wasmtypes.U32ToRaw(uint32(b[0]))
	case ir.LSOpI32Load16S:
		return wasmtypes.I32ToRaw(int32(int16(binary.LittleEndian.Uint16(b))))
	case ir.LSOpI32Load16U:
		return wasmtypes.U32ToRaw(uint32(binary.LittleEndian.Uint16(b)))
	case ir.LSOpI64Load8S:
		return wasmtypes.I64ToRaw(int64(int8(b[0])))
	case ir.LSOpI64Load8U:
		return wasmtypes.U64ToRaw(uint64(b[0]))
	case ir.LSOpI64Load16S:
		return wasmtypes.I64ToRaw(int64(int16(binary.LittleEndian.Uint16(b))))
	case ir.LSOpI64Load16U:
		return wasmtypes.U64ToRaw(uint64(binary.LittleEndian.Uint16(b)))
	case ir.LSOpI64Load32S:
		return wasmtypes.I64ToRaw(int64(int32(binary.LittleEndian.Uint32(b))))
	case ir.LSOpI64Load32U:
		return wasmtypes.U64ToRaw(uint64(binary.LittleEndian.Uint32(b)))
	default:
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeOutOfBoundsMemoryAccess, fr.name))
	}
}

func (fr *frame) doStore(op ir.LoadStoreOp, addr, offset uint32, val wasmtypes.RawSlot) {
	mem := fr.inst.Memories[0]
	eff, overflow := addOffset(addr, offset)
	if overflow {
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeOutOfBoundsMemoryAccess, fr.name))
	}

	var b []byte
	switch op {
	case ir.LSOpI32, ir.LSOpF32:
		b = binary.LittleEndian.AppendUint32(nil, uint32(val))
	case ir.LSOpI64, ir.LSOpF64:
		b = binary.LittleEndian.AppendUint64(nil, uint64(val))
	case ir.LSOpI32Store8, ir.LSOpI64Store8:
		b = []byte{byte(val)}
	case ir.LSOpI32Store16, ir.LSOpI64Store16:
		b = binary.LittleEndian.AppendUint16(nil, uint16(val))
	case ir.LSOpI64Store32:
		b = binary.LittleEndian.AppendUint32(nil, uint32(val))
	default:
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeOutOfBoundsMemoryAccess, fr.name))
	}

	if !mem.Write(eff, b) {
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeOutOfBoundsMemoryAccess, fr.name))
	}
}

func loadWidth(op ir.LoadStoreOp) int {
	switch op {
	case ir.LSOpI32, ir.LSOpF32:
		return 4
	case ir.LSOpI64, ir.LSOpF64:
		return 8
	case ir.LSOpI32Load8S, ir.LSOpI32Load8U, ir.LSOpI64Load8S, ir.LSOpI64Load8U:
		return 1
	case ir.LSOpI32Load16S, ir.LSOpI32Load16U, ir.LSOpI64Load16S, ir.LSOpI64Load16U:
		return 2
	case ir.LSOpI64Load32S, ir.LSOpI64Load32U:
		return 4
	default:
		return 0
	}
}

// addOffset combines a dynamic address with a static offset immediate,
// reporting overflow past 2^32-1 rather than silently wrapping: a
// not-taken-but-huge offset must still trap, never alias a low address.
func addOffset(addr, offset uint32) (eff uint32, overflow bool) {
	sum := uint64(addr) + uint64(offset)
	if sum > 0xffffffff {
		return 0, true
	}
	return uint32(sum), false
}

// doMemoryInit copies len bytes from passive data segment dataIdx (at src)
// into memory 0 (at dst); a dropped segment behaves as zero-length, per
// spec.md §4.4's "at most once" consumption rule.
func (fr *frame) doMemoryInit(dataIdx, dst, src, n uint32) {
	data := fr.inst.DataSegment(dataIdx)
	end := uint64(src) + uint64(n)
	if end > uint64(len(data)) {
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeOutOfBoundsMemoryAccess, fr.name))
	}
	if n == 0 {
		return
	}
	if !fr.inst.Memories[0].Write(dst, data[src:end]) {
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeOutOfBoundsMemoryAccess, fr.name))
	}
}

// doTableInit copies n elements from passive element segment elemIdx (at
// src) into table tableIdx (at dst).
func (fr *frame) doTableInit(tableIdx, elemIdx, dst, src, n uint32) {
	elems := fr.inst.Segment(elemIdx)
	end := uint64(src) + uint64(n)
	if end > uint64(len(elems)) {
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeOutOfBoundsTableAccess, fr.name))
	}
	if n == 0 {
		return
	}
	table := fr.inst.Tables[tableIdx]
	dstEnd := uint64(dst) + uint64(n)
	if dstEnd > uint64(len(table.Elems)) {
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeOutOfBoundsTableAccess, fr.name))
	}
	copy(table.Elems[dst:dstEnd], elems[src:end])
}
