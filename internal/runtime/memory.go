package runtime

import (
	"encoding/binary"
	"math"

	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// Memory is one instantiated linear memory: a contiguous, growable byte
// buffer addressed by 32-bit offsets (spec.md §4.4). Min/Max are page
// counts; Data's length is always current pages * wasmtypes.WasmPageSize.
type Memory struct {
	Data []byte
	Min  uint32
	Max  uint32
	HasMax bool
}

// NewMemory allocates a memory at its minimum size, zero-filled.
func NewMemory(lim wasmtypes.Limits) *Memory {
	return &Memory{
		Data: make([]byte, int(lim.Min)*wasmtypes.WasmPageSize),
		Min:  lim.Min, Max: lim.Max, HasMax: lim.HasMax,
	}
}

// Pages returns the current size in 64KiB pages.
func (m *Memory) Pages() uint32 { return uint32(len(m.Data) / wasmtypes.WasmPageSize) }

// Grow attempts to grow the memory by delta pages, returning the previous
// page count and ok=true, or the current page count and ok=false on failure:
// delta would exceed the declared maximum or the engine's
// wasmtypes.MaxMemoryPages hard ceiling (spec.md §4.4 "fails rather than
// traps").
func (m *Memory) Grow(delta uint32) (previous uint32, ok bool) {
	cur := m.Pages()
	next := cur + delta
	if next < cur { // overflow
		return cur, false
	}
	if next > wasmtypes.MaxMemoryPages {
		return cur, false
	}
	if m.HasMax && next > m.Max {
		return cur, false
	}
	grown := make([]byte, int(next)*wasmtypes.WasmPageSize)
	copy(grown, m.Data)
	m.Data = grown
	return cur, true
}

// bounds reports whether the byte range [offset, offset+n) lies entirely
// within the memory, without itself trapping: callers translate a false
// result into TrapCodeOutOfBoundsMemoryAccess at the call site that has the
// instruction context to describe.
func (m *Memory) bounds(offset uint32, n int) bool {
	end := uint64(offset) + uint64(n)
	return end <= uint64(len(m.Data))
}

// Read copies n bytes starting at offset into a fresh slice, returning
// ok=false if the range is out of bounds.
func (m *Memory) Read(offset uint32, n int) ([]byte, bool) {
	if !m.bounds(offset, n) {
		return nil, false
	}
	out := make([]byte, n)
	copy(out, m.Data[offset:offset+uint32(n)])
	return out, true
}

// Write copies b into the memory at offset, returning ok=false if out of
// bounds (the memory is left untouched in that case).
func (m *Memory) Write(offset uint32, b []byte) bool {
	if !m.bounds(offset, len(b)) {
		return false
	}
	copy(m.Data[offset:], b)
	return true
}

// Fill sets n bytes starting at offset to value, returning ok=false if out
// of bounds.
func (m *Memory) Fill(offset uint32, value byte, n uint32) bool {
	if !m.bounds(offset, int(n)) {
		return false
	}
	region := m.Data[offset : offset+n]
	for i := range region {
		region[i] = value
	}
	return true
}

// CopyWithin implements memory.copy's overlap-safe semantics.
func (m *Memory) CopyWithin(dst, src, n uint32) bool {
	if !m.bounds(dst, int(n)) || !m.bounds(src, int(n)) {
		return false
	}
	copy(m.Data[dst:dst+n], m.Data[src:src+n])
	return true
}

// The typed Read*/Write* accessors below give host code (the api package's
// Memory view) byte-width-specific access without reaching into Data
// directly; the interpreter itself only ever uses Read/Write/Fill/CopyWithin.

func (m *Memory) ReadByte(offset uint32) (byte, bool) {
	if !m.bounds(offset, 1) {
		return 0, false
	}
	return m.Data[offset], true
}

func (m *Memory) ReadUint32(offset uint32) (uint32, bool) {
	if !m.bounds(offset, 4) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.Data[offset:]), true
}

func (m *Memory) ReadUint64(offset uint32) (uint64, bool) {
	if !m.bounds(offset, 8) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(m.Data[offset:]), true
}

func (m *Memory) ReadFloat32(offset uint32) (float32, bool) {
	v, ok := m.ReadUint32(offset)
	return math.Float32frombits(v), ok
}

func (m *Memory) ReadFloat64(offset uint32) (float64, bool) {
	v, ok := m.ReadUint64(offset)
	return math.Float64frombits(v), ok
}

func (m *Memory) WriteByte(offset uint32, v byte) bool {
	if !m.bounds(offset, 1) {
		return false
	}
	m.Data[offset] = v
	return true
}

func (m *Memory) WriteUint32(offset, v uint32) bool {
	if !m.bounds(offset, 4) {
		return false
	}
	binary.LittleEndian.PutUint32(m.Data[offset:], v)
	return true
}

func (m *Memory) WriteUint64(offset uint32, v uint64) bool {
	if !m.bounds(offset, 8) {
		return false
	}
	binary.LittleEndian.PutUint64(m.Data[offset:], v)
	return true
}

func (m *Memory) WriteFloat32(offset uint32, v float32) bool {
	return m.WriteUint32(offset, math.Float32bits(v))
}

func (m *Memory) WriteFloat64(offset uint32, v float64) bool {
	return m.WriteUint64(offset, math.Float64bits(v))
}
