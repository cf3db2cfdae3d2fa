package ir

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// Decoder reads instructions back out of a basic block's body streams in
// the same fixed order the Encoder wrote them (spec.md §4.2). It is
// positioned at a single "current instruction" and advances explicitly;
// the interpreter takes a fresh Decoder from each block it enters
// (BasicBlock.Decoder).
type Decoder struct {
	storage *InstructionStorage

	tagPos int
	immPos int
	varPos int
	vtPos  int
}

// Reset repositions the decoder at the start of storage, so one Decoder
// can be reused across blocks.
func (d *Decoder) Reset(storage *InstructionStorage) {
	d.storage = storage
	d.tagPos, d.immPos, d.varPos, d.vtPos = 0, 0, 0, 0
}

// Done reports whether every instruction in the stream has been consumed.
func (d *Decoder) Done() bool {
	return d.tagPos >= len(d.storage.Tags)
}

// NextInstructionTag reads the next instruction's tag and advances past it.
func (d *Decoder) NextInstructionTag() (InstructionKind, bool) {
	if d.Done() {
		return 0, false
	}
	k := d.storage.Tags[d.tagPos]
	d.tagPos++
	return k, true
}

// ReadVariable reads the next variable ID reference.
func (d *Decoder) ReadVariable() VariableID {
	v := d.storage.Variables[d.varPos]
	d.varPos++
	return v
}

// ReadValueType reads the next value type.
func (d *Decoder) ReadValueType() wasmtypes.ValueType {
	t := d.storage.ValueTypes[d.vtPos]
	d.vtPos++
	return t
}

// ReadImmediate reads an arbitrary-width machine integer or float,
// byte-packed little-endian, mirroring WriteImmediate's encoding exactly.
func ReadImmediate[T immediate](d *Decoder) T {
	var zero T
	switch any(zero).(type) {
	case uint8:
		v := d.storage.Immediates[d.immPos]
		d.immPos++
		return any(v).(T)
	case int8:
		v := int8(d.storage.Immediates[d.immPos])
		d.immPos++
		return any(v).(T)
	case uint16:
		v := binary.LittleEndian.Uint16(d.storage.Immediates[d.immPos:])
		d.immPos += 2
		return any(v).(T)
	case int16:
		v := int16(binary.LittleEndian.Uint16(d.storage.Immediates[d.immPos:]))
		d.immPos += 2
		return any(v).(T)
	case uint32:
		v := binary.LittleEndian.Uint32(d.storage.Immediates[d.immPos:])
		d.immPos += 4
		return any(v).(T)
	case int32:
		v := int32(binary.LittleEndian.Uint32(d.storage.Immediates[d.immPos:]))
		d.immPos += 4
		return any(v).(T)
	case uint64:
		v := binary.LittleEndian.Uint64(d.storage.Immediates[d.immPos:])
		d.immPos += 8
		return any(v).(T)
	case int64:
		v := int64(binary.LittleEndian.Uint64(d.storage.Immediates[d.immPos:]))
		d.immPos += 8
		return any(v).(T)
	case float32:
		v := math.Float32frombits(binary.LittleEndian.Uint32(d.storage.Immediates[d.immPos:]))
		d.immPos += 4
		return any(v).(T)
	case float64:
		v := math.Float64frombits(binary.LittleEndian.Uint64(d.storage.Immediates[d.immPos:]))
		d.immPos += 8
		return any(v).(T)
	default:
		panic(fmt.Sprintf("ir: unsupported immediate type %T", zero))
	}
}
