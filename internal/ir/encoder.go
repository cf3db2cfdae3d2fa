package ir

import (
	"encoding/binary"
	"math"

	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// Encoder appends instructions to one basic block's body streams
// (spec.md §4.2). Each instruction kind defines a fixed, documented
// sequence of Write* calls; Decoder's Read* sequence mirrors it exactly so
// that decode(encode(block)) == block for every well-formed block
// (spec.md §8).
type Encoder struct {
	block *BasicBlock
}

// WriteInstructionTag appends the tag identifying which instruction this
// is; always the first call for a new instruction.
func (e *Encoder) WriteInstructionTag(k InstructionKind) {
	e.block.Body.Tags = append(e.block.Body.Tags, k)
}

// WriteVariable appends a variable ID reference (either an input or an
// output of the instruction being encoded).
func (e *Encoder) WriteVariable(v VariableID) {
	e.block.Body.Variables = append(e.block.Body.Variables, v)
}

// WriteValueType appends a value type, used for instructions whose result
// or operand type is not implied by the opcode alone (e.g. ref.null,
// select).
func (e *Encoder) WriteValueType(t wasmtypes.ValueType) {
	e.block.Body.ValueTypes = append(e.block.Body.ValueTypes, t)
}

// immediate is the set of machine-integer and float widths write_immediate
// accepts; Go forbids additional type parameters on methods, so this is a
// free function taking the encoder, matching spec.md §4.2's
// write_immediate<T> primitive.
type immediate interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// WriteImmediate appends an arbitrary-width machine integer or float,
// byte-packed little-endian into the immediate stream.
func WriteImmediate[T immediate](e *Encoder, v T) {
	switch x := any(v).(type) {
	case uint8:
		e.block.Body.Immediates = append(e.block.Body.Immediates, x)
	case int8:
		e.block.Body.Immediates = append(e.block.Body.Immediates, uint8(x))
	case uint16:
		e.block.Body.Immediates = binary.LittleEndian.AppendUint16(e.block.Body.Immediates, x)
	case int16:
		e.block.Body.Immediates = binary.LittleEndian.AppendUint16(e.block.Body.Immediates, uint16(x))
	case uint32:
		e.block.Body.Immediates = binary.LittleEndian.AppendUint32(e.block.Body.Immediates, x)
	case int32:
		e.block.Body.Immediates = binary.LittleEndian.AppendUint32(e.block.Body.Immediates, uint32(x))
	case uint64:
		e.block.Body.Immediates = binary.LittleEndian.AppendUint64(e.block.Body.Immediates, x)
	case int64:
		e.block.Body.Immediates = binary.LittleEndian.AppendUint64(e.block.Body.Immediates, uint64(x))
	case float32:
		e.block.Body.Immediates = binary.LittleEndian.AppendUint32(e.block.Body.Immediates, math.Float32bits(x))
	case float64:
		e.block.Body.Immediates = binary.LittleEndian.AppendUint64(e.block.Body.Immediates, math.Float64bits(x))
	default:
		panic("ir: unsupported immediate type")
	}
}

// Finish closes the block by recording its terminator and marking the
// streams frozen. Terminators are not part of the body stream (spec.md
// §4.2): they are stored directly on the BasicBlock.
func (e *Encoder) Finish(term Terminator) {
	e.block.Terminator = term
	e.block.finished = true
}
