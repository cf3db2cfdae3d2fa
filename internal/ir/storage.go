package ir

import "github.com/wasmine-go/wasmine/internal/wasmtypes"

// InstructionStorage holds the four parallel, ordered streams that make up
// a basic block's body (spec.md §3, §4.2): a tag per instruction, a packed
// immediate-byte stream, a variable-ID stream, and a value-type stream. An
// Encoder appends to these in a fixed order per instruction kind; a
// matching Decoder pops from them in the same order. The streams are plain
// slices rather than separately-allocated per-instruction structs, so that
// once a block is finished they sit in three or four contiguous, cache
// friendly allocations (the "compacted" storage named in spec.md §3).
type InstructionStorage struct {
	Tags       []InstructionKind
	Immediates []byte
	Variables  []VariableID
	ValueTypes []wasmtypes.ValueType
}

// Len returns the number of instructions recorded (equivalently, len(Tags)).
func (s *InstructionStorage) Len() int { return len(s.Tags) }
