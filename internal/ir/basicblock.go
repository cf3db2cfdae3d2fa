package ir

import (
	"fmt"

	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// TerminatorKind is the closed set of basic-block terminators from
// spec.md §3. Terminators live in their own dedicated slot on BasicBlock,
// not in the per-block instruction streams, so that the interpreter and a
// native backend's control-flow-graph construction can reach them in
// constant time (spec.md §4.2).
type TerminatorKind byte

const (
	TerminatorUnreachable TerminatorKind = iota
	TerminatorJmp
	TerminatorJmpCond
	TerminatorJmpTable
	TerminatorCall
	TerminatorCallIndirect
	TerminatorReturn
)

// Terminator is a tagged union over TerminatorKind; only the fields
// matching Kind are meaningful, mirroring the BasicBlockGlue enum in
// original_source/src/structs/basic_block.rs.
type Terminator struct {
	Kind TerminatorKind

	// Jmp / JmpCond / JmpTable
	Target        BasicBlockID   // Jmp
	TargetIfTrue  BasicBlockID   // JmpCond
	TargetIfFalse BasicBlockID   // JmpCond
	Targets       []BasicBlockID // JmpTable, not including default
	DefaultTarget BasicBlockID   // JmpTable
	CondVar       VariableID     // JmpCond, JmpTable (selector)
	// Outs carries Jmp's branch outputs, and for JmpCond the values shared
	// by both the true and false edges (spec.md §3's single-outs
	// signature): each target block's own phi declares how many of these
	// it actually consumes.
	Outs []VariableID
	// TargetsOuts / DefaultOuts are JmpTable's per-target outputs
	// (spec.md §3 "per-target-outs").
	TargetsOuts [][]VariableID
	DefaultOuts []VariableID

	// Call / CallIndirect
	FuncIdx     uint32
	TypeIdx     uint32 // CallIndirect
	TableIdx    uint32 // CallIndirect
	ReturnBB    BasicBlockID
	CallParams  []VariableID
	ReturnVars  []VariableID

	// Return
	ReturnValues []VariableID
}

// PhiInput is one incoming value from a single predecessor, as named in
// spec.md §3 "a list of phi-node inputs at block entry".
type PhiInput struct {
	Pred BasicBlockID
	Var  VariableID
}

// PhiNode maps a set of (predecessor, variable) incoming pairs to a single
// output variable produced at block entry.
type PhiNode struct {
	Inputs []PhiInput
	Out    VariableID
	Type   wasmtypes.ValueType
}

// BasicBlock is a straight-line sequence of instructions ending in a single
// Terminator (spec.md §3). The four body-instruction streams are populated
// by an Encoder during parsing and consumed by a Decoder during
// interpretation or backend translation.
type BasicBlock struct {
	ID BasicBlockID

	PhiInputs []PhiNode

	Terminator Terminator

	// Body holds the four parallel, ordered side streams described in
	// spec.md §3: the instruction-type tags, packed immediates, referenced
	// variable IDs, and value types, written by Encoder and read back by
	// Decoder in the same fixed per-instruction order.
	Body InstructionStorage

	// finished is set once Encoder.Finish has been called; asking a
	// finished block for a new Encoder panics, matching the parser's single-pass
	// construction discipline.
	finished bool
}

// NewBasicBlock allocates an empty basic block with the given ID.
func NewBasicBlock(id BasicBlockID) *BasicBlock {
	return &BasicBlock{ID: id}
}

// Encoder returns an Encoder appending to this block's body
// streams. The caller must invoke Finish exactly once to record the
// block's terminator and freeze the streams.
func (b *BasicBlock) Encoder() *Encoder {
	if b.finished {
		panic(fmt.Sprintf("ir: basic block %d already finished", b.ID))
	}
	return &Encoder{block: b}
}

// Decoder returns a Decoder positioned at the start of this
// block's body stream.
func (b *BasicBlock) Decoder() *Decoder {
	return &Decoder{storage: &b.Body}
}

func (b *BasicBlock) String() string {
	return fmt.Sprintf("bb%d", b.ID)
}
