package ir

import "github.com/wasmine-go/wasmine/internal/wasmtypes"

// Function is the parsed, lowered body of one non-imported Wasm function:
// a list of basic blocks joined by the terminators of spec.md §3, plus the
// declared locals vector addressed separately from SSA variables (spec.md
// §9 Open Question #1, resolved normatively by SPEC_FULL.md §3.1).
type Function struct {
	// Locals holds every declared local's type, in declaration order,
	// beginning after the function's own parameters (which are locals 0..n
	// per the Wasm binary format). Addressed by local index from
	// IKLocalGet/IKLocalSet/IKLocalTee, distinct from VariableID.
	Locals []wasmtypes.ValueType

	// BasicBlocks holds every basic block belonging to this function, in
	// the order they were created by the parser. Block 0 is always the
	// function's entry block.
	BasicBlocks []*BasicBlock

	// NumVars is the number of SSA variables assigned while lowering this
	// function; also the required size of the interpreter's per-call
	// variable-slot array (spec.md §4.3).
	NumVars uint32
}

// BlockByID returns the basic block with the given ID, or nil if none
// exists. Block IDs are dense (0..len-1) in this implementation, so this is
// an O(1) lookup, not a search.
func (f *Function) BlockByID(id BasicBlockID) *BasicBlock {
	if int(id) < 0 || int(id) >= len(f.BasicBlocks) {
		return nil
	}
	return f.BasicBlocks[id]
}
