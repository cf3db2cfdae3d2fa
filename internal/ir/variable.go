package ir

import "github.com/wasmine-go/wasmine/internal/wasmtypes"

// VariableID names an SSA variable, unique within its function. Variable IDs
// are assigned in monotonically increasing order as the parser lowers the
// function body (spec.md §3 "Variables"); they never escape the function
// that defines them.
type VariableID uint32

// Variable is an SSA name together with its value type, fixed at creation.
type Variable struct {
	ID   VariableID
	Type wasmtypes.ValueType
}

// BasicBlockID is a basic block's identifier, unique within its function.
type BasicBlockID uint32
