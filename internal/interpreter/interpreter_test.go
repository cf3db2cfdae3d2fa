package interpreter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmine-go/wasmine/internal/ir"
	"github.com/wasmine-go/wasmine/internal/runtime"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// buildAddOne returns a one-block function computing param0 + 1, i32.
func buildAddOne() *ir.Function {
	fn := &ir.Function{Locals: nil, NumVars: 3}
	bb := ir.NewBasicBlock(0)
	enc := bb.Encoder()

	enc.WriteInstructionTag(ir.IKLocalGet)
	ir.WriteImmediate[uint32](enc, 0)
	enc.WriteVariable(0)

	enc.WriteInstructionTag(ir.IKConst)
	enc.WriteValueType(wasmtypes.ValueTypeI32)
	ir.WriteImmediate[int32](enc, 1)
	enc.WriteVariable(1)

	enc.WriteInstructionTag(ir.IKBinary)
	ir.WriteImmediate[byte](enc, 0x6a) // i32.add
	enc.WriteVariable(0)
	enc.WriteVariable(1)
	enc.WriteVariable(2)
	enc.WriteValueType(wasmtypes.ValueTypeI32)

	enc.Finish(ir.Terminator{Kind: ir.TerminatorReturn, ReturnValues: []ir.VariableID{2}})

	fn.BasicBlocks = []*ir.BasicBlock{bb}
	return fn
}

func TestCallAddOne(t *testing.T) {
	body := buildAddOne()
	f := &runtime.Function{
		Type: wasmtypes.FuncType{Params: []wasmtypes.ValueType{wasmtypes.ValueTypeI32}, Results: []wasmtypes.ValueType{wasmtypes.ValueTypeI32}},
		Body: body,
		Name: "add_one",
	}

	res, err := Call(context.Background(), f, []wasmtypes.RawSlot{wasmtypes.I32ToRaw(41)})
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, int32(42), wasmtypes.RawToI32(res[0]))
}

// buildUnreachable is a one-block function that always traps.
func buildUnreachable() *ir.Function {
	bb := ir.NewBasicBlock(0)
	bb.Encoder().Finish(ir.Terminator{Kind: ir.TerminatorUnreachable})
	return &ir.Function{BasicBlocks: []*ir.BasicBlock{bb}}
}

func TestCallUnreachableTraps(t *testing.T) {
	f := &runtime.Function{Body: buildUnreachable(), Name: "boom"}

	_, err := Call(context.Background(), f, nil)
	require.Error(t, err)
	var trap *wasmtypes.Trap
	require.ErrorAs(t, err, &trap)
	require.Equal(t, wasmtypes.TrapCodeUnreachable, trap.Code)
}

// buildBranch jumps from bb0 to bb1, passing one phi value through.
func buildBranch() *ir.Function {
	fn := &ir.Function{NumVars: 2}

	bb0 := ir.NewBasicBlock(0)
	enc0 := bb0.Encoder()
	enc0.WriteInstructionTag(ir.IKConst)
	enc0.WriteValueType(wasmtypes.ValueTypeI32)
	ir.WriteImmediate[int32](enc0, 7)
	enc0.WriteVariable(0)
	enc0.Finish(ir.Terminator{Kind: ir.TerminatorJmp, Target: 1, Outs: []ir.VariableID{0}})

	bb1 := ir.NewBasicBlock(1)
	bb1.PhiInputs = []ir.PhiNode{{Inputs: []ir.PhiInput{{Pred: 0, Var: 0}}, Out: 1, Type: wasmtypes.ValueTypeI32}}
	bb1.Encoder().Finish(ir.Terminator{Kind: ir.TerminatorReturn, ReturnValues: []ir.VariableID{1}})

	fn.BasicBlocks = []*ir.BasicBlock{bb0, bb1}
	return fn
}

func TestCallBranchCopiesPhi(t *testing.T) {
	f := &runtime.Function{Body: buildBranch(), Name: "branch"}

	res, err := Call(context.Background(), f, nil)
	require.NoError(t, err)
	require.Equal(t, int32(7), wasmtypes.RawToI32(res[0]))
}

func TestCallHostFunction(t *testing.T) {
	f := &runtime.Function{
		Type: wasmtypes.FuncType{Params: []wasmtypes.ValueType{wasmtypes.ValueTypeI32}, Results: []wasmtypes.ValueType{wasmtypes.ValueTypeI32}},
		Host: func(ctx context.Context, args []wasmtypes.RawSlot) ([]wasmtypes.RawSlot, error) {
			return []wasmtypes.RawSlot{wasmtypes.I32ToRaw(wasmtypes.RawToI32(args[0]) * 2)}, nil
		},
		Name: "double",
	}

	res, err := Call(context.Background(), f, []wasmtypes.RawSlot{wasmtypes.I32ToRaw(21)})
	require.NoError(t, err)
	require.Equal(t, int32(42), wasmtypes.RawToI32(res[0]))
}
