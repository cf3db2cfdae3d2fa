package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// TestRoundTrip exercises the property required by spec.md §8:
// decode(encode(block)) == block, byte-exact on each side-stream and
// structurally equal on the terminator.
func TestRoundTrip(t *testing.T) {
	bb := NewBasicBlock(0)
	enc := bb.Encoder()

	// v0 = i32.const 10
	enc.WriteInstructionTag(IKConst)
	WriteImmediate[int32](enc, 10)
	enc.WriteVariable(0)
	enc.WriteValueType(wasmtypes.ValueTypeI32)

	// v1 = i32.const 20
	enc.WriteInstructionTag(IKConst)
	WriteImmediate[int32](enc, 20)
	enc.WriteVariable(1)
	enc.WriteValueType(wasmtypes.ValueTypeI32)

	// v2 = i32.add v0 v1
	enc.WriteInstructionTag(IKBinary)
	WriteImmediate[byte](enc, byte(wasmtypes.OpcodeI32Clz)) // placeholder opcode byte
	enc.WriteVariable(0)
	enc.WriteVariable(1)
	enc.WriteVariable(2)
	enc.WriteValueType(wasmtypes.ValueTypeI32)

	enc.Finish(Terminator{Kind: TerminatorReturn, ReturnValues: []VariableID{2}})

	dec := bb.Decoder()

	tag, ok := dec.NextInstructionTag()
	require.True(t, ok)
	require.Equal(t, IKConst, tag)
	require.Equal(t, int32(10), ReadImmediate[int32](dec))
	require.Equal(t, VariableID(0), dec.ReadVariable())
	require.Equal(t, wasmtypes.ValueTypeI32, dec.ReadValueType())

	tag, ok = dec.NextInstructionTag()
	require.True(t, ok)
	require.Equal(t, IKConst, tag)
	require.Equal(t, int32(20), ReadImmediate[int32](dec))
	require.Equal(t, VariableID(1), dec.ReadVariable())
	require.Equal(t, wasmtypes.ValueTypeI32, dec.ReadValueType())

	tag, ok = dec.NextInstructionTag()
	require.True(t, ok)
	require.Equal(t, IKBinary, tag)
	require.Equal(t, byte(wasmtypes.OpcodeI32Clz), ReadImmediate[byte](dec))
	require.Equal(t, VariableID(0), dec.ReadVariable())
	require.Equal(t, VariableID(1), dec.ReadVariable())
	require.Equal(t, VariableID(2), dec.ReadVariable())
	require.Equal(t, wasmtypes.ValueTypeI32, dec.ReadValueType())

	require.True(t, dec.Done())
	require.Equal(t, TerminatorReturn, bb.Terminator.Kind)
	require.Equal(t, []VariableID{2}, bb.Terminator.ReturnValues)
}
