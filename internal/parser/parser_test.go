package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmine-go/wasmine/internal/ir"
	"github.com/wasmine-go/wasmine/internal/parser"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

func header() []byte { return []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00} }

func u32(v uint32) []byte { return wasmtypes.EncodeUint32(v) }

func section(id byte, payload []byte) []byte {
	out := append([]byte{id}, u32(uint32(len(payload)))...)
	return append(out, payload...)
}

func vecSection(id byte, entries ...[]byte) []byte {
	b := u32(uint32(len(entries)))
	for _, e := range entries {
		b = append(b, e...)
	}
	return section(id, b)
}

func funcType(params, results []wasmtypes.ValueType) []byte {
	b := []byte{0x60}
	b = append(b, u32(uint32(len(params)))...)
	for _, p := range params {
		b = append(b, byte(p))
	}
	b = append(b, u32(uint32(len(results)))...)
	for _, r := range results {
		b = append(b, byte(r))
	}
	return b
}

func funcBody(body []byte) []byte {
	full := append([]byte{0x00}, body...)
	return append(u32(uint32(len(full))), full...)
}

func assemble(sections ...[]byte) []byte {
	out := header()
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

// A function adding its two parameters lowers to a single basic block ending
// in a return terminator, confirming body.go's straight-line instruction
// dispatch and control.go's implicit function-end handling.
func TestParseStraightLineBody(t *testing.T) {
	i32 := wasmtypes.ValueTypeI32
	types := vecSection(1, funcType([]wasmtypes.ValueType{i32, i32}, []wasmtypes.ValueType{i32}))
	funcs := vecSection(3, u32(0))
	body := []byte{
		0x20, 0x00, // local.get 0
		0x20, 0x01, // local.get 1
		0x6a, // i32.add
		0x0b, // end
	}
	code := vecSection(10, funcBody(body))

	mod, err := parser.Parse(assemble(types, funcs, code))
	require.NoError(t, err)
	require.Len(t, mod.Functions, 1)

	fn := mod.Functions[0].Body
	require.NotNil(t, fn)
	require.Len(t, fn.BasicBlocks, 1)
	require.Equal(t, ir.TerminatorReturn, fn.BasicBlocks[0].Terminator.Kind)
}

// An if/else produces at least three basic blocks (the two arms plus their
// continuation), exercising control.go's lowerIf/lowerElse/lowerEnd.
func TestParseIfElseProducesMultipleBlocks(t *testing.T) {
	i32 := wasmtypes.ValueTypeI32
	types := vecSection(1, funcType([]wasmtypes.ValueType{i32}, []wasmtypes.ValueType{i32}))
	funcs := vecSection(3, u32(0))
	body := []byte{
		0x20, 0x00, // local.get 0
		0x04, 0x7f, // if (result i32)
		0x41, 0x01, // i32.const 1
		0x05,       // else
		0x41, 0x00, // i32.const 0
		0x0b, // end (if)
		0x0b, // end (func)
	}
	code := vecSection(10, funcBody(body))

	mod, err := parser.Parse(assemble(types, funcs, code))
	require.NoError(t, err)

	fn := mod.Functions[0].Body
	require.NotNil(t, fn)
	require.GreaterOrEqual(t, len(fn.BasicBlocks), 3)
}

// A loop with a conditional back-edge exercises lowerLoop/lowerBrIf: the
// header block is its own predecessor.
func TestParseLoopProducesBackEdge(t *testing.T) {
	i32 := wasmtypes.ValueTypeI32
	types := vecSection(1, funcType([]wasmtypes.ValueType{i32}, nil))
	funcs := vecSection(3, u32(0))
	body := []byte{
		0x03, 0x40, // loop (empty block type)
		0x20, 0x00, // local.get 0
		0x0d, 0x00, // br_if 0
		0x0b, // end (loop)
		0x0b, // end (func)
	}
	code := vecSection(10, funcBody(body))

	mod, err := parser.Parse(assemble(types, funcs, code))
	require.NoError(t, err)

	fn := mod.Functions[0].Body
	require.NotNil(t, fn)
	require.GreaterOrEqual(t, len(fn.BasicBlocks), 2)

	selfEdge := false
	for _, bb := range fn.BasicBlocks {
		if bb.Terminator.Kind == ir.TerminatorJmpCond && bb.Terminator.TargetIfTrue == bb.ID {
			selfEdge = true
		}
	}
	require.True(t, selfEdge, "the loop header's br_if must branch back to the header itself")
}

func TestParseRejectsSectionsOutOfCanonicalOrder(t *testing.T) {
	i32 := wasmtypes.ValueTypeI32
	types := vecSection(1, funcType(nil, []wasmtypes.ValueType{i32}))
	funcs := vecSection(3, u32(0))
	// Function section (order 3) followed by type section (order 1): invalid.
	_, err := parser.Parse(assemble(funcs, types))
	require.Error(t, err)
}

func TestParseRejectsUnsupportedVersion(t *testing.T) {
	_, err := parser.Parse([]byte{0x00, 0x61, 0x73, 0x6d, 0x02, 0x00, 0x00, 0x00})
	require.Error(t, err)
}

func TestParseRejectsCodeEntryCountMismatch(t *testing.T) {
	i32 := wasmtypes.ValueTypeI32
	types := vecSection(1, funcType(nil, []wasmtypes.ValueType{i32}))
	funcs := vecSection(3, u32(0), u32(0)) // declares two functions
	code := vecSection(10, funcBody([]byte{0x41, 0x00, 0x0b})) // but only one body

	_, err := parser.Parse(assemble(types, funcs, code))
	require.Error(t, err)
}
