package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

func TestInstanceExportLookups(t *testing.T) {
	inst := NewHostInstance("exports")
	fn := &Function{Type: wasmtypes.FuncType{}}
	inst.Functions = append(inst.Functions, fn)
	inst.Memories = append(inst.Memories, NewMemory(wasmtypes.Limits{Min: 1}))
	inst.Globals = append(inst.Globals, &Global{Type: wasmtypes.ValueTypeI32})
	inst.Tables = append(inst.Tables, NewTable(wasmtypes.ValueTypeFuncRef, wasmtypes.Limits{Min: 1}))

	inst.ExportFunc("f", 0)
	inst.ExportMemory("m", 0)
	inst.ExportGlobal("g", 0)

	got, ok := inst.ExportedFunction("f")
	require.True(t, ok)
	require.Same(t, fn, got)

	_, ok = inst.ExportedFunction("missing")
	require.False(t, ok)

	_, ok = inst.ExportedMemory("m")
	require.True(t, ok)
	_, ok = inst.ExportedGlobal("g")
	require.True(t, ok)

	// "f" was exported as a func, not a table: looking it up as a table must miss.
	_, ok = inst.ExportedTable("f")
	require.False(t, ok)
}

func TestInstanceSegmentDropIsIdempotentAndNilsContent(t *testing.T) {
	inst := NewHostInstance("segs")
	inst.segElems = [][]TableElem{{{Null: true}}}
	inst.segData = [][]byte{{1, 2, 3}}

	require.Len(t, inst.Segment(0), 1)
	inst.DropSegment(0)
	require.Nil(t, inst.Segment(0))
	inst.DropSegment(0) // idempotent

	require.Equal(t, []byte{1, 2, 3}, inst.DataSegment(0))
	inst.DropData(0)
	require.Nil(t, inst.DataSegment(0))
}
