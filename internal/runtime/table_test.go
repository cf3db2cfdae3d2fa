package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

func TestTableGrowRespectsMax(t *testing.T) {
	tbl := NewTable(wasmtypes.ValueTypeFuncRef, wasmtypes.Limits{Min: 1, Max: 2, HasMax: true})

	prev, ok := tbl.Grow(1, TableElem{Null: true})
	require.True(t, ok)
	require.Equal(t, uint32(1), prev)
	require.Equal(t, uint32(2), tbl.Size())

	_, ok = tbl.Grow(1, TableElem{Null: true})
	require.False(t, ok, "growing past max must fail")
}

func TestTableFillAndCopyWithinAreBoundsChecked(t *testing.T) {
	tbl := NewTable(wasmtypes.ValueTypeFuncRef, wasmtypes.Limits{Min: 4})
	fn := &Function{Type: wasmtypes.FuncType{}}

	require.True(t, tbl.Fill(0, TableElem{Func: fn}, 2))
	require.False(t, tbl.Fill(3, TableElem{Func: fn}, 2), "fill exceeding table size must fail")

	require.True(t, tbl.CopyWithin(2, 0, 2))
	got, ok := tbl.Get(2)
	require.True(t, ok)
	require.Same(t, fn, got.Func)

	require.False(t, tbl.CopyWithin(3, 0, 2), "copy exceeding table size must fail")
}

func TestTableCopyFromBetweenDistinctTables(t *testing.T) {
	src := NewTable(wasmtypes.ValueTypeFuncRef, wasmtypes.Limits{Min: 2})
	dst := NewTable(wasmtypes.ValueTypeFuncRef, wasmtypes.Limits{Min: 2})
	fn := &Function{Type: wasmtypes.FuncType{}}
	require.True(t, src.Set(0, TableElem{Func: fn}))

	require.True(t, CopyFrom(dst, 1, src, 0, 1))
	got, ok := dst.Get(1)
	require.True(t, ok)
	require.Same(t, fn, got.Func)

	require.False(t, CopyFrom(dst, 0, src, 1, 5), "out-of-range copy must fail")
}

func TestElemSlotRoundTrip(t *testing.T) {
	fn := &Function{Type: wasmtypes.FuncType{}}

	s := ElemToSlot(TableElem{Func: fn})
	require.NotZero(t, s)
	back := SlotToElem(wasmtypes.ValueTypeFuncRef, s)
	require.Same(t, fn, back.Func)

	nullSlot := ElemToSlot(TableElem{Null: true})
	require.Zero(t, nullSlot)
	require.True(t, SlotToElem(wasmtypes.ValueTypeFuncRef, nullSlot).Null)
}
