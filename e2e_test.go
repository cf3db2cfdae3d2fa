package wasmine_test

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	wasmine "github.com/wasmine-go/wasmine"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// The helpers below hand-assemble minimal Wasm binaries byte by byte, the
// same way a real producer's emitter would, so the scenarios below exercise
// Compile/Instantiate/Call end to end rather than constructing IR directly.

func wasmHeader() []byte { return []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00} }

func u32v(v uint32) []byte { return wasmtypes.EncodeUint32(v) }

func wasmSection(id byte, payload []byte) []byte {
	out := []byte{id}
	out = append(out, u32v(uint32(len(payload)))...)
	return append(out, payload...)
}

func valueTypeVec(vts ...wasmtypes.ValueType) []byte {
	b := u32v(uint32(len(vts)))
	for _, v := range vts {
		b = append(b, byte(v))
	}
	return b
}

func wasmFuncType(params, results []wasmtypes.ValueType) []byte {
	b := []byte{0x60}
	b = append(b, valueTypeVec(params...)...)
	return append(b, valueTypeVec(results...)...)
}

func wasmVecSection(id byte, entries ...[]byte) []byte {
	b := u32v(uint32(len(entries)))
	for _, e := range entries {
		b = append(b, e...)
	}
	return wasmSection(id, b)
}

func wasmName(s string) []byte { return append(u32v(uint32(len(s))), []byte(s)...) }

func wasmExport(name string, kind wasmtypes.ExternKind, idx uint32) []byte {
	b := wasmName(name)
	b = append(b, byte(kind))
	return append(b, u32v(idx)...)
}

func wasmLimits(min, max uint32, hasMax bool) []byte {
	if hasMax {
		b := []byte{1}
		b = append(b, u32v(min)...)
		return append(b, u32v(max)...)
	}
	b := []byte{0}
	return append(b, u32v(min)...)
}

func wasmConstI32(v int32) []byte {
	return append([]byte{0x41}, append(wasmtypes.EncodeInt32(v), 0x0b)...)
}

func wasmFuncBody(body []byte) []byte {
	full := append([]byte{0x00}, body...) // zero local-declaration groups
	return append(u32v(uint32(len(full))), full...)
}

func assembleModule(sections ...[]byte) []byte {
	out := wasmHeader()
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

// Scenario 1: Fibonacci, computed via recursion and a self-call.
func TestFibonacci(t *testing.T) {
	i32 := wasmtypes.ValueTypeI32
	types := wasmVecSection(1, wasmFuncType([]wasmtypes.ValueType{i32}, []wasmtypes.ValueType{i32}))
	funcs := wasmVecSection(3, u32v(0))
	exports := wasmVecSection(7, wasmExport("_start", wasmtypes.ExternKindFunc, 0))

	body := []byte{
		0x20, 0x00, // local.get 0
		0x41, 0x02, // i32.const 2
		0x48,       // i32.lt_s
		0x04, 0x7f, // if (result i32)
		0x20, 0x00, // local.get 0
		0x05, // else
		0x20, 0x00, // local.get 0
		0x41, 0x01, // i32.const 1
		0x6b,       // i32.sub
		0x10, 0x00, // call 0
		0x20, 0x00, // local.get 0
		0x41, 0x02, // i32.const 2
		0x6b,       // i32.sub
		0x10, 0x00, // call 0
		0x6a, // i32.add
		0x0b, // end (if)
		0x0b, // end (func)
	}
	code := wasmVecSection(10, wasmFuncBody(body))

	bin := assembleModule(types, funcs, exports, code)

	ctx := context.Background()
	rt := wasmine.NewRuntime(ctx)
	mod, err := rt.Instantiate(ctx, bin)
	require.NoError(t, err)

	fn := mod.ExportedFunction("_start")
	require.NotNil(t, fn)

	res, err := fn.Call(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []uint64{55}, res)

	res, err = fn.Call(ctx, 20)
	require.NoError(t, err)
	require.Equal(t, []uint64{6765}, res)
}

// Scenario 2: memory.size/memory.grow/memory.size yields 1, 1, 4.
func TestMemoryGrowSize(t *testing.T) {
	i32 := wasmtypes.ValueTypeI32
	types := wasmVecSection(1, wasmFuncType(nil, []wasmtypes.ValueType{i32, i32, i32}))
	funcs := wasmVecSection(3, u32v(0))
	memories := wasmVecSection(5, wasmLimits(1, 0, false))
	exports := wasmVecSection(7, wasmExport("_start", wasmtypes.ExternKindFunc, 0))

	body := []byte{
		0x3f, 0x00, // memory.size
		0x41, 0x03, // i32.const 3
		0x40, 0x00, // memory.grow
		0x3f, 0x00, // memory.size
		0x0b, // end
	}
	code := wasmVecSection(10, wasmFuncBody(body))

	bin := assembleModule(types, funcs, memories, exports, code)

	ctx := context.Background()
	rt := wasmine.NewRuntime(ctx)
	mod, err := rt.Instantiate(ctx, bin)
	require.NoError(t, err)

	res, err := mod.ExportedFunction("_start").Call(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 1, 4}, res)
}

// Scenario 3: call_indirect traps on a signature mismatch against the slot's
// actual function type.
func TestCallIndirectSignatureMismatchTraps(t *testing.T) {
	i32 := wasmtypes.ValueTypeI32
	i64 := wasmtypes.ValueTypeI64
	types := wasmVecSection(1,
		wasmFuncType([]wasmtypes.ValueType{i32}, []wasmtypes.ValueType{i32}), // type 0: (i32)->(i32)
		wasmFuncType([]wasmtypes.ValueType{i64}, []wasmtypes.ValueType{i64}), // type 1: (i64)->(i64)
		wasmFuncType(nil, nil), // type 2: ()->()
	)
	funcs := wasmVecSection(3, u32v(0), u32v(2))
	tables := wasmVecSection(4, append([]byte{byte(wasmtypes.ValueTypeFuncRef)}, wasmLimits(1, 1, true)...))
	exports := wasmVecSection(7, wasmExport("_start", wasmtypes.ExternKindFunc, 1))
	elements := wasmVecSection(9, append(append(u32v(0), wasmConstI32(0)...), append(u32v(1), u32v(0)...)...))

	identityBody := []byte{0x20, 0x00, 0x0b} // local.get 0; end
	startBody := []byte{
		0x42, 0x00, // i64.const 0 (argument)
		0x41, 0x00, // i32.const 0 (table slot selector)
		0x11, 0x01, 0x00, // call_indirect (type 1) table 0
		0x1a, // drop
		0x0b, // end
	}
	code := wasmVecSection(10, wasmFuncBody(identityBody), wasmFuncBody(startBody))

	bin := assembleModule(types, funcs, tables, exports, elements, code)

	ctx := context.Background()
	rt := wasmine.NewRuntime(ctx)
	mod, err := rt.Instantiate(ctx, bin)
	require.NoError(t, err)

	_, err = mod.ExportedFunction("_start").Call(ctx)
	require.Error(t, err)
}

// Scenario 4: trunc_sat saturates instead of trapping on NaN and out-of-range
// inputs.
func TestTruncSatSaturates(t *testing.T) {
	i32 := wasmtypes.ValueTypeI32
	f64Const := func(v float64) []byte {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		return append([]byte{0x44}, buf[:]...)
	}
	buildAndRun := func(t *testing.T, v float64) uint64 {
		types := wasmVecSection(1, wasmFuncType(nil, []wasmtypes.ValueType{i32}))
		funcs := wasmVecSection(3, u32v(0))
		exports := wasmVecSection(7, wasmExport("_start", wasmtypes.ExternKindFunc, 0))
		body := append(f64Const(v), 0xfc, 0x02, 0x0b) // f64.const v; i32.trunc_sat_f64_s; end
		code := wasmVecSection(10, wasmFuncBody(body))
		bin := assembleModule(types, funcs, exports, code)

		ctx := context.Background()
		rt := wasmine.NewRuntime(ctx)
		mod, err := rt.Instantiate(ctx, bin)
		require.NoError(t, err)
		res, err := mod.ExportedFunction("_start").Call(ctx)
		require.NoError(t, err)
		require.Len(t, res, 1)
		return res[0]
	}

	require.Equal(t, uint64(0), buildAndRun(t, math.NaN()))
	require.Equal(t, uint64(uint32(math.MaxInt32)), buildAndRun(t, 1e18))
}
