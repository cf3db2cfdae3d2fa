package backend_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmine-go/wasmine/internal/backend"
	"github.com/wasmine-go/wasmine/internal/ir"
	"github.com/wasmine-go/wasmine/internal/module"
	"github.com/wasmine-go/wasmine/internal/runtime"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

func identityInterpret(_ context.Context, _ *runtime.ExecContext, f *runtime.Function, args []wasmtypes.RawSlot) ([]wasmtypes.RawSlot, error) {
	return args, nil
}

func i32i32Module() *module.Module {
	return &module.Module{
		Types: []wasmtypes.FuncType{{
			Params:  []wasmtypes.ValueType{wasmtypes.ValueTypeI32},
			Results: []wasmtypes.ValueType{wasmtypes.ValueTypeI32},
		}},
		Functions: []module.FunctionDef{{TypeIdx: 0, Body: &ir.Function{}}},
	}
}

func TestInterpreterAdapterTranslateAndCall(t *testing.T) {
	mod := i32i32Module()
	owner := runtime.NewHostInstance("owner")

	adapter := backend.NewInterpreterAdapter(identityInterpret)
	require.NoError(t, adapter.TranslateModule(mod))

	entry, err := adapter.TranslateFunction(mod, 0, mod.Functions[0].Body, owner)
	require.NoError(t, err)

	out, err := entry(context.Background(), runtime.NewExecContext(context.Background()), []wasmtypes.RawSlot{7})
	require.NoError(t, err)
	require.Equal(t, []wasmtypes.RawSlot{7}, out)
}

func TestInterpreterAdapterSymbolAddrLifecycle(t *testing.T) {
	mod := i32i32Module()
	owner := runtime.NewHostInstance("owner")
	adapter := backend.NewInterpreterAdapter(identityInterpret)
	require.NoError(t, adapter.TranslateModule(mod))

	_, ok := adapter.GetSymbolAddr(0)
	require.False(t, ok, "no symbol before translation")

	_, err := adapter.TranslateFunction(mod, 0, mod.Functions[0].Body, owner)
	require.NoError(t, err)

	addr, ok := adapter.GetSymbolAddr(0)
	require.True(t, ok)
	require.NotZero(t, addr)
}

func TestSymbolNameIsStablePerIndex(t *testing.T) {
	require.Equal(t, "func_0", backend.SymbolName(0))
	require.Equal(t, "func_12", backend.SymbolName(12))
	require.NotEqual(t, backend.SymbolName(1), backend.SymbolName(2))
}

// buildIndirectCallFixture returns an instance with one table holding a
// single funcref whose real signature is (i32)->(i32).
func buildIndirectCallFixture(t *testing.T) (*backend.RuntimeInterface, *runtime.Instance, *runtime.Function) {
	t.Helper()
	owner := runtime.NewHostInstance("owner")
	fn := &runtime.Function{
		Type: wasmtypes.FuncType{
			Params:  []wasmtypes.ValueType{wasmtypes.ValueTypeI32},
			Results: []wasmtypes.ValueType{wasmtypes.ValueTypeI32},
		},
		Host: func(_ context.Context, args []wasmtypes.RawSlot) ([]wasmtypes.RawSlot, error) { return args, nil },
	}
	table := runtime.NewTable(wasmtypes.ValueTypeFuncRef, wasmtypes.Limits{Min: 1, Max: 1, HasMax: true})
	require.True(t, table.Set(0, runtime.TableElem{Func: fn}))
	owner.Tables = append(owner.Tables, table)
	return backend.NewRuntimeInterface(owner), owner, fn
}

func TestRuntimeInterfaceIndirectCallMatchingSignature(t *testing.T) {
	ri, _, fn := buildIndirectCallFixture(t)
	got, err := ri.IndirectCall(0, fn.Type, 0)
	require.NoError(t, err)
	require.Same(t, fn, got)
}

func TestRuntimeInterfaceIndirectCallSignatureMismatchTraps(t *testing.T) {
	ri, _, _ := buildIndirectCallFixture(t)
	wantType := wasmtypes.FuncType{
		Params:  []wasmtypes.ValueType{wasmtypes.ValueTypeI64},
		Results: []wasmtypes.ValueType{wasmtypes.ValueTypeI64},
	}
	_, err := ri.IndirectCall(0, wantType, 0)
	require.Error(t, err)

	trap, ok := err.(*wasmtypes.Trap)
	require.True(t, ok)
	require.Equal(t, wasmtypes.TrapCodeIndirectCallTypeMismatch, trap.Code)
}

func TestRuntimeInterfaceIndirectCallOutOfBoundsTraps(t *testing.T) {
	ri, _, _ := buildIndirectCallFixture(t)
	_, err := ri.IndirectCall(0, wasmtypes.FuncType{}, 5)
	require.Error(t, err)
	trap, ok := err.(*wasmtypes.Trap)
	require.True(t, ok)
	require.Equal(t, wasmtypes.TrapCodeOutOfBoundsTableAccess, trap.Code)
}

func TestRuntimeInterfaceIndirectCallNullReferenceTraps(t *testing.T) {
	owner := runtime.NewHostInstance("owner")
	table := runtime.NewTable(wasmtypes.ValueTypeFuncRef, wasmtypes.Limits{Min: 1})
	owner.Tables = append(owner.Tables, table)
	ri := backend.NewRuntimeInterface(owner)

	_, err := ri.IndirectCall(0, wasmtypes.FuncType{}, 0)
	require.Error(t, err)
	trap, ok := err.(*wasmtypes.Trap)
	require.True(t, ok)
	require.Equal(t, wasmtypes.TrapCodeNullReference, trap.Code)
}

func TestRuntimeInterfaceMemoryOps(t *testing.T) {
	owner := runtime.NewHostInstance("owner")
	owner.Memories = append(owner.Memories, runtime.NewMemory(wasmtypes.Limits{Min: 1}))
	ri := backend.NewRuntimeInterface(owner)

	prev, ok := ri.MemoryGrow(0, 2)
	require.True(t, ok)
	require.Equal(t, uint32(1), prev)

	require.True(t, ri.MemoryFill(0, 10, 0xff, 4))
	require.True(t, ri.MemoryCopy(0, 100, 10, 4))
	require.False(t, ri.MemoryFill(0, 1<<31, 1, 1<<31))
}
