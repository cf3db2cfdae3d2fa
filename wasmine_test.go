package wasmine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmine-go/wasmine/api"
)

func TestHostModuleBuilderRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := NewRuntime(ctx)

	mod, err := r.NewHostModuleBuilder("env").
		NewFunction("double", []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32},
			func(ctx context.Context, args []uint64) ([]uint64, error) {
				return []uint64{api.EncodeI32(int32(args[0]) * 2)}, nil
			}).
		ExportMemory("memory", 1).
		ExportGlobal("counter", api.ValueTypeI32, true, api.EncodeI32(41)).
		Instantiate(ctx)
	require.NoError(t, err)
	require.Equal(t, "env", mod.Name())

	fn := mod.ExportedFunction("double")
	require.NotNil(t, fn)
	res, err := fn.Call(ctx, api.EncodeI32(21))
	require.NoError(t, err)
	require.Equal(t, int32(42), int32(uint32(res[0])))

	mem := mod.ExportedMemory("memory")
	require.NotNil(t, mem)
	require.Equal(t, uint32(65536), mem.Size())
	ok := mem.WriteByte(0, 7)
	require.True(t, ok)
	b, ok := mem.ReadByte(0)
	require.True(t, ok)
	require.Equal(t, byte(7), b)

	g := mod.ExportedGlobal("counter")
	require.NotNil(t, g)
	require.Equal(t, int32(41), int32(uint32(g.Get())))
	mutable, ok := g.(api.MutableGlobal)
	require.True(t, ok)
	mutable.Set(api.EncodeI32(100))
	require.Equal(t, int32(100), int32(uint32(g.Get())))
}

func TestRuntimeCompileInvalidBinary(t *testing.T) {
	ctx := context.Background()
	_, err := Compile(ctx, []byte("not wasm"))
	require.Error(t, err)
}
