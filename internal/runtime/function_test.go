package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

func TestFunctionIsHost(t *testing.T) {
	hostFn := &Function{Host: func(_ context.Context, args []wasmtypes.RawSlot) ([]wasmtypes.RawSlot, error) {
		return args, nil
	}}
	require.True(t, hostFn.IsHost())

	wasmFn := &Function{}
	require.False(t, wasmFn.IsHost())
}

func TestFuncToSlotRoundTripsAndDistinguishesFunctions(t *testing.T) {
	a := &Function{Type: wasmtypes.FuncType{}}
	b := &Function{Type: wasmtypes.FuncType{}}

	sa := FuncToSlot(a)
	sb := FuncToSlot(b)
	require.NotZero(t, sa)
	require.NotEqual(t, sa, sb)

	require.Same(t, a, slotToFunc(sa))
	require.Same(t, b, slotToFunc(sb))

	require.Zero(t, FuncToSlot(nil))
	require.Nil(t, slotToFunc(0))
}
