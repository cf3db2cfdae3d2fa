package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

func TestExecContextEnterLeaveBalances(t *testing.T) {
	ec := NewExecContext(context.Background())
	ec.Enter()
	ec.Enter()
	ec.Leave()
	ec.Leave()
	require.Equal(t, 0, *ec.depth)
}

func TestExecContextEnterPanicsPastMaxCallDepth(t *testing.T) {
	ec := NewExecContext(context.Background())

	defer func() {
		r := recover()
		require.NotNil(t, r)
		trap, ok := r.(*wasmtypes.Trap)
		require.True(t, ok)
		require.Equal(t, wasmtypes.TrapCodeCallStackExhausted, trap.Code)
	}()

	for i := 0; i < MaxCallDepth+1; i++ {
		ec.Enter()
	}
}

func TestRecoverTrapCapturesTrapButRepanicsOthers(t *testing.T) {
	var err error
	func() {
		defer RecoverTrap(&err)
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeUnreachable, "f"))
	}()
	require.Error(t, err)
	_, ok := err.(*wasmtypes.Trap)
	require.True(t, ok)

	require.Panics(t, func() {
		defer RecoverTrap(&err)
		panic("not a trap")
	})
}
