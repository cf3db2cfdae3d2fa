package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmine-go/wasmine/internal/module"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

func noopStarter(context.Context, *ExecContext, *Function, []wasmtypes.RawSlot) ([]wasmtypes.RawSlot, error) {
	return nil, nil
}

// An active data segment whose range exceeds its target memory must fail
// instantiation atomically: the memory is never partially written.
func TestInstantiateActiveDataOutOfRangeLeavesMemoryUntouched(t *testing.T) {
	mod := &module.Module{
		Memories: []module.MemoryType{{Limits: wasmtypes.Limits{Min: 1}}},
		Data: []module.DataSegment{{
			Mode:   wasmtypes.SegmentActive,
			Memory: 0,
			Offset: module.ConstExpr{Kind: module.ConstExprI32Const, I32Value: 65530},
			Bytes:  make([]byte, 16),
		}},
	}

	c := NewCluster()
	_, err := c.Instantiate(context.Background(), "m", mod, noopStarter)
	require.Error(t, err)

	// Rebuild the same memory the failed instantiation would have produced,
	// to confirm applyActiveSegments itself never partially mutates it.
	inst := newInstance("m2")
	inst.Module = mod
	c.buildTablesAndMemories(inst, mod)
	require.NoError(t, c.buildSegments(inst, mod))
	err = c.applyActiveSegments(inst, mod)
	require.Error(t, err)

	b, ok := inst.Memories[0].ReadByte(65530)
	require.True(t, ok)
	require.Equal(t, byte(0), b)
}

func TestInstantiateActiveDataInRangeSucceeds(t *testing.T) {
	mod := &module.Module{
		Memories: []module.MemoryType{{Limits: wasmtypes.Limits{Min: 1}}},
		Data: []module.DataSegment{{
			Mode:   wasmtypes.SegmentActive,
			Memory: 0,
			Offset: module.ConstExpr{Kind: module.ConstExprI32Const, I32Value: 100},
			Bytes:  []byte{1, 2, 3, 4},
		}},
	}

	c := NewCluster()
	inst, err := c.Instantiate(context.Background(), "ok", mod, noopStarter)
	require.NoError(t, err)

	got, ok := inst.Memories[0].Read(100, 4)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3, 4}, got)
}
