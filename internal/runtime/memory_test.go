package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

func TestMemoryGrowRespectsMaxAndHardCeiling(t *testing.T) {
	m := NewMemory(wasmtypes.Limits{Min: 1, Max: 2, HasMax: true})

	prev, ok := m.Grow(1)
	require.True(t, ok)
	require.Equal(t, uint32(1), prev)
	require.Equal(t, uint32(2), m.Pages())

	_, ok = m.Grow(1)
	require.False(t, ok, "growing past declared max must fail")
}

func TestMemoryWriteLeavesDataUntouchedOnOutOfBounds(t *testing.T) {
	m := NewMemory(wasmtypes.Limits{Min: 1})
	before := append([]byte(nil), m.Data...)

	ok := m.Write(wasmtypes.WasmPageSize-4, []byte{1, 2, 3, 4, 5, 6})
	require.False(t, ok)
	require.Equal(t, before, m.Data, "an out-of-range write must not partially mutate memory")
}

func TestMemoryFillAndCopyWithinBounds(t *testing.T) {
	m := NewMemory(wasmtypes.Limits{Min: 1})
	require.True(t, m.Fill(0, 0xab, 8))
	require.True(t, m.CopyWithin(100, 0, 8))

	got, ok := m.Read(100, 8)
	require.True(t, ok)
	for _, b := range got {
		require.Equal(t, byte(0xab), b)
	}

	require.False(t, m.Fill(wasmtypes.WasmPageSize-4, 1, 8))
}

func TestMemoryTypedAccessorsRoundTrip(t *testing.T) {
	m := NewMemory(wasmtypes.Limits{Min: 1})

	require.True(t, m.WriteUint32(0, 0xdeadbeef))
	v, ok := m.ReadUint32(0)
	require.True(t, ok)
	require.Equal(t, uint32(0xdeadbeef), v)

	require.True(t, m.WriteFloat64(8, 3.5))
	f, ok := m.ReadFloat64(8)
	require.True(t, ok)
	require.Equal(t, 3.5, f)

	_, ok = m.ReadUint64(wasmtypes.WasmPageSize - 4)
	require.False(t, ok)
}
