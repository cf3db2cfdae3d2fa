package wasmtypes

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeUint32(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 16256, 624485, math.MaxUint32} {
		enc := EncodeUint32(v)
		got, n, err := DecodeUint32(bytes.NewReader(enc))
		require.NoError(t, err)
		require.Equal(t, v, got)
		require.Equal(t, uint32(len(enc)), n)
	}
}

func TestEncodeDecodeInt64(t *testing.T) {
	for _, v := range []int64{0, 1, -1, -4, 624485, -624485, math.MaxInt64, math.MinInt64} {
		enc := EncodeInt64(v)
		got, _, err := DecodeInt64(bytes.NewReader(enc))
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestDecodeUint32RejectsOverlong(t *testing.T) {
	// Five continuation-marked bytes is already the max width for uint32;
	// a sixth is over-long.
	overlong := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}
	_, _, err := DecodeUint32(bytes.NewReader(overlong))
	require.ErrorIs(t, err, ErrOverlongLEB128)
}

func TestDecodeUint32RejectsTruncated(t *testing.T) {
	_, _, err := DecodeUint32(bytes.NewReader([]byte{0x80}))
	require.Error(t, err)
}
