package cache_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmine-go/wasmine/internal/backend/cache"
)

func sampleContainer() *cache.Container {
	return &cache.Container{
		ModuleHash: cache.Key{1, 2, 3, 4},
		Symbols:    map[uint32]string{0: "func_0", 1: "_start"},
		Bytes:      []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cont := sampleContainer()
	var buf bytes.Buffer
	require.NoError(t, cache.Encode(&buf, cont))

	got, err := cache.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, cont.ModuleHash, got.ModuleHash)
	require.Equal(t, cont.Symbols, got.Symbols)
	require.Equal(t, cont.Bytes, got.Bytes)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("NOTREAL\x00")
	buf.Write(make([]byte, 64))

	_, err := cache.Decode(&buf)
	require.Error(t, err)
}

func TestCacheGetMissReturnsFalseNoError(t *testing.T) {
	c, err := cache.New(t.TempDir(), 8)
	require.NoError(t, err)

	_, ok, err := c.Get(cache.Key{9, 9, 9})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCachePutThenGetHitsLRU(t *testing.T) {
	c, err := cache.New(t.TempDir(), 8)
	require.NoError(t, err)
	cont := sampleContainer()

	require.NoError(t, c.Put(cont.ModuleHash, cont))
	got, ok, err := c.Get(cont.ModuleHash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, cont.Bytes, got.Bytes)
}

func TestCachePutPersistsToDiskBehindLRUEviction(t *testing.T) {
	dir := t.TempDir()
	c, err := cache.New(dir, 1) // capacity 1 forces eviction on the second Put.
	require.NoError(t, err)

	first := sampleContainer()
	first.ModuleHash = cache.Key{1}
	second := sampleContainer()
	second.ModuleHash = cache.Key{2}

	require.NoError(t, c.Put(first.ModuleHash, first))
	require.NoError(t, c.Put(second.ModuleHash, second))

	// first was evicted from the LRU but must still be recoverable from disk.
	got, ok, err := c.Get(first.ModuleHash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, first.Bytes, got.Bytes)
}

func TestCacheDelete(t *testing.T) {
	c, err := cache.New(t.TempDir(), 8)
	require.NoError(t, err)
	cont := sampleContainer()
	require.NoError(t, c.Put(cont.ModuleHash, cont))

	require.NoError(t, c.Delete(cont.ModuleHash))

	_, ok, err := c.Get(cont.ModuleHash)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Delete(cont.ModuleHash)) // deleting twice is not an error
}

func TestLoadSaveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "module.cwasm")
	cont := sampleContainer()

	require.NoError(t, cache.SaveFile(path, cont))
	got, err := cache.LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, cont.ModuleHash, got.ModuleHash)
	require.Equal(t, cont.Symbols, got.Symbols)
	require.Equal(t, cont.Bytes, got.Bytes)
}
