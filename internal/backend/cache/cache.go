// Package cache implements the `.cwasm` cached/pre-compiled module format
// named in spec.md §6 "External Interfaces" and fleshed out in
// SPEC_FULL.md §4.8: a host-specific container recording a module's content
// hash, its backend-adapter symbol table, and the bytes needed to rebuild a
// running module from it without re-validating from scratch. An in-memory
// LRU (grounded on wazero's internal/compilationcache.Cache, reimplemented
// here over github.com/hashicorp/golang-lru/v2 instead of a bare map) sits
// in front of a directory of on-disk containers, one file per content hash,
// the way wazero's own internal/compilationcache.fileCache lays out its
// cache directory.
package cache

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// Key is the content hash a Container is addressed by: the sha256 of the
// original Wasm binary, matching module.Module.ID() (SPEC_FULL.md §3.1).
type Key = [32]byte

// Container is the decoded form of a `.cwasm` file. Its Bytes field carries
// whatever the backend adapter that produced it needs to reconstruct a
// runnable module without re-parsing from an untrusted `.wasm` source:
// for backend.InterpreterAdapter (the only Adapter this repo ships, since a
// real native backend's object format is out of this spec's scope) that is
// simply the original validated Wasm bytes, since interpreting carries no
// separate native object code to persist. A real native backend would
// extend Bytes to carry its own machine code per function instead, without
// changing this envelope or the Symbols table's meaning.
type Container struct {
	ModuleHash Key
	// Symbols maps function index to its backend symbol name (always
	// "func_<idx>", see backend.SymbolName) or, for exported functions,
	// their declared export name, per spec.md §6's symbol table
	// description ("func_<idx>"; exported functions also carry their
	// original name).
	Symbols map[uint32]string
	Bytes   []byte
}

const magic = "CWASM1\x00\x00"

// Encode writes c to w in the container's on-disk framing: an 8-byte magic,
// the 32-byte module hash, a uvarint-length-prefixed symbol table, then the
// Bytes field, also prefixed by its uvarint length.
func Encode(w io.Writer, c *Container) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	if _, err := w.Write(c.ModuleHash[:]); err != nil {
		return err
	}
	if err := writeUvarint(w, uint64(len(c.Symbols))); err != nil {
		return err
	}
	for idx, name := range c.Symbols {
		if err := writeUvarint(w, uint64(idx)); err != nil {
			return err
		}
		if err := writeUvarint(w, uint64(len(name))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, name); err != nil {
			return err
		}
	}
	if err := writeUvarint(w, uint64(len(c.Bytes))); err != nil {
		return err
	}
	_, err := w.Write(c.Bytes)
	return err
}

// Decode reads a Container previously written by Encode.
func Decode(r io.Reader) (*Container, error) {
	var gotMagic [8]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return nil, errors.Wrap(err, "cwasm: reading magic")
	}
	if string(gotMagic[:]) != magic {
		return nil, errors.New("cwasm: bad magic, not a .cwasm container")
	}
	c := &Container{Symbols: make(map[uint32]string)}
	if _, err := io.ReadFull(r, c.ModuleHash[:]); err != nil {
		return nil, errors.Wrap(err, "cwasm: reading module hash")
	}
	br := &byteReader{r: r}
	n, err := br.readUvarint()
	if err != nil {
		return nil, errors.Wrap(err, "cwasm: reading symbol count")
	}
	for i := uint64(0); i < n; i++ {
		idx, err := br.readUvarint()
		if err != nil {
			return nil, errors.Wrap(err, "cwasm: reading symbol index")
		}
		nameLen, err := br.readUvarint()
		if err != nil {
			return nil, errors.Wrap(err, "cwasm: reading symbol name length")
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, errors.Wrap(err, "cwasm: reading symbol name")
		}
		c.Symbols[uint32(idx)] = string(name)
	}
	bodyLen, err := br.readUvarint()
	if err != nil {
		return nil, errors.Wrap(err, "cwasm: reading body length")
	}
	c.Bytes = make([]byte, bodyLen)
	if _, err := io.ReadFull(r, c.Bytes); err != nil {
		return nil, errors.Wrap(err, "cwasm: reading body")
	}
	return c, nil
}

func writeUvarint(w io.Writer, v uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	_, err := w.Write(buf[:n])
	return err
}

// byteReader adapts io.Reader to binary.ReadUvarint's io.ByteReader
// requirement one byte at a time; containers' symbol tables are small
// enough that this is not a hot path.
type byteReader struct{ r io.Reader }

func (b *byteReader) ReadByte() (byte, error) {
	var buf [1]byte
	_, err := io.ReadFull(b.r, buf[:])
	return buf[0], err
}

func (b *byteReader) readUvarint() (uint64, error) { return binary.ReadUvarint(b) }

// Cache is an LRU of recently used Containers in front of an on-disk
// directory of `.cwasm` blobs, one file per content hash (spec.md §6,
// SPEC_FULL.md §2.2's golang-lru/v2 wiring).
type Cache struct {
	dir string
	lru *lru.Cache[Key, *Container]
}

// New returns a Cache bounded to capacity resident Containers, backed by
// dir on disk (created if it does not already exist).
func New(dir string, capacity int) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "cache: creating cache dir %s", dir)
	}
	l, err := lru.New[Key, *Container](capacity)
	if err != nil {
		return nil, errors.Wrap(err, "cache: constructing LRU")
	}
	return &Cache{dir: dir, lru: l}, nil
}

func (c *Cache) path(key Key) string {
	return filepath.Join(c.dir, hex.EncodeToString(key[:])+".cwasm")
}

// Get returns the Container for key, checking the in-memory LRU before
// falling back to disk. ok is false (with a nil error) on a clean miss.
func (c *Cache) Get(key Key) (*Container, bool, error) {
	if cont, ok := c.lru.Get(key); ok {
		return cont, true, nil
	}
	f, err := os.Open(c.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, errors.Wrap(err, "cache: opening cached container")
	}
	defer f.Close()
	cont, err := Decode(f)
	if err != nil {
		return nil, false, err
	}
	c.lru.Add(key, cont)
	return cont, true, nil
}

// Put stores cont under key, in the LRU and on disk.
func (c *Cache) Put(key Key, cont *Container) error {
	c.lru.Add(key, cont)
	f, err := os.Create(c.path(key))
	if err != nil {
		return errors.Wrap(err, "cache: creating cached container file")
	}
	defer f.Close()
	return Encode(f, cont)
}

// Delete purges key from the LRU and disk, used when a stale container must
// no longer be served (e.g. a backend version mismatch).
func (c *Cache) Delete(key Key) error {
	c.lru.Remove(key)
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// LoadFile reads a standalone `.cwasm` file, outside of any Cache's managed
// directory: the external interface spec.md §6 names, where the runtime is
// handed a bare path rather than a content key.
func LoadFile(path string) (*Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cache: reading %s", path)
	}
	return Decode(bytes.NewReader(data))
}

// SaveFile writes cont as a standalone `.cwasm` file at path.
func SaveFile(path string, cont *Container) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cache: creating %s", path)
	}
	defer f.Close()
	return Encode(f, cont)
}
