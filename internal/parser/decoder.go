// Package parser is the streaming binary decoder and validator: it turns a
// byte stream claiming to be a Wasm module into module.Module metadata plus,
// for each non-imported function, a lowered ir.Function body (spec.md §4.1).
package parser

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/wasmine-go/wasmine/internal/wasmtypes"
	"go.uber.org/zap"
)

var wasmMagic = [4]byte{0x00, 0x61, 0x73, 0x6d} // "\0asm"
const wasmVersion uint32 = 1

// sectionID is the one-byte section identifier as it appears on the wire.
type sectionID byte

const (
	sectionCustom sectionID = iota
	sectionType
	sectionImport
	sectionFunction
	sectionTable
	sectionMemory
	sectionGlobal
	sectionExport
	sectionStart
	sectionElement
	sectionCode
	sectionData
	sectionDataCount
)

// sectionOrder is the canonical stream order from spec.md §4.1: every
// non-custom section may appear at most once, and if present must appear in
// this relative order (note datacount, ID 12, precedes code, ID 10, in
// stream position despite the higher ID value).
var sectionOrder = []sectionID{
	sectionType, sectionImport, sectionFunction, sectionTable, sectionMemory,
	sectionGlobal, sectionExport, sectionStart, sectionElement, sectionDataCount,
	sectionCode, sectionData,
}

func sectionOrderIndex(id sectionID) int {
	for i, s := range sectionOrder {
		if s == id {
			return i
		}
	}
	return -1
}

// byteReader is a bytes.Reader with a running absolute-offset counter used
// to attach byte offsets to decode errors (spec.md §4.1 "structured error
// carrying the byte offset at which the defect was detected").
type byteReader struct {
	r      *bytes.Reader
	origin int64 // offset of r's start within the whole module.
}

func newByteReader(b []byte) *byteReader {
	return &byteReader{r: bytes.NewReader(b)}
}

func (br *byteReader) offset() int64 {
	return br.origin + int64(br.r.Size()) - int64(br.r.Len())
}

func (br *byteReader) ReadByte() (byte, error) { return br.r.ReadByte() }

func (br *byteReader) readBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(br.r, buf); err != nil {
		return nil, wasmtypes.NewDecodeError(br.offset(), "truncated read", err)
	}
	return buf, nil
}

func (br *byteReader) readU32LE() (uint32, error) {
	buf, err := br.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func (br *byteReader) readF32() (float32, error) {
	v, err := br.readU32LE()
	if err != nil {
		return 0, err
	}
	return wasmtypes.RawToF32(wasmtypes.RawSlot(v)), nil
}

func (br *byteReader) readU64LE() (uint64, error) {
	buf, err := br.readBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

func (br *byteReader) readF64() (float64, error) {
	v, err := br.readU64LE()
	if err != nil {
		return 0, err
	}
	return wasmtypes.RawToF64(wasmtypes.RawSlot(v)), nil
}

func (br *byteReader) readVarU32() (uint32, error) {
	v, _, err := wasmtypes.DecodeUint32(br.r)
	if err != nil {
		return 0, wasmtypes.NewDecodeError(br.offset(), "malformed u32 LEB128", err)
	}
	return v, nil
}

func (br *byteReader) readVarI32() (int32, error) {
	v, _, err := wasmtypes.DecodeInt32(br.r)
	if err != nil {
		return 0, wasmtypes.NewDecodeError(br.offset(), "malformed i32 SLEB128", err)
	}
	return v, nil
}

func (br *byteReader) readVarI64() (int64, error) {
	v, _, err := wasmtypes.DecodeInt64(br.r)
	if err != nil {
		return 0, wasmtypes.NewDecodeError(br.offset(), "malformed i64 SLEB128", err)
	}
	return v, nil
}

func (br *byteReader) readByte() (byte, error) {
	b, err := br.r.ReadByte()
	if err != nil {
		return 0, wasmtypes.NewDecodeError(br.offset(), "truncated read", err)
	}
	return b, nil
}

func (br *byteReader) readValueType() (wasmtypes.ValueType, error) {
	b, err := br.readByte()
	if err != nil {
		return 0, err
	}
	vt := wasmtypes.ValueType(b)
	switch vt {
	case wasmtypes.ValueTypeI32, wasmtypes.ValueTypeI64, wasmtypes.ValueTypeF32,
		wasmtypes.ValueTypeF64, wasmtypes.ValueTypeV128,
		wasmtypes.ValueTypeFuncRef, wasmtypes.ValueTypeExternRef:
		return vt, nil
	default:
		return 0, wasmtypes.NewDecodeError(br.offset(), "invalid value type byte", nil)
	}
}

func (br *byteReader) readName() (string, error) {
	n, err := br.readVarU32()
	if err != nil {
		return "", err
	}
	b, err := br.readBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (br *byteReader) readLimits() (wasmtypes.Limits, error) {
	flag, err := br.readByte()
	if err != nil {
		return wasmtypes.Limits{}, err
	}
	min, err := br.readVarU32()
	if err != nil {
		return wasmtypes.Limits{}, err
	}
	l := wasmtypes.Limits{Min: min}
	if flag&1 != 0 {
		max, err := br.readVarU32()
		if err != nil {
			return wasmtypes.Limits{}, err
		}
		l.Max, l.HasMax = max, true
	}
	return l, nil
}

// checkMagicAndVersion validates the 8-byte module header.
func checkMagicAndVersion(br *byteReader) error {
	hdr, err := br.readBytes(8)
	if err != nil {
		return err
	}
	if !bytes.Equal(hdr[:4], wasmMagic[:]) {
		return wasmtypes.NewDecodeError(0, "bad magic, expected \\0asm", nil)
	}
	if binary.LittleEndian.Uint32(hdr[4:]) != wasmVersion {
		return wasmtypes.NewDecodeError(4, "unsupported version, expected 1", nil)
	}
	return nil
}

// logger is the package-wide zap logger, defaulting to a no-op sink;
// SetLogger replaces it.
var logger = zap.NewNop()

// SetLogger installs l as the parser package's logger.
func SetLogger(l *zap.Logger) { logger = l }
