package wasmtypes

import (
	"io"

	"github.com/pkg/errors"
)

// ErrOverlongLEB128 is returned when a LEB128/SLEB128 encoding uses more
// continuation bytes than necessary to represent the value in its declared
// width, a malformed-module condition the parser must reject per spec.md §4.1.
var ErrOverlongLEB128 = errors.New("leb128: over-long encoding")

// DecodeUint32 reads an unsigned LEB128-encoded uint32 from r, rejecting
// encodings with more than five bytes or whose trailing bits don't fit
// in 32 bits.
func DecodeUint32(r io.ByteReader) (uint32, uint32, error) {
	v, n, err := decodeUint(r, 32)
	return uint32(v), n, err
}

// DecodeUint64 reads an unsigned LEB128-encoded uint64 from r.
func DecodeUint64(r io.ByteReader) (uint64, uint32, error) {
	return decodeUint(r, 64)
}

func decodeUint(r io.ByteReader, width int) (uint64, uint32, error) {
	var result uint64
	var shift uint
	var read uint32
	maxBytes := (width + 6) / 7
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return 0, read, errors.Wrap(err, "leb128: truncated")
			}
			return 0, read, err
		}
		read++
		if int(read) > maxBytes {
			return 0, read, ErrOverlongLEB128
		}
		low7 := uint64(b & 0x7f)
		if int(read) == maxBytes {
			// The last permitted byte may only carry the remaining bits;
			// anything beyond the declared width is an over-long encoding.
			remaining := width - int(shift)
			if remaining < 7 && low7>>uint(remaining) != 0 {
				return 0, read, ErrOverlongLEB128
			}
		}
		result |= low7 << shift
		if b&0x80 == 0 {
			return result, read, nil
		}
		shift += 7
	}
}

// DecodeInt32 reads a signed SLEB128-encoded int32 from r.
func DecodeInt32(r io.ByteReader) (int32, uint32, error) {
	v, n, err := decodeInt(r, 32)
	return int32(v), n, err
}

// DecodeInt64 reads a signed SLEB128-encoded int64 from r.
func DecodeInt64(r io.ByteReader) (int64, uint32, error) {
	return decodeInt(r, 64)
}

// DecodeInt33AsInt64 reads a 33-bit signed value (used for constant-offset
// blocktype-adjacent encodings in some proposals) sign extended into int64.
func DecodeInt33AsInt64(r io.ByteReader) (int64, uint32, error) {
	return decodeInt(r, 33)
}

func decodeInt(r io.ByteReader, width int) (int64, uint32, error) {
	var result int64
	var shift uint
	var read uint32
	maxBytes := uint32((width + 6) / 7)
	var b byte
	for {
		var err error
		b, err = r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return 0, read, errors.Wrap(err, "leb128: truncated")
			}
			return 0, read, err
		}
		read++
		if read > maxBytes {
			return 0, read, ErrOverlongLEB128
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < uint(width) && b&0x40 != 0 {
		result |= -1 << shift
	}
	return result, read, nil
}

// EncodeUint32 returns the unsigned LEB128 encoding of v.
func EncodeUint32(v uint32) []byte {
	return EncodeUint64(uint64(v))
}

// EncodeUint64 returns the unsigned LEB128 encoding of v.
func EncodeUint64(v uint64) []byte {
	out := make([]byte, 0, 10)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

// EncodeInt32 returns the SLEB128 encoding of v.
func EncodeInt32(v int32) []byte {
	return EncodeInt64(int64(v))
}

// EncodeInt64 returns the SLEB128 encoding of v.
func EncodeInt64(v int64) []byte {
	out := make([]byte, 0, 10)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			out = append(out, b)
			return out
		}
		out = append(out, b|0x80)
	}
}
