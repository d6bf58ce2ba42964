// Package wire implements the byte-level encoding of the Hytale game
// protocol: LEB128-style varints, big-endian scalars and vectors, and the
// tagged value type shared by the schema registry and the packet codec.
package wire

import (
	"errors"
	"fmt"
)

// ErrTruncatedInput indicates the buffer ended before a field or varint was
// fully read.
var ErrTruncatedInput = errors.New("truncated input")

// MaxVarIntBytes is the protocol cap on varint length, enough for any 32-bit
// value. DecodeVarInt does not enforce it; use DecodeVarIntBounded when
// strict bounding is wanted.
const MaxVarIntBytes = 5

// DecodeVarInt reads a varint from data starting at offset and returns the
// value and the offset of the first byte after it. Each byte contributes its
// low 7 bits, least significant group first; a clear high bit terminates.
// The decoder places no cap on length, matching observed server behavior.
func DecodeVarInt(data []byte, offset int) (uint64, int, error) {
	var result uint64
	shift := 0
	for i := offset; i < len(data); i++ {
		b := data[i]
		result |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, offset, fmt.Errorf("varint at offset %d: %w", offset, ErrTruncatedInput)
}

// DecodeVarIntBounded is DecodeVarInt with an explicit cap on the number of
// bytes consumed. It fails on encodings longer than maxBytes even when they
// terminate correctly.
func DecodeVarIntBounded(data []byte, offset, maxBytes int) (uint64, int, error) {
	value, next, err := DecodeVarInt(data, offset)
	if err != nil {
		return 0, offset, err
	}
	if next-offset > maxBytes {
		return 0, offset, fmt.Errorf("varint at offset %d: %d bytes exceeds cap of %d", offset, next-offset, maxBytes)
	}
	return value, next, nil
}

// AppendVarInt appends the canonical (shortest) varint encoding of v to dst.
func AppendVarInt(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// EncodeVarInt returns the canonical varint encoding of v.
func EncodeVarInt(v uint64) []byte {
	return AppendVarInt(nil, v)
}
