// Package fuzz derives adversarial variants of schema-valid packets. One
// mutated field per packet, every packet shaped exactly as its schema
// declares, so a rejection can only be blamed on the hostile value itself.
package fuzz

import (
	"math"
	"strings"

	"github.com/Hazy142/Hytale-Lab/internal/wire"
)

// Kind is a category of adversarial value substitution.
type Kind string

const (
	KindOverflow  Kind = "overflow"
	KindUnderflow Kind = "underflow"
	KindNull      Kind = "null"
	KindEdgeCase  Kind = "edge_case"
)

// AllKinds lists every mutation kind in canonical order.
var AllKinds = []Kind{KindOverflow, KindUnderflow, KindNull, KindEdgeCase}

// ParseKind validates a mutation kind string.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindOverflow, KindUnderflow, KindNull, KindEdgeCase:
		return Kind(s), true
	}
	return "", false
}

const longStringLength = 10000

// Mutate returns the adversarial value for a (type, kind) pair. A pair with
// no defined mutation returns ok=false; that is a "not applicable" outcome,
// not an error, and the sweep simply skips it.
//
// Numeric overflow values carry the untruncated number; the codec wraps them
// to field width on encode, which is the point: the wire stays well-formed
// while the recorded intent documents the overflow.
func Mutate(t wire.FieldType, kind Kind) (wire.Value, bool) {
	switch kind {
	case KindOverflow:
		switch t {
		case wire.TypeU8:
			return wire.Uint(t, 256), true
		case wire.TypeU16:
			return wire.Uint(t, 65536), true
		case wire.TypeU32:
			return wire.Uint(t, 1<<32), true
		case wire.TypeU64:
			// 2^64 is unrepresentable; wrap-to-zero mirrors what the
			// narrower widths do on encode.
			return wire.Uint(t, 0), true
		case wire.TypeF32, wire.TypeF64:
			return wire.Float(t, math.Inf(1)), true
		case wire.TypeVarInt:
			return wire.VarIntValue(0xFFFFFFFF), true
		}
	case KindUnderflow:
		switch t {
		case wire.TypeU8:
			return wire.Uint(t, 0xFF), true // -1 in two's complement
		case wire.TypeU16:
			return wire.Uint(t, 0xFFFF), true
		case wire.TypeU32:
			return wire.Uint(t, 0xFFFFFFFF), true
		case wire.TypeU64:
			return wire.Uint(t, math.MaxUint64), true
		case wire.TypeF32, wire.TypeF64:
			return wire.Float(t, math.Inf(-1)), true
		}
	case KindNull:
		switch t {
		case wire.TypeIdentifier16:
			return wire.Identifier([16]byte{}), true
		case wire.TypeString:
			return wire.Str(""), true
		case wire.TypeVector3f:
			return wire.Vec3f(0, 0, 0), true
		case wire.TypeVector3i:
			return wire.Vec3i(0, 0, 0), true
		}
	case KindEdgeCase:
		switch t {
		case wire.TypeF32, wire.TypeF64:
			return wire.Float(t, math.NaN()), true
		case wire.TypeU32:
			return wire.Uint(t, 0xFFFFFFFF), true
		case wire.TypeString:
			return wire.Str(strings.Repeat("A", longStringLength)), true
		case wire.TypeVector3f:
			return wire.Value{Type: wire.TypeVector3f, Vf: [3]float32{float32(math.Inf(1)), float32(math.NaN()), 0}}, true
		}
	}
	return wire.Value{}, false
}
