package wire

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

// Value is a tagged union holding one decoded or to-be-encoded field value.
// Only the member matching Type is meaningful. Keeping values typed at this
// boundary prevents the silent type confusion that free-form maps allow.
type Value struct {
	Type FieldType
	U    uint64     // u8/u16/u32/u64/varint
	F    float64    // f32/f64
	Vf   [3]float32 // vector3f
	Vi   [3]int32   // vector3i
	ID   [16]byte   // identifier16
	S    string     // string
}

// Uint builds an unsigned integer value of the given type. Values wider than
// the field width wrap on encode; U keeps the untruncated value for records.
func Uint(t FieldType, v uint64) Value { return Value{Type: t, U: v} }

// Float builds an f32 or f64 value.
func Float(t FieldType, f float64) Value { return Value{Type: t, F: f} }

// Vec3f builds a vector3f value.
func Vec3f(x, y, z float32) Value { return Value{Type: TypeVector3f, Vf: [3]float32{x, y, z}} }

// Vec3i builds a vector3i value.
func Vec3i(x, y, z int32) Value { return Value{Type: TypeVector3i, Vi: [3]int32{x, y, z}} }

// Identifier builds an identifier16 value from 16 raw bytes.
func Identifier(id [16]byte) Value { return Value{Type: TypeIdentifier16, ID: id} }

// IdentifierHex builds an identifier16 value from a 32-character hex string.
func IdentifierHex(s string) (Value, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Value{}, fmt.Errorf("identifier hex: %w", err)
	}
	if len(raw) != 16 {
		return Value{}, fmt.Errorf("identifier must be 16 bytes, got %d", len(raw))
	}
	var id [16]byte
	copy(id[:], raw)
	return Identifier(id), nil
}

// Str builds a string value.
func Str(s string) Value { return Value{Type: TypeString, S: s} }

// VarIntValue builds a varint-typed value.
func VarIntValue(v uint64) Value { return Value{Type: TypeVarInt, U: v} }

// Zero returns the zero value for a field type, used as the encode default
// for absent or shape-incompatible fields.
func Zero(t FieldType) Value { return Value{Type: t} }

// String renders the value for display. Identifiers render as hex only and
// are never interpreted numerically.
func (v Value) String() string {
	switch v.Type {
	case TypeU8, TypeU16, TypeU32, TypeU64, TypeVarInt:
		return fmt.Sprintf("%d", v.U)
	case TypeF32, TypeF64:
		return fmt.Sprintf("%g", v.F)
	case TypeVector3f:
		return fmt.Sprintf("(%g, %g, %g)", v.Vf[0], v.Vf[1], v.Vf[2])
	case TypeVector3i:
		return fmt.Sprintf("(%d, %d, %d)", v.Vi[0], v.Vi[1], v.Vi[2])
	case TypeIdentifier16:
		return hex.EncodeToString(v.ID[:])
	case TypeString:
		return fmt.Sprintf("%q", v.S)
	}
	return "?"
}

// Equal reports whether two values have identical type and contents. Float
// comparison is bitwise so NaN values compare equal to themselves.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeF32, TypeF64:
		return math.Float64bits(v.F) == math.Float64bits(o.F)
	case TypeVector3f:
		for i := range v.Vf {
			if math.Float32bits(v.Vf[i]) != math.Float32bits(o.Vf[i]) {
				return false
			}
		}
		return true
	}
	return v == o
}

// AppendValue appends the big-endian wire encoding of v to dst. Oversized
// unsigned values truncate to the field width; the packet keeps its declared
// shape regardless of the value supplied.
func AppendValue(dst []byte, v Value) []byte {
	switch v.Type {
	case TypeU8:
		return append(dst, byte(v.U))
	case TypeU16:
		return binary.BigEndian.AppendUint16(dst, uint16(v.U))
	case TypeU32:
		return binary.BigEndian.AppendUint32(dst, uint32(v.U))
	case TypeU64:
		return binary.BigEndian.AppendUint64(dst, v.U)
	case TypeF32:
		return binary.BigEndian.AppendUint32(dst, math.Float32bits(float32(v.F)))
	case TypeF64:
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(v.F))
	case TypeVector3f:
		for _, c := range v.Vf {
			dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(c))
		}
		return dst
	case TypeVector3i:
		for _, c := range v.Vi {
			dst = binary.BigEndian.AppendUint32(dst, uint32(c))
		}
		return dst
	case TypeIdentifier16:
		return append(dst, v.ID[:]...)
	case TypeString:
		dst = AppendVarInt(dst, uint64(len(v.S)))
		return append(dst, v.S...)
	case TypeVarInt:
		return AppendVarInt(dst, v.U)
	}
	return dst
}

// DecodeValue reads one value of type t from data at offset and returns it
// with the offset of the next field.
func DecodeValue(data []byte, offset int, t FieldType) (Value, int, error) {
	if width, ok := t.FixedWidth(); ok {
		if len(data)-offset < width {
			return Value{}, offset, fmt.Errorf("%s at offset %d: need %d bytes, have %d: %w",
				t, offset, width, len(data)-offset, ErrTruncatedInput)
		}
	}

	switch t {
	case TypeU8:
		return Uint(t, uint64(data[offset])), offset + 1, nil
	case TypeU16:
		return Uint(t, uint64(binary.BigEndian.Uint16(data[offset:]))), offset + 2, nil
	case TypeU32:
		return Uint(t, uint64(binary.BigEndian.Uint32(data[offset:]))), offset + 4, nil
	case TypeU64:
		return Uint(t, binary.BigEndian.Uint64(data[offset:])), offset + 8, nil
	case TypeF32:
		f := math.Float32frombits(binary.BigEndian.Uint32(data[offset:]))
		return Float(t, float64(f)), offset + 4, nil
	case TypeF64:
		f := math.Float64frombits(binary.BigEndian.Uint64(data[offset:]))
		return Float(t, f), offset + 8, nil
	case TypeVector3f:
		var vf [3]float32
		for i := range vf {
			vf[i] = math.Float32frombits(binary.BigEndian.Uint32(data[offset+4*i:]))
		}
		return Value{Type: t, Vf: vf}, offset + 12, nil
	case TypeVector3i:
		var vi [3]int32
		for i := range vi {
			vi[i] = int32(binary.BigEndian.Uint32(data[offset+4*i:]))
		}
		return Value{Type: t, Vi: vi}, offset + 12, nil
	case TypeIdentifier16:
		var id [16]byte
		copy(id[:], data[offset:offset+16])
		return Identifier(id), offset + 16, nil
	case TypeString:
		length, next, err := DecodeVarInt(data, offset)
		if err != nil {
			return Value{}, offset, err
		}
		if uint64(len(data)-next) < length {
			return Value{}, offset, fmt.Errorf("string at offset %d: need %d bytes, have %d: %w",
				offset, length, len(data)-next, ErrTruncatedInput)
		}
		end := next + int(length)
		return Str(string(data[next:end])), end, nil
	case TypeVarInt:
		v, next, err := DecodeVarInt(data, offset)
		if err != nil {
			return Value{}, offset, err
		}
		return VarIntValue(v), next, nil
	}
	return Value{}, offset, fmt.Errorf("decode: unknown field type %d", t)
}
