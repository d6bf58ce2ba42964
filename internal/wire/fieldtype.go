package wire

import "fmt"

// FieldType identifies the wire encoding and value domain of a packet field.
type FieldType uint8

const (
	TypeU8 FieldType = iota
	TypeU16
	TypeU32
	TypeU64
	TypeF32
	TypeF64
	TypeIdentifier16
	TypeVector3f
	TypeVector3i
	TypeString
	TypeVarInt
)

var fieldTypeNames = map[FieldType]string{
	TypeU8:           "u8",
	TypeU16:          "u16",
	TypeU32:          "u32",
	TypeU64:          "u64",
	TypeF32:          "f32",
	TypeF64:          "f64",
	TypeIdentifier16: "identifier16",
	TypeVector3f:     "vector3f",
	TypeVector3i:     "vector3i",
	TypeString:       "string",
	TypeVarInt:       "varint",
}

func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("fieldtype(%d)", uint8(t))
}

// ParseFieldType maps a schema type tag to a FieldType. Legacy tags from the
// captured packet definitions ("UUID", "UTF-8") are accepted as aliases.
func ParseFieldType(tag string) (FieldType, error) {
	switch tag {
	case "u8":
		return TypeU8, nil
	case "u16":
		return TypeU16, nil
	case "u32":
		return TypeU32, nil
	case "u64":
		return TypeU64, nil
	case "f32":
		return TypeF32, nil
	case "f64":
		return TypeF64, nil
	case "identifier16", "uuid", "UUID":
		return TypeIdentifier16, nil
	case "vector3f", "Vector3f":
		return TypeVector3f, nil
	case "vector3i", "Vector3i":
		return TypeVector3i, nil
	case "string", "utf8", "UTF-8":
		return TypeString, nil
	case "varint":
		return TypeVarInt, nil
	}
	return 0, fmt.Errorf("unknown field type %q", tag)
}

// FixedWidth returns the wire width of t in bytes. Variable-width types
// (string, varint) return ok=false.
func (t FieldType) FixedWidth() (int, bool) {
	switch t {
	case TypeU8:
		return 1, true
	case TypeU16:
		return 2, true
	case TypeU32:
		return 4, true
	case TypeU64:
		return 8, true
	case TypeF32:
		return 4, true
	case TypeF64:
		return 8, true
	case TypeIdentifier16:
		return 16, true
	case TypeVector3f, TypeVector3i:
		return 12, true
	}
	return 0, false
}
