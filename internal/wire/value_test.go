package wire

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestScalarRoundTrip(t *testing.T) {
	values := []Value{
		Uint(TypeU8, 0x7F),
		Uint(TypeU16, 0xBEEF),
		Uint(TypeU32, 0xDEADBEEF),
		Uint(TypeU64, 0x0123456789ABCDEF),
		Float(TypeF32, 180.0),
		Float(TypeF64, -2.5),
		Vec3f(100.0, 64.0, 100.0),
		Vec3i(-1, 0, 4096),
		Str("Hello World"),
		Str(""),
		VarIntValue(1000),
	}

	for _, want := range values {
		raw := AppendValue(nil, want)
		got, next, err := DecodeValue(raw, 0, want.Type)
		if err != nil {
			t.Fatalf("decode %s: %v", want.Type, err)
		}
		if next != len(raw) {
			t.Errorf("%s: consumed %d of %d bytes", want.Type, next, len(raw))
		}
		if !got.Equal(want) {
			t.Errorf("%s: got %s, want %s", want.Type, got, want)
		}
	}
}

func TestIdentifierHexDisplay(t *testing.T) {
	v, err := IdentifierHex("a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6")
	if err != nil {
		t.Fatalf("IdentifierHex: %v", err)
	}
	if got := v.String(); got != "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6" {
		t.Errorf("identifier display: got %s", got)
	}

	raw := AppendValue(nil, v)
	if len(raw) != 16 {
		t.Errorf("identifier width: got %d, want 16", len(raw))
	}

	if _, err := IdentifierHex("a1b2"); err == nil {
		t.Error("short identifier hex: want error, got nil")
	}
}

func TestFloatBitExact(t *testing.T) {
	// 180.0 is exactly representable; the f32 wire form must round trip
	// bit for bit.
	raw := AppendValue(nil, Float(TypeF32, 180.0))
	want := []byte{0x43, 0x34, 0x00, 0x00}
	if !bytes.Equal(raw, want) {
		t.Fatalf("f32 encode 180.0: got %x, want %x", raw, want)
	}

	v, _, err := DecodeValue(raw, 0, TypeF32)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.F != 180.0 {
		t.Errorf("f32 decode: got %g, want 180.0", v.F)
	}
}

func TestNaNRoundTrip(t *testing.T) {
	raw := AppendValue(nil, Float(TypeF32, math.NaN()))
	v, _, err := DecodeValue(raw, 0, TypeF32)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !math.IsNaN(v.F) {
		t.Errorf("NaN round trip: got %g", v.F)
	}
}

func TestStringEncoding(t *testing.T) {
	raw := AppendValue(nil, Str("Hello World"))
	want := append([]byte{0x0B}, []byte("Hello World")...)
	if !bytes.Equal(raw, want) {
		t.Errorf("string encode: got %x, want %x", raw, want)
	}

	// Empty strings still carry a length prefix.
	raw = AppendValue(nil, Str(""))
	if !bytes.Equal(raw, []byte{0x00}) {
		t.Errorf("empty string encode: got %x, want [00]", raw)
	}
}

func TestStringTruncated(t *testing.T) {
	// Length prefix of 11 with only 4 payload bytes behind it.
	raw := append([]byte{0x0B}, []byte("Hell")...)
	_, _, err := DecodeValue(raw, 0, TypeString)
	if !errors.Is(err, ErrTruncatedInput) {
		t.Errorf("truncated string: got %v, want ErrTruncatedInput", err)
	}
}

func TestFixedTruncated(t *testing.T) {
	for _, ft := range []FieldType{TypeU16, TypeU32, TypeU64, TypeF32, TypeF64, TypeVector3f, TypeVector3i, TypeIdentifier16} {
		width, _ := ft.FixedWidth()
		short := make([]byte, width-1)
		_, _, err := DecodeValue(short, 0, ft)
		if !errors.Is(err, ErrTruncatedInput) {
			t.Errorf("%s short buffer: got %v, want ErrTruncatedInput", ft, err)
		}
	}
}

func TestUintTruncationOnEncode(t *testing.T) {
	// Oversized values wrap to field width so mutated packets keep their
	// declared shape.
	raw := AppendValue(nil, Uint(TypeU8, 256))
	if !bytes.Equal(raw, []byte{0x00}) {
		t.Errorf("u8 encode 256: got %x, want [00]", raw)
	}

	raw = AppendValue(nil, Uint(TypeU32, 1<<32))
	if !bytes.Equal(raw, []byte{0x00, 0x00, 0x00, 0x00}) {
		t.Errorf("u32 encode 2^32: got %x, want zeros", raw)
	}
}

func TestParseFieldType(t *testing.T) {
	cases := []struct {
		tag  string
		want FieldType
	}{
		{"u8", TypeU8},
		{"u32", TypeU32},
		{"f32", TypeF32},
		{"identifier16", TypeIdentifier16},
		{"UUID", TypeIdentifier16},
		{"vector3f", TypeVector3f},
		{"Vector3i", TypeVector3i},
		{"string", TypeString},
		{"UTF-8", TypeString},
		{"varint", TypeVarInt},
	}

	for _, tc := range cases {
		got, err := ParseFieldType(tc.tag)
		if err != nil {
			t.Errorf("parse %q: %v", tc.tag, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parse %q: got %s, want %s", tc.tag, got, tc.want)
		}
	}

	if _, err := ParseFieldType("blob"); err == nil {
		t.Error("parse blob: want error, got nil")
	}
}
