package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestVarIntRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 255, 300, 16383, 16384, 2097151, 2097152, 0x12345, 0xFFFFFFFF}

	for _, v := range values {
		encoded := EncodeVarInt(v)
		decoded, next, err := DecodeVarInt(encoded, 0)
		if err != nil {
			t.Fatalf("decode(%d): %v", v, err)
		}
		if decoded != v {
			t.Errorf("round trip %d: got %d", v, decoded)
		}
		if next != len(encoded) {
			t.Errorf("round trip %d: consumed %d of %d bytes", v, next, len(encoded))
		}
	}
}

func TestVarIntMinimality(t *testing.T) {
	cases := []struct {
		value uint64
		width int
	}{
		{0, 1},
		{127, 1},
		{128, 2},
		{16383, 2},
		{16384, 3},
		{2097151, 3},
		{2097152, 4},
		{268435455, 4},
		{268435456, 5},
		{0xFFFFFFFF, 5},
	}

	for _, tc := range cases {
		encoded := EncodeVarInt(tc.value)
		if len(encoded) != tc.width {
			t.Errorf("encode(%d): got %d bytes, want %d (%x)", tc.value, len(encoded), tc.width, encoded)
		}
		if encoded[len(encoded)-1]&0x80 != 0 {
			t.Errorf("encode(%d): terminating byte has continuation bit set", tc.value)
		}
	}
}

func TestVarIntKnownEncodings(t *testing.T) {
	cases := []struct {
		value uint64
		bytes []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xAC, 0x02}},
		{0xFFFFFFFF, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}},
	}

	for _, tc := range cases {
		if got := EncodeVarInt(tc.value); !bytes.Equal(got, tc.bytes) {
			t.Errorf("encode(%d): got %x, want %x", tc.value, got, tc.bytes)
		}
	}
}

func TestVarIntTruncated(t *testing.T) {
	_, _, err := DecodeVarInt([]byte{0xFF}, 0)
	if !errors.Is(err, ErrTruncatedInput) {
		t.Errorf("decode [FF]: got %v, want ErrTruncatedInput", err)
	}

	_, _, err = DecodeVarInt(nil, 0)
	if !errors.Is(err, ErrTruncatedInput) {
		t.Errorf("decode empty: got %v, want ErrTruncatedInput", err)
	}
}

func TestVarIntNonCanonicalAccepted(t *testing.T) {
	// Zero with a redundant continuation byte. The decoder follows whatever
	// the sender encoded; minimality is an encoder property.
	value, next, err := DecodeVarInt([]byte{0x80, 0x00}, 0)
	if err != nil {
		t.Fatalf("decode [80 00]: %v", err)
	}
	if value != 0 || next != 2 {
		t.Errorf("decode [80 00]: got (%d, %d), want (0, 2)", value, next)
	}
}

func TestVarIntBounded(t *testing.T) {
	// A 6-byte encoding terminates correctly but exceeds the protocol cap.
	overlong := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}
	if _, _, err := DecodeVarIntBounded(overlong, 0, MaxVarIntBytes); err == nil {
		t.Error("bounded decode of 6-byte varint: want error, got nil")
	}

	// The unbounded decoder accepts the same input.
	if _, _, err := DecodeVarInt(overlong, 0); err != nil {
		t.Errorf("unbounded decode of 6-byte varint: %v", err)
	}

	// Max legal 32-bit varint passes the bounded decoder.
	legal := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}
	value, _, err := DecodeVarIntBounded(legal, 0, MaxVarIntBytes)
	if err != nil {
		t.Fatalf("bounded decode: %v", err)
	}
	if value != 0xFFFFFFFF {
		t.Errorf("bounded decode: got %d, want %d", value, uint64(0xFFFFFFFF))
	}
}

func TestVarIntOffset(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xAC, 0x02}
	value, next, err := DecodeVarInt(data, 2)
	if err != nil {
		t.Fatalf("decode at offset: %v", err)
	}
	if value != 300 || next != 4 {
		t.Errorf("decode at offset: got (%d, %d), want (300, 4)", value, next)
	}
}
