// Package packet implements the schema-driven packet codec: raw datagram
// payloads in, named field maps out, and back again. Malformed input is an
// expected input class here, never a fault; decode failures are recovered
// into the result value itself.
package packet

import (
	"errors"
	"fmt"

	"github.com/Hazy142/Hytale-Lab/internal/schema"
	"github.com/Hazy142/Hytale-Lab/internal/wire"
)

// ErrUnknownPacketID indicates the decoded identifier has no schema in the
// registry.
var ErrUnknownPacketID = errors.New("unknown packet id")

// DecodeError marks where a decode stopped. It lives inside the Decoded
// result rather than replacing it, so whatever fields were recovered before
// the fail point stay available.
type DecodeError struct {
	Field  string // failing field, empty when the identifier itself failed
	Offset int    // byte offset of the failure
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("field %q at offset %d: %v", e.Field, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Field is one decoded field in schema order.
type Field struct {
	Name  string
	Value wire.Value
}

// Decoded is the result of decoding one packet. Read-only by convention
// after construction. Err is nil for a clean decode; otherwise Fields holds
// everything recovered before the fail point.
type Decoded struct {
	ID     uint64
	Name   string
	Fields []Field
	Err    *DecodeError
}

// Field returns the named field's value.
func (d *Decoded) Field(name string) (wire.Value, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return wire.Value{}, false
}

// Codec encodes and decodes packets against one registry. Safe for
// concurrent use; it holds no state beyond the read-only registry.
type Codec struct {
	reg *schema.Registry
}

// NewCodec builds a codec over the given registry.
func NewCodec(reg *schema.Registry) *Codec {
	return &Codec{reg: reg}
}

// Registry returns the codec's registry.
func (c *Codec) Registry() *schema.Registry { return c.reg }

// Decode parses raw bytes into a Decoded packet. It never returns a Go
// error: identifier or field failures are recorded in the result's Err
// together with any fields recovered before the failure.
func (c *Codec) Decode(raw []byte) Decoded {
	id, offset, err := wire.DecodeVarInt(raw, 0)
	if err != nil {
		return Decoded{Err: &DecodeError{Field: "packet_id", Offset: 0, Err: err}}
	}

	ps, ok := c.reg.Lookup(id)
	if !ok {
		return Decoded{
			ID:  id,
			Err: &DecodeError{Offset: 0, Err: fmt.Errorf("0x%02X: %w", id, ErrUnknownPacketID)},
		}
	}

	decoded := Decoded{ID: id, Name: ps.Name}
	for _, f := range ps.Fields {
		value, next, err := wire.DecodeValue(raw, offset, f.Type)
		if err != nil {
			decoded.Err = &DecodeError{Field: f.Name, Offset: offset, Err: err}
			return decoded
		}
		decoded.Fields = append(decoded.Fields, Field{Name: f.Name, Value: value})
		offset = next
	}
	return decoded
}

// Warning reports a degraded encode decision for one field.
type Warning struct {
	Field  string
	Reason string
}

func (w Warning) String() string { return fmt.Sprintf("%s: %s", w.Field, w.Reason) }

// Encode builds packet bytes for the given identifier from the supplied
// field values. Absent fields take the type's zero value; values whose
// runtime type does not match their field schema are replaced by the zero
// value as well. Both substitutions are reported as warnings, never as
// failures, so a fuzz sweep is never stalled by one odd field. The only
// error path is an identifier the registry does not know.
func (c *Codec) Encode(id uint64, values map[string]wire.Value) ([]byte, []Warning, error) {
	ps, ok := c.reg.Lookup(id)
	if !ok {
		return nil, nil, fmt.Errorf("encode 0x%02X: %w", id, ErrUnknownPacketID)
	}

	var warnings []Warning
	out := wire.AppendVarInt(nil, id)
	for _, f := range ps.Fields {
		value, present := values[f.Name]
		switch {
		case !present:
			value = wire.Zero(f.Type)
			warnings = append(warnings, Warning{Field: f.Name, Reason: "missing, using default"})
		case value.Type != f.Type:
			warnings = append(warnings, Warning{
				Field:  f.Name,
				Reason: fmt.Sprintf("value type %s does not match schema type %s, using default", value.Type, f.Type),
			})
			value = wire.Zero(f.Type)
		}
		out = wire.AppendValue(out, value)
	}
	return out, warnings, nil
}

// Defaults returns a full field map of zero values for the packet's schema.
func (c *Codec) Defaults(id uint64) (map[string]wire.Value, error) {
	ps, ok := c.reg.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("defaults 0x%02X: %w", id, ErrUnknownPacketID)
	}
	values := make(map[string]wire.Value, len(ps.Fields))
	for _, f := range ps.Fields {
		values[f.Name] = wire.Zero(f.Type)
	}
	return values, nil
}
