package fuzz

import (
	"encoding/hex"
	"fmt"

	"github.com/Hazy142/Hytale-Lab/internal/packet"
	"github.com/Hazy142/Hytale-Lab/internal/schema"
	"github.com/Hazy142/Hytale-Lab/internal/wire"
)

// Record describes one applied mutation, machine-readably, for reproduction.
type Record struct {
	PacketID   uint64     `json:"packet_id"`
	PacketName string     `json:"packet_name"`
	Field      string     `json:"field"`
	Kind       Kind       `json:"kind"`
	Original   wire.Value `json:"-"`
	Mutated    wire.Value `json:"-"`

	// Display forms for reports.
	OriginalStr string `json:"original_value"`
	MutatedStr  string `json:"mutated_value"`
}

// Engine drives the packet codec to produce adversarial packet sequences.
type Engine struct {
	codec *packet.Codec
}

// NewEngine builds an engine over the given codec.
func NewEngine(codec *packet.Codec) *Engine {
	return &Engine{codec: codec}
}

// Codec returns the underlying packet codec.
func (e *Engine) Codec() *packet.Codec { return e.codec }

// Sequence is a lazy, restartable walk over (field, kind) pairs. Each call
// to Next produces one mutated packet; the order is fully determined by the
// schema's field order and the caller's kind order, so identical inputs
// reproduce identical sequences.
type Sequence struct {
	engine   *Engine
	ps       schema.PacketSchema
	base     map[string]wire.Value
	kinds    []Kind
	fieldIdx int
	kindIdx  int
}

// Fuzz starts a mutation sequence for the packet. base supplies starting
// field values; absent fields start from the type's zero value. kinds
// defaults to AllKinds when empty. base is copied per yielded packet and
// never mutated.
func (e *Engine) Fuzz(id uint64, base map[string]wire.Value, kinds []Kind) (*Sequence, error) {
	ps, ok := e.codec.Registry().Lookup(id)
	if !ok {
		return nil, fmt.Errorf("fuzz 0x%02X: %w", id, packet.ErrUnknownPacketID)
	}
	if len(kinds) == 0 {
		kinds = AllKinds
	}
	return &Sequence{engine: e, ps: ps, base: base, kinds: kinds}, nil
}

// Reset rewinds the sequence to its first mutation.
func (s *Sequence) Reset() {
	s.fieldIdx = 0
	s.kindIdx = 0
}

// Total returns the number of mutations the sequence will yield.
func (s *Sequence) Total() int {
	n := 0
	for _, f := range s.ps.Fields {
		for _, k := range s.kinds {
			if _, ok := Mutate(f.Type, k); ok {
				n++
			}
		}
	}
	return n
}

// Next yields the next mutated packet and its record. ok is false when the
// sequence is exhausted.
func (s *Sequence) Next() (raw []byte, rec Record, ok bool) {
	for s.fieldIdx < len(s.ps.Fields) {
		field := s.ps.Fields[s.fieldIdx]
		for s.kindIdx < len(s.kinds) {
			kind := s.kinds[s.kindIdx]
			s.kindIdx++

			mutated, defined := Mutate(field.Type, kind)
			if !defined {
				continue
			}

			original, has := s.base[field.Name]
			if !has {
				original = wire.Zero(field.Type)
			}

			values := make(map[string]wire.Value, len(s.ps.Fields))
			for _, f := range s.ps.Fields {
				if v, ok := s.base[f.Name]; ok {
					values[f.Name] = v
				} else {
					values[f.Name] = wire.Zero(f.Type)
				}
			}
			values[field.Name] = mutated

			// Encode cannot fail here: the id came from the registry and
			// every value was built for its field type.
			raw, _, err := s.engine.codec.Encode(s.ps.ID, values)
			if err != nil {
				continue
			}

			return raw, Record{
				PacketID:    s.ps.ID,
				PacketName:  s.ps.Name,
				Field:       field.Name,
				Kind:        kind,
				Original:    original,
				Mutated:     mutated,
				OriginalStr: original.String(),
				MutatedStr:  mutated.String(),
			}, true
		}
		s.fieldIdx++
		s.kindIdx = 0
	}
	return nil, Record{}, false
}

// Analysis is the structured result of decoding one (typically mutated)
// packet, shaped so a sweep over thousands of packets needs no per-packet
// fault handling.
type Analysis struct {
	Success  bool            `json:"success"`
	PacketID string          `json:"packet_id"`
	Decoded  *packet.Decoded `json:"-"`
	Error    string          `json:"error,omitempty"`
	RawHex   string          `json:"raw_hex,omitempty"`
}

// Analyze decodes packet bytes and reports the outcome as data.
func (e *Engine) Analyze(raw []byte) Analysis {
	decoded := e.codec.Decode(raw)
	a := Analysis{
		PacketID: fmt.Sprintf("0x%02X", decoded.ID),
		Decoded:  &decoded,
	}
	if decoded.Err != nil {
		a.Error = decoded.Err.Error()
		a.RawHex = hex.EncodeToString(raw)
		return a
	}
	a.Success = true
	return a
}
