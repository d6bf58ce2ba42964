// Package schema holds the ground-truth packet definitions: an immutable,
// indexed registry of packet layouts loaded from a YAML source, with a
// built-in fallback set for when no source is available.
package schema

import (
	"fmt"
	"sort"

	"github.com/Hazy142/Hytale-Lab/internal/wire"
)

// FieldSchema describes one named, typed field within a packet.
type FieldSchema struct {
	Name string
	Type wire.FieldType
}

// PacketSchema describes one packet: its varint identifier, display name,
// and ordered field list.
type PacketSchema struct {
	ID     uint64
	Name   string
	Fields []FieldSchema
}

// Registry is a read-only mapping from packet identifier to schema. No
// mutation API exists after construction, so the decode and encode paths of
// one run can never drift apart; it is safe to share across goroutines.
type Registry struct {
	byID    map[uint64]PacketSchema
	ordered []PacketSchema
}

// NewRegistry builds a registry from the given schemas. Packet identifiers
// must be unique.
func NewRegistry(schemas []PacketSchema) (*Registry, error) {
	r := &Registry{byID: make(map[uint64]PacketSchema, len(schemas))}
	for _, s := range schemas {
		if _, dup := r.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate packet id 0x%02X", s.ID)
		}
		r.byID[s.ID] = s
	}
	r.ordered = append(r.ordered, schemas...)
	sort.Slice(r.ordered, func(i, j int) bool { return r.ordered[i].ID < r.ordered[j].ID })
	return r, nil
}

// Lookup returns the schema for a packet identifier.
func (r *Registry) Lookup(id uint64) (PacketSchema, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// List returns all schemas ordered by packet identifier.
func (r *Registry) List() []PacketSchema {
	out := make([]PacketSchema, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len returns the number of registered packets.
func (r *Registry) Len() int { return len(r.byID) }
