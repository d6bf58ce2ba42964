package schema

import "github.com/Hazy142/Hytale-Lab/internal/wire"

// Packet identifiers observed in captured traffic.
const (
	IDMovement         = 0x01
	IDChat             = 0x03
	IDBlockInteraction = 0x05
	IDItemUse          = 0x07
	IDEntitySpawn      = 0x08
	IDGamePhaseChange  = 0x0F
)

func movementSchema() PacketSchema {
	return PacketSchema{
		ID:   IDMovement,
		Name: "MovementInput",
		Fields: []FieldSchema{
			{Name: "player_id", Type: wire.TypeIdentifier16},
			{Name: "position", Type: wire.TypeVector3f},
			{Name: "velocity", Type: wire.TypeVector3f},
			{Name: "yaw", Type: wire.TypeF32},
			{Name: "pitch", Type: wire.TypeF32},
			{Name: "flags", Type: wire.TypeU8},
			{Name: "tick", Type: wire.TypeU32},
		},
	}
}

func chatSchema() PacketSchema {
	return PacketSchema{
		ID:   IDChat,
		Name: "ChatMessage",
		Fields: []FieldSchema{
			{Name: "player_id", Type: wire.TypeIdentifier16},
			{Name: "message", Type: wire.TypeString},
			{Name: "timestamp", Type: wire.TypeU64},
		},
	}
}

// Fallback returns the minimal registry used when no schema source can be
// loaded: movement and chat, the two packets every capture contains.
func Fallback() *Registry {
	r, err := NewRegistry([]PacketSchema{movementSchema(), chatSchema()})
	if err != nil {
		panic(err) // static data
	}
	return r
}

// Builtin returns the full reverse-engineered packet set. schemas/hytale.yaml
// ships the same definitions in source form.
func Builtin() *Registry {
	r, err := NewRegistry([]PacketSchema{
		movementSchema(),
		chatSchema(),
		{
			ID:   IDBlockInteraction,
			Name: "BlockInteraction",
			Fields: []FieldSchema{
				{Name: "player_id", Type: wire.TypeIdentifier16},
				{Name: "block_position", Type: wire.TypeVector3i},
				{Name: "face", Type: wire.TypeU8},
				{Name: "action", Type: wire.TypeU8},
			},
		},
		{
			ID:   IDItemUse,
			Name: "ItemUse",
			Fields: []FieldSchema{
				{Name: "player_id", Type: wire.TypeIdentifier16},
				{Name: "item_id", Type: wire.TypeU32},
				{Name: "slot", Type: wire.TypeU8},
				{Name: "target_position", Type: wire.TypeVector3f},
			},
		},
		{
			ID:   IDEntitySpawn,
			Name: "EntitySpawn",
			Fields: []FieldSchema{
				{Name: "entity_id", Type: wire.TypeU32},
				{Name: "entity_type", Type: wire.TypeU16},
				{Name: "position", Type: wire.TypeVector3f},
				{Name: "yaw", Type: wire.TypeF32},
				{Name: "pitch", Type: wire.TypeF32},
			},
		},
		{
			ID:   IDGamePhaseChange,
			Name: "GamePhaseChange",
			Fields: []FieldSchema{
				{Name: "new_phase", Type: wire.TypeU8},
				{Name: "duration_ms", Type: wire.TypeU32},
				{Name: "announcement", Type: wire.TypeString},
			},
		},
	})
	if err != nil {
		panic(err) // static data
	}
	return r
}
