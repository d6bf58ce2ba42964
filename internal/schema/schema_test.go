package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Hazy142/Hytale-Lab/internal/wire"
)

const sampleYAML = `version: 1
name: test-set
packets:
  "0x01":
    name: MovementInput
    fields:
      - name: player_id
        type: identifier16
        size: 16
      - name: position
        type: vector3f
      - name: tick
        type: u32
  "0x03":
    name: ChatMessage
    fields:
      - name: player_id
        type: UUID
      - name: message
        type: string
      - name: timestamp
        type: u64
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp schema: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	reg, err := Load(writeTemp(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if reg.Len() != 2 {
		t.Fatalf("registry size: got %d, want 2", reg.Len())
	}

	movement, ok := reg.Lookup(0x01)
	if !ok {
		t.Fatal("lookup 0x01: not found")
	}
	if movement.Name != "MovementInput" {
		t.Errorf("name: got %q", movement.Name)
	}
	if len(movement.Fields) != 3 {
		t.Fatalf("fields: got %d, want 3", len(movement.Fields))
	}
	if movement.Fields[1].Type != wire.TypeVector3f {
		t.Errorf("field 1 type: got %s, want vector3f", movement.Fields[1].Type)
	}

	// Legacy alias "UUID" maps to identifier16.
	chat, _ := reg.Lookup(0x03)
	if chat.Fields[0].Type != wire.TypeIdentifier16 {
		t.Errorf("UUID alias: got %s", chat.Fields[0].Type)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad version", "version: 2\npackets:\n  \"0x01\":\n    name: X\n"},
		{"no packets", "version: 1\npackets: {}\n"},
		{"bad type", "version: 1\npackets:\n  \"0x01\":\n    name: X\n    fields:\n      - name: a\n        type: blob\n"},
		{"bad id", "version: 1\npackets:\n  \"zz\":\n    name: X\n"},
		{"missing name", "version: 1\npackets:\n  \"0x01\":\n    fields: []\n"},
		{"size mismatch", "version: 1\npackets:\n  \"0x01\":\n    name: X\n    fields:\n      - name: a\n        type: u32\n        size: 2\n"},
		{"not yaml", ":\n -["},
	}

	for _, tc := range cases {
		if _, err := Load(writeTemp(t, tc.content)); err == nil {
			t.Errorf("%s: want error, got nil", tc.name)
		}
	}
}

func TestDuplicateID(t *testing.T) {
	// "0x01" and "0x1" normalize to the same identifier.
	content := `version: 1
packets:
  "0x01":
    name: A
  "0x1":
    name: B
`
	if _, err := Load(writeTemp(t, content)); err == nil {
		t.Error("duplicate normalized id: want error, got nil")
	}
}

func TestLoadOrFallback(t *testing.T) {
	reg, err := LoadOrFallback(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("missing source: want load error alongside fallback")
	}
	if reg == nil {
		t.Fatal("missing source: fallback registry is nil")
	}

	for _, id := range []uint64{IDMovement, IDChat} {
		if _, ok := reg.Lookup(id); !ok {
			t.Errorf("fallback: packet 0x%02X missing", id)
		}
	}
	if reg.Len() != 2 {
		t.Errorf("fallback size: got %d, want 2", reg.Len())
	}
}

func TestBuiltin(t *testing.T) {
	reg := Builtin()
	ids := []uint64{IDMovement, IDChat, IDBlockInteraction, IDItemUse, IDEntitySpawn, IDGamePhaseChange}
	for _, id := range ids {
		if _, ok := reg.Lookup(id); !ok {
			t.Errorf("builtin: packet 0x%02X missing", id)
		}
	}

	// List is ordered by id and detached from internal state.
	list := reg.List()
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Errorf("list order: %d before %d", list[i-1].ID, list[i].ID)
		}
	}
	list[0].Name = "mutated"
	if fresh := reg.List(); fresh[0].Name == "mutated" {
		t.Error("List exposes internal state")
	}
}
