package schema

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Hazy142/Hytale-Lab/internal/wire"
)

// File mirrors the YAML schema source: a mapping from hexadecimal packet-id
// strings to named field lists.
type File struct {
	Version int                   `yaml:"version"`
	Name    string                `yaml:"name,omitempty"`
	Packets map[string]PacketYAML `yaml:"packets"`
}

// PacketYAML is one packet definition as written in the source file.
type PacketYAML struct {
	Name   string      `yaml:"name"`
	Fields []FieldYAML `yaml:"fields"`
}

// FieldYAML is one field definition. Size is informative only; the wire
// width comes from the type.
type FieldYAML struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Size int    `yaml:"size,omitempty"`
}

// Parse converts a schema file into PacketSchema values, validating ids,
// names, and type tags.
func (f *File) Parse() ([]PacketSchema, error) {
	if f.Version != 1 {
		return nil, fmt.Errorf("unsupported schema version: %d", f.Version)
	}
	if len(f.Packets) == 0 {
		return nil, fmt.Errorf("schema source defines no packets")
	}

	schemas := make([]PacketSchema, 0, len(f.Packets))
	for idStr, p := range f.Packets {
		id, err := parsePacketID(idStr)
		if err != nil {
			return nil, err
		}
		if p.Name == "" {
			return nil, fmt.Errorf("packet %s: missing name", idStr)
		}
		s := PacketSchema{ID: id, Name: p.Name}
		for i, fd := range p.Fields {
			if fd.Name == "" {
				return nil, fmt.Errorf("packet %s: field %d: missing name", idStr, i)
			}
			ft, err := wire.ParseFieldType(fd.Type)
			if err != nil {
				return nil, fmt.Errorf("packet %s: field %q: %w", idStr, fd.Name, err)
			}
			if width, fixed := ft.FixedWidth(); fixed && fd.Size != 0 && fd.Size != width {
				return nil, fmt.Errorf("packet %s: field %q: size %d does not match %s width %d",
					idStr, fd.Name, fd.Size, ft, width)
			}
			s.Fields = append(s.Fields, FieldSchema{Name: fd.Name, Type: ft})
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

func parsePacketID(s string) (uint64, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	id, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("packet id %q: %w", s, err)
	}
	return id, nil
}

// Load reads and parses a schema source file into a registry.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse schema YAML: %w", err)
	}

	schemas, err := file.Parse()
	if err != nil {
		return nil, fmt.Errorf("validate schema: %w", err)
	}

	return NewRegistry(schemas)
}

// LoadOrFallback loads the registry from path, falling back to the built-in
// minimal set when the source is missing or malformed. The load error is
// returned alongside the fallback so the caller can decide whether degraded
// coverage is acceptable for the run.
func LoadOrFallback(path string) (*Registry, error) {
	reg, err := Load(path)
	if err != nil {
		return Fallback(), err
	}
	return reg, nil
}
