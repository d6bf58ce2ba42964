package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/Hazy142/Hytale-Lab/internal/config"
	"github.com/Hazy142/Hytale-Lab/internal/logging"
	"github.com/Hazy142/Hytale-Lab/internal/schema"
	"github.com/Hazy142/Hytale-Lab/internal/wire"
)

// loadLabConfig resolves the effective lab configuration: built-in defaults
// when no path is given, otherwise the validated file.
func loadLabConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path, false)
}

// overlayConfig runs the config-sourced assignment for every flag the user
// left unset, so command-line values always win over file values.
func overlayConfig(fs *pflag.FlagSet, fromConfig map[string]func()) {
	for name, apply := range fromConfig {
		if !fs.Changed(name) {
			apply()
		}
	}
}

// loadRegistry loads the schema file, or falls back to the builtin minimal
// schema with a warning when the file is unusable.
func loadRegistry(path string, logger zerolog.Logger) *schema.Registry {
	if path == "" {
		return schema.Builtin()
	}
	reg, err := schema.LoadOrFallback(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("schema load failed, using builtin fallback")
	}
	return reg
}

// newLogger builds the command logger from the common flags.
func newLogger(level, file string) (zerolog.Logger, func() error, error) {
	return logging.New(logging.Options{
		Level:   level,
		File:    file,
		Console: true,
	})
}

// parseHexInput accepts hex with optional spaces and 0x prefix.
func parseHexInput(s string) ([]byte, error) {
	cleaned := strings.NewReplacer(" ", "", "\n", "", "\t", "", "0x", "").Replace(strings.ToLower(s))
	raw, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty packet")
	}
	return raw, nil
}

// parsePacketID accepts decimal or 0x-prefixed hex packet ids.
func parsePacketID(s string) (uint64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	base := 10
	if strings.HasPrefix(s, "0x") {
		s = strings.TrimPrefix(s, "0x")
		base = 16
	}
	id, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid packet id %q", s)
	}
	return id, nil
}

// parseFieldValue parses a textual value into a wire value of the field's
// type. Vectors use comma-separated components, identifiers are hex.
func parseFieldValue(t wire.FieldType, s string) (wire.Value, error) {
	switch t {
	case wire.TypeU8, wire.TypeU16, wire.TypeU32, wire.TypeU64:
		v, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return wire.Value{}, fmt.Errorf("parse %s value %q: %w", t, s, err)
		}
		return wire.Uint(t, v), nil
	case wire.TypeVarInt:
		v, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return wire.Value{}, fmt.Errorf("parse varint value %q: %w", s, err)
		}
		return wire.VarIntValue(v), nil
	case wire.TypeF32, wire.TypeF64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return wire.Value{}, fmt.Errorf("parse %s value %q: %w", t, s, err)
		}
		return wire.Float(t, v), nil
	case wire.TypeIdentifier16:
		return wire.IdentifierHex(s)
	case wire.TypeString:
		return wire.Str(s), nil
	case wire.TypeVector3f:
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return wire.Value{}, fmt.Errorf("vector3f needs x,y,z, got %q", s)
		}
		var c [3]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
			if err != nil {
				return wire.Value{}, fmt.Errorf("parse vector component %q: %w", p, err)
			}
			c[i] = v
		}
		return wire.Vec3f(float32(c[0]), float32(c[1]), float32(c[2])), nil
	case wire.TypeVector3i:
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return wire.Value{}, fmt.Errorf("vector3i needs x,y,z, got %q", s)
		}
		var c [3]int64
		for i, p := range parts {
			v, err := strconv.ParseInt(strings.TrimSpace(p), 0, 32)
			if err != nil {
				return wire.Value{}, fmt.Errorf("parse vector component %q: %w", p, err)
			}
			c[i] = v
		}
		return wire.Vec3i(int32(c[0]), int32(c[1]), int32(c[2])), nil
	}
	return wire.Value{}, fmt.Errorf("unsupported field type %s", t)
}

func fatalClose(closeLog func() error) {
	if err := closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: close log: %v\n", err)
	}
}
