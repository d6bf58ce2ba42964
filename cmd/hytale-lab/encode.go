package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Hazy142/Hytale-Lab/internal/logging"
	"github.com/Hazy142/Hytale-Lab/internal/packet"
	"github.com/Hazy142/Hytale-Lab/internal/schema"
	"github.com/Hazy142/Hytale-Lab/internal/wire"
)

type encodeFlags struct {
	packetID   string
	sets       []string
	schemaPath string
	logLevel   string
}

func newEncodeCmd() *cobra.Command {
	flags := &encodeFlags{}

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Build packet bytes from field values",
		Long: `Encode a packet from the schema, starting from zero defaults and
applying --set overrides. Prints the wire bytes as hex.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(flags)
		},
	}

	cmd.Flags().StringVar(&flags.packetID, "id", "", "Packet id (decimal or 0x hex)")
	cmd.Flags().StringArrayVar(&flags.sets, "set", nil, "Field override as name=value (repeatable)")
	cmd.Flags().StringVar(&flags.schemaPath, "schema", "", "Schema YAML file (builtin schema when omitted)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "warn", "Log level")
	cmd.MarkFlagRequired("id")

	return cmd
}

func runEncode(flags *encodeFlags) error {
	logger, closeLog, err := newLogger(flags.logLevel, "")
	if err != nil {
		return err
	}
	defer fatalClose(closeLog)

	id, err := parsePacketID(flags.packetID)
	if err != nil {
		return err
	}

	reg := loadRegistry(flags.schemaPath, logger)
	codec := packet.NewCodec(reg)

	ps, ok := reg.Lookup(id)
	if !ok {
		return fmt.Errorf("packet id 0x%02X not in schema", id)
	}

	values, err := codec.Defaults(id)
	if err != nil {
		return err
	}
	for _, set := range flags.sets {
		name, raw, found := strings.Cut(set, "=")
		if !found {
			return fmt.Errorf("--set needs name=value, got %q", set)
		}
		fieldType, ok := fieldTypeFor(ps.Fields, name)
		if !ok {
			return fmt.Errorf("packet %s has no field %q", ps.Name, name)
		}
		v, err := parseFieldValue(fieldType, raw)
		if err != nil {
			return err
		}
		values[name] = v
	}

	raw, warnings, err := codec.Encode(id, values)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: field %s: %s\n", w.Field, w.Reason)
	}
	fmt.Fprintln(os.Stdout, logging.Hex(raw))
	return nil
}

func fieldTypeFor(fields []schema.FieldSchema, name string) (wire.FieldType, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return 0, false
}
