package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	laberrors "github.com/Hazy142/Hytale-Lab/internal/errors"
	"github.com/Hazy142/Hytale-Lab/internal/packet"
)

type decodeFlags struct {
	hexInput   string
	schemaPath string
	logLevel   string
}

func newDecodeCmd() *cobra.Command {
	flags := &decodeFlags{}

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a packet from hex bytes",
		Long: `Decode raw packet bytes against the loaded schema and print each
field. Partial packets print the fields recovered before the failure
together with the failing field and offset.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(flags)
		},
	}

	cmd.Flags().StringVar(&flags.hexInput, "hex", "", "Packet bytes as hex (spaces allowed)")
	cmd.Flags().StringVar(&flags.schemaPath, "schema", "", "Schema YAML file (builtin schema when omitted)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "warn", "Log level")
	cmd.MarkFlagRequired("hex")

	return cmd
}

func runDecode(flags *decodeFlags) error {
	logger, closeLog, err := newLogger(flags.logLevel, "")
	if err != nil {
		return err
	}
	defer fatalClose(closeLog)

	raw, err := parseHexInput(flags.hexInput)
	if err != nil {
		return err
	}

	codec := packet.NewCodec(loadRegistry(flags.schemaPath, logger))
	decoded := codec.Decode(raw)
	printDecoded(decoded, raw)
	if decoded.Err != nil {
		return laberrors.WrapDecodeError(decoded.Err, hex.EncodeToString(raw))
	}
	return nil
}

func printDecoded(decoded packet.Decoded, raw []byte) {
	name := decoded.Name
	if name == "" {
		name = "unknown"
	}
	fmt.Fprintf(os.Stdout, "Packet 0x%02X (%s), %d bytes\n", decoded.ID, name, len(raw))

	for _, f := range decoded.Fields {
		fmt.Fprintf(os.Stdout, "  %-14s %-13s %s\n", f.Name, f.Value.Type, f.Value)
	}

	if decoded.Err != nil {
		fmt.Fprintf(os.Stdout, "  ! decode stopped at field %q, offset %d: %v\n",
			decoded.Err.Field, decoded.Err.Offset, decoded.Err.Err)
	}
}
