package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/Hazy142/Hytale-Lab/internal/config"
	"github.com/Hazy142/Hytale-Lab/internal/schema"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect and validate packet schemas",
	}
	cmd.AddCommand(newSchemaListCmd())
	cmd.AddCommand(newSchemaShowCmd())
	cmd.AddCommand(newSchemaValidateCmd())
	return cmd
}

func newSchemaListCmd() *cobra.Command {
	var schemaPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every packet in the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := newLogger("info", "")
			if err != nil {
				return err
			}
			defer fatalClose(closeLog)

			reg := loadRegistry(schemaPath, logger)
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Name", "Fields"})
			for _, p := range reg.List() {
				table.Append([]string{
					fmt.Sprintf("0x%02X", p.ID),
					p.Name,
					fmt.Sprintf("%d", len(p.Fields)),
				})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "Schema YAML file (builtin schema when omitted)")
	return cmd
}

func newSchemaShowCmd() *cobra.Command {
	var schemaPath string

	cmd := &cobra.Command{
		Use:   "show <packet-id>",
		Short: "Show the field layout of one packet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := newLogger("info", "")
			if err != nil {
				return err
			}
			defer fatalClose(closeLog)

			id, err := parsePacketID(args[0])
			if err != nil {
				return err
			}
			reg := loadRegistry(schemaPath, logger)
			p, ok := reg.Lookup(id)
			if !ok {
				return fmt.Errorf("unknown packet id 0x%02X", id)
			}

			fmt.Fprintf(os.Stdout, "Packet 0x%02X (%s)\n", p.ID, p.Name)
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Field", "Type"})
			for _, f := range p.Fields {
				table.Append([]string{f.Name, f.Type.String()})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "Schema YAML file (builtin schema when omitted)")
	return cmd
}

func newSchemaValidateCmd() *cobra.Command {
	var schemaPath string
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a schema or configuration file",
		Long: `Parse the given schema YAML and report any layout errors, or validate a
tool configuration file with --config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if schemaPath == "" && configPath == "" {
				return fmt.Errorf("nothing to validate: pass --schema or --config")
			}

			if schemaPath != "" {
				reg, err := schema.Load(schemaPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "schema %s is valid: %d packets\n", schemaPath, reg.Len())
			}

			if configPath != "" {
				cfg, err := config.Load(configPath, false)
				if err != nil {
					return err
				}
				if err := cfg.Validate(); err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "config %s is valid: target %s\n", configPath, cfg.Target.Address())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "Schema YAML file to validate")
	cmd.Flags().StringVar(&configPath, "config", "", "Configuration file to validate")
	return cmd
}
