package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Hazy142/Hytale-Lab/internal/artifact"
	"github.com/Hazy142/Hytale-Lab/internal/findings"
	"github.com/Hazy142/Hytale-Lab/internal/logging"
	"github.com/Hazy142/Hytale-Lab/internal/packet"
	"github.com/Hazy142/Hytale-Lab/internal/suite"
	"github.com/Hazy142/Hytale-Lab/internal/transport"
)

type suiteFlags struct {
	configPath string
	target     string
	port       int
	checks     []string
	list       bool
	timeoutMs  int
	rate       float64
	schemaPath string
	outputDir  string
	logLevel   string
	logFile    string
}

func newSuiteCmd() *cobra.Command {
	flags := &suiteFlags{}

	cmd := &cobra.Command{
		Use:   "suite",
		Short: "Run the security check suite against a server",
		Long: `Run targeted security checks: forged identifiers, malformed length
prefixes, oversized allocations, special floats and replay probes.
Findings land in the run directory as JSON and a text report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.list {
				return listChecks()
			}
			if err := flags.applyConfig(cmd.Flags()); err != nil {
				return err
			}
			return runSuite(flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "Lab config YAML; explicit flags override its values")
	cmd.Flags().StringVar(&flags.target, "target", "127.0.0.1", "Target host")
	cmd.Flags().IntVar(&flags.port, "port", 27015, "Target UDP port")
	cmd.Flags().StringArrayVar(&flags.checks, "check", nil, "Check to run (repeatable, all when empty)")
	cmd.Flags().BoolVar(&flags.list, "list", false, "List available checks and exit")
	cmd.Flags().IntVar(&flags.timeoutMs, "timeout", 2000, "Reply timeout in milliseconds")
	cmd.Flags().Float64Var(&flags.rate, "rate", 20, "Maximum packets per second")
	cmd.Flags().StringVar(&flags.schemaPath, "schema", "", "Schema YAML file (builtin schema when omitted)")
	cmd.Flags().StringVar(&flags.outputDir, "output", "output", "Output directory for run artifacts")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "Log level")
	cmd.Flags().StringVar(&flags.logFile, "log-file", "", "Optional JSON log file")

	return cmd
}

// applyConfig fills flag values the user did not set from the lab config.
func (f *suiteFlags) applyConfig(fs *pflag.FlagSet) error {
	cfg, err := loadLabConfig(f.configPath)
	if err != nil {
		return err
	}
	overlayConfig(fs, map[string]func(){
		"target":    func() { f.target = cfg.Target.Host },
		"port":      func() { f.port = cfg.Target.Port },
		"timeout":   func() { f.timeoutMs = cfg.Transport.TimeoutMs },
		"rate":      func() { f.rate = cfg.Transport.RatePerSec },
		"schema":    func() { f.schemaPath = cfg.SchemaPath },
		"output":    func() { f.outputDir = cfg.OutputDir },
		"log-level": func() { f.logLevel = cfg.Log.Level },
		"log-file":  func() { f.logFile = cfg.Log.File },
	})
	return nil
}

func listChecks() error {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Check", "Description"})
	for _, c := range suite.Checks() {
		table.Append([]string{c.Name, c.Description})
	}
	table.Render()
	return nil
}

func runSuite(flags *suiteFlags) error {
	logger, closeLog, err := newLogger(flags.logLevel, flags.logFile)
	if err != nil {
		return err
	}
	defer fatalClose(closeLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := transport.NewClient(flags.target, flags.port, transport.Options{
		Timeout:    time.Duration(flags.timeoutMs) * time.Millisecond,
		RatePerSec: flags.rate,
		Burst:      1,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	out, err := artifact.NewOutputManager(flags.outputDir, "suite")
	if err != nil {
		return err
	}
	out.SetTarget(flags.target, flags.port)
	out.SetSchema(flags.schemaPath)

	agg := findings.NewAggregator(logger)
	runner := &suite.Runner{
		Client: client,
		Codec:  packet.NewCodec(loadRegistry(flags.schemaPath, logger)),
		Agg:    agg,
		Logger: logging.Component(logger, "suite"),
	}

	results, runErr := runner.Run(ctx, flags.checks)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Check", "Findings", "Error"})
	for _, r := range results {
		table.Append([]string{r.Name, fmt.Sprintf("%d", r.Findings), r.Err})
	}
	table.Render()

	if err := out.WriteFindings(client.Addr(), agg.Findings()); err != nil {
		logger.Error().Err(err).Msg("write findings")
	}
	exitCode := 0
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		exitCode = 1
	}
	if err := out.Finalize(exitCode, runErr); err != nil {
		logger.Error().Err(err).Msg("finalize run")
	}
	fmt.Fprintf(os.Stdout, "run artifacts in %s\n", out.RunDir())

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}
