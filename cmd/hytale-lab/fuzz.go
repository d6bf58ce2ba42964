package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Hazy142/Hytale-Lab/internal/artifact"
	"github.com/Hazy142/Hytale-Lab/internal/findings"
	"github.com/Hazy142/Hytale-Lab/internal/fuzz"
	"github.com/Hazy142/Hytale-Lab/internal/logging"
	"github.com/Hazy142/Hytale-Lab/internal/packet"
	"github.com/Hazy142/Hytale-Lab/internal/schema"
	"github.com/Hazy142/Hytale-Lab/internal/transport"
)

type fuzzFlags struct {
	configPath string
	target     string
	port       int
	packetIDs  []string
	kinds      []string
	delayMs    int
	timeoutMs  int
	rate       float64
	dryRun     bool
	wizard     bool
	schemaPath string
	outputDir  string
	logLevel   string
	logFile    string
}

func newFuzzCmd() *cobra.Command {
	flags := &fuzzFlags{}

	cmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Run schema-driven mutations against a server",
		Long: `Generate the deterministic mutation sequence for the selected packets
and send each mutant to the target. Replies are decoded and logged;
a server that stops answering clean probes is flagged as a finding.
With --dry-run the mutants are printed instead of sent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.applyConfig(cmd.Flags()); err != nil {
				return err
			}
			if flags.wizard {
				if err := runFuzzWizard(flags); err != nil {
					return err
				}
			}
			return runFuzz(flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "Lab config YAML; explicit flags override its values")
	cmd.Flags().StringVar(&flags.target, "target", "127.0.0.1", "Target host")
	cmd.Flags().IntVar(&flags.port, "port", 27015, "Target UDP port")
	cmd.Flags().StringArrayVar(&flags.packetIDs, "packet", nil, "Packet id to fuzz (repeatable, all known when empty)")
	cmd.Flags().StringArrayVar(&flags.kinds, "kind", nil, "Mutation kind: overflow, underflow, null, edge_case (repeatable, all when empty)")
	cmd.Flags().IntVar(&flags.delayMs, "delay", 50, "Delay between mutants in milliseconds")
	cmd.Flags().IntVar(&flags.timeoutMs, "timeout", 2000, "Reply timeout in milliseconds")
	cmd.Flags().Float64Var(&flags.rate, "rate", 20, "Maximum packets per second")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print mutants without sending")
	cmd.Flags().BoolVar(&flags.wizard, "wizard", false, "Pick target and mutations interactively")
	cmd.Flags().StringVar(&flags.schemaPath, "schema", "", "Schema YAML file (builtin schema when omitted)")
	cmd.Flags().StringVar(&flags.outputDir, "output", "output", "Output directory for run artifacts")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "Log level")
	cmd.Flags().StringVar(&flags.logFile, "log-file", "", "Optional JSON log file")

	return cmd
}

// applyConfig fills flag values the user did not set from the lab config.
func (f *fuzzFlags) applyConfig(fs *pflag.FlagSet) error {
	cfg, err := loadLabConfig(f.configPath)
	if err != nil {
		return err
	}
	overlayConfig(fs, map[string]func(){
		"target":    func() { f.target = cfg.Target.Host },
		"port":      func() { f.port = cfg.Target.Port },
		"packet":    func() { f.packetIDs = cfg.Fuzz.PacketIDs },
		"kind":      func() { f.kinds = cfg.Fuzz.Kinds },
		"delay":     func() { f.delayMs = cfg.Fuzz.DelayMs },
		"timeout":   func() { f.timeoutMs = cfg.Transport.TimeoutMs },
		"rate":      func() { f.rate = cfg.Transport.RatePerSec },
		"schema":    func() { f.schemaPath = cfg.SchemaPath },
		"output":    func() { f.outputDir = cfg.OutputDir },
		"log-level": func() { f.logLevel = cfg.Log.Level },
		"log-file":  func() { f.logFile = cfg.Log.File },
	})
	return nil
}

func runFuzzWizard(flags *fuzzFlags) error {
	target := flags.target
	port := strconv.Itoa(flags.port)
	kinds := flags.kinds
	packets := flags.packetIDs
	dryRun := flags.dryRun

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Target host").
				Value(&target),
			huh.NewInput().
				Title("Target port").
				Validate(func(s string) error {
					_, err := strconv.Atoi(s)
					return err
				}).
				Value(&port),
			huh.NewMultiSelect[string]().
				Title("Mutation kinds").
				Options(
					huh.NewOption("overflow", "overflow"),
					huh.NewOption("underflow", "underflow"),
					huh.NewOption("null", "null"),
					huh.NewOption("edge_case", "edge_case"),
				).
				Value(&kinds),
			huh.NewMultiSelect[string]().
				Title("Packets").
				Options(
					huh.NewOption("0x01 MovementInput", "0x01"),
					huh.NewOption("0x03 ChatMessage", "0x03"),
					huh.NewOption("0x05 BlockInteraction", "0x05"),
					huh.NewOption("0x07 ItemUse", "0x07"),
					huh.NewOption("0x08 EntitySpawn", "0x08"),
					huh.NewOption("0x0F GamePhaseChange", "0x0F"),
				).
				Value(&packets),
			huh.NewConfirm().
				Title("Dry run (print instead of send)?").
				Value(&dryRun),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("wizard: %w", err)
	}

	flags.target = target
	flags.port, _ = strconv.Atoi(port)
	flags.kinds = kinds
	flags.packetIDs = packets
	flags.dryRun = dryRun
	return nil
}

func runFuzz(flags *fuzzFlags) error {
	logger, closeLog, err := newLogger(flags.logLevel, flags.logFile)
	if err != nil {
		return err
	}
	defer fatalClose(closeLog)

	reg := loadRegistry(flags.schemaPath, logger)
	codec := packet.NewCodec(reg)
	engine := fuzz.NewEngine(codec)

	kinds, err := parseKinds(flags.kinds)
	if err != nil {
		return err
	}

	ids, err := resolvePacketIDs(flags.packetIDs, reg)
	if err != nil {
		return err
	}

	if flags.dryRun {
		return dryRunFuzz(engine, codec, ids, kinds)
	}

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

	out, err := artifact.NewOutputManager(flags.outputDir, "fuzz")
	if err != nil {
		return err
	}
	out.SetTarget(flags.target, flags.port)
	out.SetSchema(flags.schemaPath)

	agg := findings.NewAggregator(logger)
	runErr := fuzzLoop(ctx, client, engine, codec, agg, ids, kinds, time.Duration(flags.delayMs)*time.Millisecond, logging.Component(logger, "fuzz"), out)

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

func fuzzLoop(ctx context.Context, client *transport.Client, engine *fuzz.Engine, codec *packet.Codec, agg *findings.Aggregator, ids []uint64, kinds []fuzz.Kind, delay time.Duration, logger zerolog.Logger, out *artifact.OutputManager) error {
	var records []fuzz.Record
	sent := 0

	for _, id := range ids {
		base, err := codec.Defaults(id)
		if err != nil {
			return err
		}
		seq, err := engine.Fuzz(id, base, kinds)
		if err != nil {
			return err
		}

		for {
			raw, rec, ok := seq.Next()
			if !ok {
				break
			}
			if err := ctx.Err(); err != nil {
				out.SetMutationsSent(sent)
				return err
			}

			reply, err := client.Exchange(ctx, raw)
			sent++
			records = append(records, rec)

			event := logger.Info().
				Str("packet", rec.PacketName).
				Str("field", rec.Field).
				Str("kind", string(rec.Kind)).
				Str("mutated", rec.MutatedStr)
			switch {
			case err == nil:
				analysis := engine.Analyze(reply)
				event.Bool("replied", true).Bool("reply_decodable", analysis.Success).Msg("mutant accepted")
				addAcceptedMutantFinding(agg, rec, raw)
			case errors.Is(err, transport.ErrNoReply):
				event.Bool("replied", false).Msg("mutant dropped")
			default:
				out.SetMutationsSent(sent)
				return err
			}

			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					out.SetMutationsSent(sent)
					return ctx.Err()
				}
			}
		}
	}

	out.SetMutationsSent(sent)
	return out.WriteFuzzRecords(records)
}

// addAcceptedMutantFinding records a reply to a hostile mutation. Overflow
// and edge-case values are not supposed to be processed at all.
func addAcceptedMutantFinding(agg *findings.Aggregator, rec fuzz.Record, raw []byte) {
	agg.Add(findings.Finding{
		Kind:     findings.KindPacketInjection,
		Severity: findings.SeverityMedium,
		Title:    fmt.Sprintf("%s mutation of %s.%s accepted", rec.Kind, rec.PacketName, rec.Field),
		Description: fmt.Sprintf("The server replied to a %s packet whose %s field carried the %s value %s.",
			rec.PacketName, rec.Field, rec.Kind, rec.MutatedStr),
		PacketHex: logging.Hex(raw),
	})
}

// dryRunFuzz generates the full mutation sequence and feeds each mutant back
// through the local decoder instead of a socket, so the engine is exercisable
// without a server.
func dryRunFuzz(engine *fuzz.Engine, codec *packet.Codec, ids []uint64, kinds []fuzz.Kind) error {
	for _, id := range ids {
		base, err := codec.Defaults(id)
		if err != nil {
			return err
		}
		seq, err := engine.Fuzz(id, base, kinds)
		if err != nil {
			return err
		}
		for {
			raw, rec, ok := seq.Next()
			if !ok {
				break
			}
			analysis := engine.Analyze(raw)
			verdict := "decodes"
			if !analysis.Success {
				verdict = "rejects: " + analysis.Error
			}
			fmt.Fprintf(os.Stdout, "%s %s %s: %s -> %s [%s]\n  %s\n",
				rec.PacketName, rec.Field, rec.Kind, rec.OriginalStr, rec.MutatedStr, verdict, logging.Hex(raw))
		}
	}
	return nil
}

func parseKinds(names []string) ([]fuzz.Kind, error) {
	if len(names) == 0 {
		return fuzz.AllKinds, nil
	}
	var kinds []fuzz.Kind
	for _, name := range names {
		k, ok := fuzz.ParseKind(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown mutation kind %q", name)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func resolvePacketIDs(args []string, reg *schema.Registry) ([]uint64, error) {
	if len(args) == 0 {
		var ids []uint64
		for _, s := range reg.List() {
			ids = append(ids, s.ID)
		}
		return ids, nil
	}
	var ids []uint64
	for _, arg := range args {
		id, err := parsePacketID(arg)
		if err != nil {
			return nil, err
		}
		if _, ok := reg.Lookup(id); !ok {
			return nil, fmt.Errorf("packet id 0x%02X not in schema", id)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
