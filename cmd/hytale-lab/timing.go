package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Hazy142/Hytale-Lab/internal/artifact"
	"github.com/Hazy142/Hytale-Lab/internal/logging"
	"github.com/Hazy142/Hytale-Lab/internal/packet"
	"github.com/Hazy142/Hytale-Lab/internal/schema"
	"github.com/Hazy142/Hytale-Lab/internal/timing"
	"github.com/Hazy142/Hytale-Lab/internal/transport"
)

type timingFlags struct {
	configPath string
	target     string
	port       int
	count      int
	intervals  []int
	dropLimit  float64
	timeoutMs  int
	schemaPath string
	outputDir  string
	logLevel   string
}

func newTimingCmd() *cobra.Command {
	flags := &timingFlags{}

	cmd := &cobra.Command{
		Use:   "timing",
		Short: "Probe server latency and rate thresholds",
		Long: `Send well-formed movement packets at decreasing intervals and record
round trip latency and drop rate per interval. The first interval
where the drop rate crosses the limit marks the server's pacing
threshold.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.applyConfig(cmd.Flags()); err != nil {
				return err
			}
			return runTiming(flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "Lab config YAML; explicit flags override its values")
	cmd.Flags().StringVar(&flags.target, "target", "127.0.0.1", "Target host")
	cmd.Flags().IntVar(&flags.port, "port", 27015, "Target UDP port")
	cmd.Flags().IntVar(&flags.count, "count", 20, "Probes per interval")
	cmd.Flags().IntSliceVar(&flags.intervals, "intervals", []int{200, 100, 50, 20, 10, 5}, "Probe intervals in milliseconds, slow to fast")
	cmd.Flags().Float64Var(&flags.dropLimit, "drop-limit", 0.5, "Drop rate that marks the threshold")
	cmd.Flags().IntVar(&flags.timeoutMs, "timeout", 2000, "Reply timeout in milliseconds")
	cmd.Flags().StringVar(&flags.schemaPath, "schema", "", "Schema YAML file (builtin schema when omitted)")
	cmd.Flags().StringVar(&flags.outputDir, "output", "output", "Output directory for run artifacts")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "Log level")

	return cmd
}

// applyConfig fills flag values the user did not set from the lab config.
func (f *timingFlags) applyConfig(fs *pflag.FlagSet) error {
	cfg, err := loadLabConfig(f.configPath)
	if err != nil {
		return err
	}
	overlayConfig(fs, map[string]func(){
		"target":    func() { f.target = cfg.Target.Host },
		"port":      func() { f.port = cfg.Target.Port },
		"timeout":   func() { f.timeoutMs = cfg.Transport.TimeoutMs },
		"schema":    func() { f.schemaPath = cfg.SchemaPath },
		"output":    func() { f.outputDir = cfg.OutputDir },
		"log-level": func() { f.logLevel = cfg.Log.Level },
	})
	return nil
}

func runTiming(flags *timingFlags) error {
	logger, closeLog, err := newLogger(flags.logLevel, "")
	if err != nil {
		return err
	}
	defer fatalClose(closeLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := transport.NewClient(flags.target, flags.port, transport.Options{
		Timeout: time.Duration(flags.timeoutMs) * time.Millisecond,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	codec := packet.NewCodec(loadRegistry(flags.schemaPath, logger))
	values, err := codec.Defaults(schema.IDMovement)
	if err != nil {
		return err
	}
	probe, _, err := codec.Encode(schema.IDMovement, values)
	if err != nil {
		return err
	}

	intervals := make([]time.Duration, len(flags.intervals))
	for i, ms := range flags.intervals {
		intervals[i] = time.Duration(ms) * time.Millisecond
	}

	prober := &timing.Prober{Client: client, Logger: logging.Component(logger, "timing")}
	results, threshold, runErr := prober.FindThreshold(ctx, probe, intervals, flags.count, flags.dropLimit)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Interval", "Mean ms", "P95 ms", "P99 ms", "Drop %"})
	for _, r := range results {
		table.Append([]string{
			r.Interval.String(),
			fmt.Sprintf("%.2f", r.Stats.MeanRTT),
			fmt.Sprintf("%.2f", r.Stats.P95RTT),
			fmt.Sprintf("%.2f", r.Stats.P99RTT),
			fmt.Sprintf("%.1f", r.DropRate*100),
		})
	}
	table.Render()

	if threshold > 0 {
		fmt.Fprintf(os.Stdout, "drop rate crossed %.0f%% at interval %v\n", flags.dropLimit*100, threshold)
	} else {
		fmt.Fprintln(os.Stdout, "server kept up at every tested rate")
	}

	out, err := artifact.NewOutputManager(flags.outputDir, "timing")
	if err != nil {
		return err
	}
	out.SetTarget(flags.target, flags.port)
	if err := out.WriteTiming(results); err != nil {
		return err
	}
	exitCode := 0
	if runErr != nil {
		exitCode = 1
	}
	if err := out.Finalize(exitCode, runErr); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "run artifacts in %s\n", out.RunDir())
	return runErr
}
