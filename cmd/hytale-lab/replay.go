package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Hazy142/Hytale-Lab/internal/capture"
	"github.com/Hazy142/Hytale-Lab/internal/logging"
	"github.com/Hazy142/Hytale-Lab/internal/transport"
)

type replayFlags struct {
	configPath   string
	pcapFile     string
	target       string
	port         int
	capturePort  int
	preserveGaps bool
	rate         float64
	timeoutMs    int
	logLevel     string
}

func newReplayCmd() *cobra.Command {
	flags := &replayFlags{}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay captured client traffic against a server",
		Long: `Extract the client-to-server UDP payloads from a pcap file and resend
them in order against a live server. Server replies in the capture are
skipped. With --preserve-gaps the original inter-packet timing is kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.applyConfig(cmd.Flags()); err != nil {
				return err
			}
			return runReplay(flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "Lab config YAML; explicit flags override its values")
	cmd.Flags().StringVar(&flags.pcapFile, "pcap", "", "Capture file to replay (required)")
	cmd.Flags().StringVar(&flags.target, "target", "127.0.0.1", "Target host")
	cmd.Flags().IntVar(&flags.port, "port", 27015, "Target UDP port")
	cmd.Flags().IntVar(&flags.capturePort, "capture-port", 0, "Server port in the capture (defaults to --port)")
	cmd.Flags().BoolVar(&flags.preserveGaps, "preserve-gaps", false, "Keep the original inter-packet timing")
	cmd.Flags().Float64Var(&flags.rate, "rate", 20, "Send rate in packets per second when gaps are not preserved")
	cmd.Flags().IntVar(&flags.timeoutMs, "timeout", 2000, "Send deadline in milliseconds")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "Log level")
	cmd.MarkFlagRequired("pcap")

	return cmd
}

// applyConfig fills flag values the user did not set from the lab config.
func (f *replayFlags) applyConfig(fs *pflag.FlagSet) error {
	cfg, err := loadLabConfig(f.configPath)
	if err != nil {
		return err
	}
	overlayConfig(fs, map[string]func(){
		"target":    func() { f.target = cfg.Target.Host },
		"port":      func() { f.port = cfg.Target.Port },
		"rate":      func() { f.rate = cfg.Transport.RatePerSec },
		"timeout":   func() { f.timeoutMs = cfg.Transport.TimeoutMs },
		"log-level": func() { f.logLevel = cfg.Log.Level },
	})
	return nil
}

func runReplay(flags *replayFlags) error {
	logger, closeLog, err := newLogger(flags.logLevel, "")
	if err != nil {
		return err
	}
	defer fatalClose(closeLog)

	capturePort := flags.capturePort
	if capturePort == 0 {
		capturePort = flags.port
	}

	datagrams, err := capture.ExtractPayloads(flags.pcapFile, capturePort)
	if err != nil {
		return err
	}
	if len(datagrams) == 0 {
		return fmt.Errorf("no udp traffic touching port %d in %s", capturePort, flags.pcapFile)
	}

	opts := transport.Options{Timeout: time.Duration(flags.timeoutMs) * time.Millisecond}
	if !flags.preserveGaps {
		opts.RatePerSec = flags.rate
		opts.Burst = 1
	}
	client, err := transport.NewClient(flags.target, flags.port, opts)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	replayer := &capture.Replayer{
		Client:       client,
		Logger:       logging.Component(logger, "replay"),
		PreserveGaps: flags.preserveGaps,
	}
	result, err := replayer.Replay(ctx, datagrams, capturePort)
	fmt.Fprintf(os.Stdout, "replayed %d datagrams to %s, skipped %d server-side datagrams\n",
		result.Sent, client.Addr(), result.Skipped)
	return err
}
