package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Hazy142/Hytale-Lab/internal/artifact"
	"github.com/Hazy142/Hytale-Lab/internal/capture"
)

type captureFlags struct {
	configPath string
	iface      string
	port       int
	snapLen    int
	promisc    bool
	durationMs int
	outputDir  string
	logLevel   string
}

func newCaptureCmd() *cobra.Command {
	flags := &captureFlags{}

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture game traffic to a pcap file",
		Long: `Capture UDP traffic on the game port to a pcap file inside a run
directory. Stops on Ctrl+C or after --duration if set. Requires
packet capture privileges on the interface.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.applyConfig(cmd.Flags()); err != nil {
				return err
			}
			return runCapture(flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "Lab config YAML; explicit flags override its values")
	cmd.Flags().StringVar(&flags.iface, "interface", "eth0", "Capture interface")
	cmd.Flags().IntVar(&flags.port, "port", 27015, "Game UDP port")
	cmd.Flags().IntVar(&flags.snapLen, "snaplen", 65535, "Capture snapshot length")
	cmd.Flags().BoolVar(&flags.promisc, "promisc", false, "Promiscuous mode")
	cmd.Flags().IntVar(&flags.durationMs, "duration", 0, "Stop after this many milliseconds (0 runs until interrupted)")
	cmd.Flags().StringVar(&flags.outputDir, "output", "output", "Output directory for run artifacts")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "Log level")

	return cmd
}

// applyConfig fills flag values the user did not set from the lab config.
func (f *captureFlags) applyConfig(fs *pflag.FlagSet) error {
	cfg, err := loadLabConfig(f.configPath)
	if err != nil {
		return err
	}
	overlayConfig(fs, map[string]func(){
		"interface": func() { f.iface = cfg.Capture.Interface },
		"port":      func() { f.port = cfg.Target.Port },
		"snaplen":   func() { f.snapLen = cfg.Capture.SnapLen },
		"promisc":   func() { f.promisc = cfg.Capture.Promisc },
		"output":    func() { f.outputDir = cfg.OutputDir },
		"log-level": func() { f.logLevel = cfg.Log.Level },
	})
	return nil
}

func runCapture(flags *captureFlags) error {
	logger, closeLog, err := newLogger(flags.logLevel, "")
	if err != nil {
		return err
	}
	defer fatalClose(closeLog)

	out, err := artifact.NewOutputManager(flags.outputDir, "capture")
	if err != nil {
		return err
	}

	session, err := capture.Start(capture.Options{
		Interface: flags.iface,
		Port:      flags.port,
		SnapLen:   int32(flags.snapLen),
		Promisc:   flags.promisc,
	}, out.PCAPPath())
	if err != nil {
		finalizeErr := out.Finalize(1, err)
		if finalizeErr != nil {
			return finalizeErr
		}
		return err
	}

	fmt.Fprintf(os.Stdout, "capturing udp port %d on %s, Ctrl+C to stop\n", flags.port, flags.iface)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	if flags.durationMs > 0 {
		select {
		case <-sig:
		case <-time.After(time.Duration(flags.durationMs) * time.Millisecond):
		}
	} else {
		<-sig
	}

	if err := session.Stop(); err != nil {
		logger.Warn().Err(err).Msg("capture stop")
	}
	fmt.Fprintf(os.Stdout, "captured %d packets to %s\n", session.PacketCount(), out.PCAPPath())
	return out.Finalize(0, nil)
}
