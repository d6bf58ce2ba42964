package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/Hazy142/Hytale-Lab/internal/artifact"
	"github.com/Hazy142/Hytale-Lab/internal/capture"
	"github.com/Hazy142/Hytale-Lab/internal/logging"
	"github.com/Hazy142/Hytale-Lab/internal/packet"
	"github.com/Hazy142/Hytale-Lab/internal/phase"
	"github.com/Hazy142/Hytale-Lab/internal/schema"
)

type traceFlags struct {
	pcapFile   string
	eventsFile string
	port       int
	scenarios  bool
	schemaPath string
	outputDir  string
	logLevel   string
}

// eventEntry is one recorded transition in an events JSON file.
type eventEntry struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Event string `json:"event"`
}

func newTraceCmd() *cobra.Command {
	flags := &traceFlags{}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Validate phase transitions from a capture or event log",
		Long: `Feed observed phase transitions through the state machine validator.
Transitions come from GamePhaseChange packets in a pcap file or from
a JSON event log. The run directory gets the transition log, anomaly
report and a Graphviz rendering of the observed state machine.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.scenarios {
				return runScenarios()
			}
			return runTrace(flags)
		},
	}

	cmd.Flags().StringVar(&flags.pcapFile, "pcap", "", "Capture file with GamePhaseChange packets")
	cmd.Flags().StringVar(&flags.eventsFile, "events", "", "JSON event log: [{from, to, event}]")
	cmd.Flags().IntVar(&flags.port, "port", 27015, "Game UDP port used in the capture")
	cmd.Flags().BoolVar(&flags.scenarios, "scenarios", false, "Evaluate the race window scenarios and exit")
	cmd.Flags().StringVar(&flags.schemaPath, "schema", "", "Schema YAML file (builtin schema when omitted)")
	cmd.Flags().StringVar(&flags.outputDir, "output", "output", "Output directory for run artifacts")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "Log level")

	return cmd
}

func runScenarios() error {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Scenario", "Expected", "Verdict", "Description"})
	for _, name := range phase.Scenarios() {
		result, err := phase.RunScenario(phase.NewTracker(), name)
		if err != nil {
			return err
		}
		table.Append([]string{result.Scenario, result.Expected, result.Verdict, result.Description})
	}
	table.Render()
	return nil
}

func runTrace(flags *traceFlags) error {
	logger, closeLog, err := newLogger(flags.logLevel, "")
	if err != nil {
		return err
	}
	defer fatalClose(closeLog)

	if (flags.pcapFile == "") == (flags.eventsFile == "") {
		return fmt.Errorf("exactly one of --pcap or --events is required")
	}

	tracker := phase.NewTracker()
	tracker.Logger = logging.Component(logger, "phase")

	if flags.pcapFile != "" {
		codec := packet.NewCodec(loadRegistry(flags.schemaPath, logger))
		if err := feedFromPCAP(tracker, codec, flags.pcapFile, flags.port); err != nil {
			return err
		}
	} else {
		if err := feedFromEvents(tracker, flags.eventsFile); err != nil {
			return err
		}
	}

	out, err := artifact.NewOutputManager(flags.outputDir, "trace")
	if err != nil {
		return err
	}
	if err := out.WriteTrace(tracker); err != nil {
		return err
	}
	if err := out.Finalize(0, nil); err != nil {
		return err
	}

	stats := tracker.Stats()
	fmt.Fprintf(os.Stdout, "transitions: %d total, %d invalid (%.1f%%)\n",
		stats.Total, stats.Invalid, stats.InvalidPct)
	for _, a := range tracker.DetectAnomalies() {
		fmt.Fprintf(os.Stdout, "[%s] %s: %s\n", a.Severity, a.Kind, a.Description)
	}
	for _, tr := range tracker.Invalid() {
		fmt.Fprintf(os.Stdout, "invalid %s -> %s, legal successors: %s\n",
			tr.From, tr.To, successorNames(tr.From))
	}
	fmt.Fprintf(os.Stdout, "run artifacts in %s\n", out.RunDir())
	return nil
}

// successorNames renders the legal next phases of p for the trace summary.
func successorNames(p phase.Phase) string {
	succ := phase.Successors(p)
	names := make([]string, len(succ))
	for i, s := range succ {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}

// feedFromPCAP replays the capture's phase change packets through the
// tracker. The claimed previous phase is the tracker's current one, since
// the wire format only carries the destination phase.
func feedFromPCAP(tracker *phase.Tracker, codec *packet.Codec, path string, port int) error {
	datagrams, err := capture.ExtractPayloads(path, port)
	if err != nil {
		return err
	}
	fed := 0
	for _, d := range datagrams {
		decoded := codec.Decode(d.Payload)
		if decoded.ID != schema.IDGamePhaseChange || decoded.Err != nil {
			continue
		}
		v, ok := decoded.Field("new_phase")
		if !ok {
			continue
		}
		to := phase.Phase(v.U)
		tracker.Record(tracker.Current(), to, "PHASE_CHANGE")
		fed++
	}
	if fed == 0 {
		return fmt.Errorf("no decodable phase change packets in %s", path)
	}
	return nil
}

func feedFromEvents(tracker *phase.Tracker, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read events file: %w", err)
	}
	var events []eventEntry
	if err := json.Unmarshal(data, &events); err != nil {
		return fmt.Errorf("parse events file: %w", err)
	}
	if len(events) == 0 {
		return fmt.Errorf("events file %s is empty", path)
	}
	for i, e := range events {
		from, ok := phase.Parse(e.From)
		if !ok {
			return fmt.Errorf("event %d: unknown phase %q", i, e.From)
		}
		to, ok := phase.Parse(e.To)
		if !ok {
			return fmt.Errorf("event %d: unknown phase %q", i, e.To)
		}
		tracker.Record(from, to, e.Event)
	}
	return nil
}
