package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Hazy142/Hytale-Lab/internal/findings"
	"github.com/Hazy142/Hytale-Lab/internal/phase"
	"github.com/Hazy142/Hytale-Lab/internal/tui"
)

type browseFlags struct {
	runDir string
}

func newBrowseCmd() *cobra.Command {
	flags := &browseFlags{}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse a run's findings and transitions interactively",
		Long: `Open the findings and phase transitions of a finished run in a
terminal browser. Press c on a finding to copy its packet hex to the
clipboard.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(flags)
		},
	}

	cmd.Flags().StringVar(&flags.runDir, "run", "", "Run directory, e.g. output/fuzz-20260830-120000 (required)")
	cmd.MarkFlagRequired("run")

	return cmd
}

func runBrowse(flags *browseFlags) error {
	report, err := loadFindingsReport(filepath.Join(flags.runDir, "findings.json"))
	if err != nil {
		return err
	}
	transitions, err := loadTransitions(filepath.Join(flags.runDir, "transitions.json"))
	if err != nil {
		return err
	}
	if len(report.Findings) == 0 && len(transitions) == 0 {
		return fmt.Errorf("nothing to browse in %s: no findings.json or transitions.json", flags.runDir)
	}
	return tui.Run(report.Target, report.Findings, transitions)
}

// loadFindingsReport reads findings.json, tolerating its absence: a trace-only
// run has transitions but no findings.
func loadFindingsReport(path string) (findings.JSONReport, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return findings.JSONReport{}, nil
	}
	if err != nil {
		return findings.JSONReport{}, fmt.Errorf("read findings: %w", err)
	}
	var report findings.JSONReport
	if err := json.Unmarshal(data, &report); err != nil {
		return findings.JSONReport{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return report, nil
}

func loadTransitions(path string) ([]phase.Transition, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read transitions: %w", err)
	}
	var report phase.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return report.Transitions, nil
}
