// Package artifact handles structured output artifacts for lab runs.
// Each run gets its own timestamped directory under the output root.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Hazy142/Hytale-Lab/internal/findings"
	"github.com/Hazy142/Hytale-Lab/internal/fuzz"
	"github.com/Hazy142/Hytale-Lab/internal/phase"
	"github.com/Hazy142/Hytale-Lab/internal/timing"
)

// RunMetadata describes one lab run.
type RunMetadata struct {
	RunID     string    `json:"run_id"`
	Mode      string    `json:"mode"` // fuzz, suite, trace, timing, replay
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  string    `json:"duration"`

	TargetHost string `json:"target_host,omitempty"`
	TargetPort int    `json:"target_port,omitempty"`
	SchemaPath string `json:"schema_path,omitempty"`

	MutationsSent int    `json:"mutations_sent,omitempty"`
	FindingCount  int    `json:"finding_count"`
	ExitCode      int    `json:"exit_code"`
	Error         string `json:"error,omitempty"`

	Artifacts Paths `json:"artifacts"`
}

// Paths lists run artifacts relative to the run directory.
type Paths struct {
	RunJSON      string `json:"run_json"`
	FindingsJSON string `json:"findings_json,omitempty"`
	ReportTxt    string `json:"report_txt,omitempty"`
	Transitions  string `json:"transitions_json,omitempty"`
	StateDOT     string `json:"state_machine_dot,omitempty"`
	FuzzRecords  string `json:"fuzz_records_json,omitempty"`
	TimingJSON   string `json:"timing_json,omitempty"`
	PCAPFile     string `json:"pcap_file,omitempty"`
}

// OutputManager owns the run directory and writes artifacts into it.
type OutputManager struct {
	runDir   string
	runID    string
	metadata *RunMetadata
}

// NewOutputManager creates the run directory under outputDir.
func NewOutputManager(outputDir, mode string) (*OutputManager, error) {
	runID := time.Now().Format("20060102-150405")
	runDir := filepath.Join(outputDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}

	return &OutputManager{
		runDir: runDir,
		runID:  runID,
		metadata: &RunMetadata{
			RunID:     runID,
			Mode:      mode,
			StartTime: time.Now(),
			Artifacts: Paths{RunJSON: "run.json"},
		},
	}, nil
}

// RunDir returns the run directory path.
func (m *OutputManager) RunDir() string {
	return m.runDir
}

// RunID returns the run identifier.
func (m *OutputManager) RunID() string {
	return m.runID
}

// SetTarget records the server under test.
func (m *OutputManager) SetTarget(host string, port int) {
	m.metadata.TargetHost = host
	m.metadata.TargetPort = port
}

// SetSchema records the schema file used.
func (m *OutputManager) SetSchema(path string) {
	m.metadata.SchemaPath = path
}

// SetMutationsSent records how many mutated packets went out.
func (m *OutputManager) SetMutationsSent(n int) {
	m.metadata.MutationsSent = n
}

// PCAPPath returns the full path for the capture file and records it.
func (m *OutputManager) PCAPPath() string {
	m.metadata.Artifacts.PCAPFile = "capture.pcap"
	return filepath.Join(m.runDir, "capture.pcap")
}

// WriteFindings writes findings.json and report.txt.
func (m *OutputManager) WriteFindings(target string, found []findings.Finding) error {
	jf, err := os.Create(filepath.Join(m.runDir, "findings.json"))
	if err != nil {
		return fmt.Errorf("create findings.json: %w", err)
	}
	defer jf.Close()
	if err := findings.WriteJSON(jf, target, found); err != nil {
		return fmt.Errorf("write findings.json: %w", err)
	}
	m.metadata.Artifacts.FindingsJSON = "findings.json"

	tf, err := os.Create(filepath.Join(m.runDir, "report.txt"))
	if err != nil {
		return fmt.Errorf("create report.txt: %w", err)
	}
	defer tf.Close()
	if err := findings.WriteText(tf, target, found); err != nil {
		return fmt.Errorf("write report.txt: %w", err)
	}
	m.metadata.Artifacts.ReportTxt = "report.txt"
	m.metadata.FindingCount = len(found)
	return nil
}

// WriteTrace writes transitions.json and state_machine.dot from a tracker.
func (m *OutputManager) WriteTrace(tracker *phase.Tracker) error {
	tf, err := os.Create(filepath.Join(m.runDir, "transitions.json"))
	if err != nil {
		return fmt.Errorf("create transitions.json: %w", err)
	}
	defer tf.Close()
	if err := tracker.WriteJSON(tf); err != nil {
		return fmt.Errorf("write transitions.json: %w", err)
	}
	m.metadata.Artifacts.Transitions = "transitions.json"

	dotPath := filepath.Join(m.runDir, "state_machine.dot")
	if err := os.WriteFile(dotPath, []byte(tracker.DOT()), 0644); err != nil {
		return fmt.Errorf("write state_machine.dot: %w", err)
	}
	m.metadata.Artifacts.StateDOT = "state_machine.dot"
	return nil
}

// WriteFuzzRecords writes the mutation log as JSON.
func (m *OutputManager) WriteFuzzRecords(records []fuzz.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fuzz records: %w", err)
	}
	path := filepath.Join(m.runDir, "fuzz_records.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write fuzz_records.json: %w", err)
	}
	m.metadata.Artifacts.FuzzRecords = "fuzz_records.json"
	return nil
}

// WriteTiming writes rate probe results as JSON.
func (m *OutputManager) WriteTiming(results []timing.RateResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal timing results: %w", err)
	}
	path := filepath.Join(m.runDir, "timing.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write timing.json: %w", err)
	}
	m.metadata.Artifacts.TimingJSON = "timing.json"
	return nil
}

// Finalize stamps the end time and writes run.json.
func (m *OutputManager) Finalize(exitCode int, runErr error) error {
	m.metadata.EndTime = time.Now()
	m.metadata.Duration = m.metadata.EndTime.Sub(m.metadata.StartTime).String()
	m.metadata.ExitCode = exitCode
	if runErr != nil {
		m.metadata.Error = runErr.Error()
	}

	data, err := json.MarshalIndent(m.metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.runDir, "run.json"), data, 0644); err != nil {
		return fmt.Errorf("write run.json: %w", err)
	}
	return nil
}
