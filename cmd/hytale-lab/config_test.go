package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func TestLoadLabConfigDefaults(t *testing.T) {
	cfg, err := loadLabConfig("")
	if err != nil {
		t.Fatalf("loadLabConfig: %v", err)
	}
	if cfg.Target.Host != "127.0.0.1" || cfg.Target.Port != 27015 {
		t.Errorf("target: got %s:%d, want 127.0.0.1:27015", cfg.Target.Host, cfg.Target.Port)
	}
	if cfg.Transport.TimeoutMs != 2000 {
		t.Errorf("timeout_ms: got %d, want 2000", cfg.Transport.TimeoutMs)
	}
}

func TestLoadLabConfigMissingFile(t *testing.T) {
	if _, err := loadLabConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing config file: want error")
	}
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lab.yaml")
	data := []byte(`target:
  host: 192.0.2.50
  port: 31111
transport:
  timeout_ms: 750
  rate_per_sec: 5
fuzz:
  delay_ms: 10
log:
  level: debug
output_dir: runs
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestFuzzApplyConfigFillsUnsetFlags(t *testing.T) {
	flags := &fuzzFlags{configPath: writeTestConfig(t)}

	fs := pflag.NewFlagSet("fuzz", pflag.ContinueOnError)
	fs.StringVar(&flags.target, "target", "127.0.0.1", "")
	fs.IntVar(&flags.port, "port", 27015, "")
	fs.IntVar(&flags.delayMs, "delay", 50, "")
	fs.IntVar(&flags.timeoutMs, "timeout", 2000, "")
	fs.StringVar(&flags.logLevel, "log-level", "info", "")
	fs.StringVar(&flags.outputDir, "output", "output", "")
	if err := fs.Parse([]string{"--port", "4444"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	if err := flags.applyConfig(fs); err != nil {
		t.Fatalf("applyConfig: %v", err)
	}

	if flags.port != 4444 {
		t.Errorf("explicit --port overridden: got %d, want 4444", flags.port)
	}
	if flags.target != "192.0.2.50" {
		t.Errorf("target from config: got %q, want 192.0.2.50", flags.target)
	}
	if flags.delayMs != 10 {
		t.Errorf("delay from config: got %d, want 10", flags.delayMs)
	}
	if flags.timeoutMs != 750 {
		t.Errorf("timeout from config: got %d, want 750", flags.timeoutMs)
	}
	if flags.logLevel != "debug" {
		t.Errorf("log level from config: got %q, want debug", flags.logLevel)
	}
	if flags.outputDir != "runs" {
		t.Errorf("output dir from config: got %q, want runs", flags.outputDir)
	}
}

func TestFuzzApplyConfigNoFileKeepsFlagDefaults(t *testing.T) {
	flags := &fuzzFlags{}

	fs := pflag.NewFlagSet("fuzz", pflag.ContinueOnError)
	fs.StringVar(&flags.target, "target", "127.0.0.1", "")
	fs.IntVar(&flags.delayMs, "delay", 50, "")
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse: %v", err)
	}

	if err := flags.applyConfig(fs); err != nil {
		t.Fatalf("applyConfig: %v", err)
	}
	if flags.target != "127.0.0.1" || flags.delayMs != 50 {
		t.Errorf("defaults disturbed: target %q, delay %d", flags.target, flags.delayMs)
	}
}

func TestRunCommandsTakeConfigFlag(t *testing.T) {
	cmds := map[string]*cobra.Command{
		"fuzz":    newFuzzCmd(),
		"suite":   newSuiteCmd(),
		"timing":  newTimingCmd(),
		"capture": newCaptureCmd(),
		"replay":  newReplayCmd(),
	}
	for name, cmd := range cmds {
		if cmd.Flags().Lookup("config") == nil {
			t.Errorf("%s command has no --config flag", name)
		}
	}
}
