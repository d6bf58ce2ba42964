package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{"WARN", zerolog.WarnLevel, false},
		{"trace", zerolog.TraceLevel, false},
		{"loud", zerolog.InfoLevel, true},
	}
	for _, c := range cases {
		got, err := ParseLevel(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}
		if !c.wantErr && got != c.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab.log")
	logger, closeLog, err := New(Options{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info().Str("target", "192.0.2.10").Msg("session start")
	if err := closeLog(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"session start"`) {
		t.Errorf("log file missing message: %s", data)
	}
	if !strings.Contains(string(data), `"target":"192.0.2.10"`) {
		t.Errorf("log file missing field: %s", data)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "shouting"}); err == nil {
		t.Error("New accepted an unknown level")
	}
}

func TestComponentTagsEvents(t *testing.T) {
	var buf strings.Builder
	logger := zerolog.New(&buf)

	component := Component(logger, "fuzz")
	component.Info().Msg("mutation sent")

	if !strings.Contains(buf.String(), `"component":"fuzz"`) {
		t.Errorf("log line missing component field: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"mutation sent"`) {
		t.Errorf("log line missing message: %s", buf.String())
	}
}

func TestHex(t *testing.T) {
	got := Hex([]byte{0x01, 0xAB, 0x00})
	if got != "01 ab 00" {
		t.Errorf("Hex = %q, want %q", got, "01 ab 00")
	}
	if Hex(nil) != "" {
		t.Errorf("Hex(nil) = %q, want empty", Hex(nil))
	}
}
