package findings

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Hazy142/Hytale-Lab/internal/phase"
)

func sample() []Finding {
	return []Finding{
		{
			Kind:        KindDoS,
			Severity:    SeverityMedium,
			Title:       "Oversized chat message accepted",
			Description: "10000 byte message echoed without limit",
			PacketHex:   "03deadbeef",
		},
		{
			Kind:        KindAuthBypass,
			Severity:    SeverityCritical,
			Title:       "Auth packet accepted mid-game",
			Description: "AUTH_REQUEST processed during DAY phase",
			Reproduction: []string{
				"connect and reach DAY phase",
				"send AUTH_REQUEST with a second identity",
			},
			Mitigation: "reject auth packets outside AUTH_PENDING",
		},
	}
}

func TestAggregatorCollects(t *testing.T) {
	agg := NewAggregator(zerolog.Nop())
	for _, f := range sample() {
		agg.Add(f)
	}
	if got := agg.Count(); got != 2 {
		t.Fatalf("Count() = %d, want 2", got)
	}
	got := agg.Findings()
	if got[0].Title != "Oversized chat message accepted" {
		t.Errorf("findings out of arrival order: first = %q", got[0].Title)
	}

	// returned slice is detached
	got[0].Title = "mutated"
	if agg.Findings()[0].Title == "mutated" {
		t.Error("Findings() returned the internal slice")
	}
}

func TestAggregatorConcurrentAdd(t *testing.T) {
	agg := NewAggregator(zerolog.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				agg.Add(Finding{Kind: KindDoS, Severity: SeverityLow, Title: "x"})
			}
		}()
	}
	wg.Wait()
	if got := agg.Count(); got != 200 {
		t.Errorf("Count() = %d, want 200", got)
	}
}

func TestAddAnomalies(t *testing.T) {
	agg := NewAggregator(zerolog.Nop())
	agg.AddAnomalies([]phase.Anomaly{
		{Kind: phase.AnomalyInvalidTransition, Severity: "HIGH", Description: "END -> DAY accepted"},
		{Kind: phase.AnomalyRapidTransition, Severity: "MEDIUM", Description: "10ms apart"},
	})
	got := agg.Findings()
	if len(got) != 2 {
		t.Fatalf("got %d findings, want 2", len(got))
	}
	if got[0].Severity != SeverityHigh {
		t.Errorf("severity = %q, want %q", got[0].Severity, SeverityHigh)
	}
	if got[0].Kind != KindStateCorruption {
		t.Errorf("kind = %q, want %q", got[0].Kind, KindStateCorruption)
	}
	if !strings.Contains(got[0].Description, "heuristic") {
		t.Errorf("description %q should flag the heuristic nature", got[0].Description)
	}
}

func TestWriteTextOrdersBySeverity(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, "192.0.2.10:27015", sample()); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "Target: 192.0.2.10:27015") {
		t.Error("missing target line")
	}
	if !strings.Contains(out, "Total findings: 2") {
		t.Error("missing total line")
	}
	// critical finding must come before the medium one
	crit := strings.Index(out, "Auth packet accepted mid-game")
	med := strings.Index(out, "Oversized chat message accepted")
	if crit < 0 || med < 0 {
		t.Fatalf("report missing findings:\n%s", out)
	}
	if crit > med {
		t.Error("CRITICAL finding rendered after MEDIUM finding")
	}
	if !strings.Contains(out, "1. connect and reach DAY phase") {
		t.Error("missing numbered reproduction step")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, "192.0.2.10:27015", sample()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var report JSONReport
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if report.Total != 2 {
		t.Errorf("total = %d, want 2", report.Total)
	}
	if report.BySeverity[SeverityCritical] != 1 {
		t.Errorf("critical count = %d, want 1", report.BySeverity[SeverityCritical])
	}
	if report.Findings[1].Reproduction[0] != "connect and reach DAY phase" {
		t.Errorf("reproduction steps not preserved: %v", report.Findings[1].Reproduction)
	}
}

func TestCountBySeverity(t *testing.T) {
	counts := CountBySeverity(sample())
	if counts[SeverityMedium] != 1 || counts[SeverityCritical] != 1 || counts[SeverityLow] != 0 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
