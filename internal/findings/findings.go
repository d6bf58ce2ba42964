// Package findings collects structured vulnerability records from mutation
// trials and state-machine analysis and renders them as reports. It owns
// formatting and aggregation only; classification stays with the producers.
package findings

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Hazy142/Hytale-Lab/internal/phase"
)

// Kind classifies a finding for reporting.
type Kind string

const (
	KindAuthBypass      Kind = "Authentication Bypass"
	KindIDOR            Kind = "Insecure Direct Object Reference"
	KindDoS             Kind = "Denial of Service"
	KindInfoDisclosure  Kind = "Information Disclosure"
	KindServerCrash     Kind = "Server Crash"
	KindStateCorruption Kind = "State Corruption"
	KindPacketInjection Kind = "Packet Injection"
	KindResourceLeak    Kind = "Resource Leak"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Finding is one structured vulnerability record with enough reproduction
// data to replay it.
type Finding struct {
	Kind         Kind     `json:"kind"`
	Severity     Severity `json:"severity"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Reproduction []string `json:"reproduction_steps,omitempty"`
	Impact       string   `json:"impact,omitempty"`
	Mitigation   string   `json:"mitigation,omitempty"`
	PacketHex    string   `json:"packet_hex,omitempty"`
}

// Aggregator accumulates findings for one run. Safe for concurrent Add.
type Aggregator struct {
	logger zerolog.Logger

	mu       sync.Mutex
	findings []Finding
}

// NewAggregator builds an aggregator that logs each finding as it arrives.
func NewAggregator(logger zerolog.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Add records a finding.
func (a *Aggregator) Add(f Finding) {
	a.mu.Lock()
	a.findings = append(a.findings, f)
	a.mu.Unlock()

	a.logger.Warn().
		Str("kind", string(f.Kind)).
		Str("severity", string(f.Severity)).
		Str("title", f.Title).
		Msg("finding recorded")
}

// Findings returns a copy of the collected findings in arrival order.
func (a *Aggregator) Findings() []Finding {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Finding, len(a.findings))
	copy(out, a.findings)
	return out
}

// Count returns the number of collected findings.
func (a *Aggregator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.findings)
}

// AddAnomalies converts state-machine anomalies into findings. The anomaly
// severities carry over unchanged; they are heuristic indicators, and the
// description keeps saying so rather than claiming a confirmed server-side
// acceptance.
func (a *Aggregator) AddAnomalies(anomalies []phase.Anomaly) {
	for _, an := range anomalies {
		a.Add(Finding{
			Kind:     KindStateCorruption,
			Severity: Severity(an.Severity),
			Title:    fmt.Sprintf("Phase anomaly: %s", an.Kind),
			Description: an.Description +
				" (heuristic indicator from the transition log, not proof of server acceptance)",
		})
	}
}
