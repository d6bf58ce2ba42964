package phase

import (
	"fmt"
	"time"
)

// Anomaly kinds. These are heuristic indicators of potential races, not
// proof that a real server accepted the sequence; the distinction matters
// for severity and must survive into any report built from them.
const (
	AnomalyInvalidTransition = "INVALID_TRANSITION_ACCEPTED"
	AnomalyRapidTransition   = "RAPID_TRANSITION"
	AnomalyPhaseLoop         = "PHASE_LOOP"
)

// RaceWindow is the gap between consecutive transitions below which they are
// flagged as a potential race window.
const RaceWindow = 50 * time.Millisecond

// Anomaly is one suspicious pattern found in the transition log.
type Anomaly struct {
	Kind        string        `json:"type"`
	Severity    string        `json:"severity"`
	Description string        `json:"description"`
	Transitions []Transition  `json:"transitions,omitempty"`
	Window      time.Duration `json:"-"`
	WindowMs    float64       `json:"time_diff_ms,omitempty"`
}

// DetectAnomalies runs three independent heuristics over the log in append
// order: invalid transitions, rapid consecutive transitions inside the race
// window, and A→B→A loop patterns. Append order governs the window and loop
// checks even when timestamps arrived out of order.
func (t *Tracker) DetectAnomalies() []Anomaly {
	var anomalies []Anomaly

	for _, tr := range t.log {
		if tr.Valid {
			continue
		}
		anomalies = append(anomalies, Anomaly{
			Kind:     AnomalyInvalidTransition,
			Severity: "HIGH",
			Description: fmt.Sprintf("state machine forbids %s -> %s (event %s) but it was observed",
				tr.From, tr.To, tr.Event),
			Transitions: []Transition{tr},
		})
	}

	for i := 0; i+1 < len(t.log); i++ {
		t1, t2 := t.log[i], t.log[i+1]
		gap := t2.Timestamp.Sub(t1.Timestamp)
		if gap >= RaceWindow {
			continue
		}
		anomalies = append(anomalies, Anomaly{
			Kind:     AnomalyRapidTransition,
			Severity: "MEDIUM",
			Description: fmt.Sprintf("%s -> %s followed by %s -> %s within %.2fms, potential race window",
				t1.From, t1.To, t2.From, t2.To, float64(gap.Microseconds())/1000),
			Transitions: []Transition{t1, t2},
			Window:      gap,
			WindowMs:    float64(gap.Microseconds()) / 1000,
		})
	}

	for i := 0; i+2 < len(t.log); i++ {
		t1, t2, t3 := t.log[i], t.log[i+1], t.log[i+2]
		if t1.From == t3.To && t1.To == t2.From && t2.To == t3.From {
			anomalies = append(anomalies, Anomaly{
				Kind:     AnomalyPhaseLoop,
				Severity: "MEDIUM",
				Description: fmt.Sprintf("loop pattern %s -> %s -> %s, possible state confusion",
					t1.From, t1.To, t1.From),
				Transitions: []Transition{t1, t2, t3},
			})
		}
	}

	return anomalies
}
