package phase

import (
	"time"

	"github.com/rs/zerolog"
)

// Transition is one recorded observation. Immutable once recorded; Valid is
// computed at record time from the static table and never revisited.
type Transition struct {
	From      Phase     `json:"from"`
	To        Phase     `json:"to"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Valid     bool      `json:"valid"`
}

// Tracker maintains the append-only transition log for one observed session.
// Callers feeding it from multiple goroutines must serialize calls to Record:
// validity and the anomaly heuristics depend on append order, not on the
// timestamps alone.
type Tracker struct {
	// Clock supplies timestamps; tests substitute a fake.
	Clock func() time.Time
	// Logger receives one event per recorded transition.
	Logger zerolog.Logger

	log     []Transition
	current Phase
}

// NewTracker returns a tracker starting in Init with a real clock and no
// logging.
func NewTracker() *Tracker {
	return &Tracker{
		Clock:   time.Now,
		Logger:  zerolog.Nop(),
		current: Init,
	}
}

// Current returns the phase the tracker last followed to.
func (t *Tracker) Current() Phase { return t.current }

// Record logs one observed transition. The tracker always follows the
// claimed phase, valid or not; flagging invalid claims is its entire
// purpose, so refusing them would defeat it.
func (t *Tracker) Record(from, to Phase, event string) Transition {
	tr := Transition{
		From:      from,
		To:        to,
		Event:     event,
		Timestamp: t.Clock(),
		Valid:     IsLegal(from, to),
	}
	t.log = append(t.log, tr)
	t.current = to

	evt := t.Logger.Info()
	if !tr.Valid {
		evt = t.Logger.Warn()
	}
	evt.Str("from", from.String()).
		Str("to", to.String()).
		Str("event", event).
		Bool("valid", tr.Valid).
		Msg("phase transition")

	return tr
}

// Log returns a copy of the transition log in append order.
func (t *Tracker) Log() []Transition {
	out := make([]Transition, len(t.log))
	copy(out, t.log)
	return out
}

// Invalid returns the recorded transitions the table forbids, in append
// order.
func (t *Tracker) Invalid() []Transition {
	var out []Transition
	for _, tr := range t.log {
		if !tr.Valid {
			out = append(out, tr)
		}
	}
	return out
}

// Stats summarizes the transition log.
type Stats struct {
	Total        int            `json:"total_transitions"`
	Invalid      int            `json:"invalid_transitions"`
	InvalidPct   float64        `json:"invalid_percentage"`
	PhaseCounts  map[string]int `json:"phase_distribution"`
	CurrentPhase string         `json:"current_phase"`
}

// Stats computes summary statistics over the log.
func (t *Tracker) Stats() Stats {
	s := Stats{
		Total:        len(t.log),
		PhaseCounts:  make(map[string]int),
		CurrentPhase: t.current.String(),
	}
	for _, tr := range t.log {
		s.PhaseCounts[tr.To.String()]++
		if !tr.Valid {
			s.Invalid++
		}
	}
	if s.Total > 0 {
		s.InvalidPct = float64(s.Invalid) / float64(s.Total) * 100
	}
	return s
}
