// Package phase tracks the game's top-level session state machine and
// classifies observed transitions. It is an observer, not an enforcer: it
// follows whatever the traffic claims and flags the claims that the declared
// state machine forbids.
package phase

import "fmt"

// Phase is one named state in the session/round state machine.
type Phase uint8

const (
	Init Phase = iota
	AuthPending
	AuthComplete
	Lobby
	Day
	Voting
	Night
	End
	Dead
)

var phaseNames = [...]string{
	Init:         "INIT",
	AuthPending:  "AUTH_PENDING",
	AuthComplete: "AUTH_COMPLETE",
	Lobby:        "LOBBY",
	Day:          "DAY",
	Voting:       "VOTING",
	Night:        "NIGHT",
	End:          "END",
	Dead:         "DEAD",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// All lists every phase in declaration order.
func All() []Phase {
	return []Phase{Init, AuthPending, AuthComplete, Lobby, Day, Voting, Night, End, Dead}
}

// MarshalJSON renders phases by name, matching the display form.
func (p Phase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON accepts a phase name.
func (p *Phase) UnmarshalJSON(data []byte) error {
	name := string(data)
	if len(name) >= 2 && name[0] == '"' {
		name = name[1 : len(name)-1]
	}
	parsed, ok := Parse(name)
	if !ok {
		return fmt.Errorf("unknown phase %q", name)
	}
	*p = parsed
	return nil
}

// Parse maps a phase name to its Phase.
func Parse(s string) (Phase, bool) {
	for i, name := range phaseNames {
		if name == s {
			return Phase(i), true
		}
	}
	return Init, false
}

// legalTransitions is the declared state machine. Fixed at compile time;
// validity is stamped against this table once, at record time, and never
// revised.
var legalTransitions = map[Phase][]Phase{
	Init:         {AuthPending},
	AuthPending:  {AuthComplete, Init},
	AuthComplete: {Lobby, Init},
	Lobby:        {Day, Init},
	Day:          {Voting, Dead, End},
	Voting:       {Night, End},
	Night:        {Day, End, Dead},
	End:          {Lobby, Init},
	Dead:         {Lobby, Init},
}

// deniedEvents lists packet event labels a phase must not carry.
var deniedEvents = map[Phase][]string{
	Init:        {"MOVEMENT", "CHAT", "BLOCK_INTERACTION"},
	AuthPending: {"MOVEMENT", "BLOCK_INTERACTION"},
	Lobby:       {"BLOCK_INTERACTION"},
	Voting:      {"MOVEMENT", "BLOCK_INTERACTION"},
}

// IsLegal reports whether the declared table allows from→to.
func IsLegal(from, to Phase) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsEventAllowed reports whether an event label is permitted while in the
// given phase. Anything not denylisted is allowed.
func IsEventAllowed(p Phase, event string) bool {
	for _, denied := range deniedEvents[p] {
		if denied == event {
			return false
		}
	}
	return true
}

// Successors returns the phases legally reachable from p.
func Successors(p Phase) []Phase {
	out := make([]Phase, len(legalTransitions[p]))
	copy(out, legalTransitions[p])
	return out
}
