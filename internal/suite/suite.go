// Package suite runs targeted security checks against a live server. Each
// check sends crafted packets and turns suspicious server behavior into
// findings. A silent server is the expected baseline for malformed input,
// so checks compare against a known-good probe before claiming anything.
package suite

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/Hazy142/Hytale-Lab/internal/findings"
	"github.com/Hazy142/Hytale-Lab/internal/logging"
	"github.com/Hazy142/Hytale-Lab/internal/packet"
	"github.com/Hazy142/Hytale-Lab/internal/schema"
	"github.com/Hazy142/Hytale-Lab/internal/transport"
	"github.com/Hazy142/Hytale-Lab/internal/wire"
)

// Check is one named security check.
type Check struct {
	Name        string
	Description string
	run         func(ctx context.Context, r *Runner) error
}

// Result reports one executed check.
type Result struct {
	Name     string `json:"name"`
	Findings int    `json:"findings"`
	Err      string `json:"error,omitempty"`
}

// Runner wires the checks to a client, codec and finding sink.
type Runner struct {
	Client *transport.Client
	Codec  *packet.Codec
	Agg    *findings.Aggregator
	Logger zerolog.Logger
}

// Checks returns all checks sorted by name.
func Checks() []Check {
	out := make([]Check, len(allChecks))
	copy(out, allChecks)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds a check by name.
func Lookup(name string) (Check, bool) {
	for _, c := range allChecks {
		if c.Name == name {
			return c, true
		}
	}
	return Check{}, false
}

// Run executes the named checks, or all of them when names is empty.
func (r *Runner) Run(ctx context.Context, names []string) ([]Result, error) {
	checks := Checks()
	if len(names) > 0 {
		checks = checks[:0]
		for _, name := range names {
			c, ok := Lookup(name)
			if !ok {
				return nil, fmt.Errorf("unknown check %q", name)
			}
			checks = append(checks, c)
		}
	}

	var results []Result
	for _, c := range checks {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		before := r.Agg.Count()
		r.Logger.Info().Str("check", c.Name).Msg("running check")

		err := c.run(ctx, r)
		result := Result{Name: c.Name, Findings: r.Agg.Count() - before}
		if err != nil {
			result.Err = err.Error()
		}
		results = append(results, result)
	}
	return results, nil
}

// exchange sends and reports whether the server replied at all. Transport
// failures other than a quiet server propagate.
func (r *Runner) exchange(ctx context.Context, data []byte) (bool, error) {
	_, err := r.Client.Exchange(ctx, data)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, transport.ErrNoReply) {
		return false, nil
	}
	return false, err
}

// baseline sends a well-formed movement packet to confirm the server is
// still responsive.
func (r *Runner) baseline(ctx context.Context) (bool, error) {
	values, err := r.Codec.Defaults(schema.IDMovement)
	if err != nil {
		return false, err
	}
	raw, _, err := r.Codec.Encode(schema.IDMovement, values)
	if err != nil {
		return false, err
	}
	return r.exchange(ctx, raw)
}

var allChecks = []Check{
	{
		Name:        "identifier-forgery",
		Description: "movement packets with forged player identifiers",
		run:         checkIdentifierForgery,
	},
	{
		Name:        "varint-overflow",
		Description: "malformed length-prefix encodings",
		run:         checkVarIntOverflow,
	},
	{
		Name:        "oversized-length",
		Description: "chat message length claiming 4GB",
		run:         checkOversizedLength,
	},
	{
		Name:        "special-floats",
		Description: "NaN and infinity in position fields",
		run:         checkSpecialFloats,
	},
	{
		Name:        "empty-string",
		Description: "zero-length chat message",
		run:         checkEmptyString,
	},
	{
		Name:        "stale-tick",
		Description: "movement replay with an ancient tick counter",
		run:         checkStaleTick,
	},
	{
		Name:        "spawn-flood",
		Description: "burst of entity spawns followed by a health probe",
		run:         checkSpawnFlood,
	},
}

// Forged identifiers carry a fixed test prefix so they cannot collide with
// a real player by accident.
var forgedIdentifiers = []string{
	"deadbeef000000000000000000000001",
	"deadbeef000000000000000000000002",
	"deadbeef0000ffffffffffffffff0000",
}

func checkIdentifierForgery(ctx context.Context, r *Runner) error {
	for _, hexID := range forgedIdentifiers {
		id, err := wire.IdentifierHex(hexID)
		if err != nil {
			return err
		}
		values, err := r.Codec.Defaults(schema.IDMovement)
		if err != nil {
			return err
		}
		values["player_id"] = id
		values["position"] = wire.Vec3f(100, 64, 100)
		values["tick"] = wire.Uint(wire.TypeU32, 1000)

		raw, _, err := r.Codec.Encode(schema.IDMovement, values)
		if err != nil {
			return err
		}
		replied, err := r.exchange(ctx, raw)
		if err != nil {
			return err
		}
		if replied {
			r.Agg.Add(findings.Finding{
				Kind:        findings.KindIDOR,
				Severity:    findings.SeverityCritical,
				Title:       "Player identifier forgery accepted",
				Description: fmt.Sprintf("Server processed a movement packet carrying the unauthenticated identifier %s.", hexID),
				Reproduction: []string{
					"craft a movement packet",
					fmt.Sprintf("set player_id to %s", hexID),
					"send it to the game port and observe a reply",
				},
				Impact:     "An attacker can move, and potentially act, as another player without holding their session.",
				Mitigation: "Bind the player identifier to the authenticated session and drop packets where they disagree.",
				PacketHex:  logging.Hex(raw),
			})
			return nil
		}
	}
	return nil
}

// Malformed length-prefix encodings from hand inspection of the format.
// The first entry is valid and doubles as the control.
var varIntProbes = [][]byte{
	{0xFF, 0xFF, 0xFF, 0xFF, 0x7F},       // valid 5-byte maximum
	{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}, // sixth byte
	{0xFF, 0xFF, 0xFF, 0xFF, 0xFF},       // continuation never ends
	{0xFF},                               // truncated
	{0x80, 0x00},                         // zero with continuation bit
}

func checkVarIntOverflow(ctx context.Context, r *Runner) error {
	for i, probe := range varIntProbes {
		if _, err := r.exchange(ctx, probe); err != nil {
			return err
		}
		if i == 0 {
			continue
		}
		// malformed input going quiet is normal; the server being unable
		// to answer a clean probe afterwards is not
		alive, err := r.baseline(ctx)
		if err != nil {
			return err
		}
		if !alive {
			r.Agg.Add(findings.Finding{
				Kind:        findings.KindDoS,
				Severity:    findings.SeverityHigh,
				Title:       "Server unresponsive after malformed length prefix",
				Description: fmt.Sprintf("After receiving the bytes %s the server stopped answering well-formed packets.", logging.Hex(probe)),
				Reproduction: []string{
					fmt.Sprintf("send raw bytes %s to the game port", logging.Hex(probe)),
					"send a well-formed movement packet",
					"observe no reply to the valid packet",
				},
				Impact:     "A single unauthenticated datagram can hang or crash the packet parser.",
				Mitigation: "Bound the variable-length integer decoder to five bytes and reject trailing continuation bits.",
				PacketHex:  logging.Hex(probe),
			})
			return nil
		}
	}
	return nil
}

func checkOversizedLength(ctx context.Context, r *Runner) error {
	// chat packet whose message length claims 0xFFFFFFFF with no body
	raw := wire.EncodeVarInt(schema.IDChat)
	raw = append(raw, make([]byte, 16)...)
	raw = append(raw, 0xFF, 0xFF, 0xFF, 0xFF, 0x0F)

	if _, err := r.exchange(ctx, raw); err != nil {
		return err
	}
	alive, err := r.baseline(ctx)
	if err != nil {
		return err
	}
	if !alive {
		r.Agg.Add(findings.Finding{
			Kind:        findings.KindDoS,
			Severity:    findings.SeverityHigh,
			Title:       "Length field accepted before allocation",
			Description: "A chat packet claiming a 4GB message length left the server unresponsive, consistent with an unchecked allocation.",
			Reproduction: []string{
				"craft a chat packet",
				"set the message length prefix to 0xFFFFFFFF with no message bytes",
				"send it and observe the server stop answering",
			},
			Impact:     "Memory exhaustion from a single datagram.",
			Mitigation: "Cap message lengths well below the datagram size before allocating.",
			PacketHex:  logging.Hex(raw),
		})
	}
	return nil
}

func checkSpecialFloats(ctx context.Context, r *Runner) error {
	specials := []struct {
		name string
		v    float32
	}{
		{"NaN", float32(math.NaN())},
		{"Infinity", float32(math.Inf(1))},
		{"-Infinity", float32(math.Inf(-1))},
	}
	for _, s := range specials {
		values, err := r.Codec.Defaults(schema.IDMovement)
		if err != nil {
			return err
		}
		values["position"] = wire.Vec3f(s.v, s.v, s.v)

		raw, _, err := r.Codec.Encode(schema.IDMovement, values)
		if err != nil {
			return err
		}
		if _, err := r.exchange(ctx, raw); err != nil {
			return err
		}
		alive, err := r.baseline(ctx)
		if err != nil {
			return err
		}
		if !alive {
			r.Agg.Add(findings.Finding{
				Kind:        findings.KindServerCrash,
				Severity:    findings.SeverityMedium,
				Title:       fmt.Sprintf("Server unresponsive after %s position", s.name),
				Description: fmt.Sprintf("Movement with %s in every position component left the server unable to answer a clean probe.", s.name),
				Impact:      "Physics or world state handling chokes on non-finite coordinates.",
				Mitigation:  "Reject non-finite floats and clamp coordinates to world bounds.",
				PacketHex:   logging.Hex(raw),
			})
			return nil
		}
	}
	return nil
}

func checkEmptyString(ctx context.Context, r *Runner) error {
	values, err := r.Codec.Defaults(schema.IDChat)
	if err != nil {
		return err
	}
	values["message"] = wire.Str("")

	raw, _, err := r.Codec.Encode(schema.IDChat, values)
	if err != nil {
		return err
	}
	if _, err := r.exchange(ctx, raw); err != nil {
		return err
	}
	alive, err := r.baseline(ctx)
	if err != nil {
		return err
	}
	if !alive {
		r.Agg.Add(findings.Finding{
			Kind:        findings.KindServerCrash,
			Severity:    findings.SeverityLow,
			Title:       "Server unresponsive after empty chat message",
			Description: "A zero-length chat message left the server unable to answer a clean probe.",
			PacketHex:   logging.Hex(raw),
		})
	}
	return nil
}

func checkStaleTick(ctx context.Context, r *Runner) error {
	values, err := r.Codec.Defaults(schema.IDMovement)
	if err != nil {
		return err
	}
	values["tick"] = wire.Uint(wire.TypeU32, 1)

	raw, _, err := r.Codec.Encode(schema.IDMovement, values)
	if err != nil {
		return err
	}
	replied, err := r.exchange(ctx, raw)
	if err != nil {
		return err
	}
	if replied {
		r.Agg.Add(findings.Finding{
			Kind:        findings.KindPacketInjection,
			Severity:    findings.SeverityMedium,
			Title:       "Stale tick counter accepted",
			Description: "The server processed a movement packet with tick 1, so old traffic can be replayed out of order.",
			Reproduction: []string{
				"capture a movement packet",
				"rewrite its tick field to 1",
				"resend it and observe a reply",
			},
			Impact:     "Replay and reordering attacks against player position.",
			Mitigation: "Track the last seen tick per session and drop packets at or below it.",
			PacketHex:  logging.Hex(raw),
		})
	}
	return nil
}

const spawnFloodCount = 64

func checkSpawnFlood(ctx context.Context, r *Runner) error {
	values, err := r.Codec.Defaults(schema.IDEntitySpawn)
	if err != nil {
		return err
	}
	raw, _, err := r.Codec.Encode(schema.IDEntitySpawn, values)
	if err != nil {
		return err
	}
	for i := 0; i < spawnFloodCount; i++ {
		if err := r.Client.Send(ctx, raw); err != nil {
			return err
		}
	}
	alive, err := r.baseline(ctx)
	if err != nil {
		return err
	}
	if !alive {
		r.Agg.Add(findings.Finding{
			Kind:        findings.KindResourceLeak,
			Severity:    findings.SeverityHigh,
			Title:       "Server degraded under spawn burst",
			Description: fmt.Sprintf("After %d entity spawn packets in a burst the server stopped answering a clean probe.", spawnFloodCount),
			Impact:      "Unbounded entity creation exhausts server resources.",
			Mitigation:  "Rate-limit spawn requests per session and cap live entities.",
			PacketHex:   logging.Hex(raw),
		})
	}
	return nil
}
