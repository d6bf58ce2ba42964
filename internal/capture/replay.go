package capture

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Hazy142/Hytale-Lab/internal/transport"
)

// Replayer resends captured client traffic against a live server.
type Replayer struct {
	Client *transport.Client
	Logger zerolog.Logger

	// PreserveGaps replays with the original inter-packet timing instead
	// of leaving pacing to the client's rate limiter.
	PreserveGaps bool
}

// ReplayResult summarizes a replay pass.
type ReplayResult struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
}

// Replay sends every client-to-server datagram in order. Server-to-client
// traffic in the capture is skipped.
func (r *Replayer) Replay(ctx context.Context, datagrams []Datagram, serverPort int) (ReplayResult, error) {
	var result ReplayResult
	var prev time.Time

	for _, d := range datagrams {
		if !d.ToServer(serverPort) {
			result.Skipped++
			continue
		}

		if r.PreserveGaps && !prev.IsZero() {
			gap := d.Timestamp.Sub(prev)
			if gap > 0 {
				select {
				case <-time.After(gap):
				case <-ctx.Done():
					return result, ctx.Err()
				}
			}
		}
		prev = d.Timestamp

		if err := r.Client.Send(ctx, d.Payload); err != nil {
			return result, err
		}
		result.Sent++

		r.Logger.Debug().
			Int("size", len(d.Payload)).
			Uint16("dst_port", d.DstPort).
			Msg("replayed datagram")
	}
	return result, nil
}
