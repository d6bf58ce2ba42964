package timing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Hazy142/Hytale-Lab/internal/transport"
)

// Prober drives repeated exchanges against a server and records the
// latency of each.
type Prober struct {
	Client *transport.Client
	Logger zerolog.Logger
}

// RateResult is one probe pass at a fixed send rate.
type RateResult struct {
	Interval   time.Duration `json:"interval"`
	Stats      Stats         `json:"stats"`
	DropRate   float64       `json:"drop_rate"`
}

// ProbeRate sends count copies of probe spaced by interval and summarizes
// the replies. A silent server counts as a drop, not an error.
func (p *Prober) ProbeRate(ctx context.Context, probe []byte, count int, interval time.Duration) (RateResult, error) {
	if count < 1 {
		return RateResult{}, fmt.Errorf("probe count must be at least 1, got %d", count)
	}

	measurements := make([]Measurement, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return RateResult{}, err
		}

		sent := time.Now()
		_, err := p.Client.Exchange(ctx, probe)
		rtt := float64(time.Since(sent).Microseconds()) / 1000.0

		m := Measurement{RTTMs: rtt, Success: err == nil, SentAt: sent}
		if err != nil && !errors.Is(err, transport.ErrNoReply) {
			return RateResult{}, fmt.Errorf("probe %d: %w", i, err)
		}
		measurements = append(measurements, m)

		p.Logger.Debug().
			Int("probe", i).
			Float64("rtt_ms", rtt).
			Bool("replied", m.Success).
			Msg("probe exchange")

		if interval > 0 && i < count-1 {
			select {
			case <-time.After(interval):
			case <-ctx.Done():
				return RateResult{}, ctx.Err()
			}
		}
	}

	stats := Summarize(measurements)
	result := RateResult{Interval: interval, Stats: stats}
	if stats.Total > 0 {
		result.DropRate = float64(stats.Failed) / float64(stats.Total)
	}
	return result, nil
}

// FindThreshold walks intervals from slow to fast and returns the results
// plus the first interval where the drop rate crossed the limit. A zero
// threshold interval means the server kept up at every tested rate.
func (p *Prober) FindThreshold(ctx context.Context, probe []byte, intervals []time.Duration, perRate int, dropLimit float64) ([]RateResult, time.Duration, error) {
	var results []RateResult
	var threshold time.Duration

	for _, interval := range intervals {
		result, err := p.ProbeRate(ctx, probe, perRate, interval)
		if err != nil {
			return results, threshold, fmt.Errorf("probe at %v: %w", interval, err)
		}
		results = append(results, result)

		p.Logger.Info().
			Dur("interval", interval).
			Float64("drop_rate", result.DropRate).
			Float64("p95_ms", result.Stats.P95RTT).
			Msg("rate probe complete")

		if threshold == 0 && result.DropRate > dropLimit {
			threshold = interval
		}
	}
	return results, threshold, nil
}
