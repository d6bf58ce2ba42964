// Package timing measures server response latency and probes the rate
// limits around phase transitions.
package timing

import (
	"math"
	"sort"
	"time"
)

// Measurement is one send/reply observation.
type Measurement struct {
	RTTMs   float64   `json:"rtt_ms"`
	Success bool      `json:"success"`
	SentAt  time.Time `json:"sent_at"`
}

// Stats summarizes a series of measurements. Percentiles cover successful
// exchanges only.
type Stats struct {
	Total     int     `json:"total"`
	Success   int     `json:"success"`
	Failed    int     `json:"failed"`
	MeanRTT   float64 `json:"mean_rtt_ms"`
	P50RTT    float64 `json:"p50_rtt_ms"`
	P95RTT    float64 `json:"p95_rtt_ms"`
	P99RTT    float64 `json:"p99_rtt_ms"`
	MinRTT    float64 `json:"min_rtt_ms"`
	MaxRTT    float64 `json:"max_rtt_ms"`
	StddevRTT float64 `json:"stddev_rtt_ms"`
}

// Summarize computes distribution statistics over the measurements.
func Summarize(measurements []Measurement) Stats {
	stats := Stats{Total: len(measurements)}

	rtts := make([]float64, 0, len(measurements))
	for _, m := range measurements {
		if !m.Success {
			stats.Failed++
			continue
		}
		stats.Success++
		rtts = append(rtts, m.RTTMs)
	}
	if len(rtts) == 0 {
		return stats
	}

	sort.Float64s(rtts)
	stats.MinRTT = rtts[0]
	stats.MaxRTT = rtts[len(rtts)-1]
	stats.P50RTT = percentile(rtts, 0.50)
	stats.P95RTT = percentile(rtts, 0.95)
	stats.P99RTT = percentile(rtts, 0.99)

	var sum float64
	for _, v := range rtts {
		sum += v
	}
	stats.MeanRTT = sum / float64(len(rtts))

	var sq float64
	for _, v := range rtts {
		d := v - stats.MeanRTT
		sq += d * d
	}
	stats.StddevRTT = math.Sqrt(sq / float64(len(rtts)))

	return stats
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
