package delay

import (
	"context"
	"math/rand"
	"time"
)

// Policy produces randomized pauses between outbound requests. The site
// tolerates slow, human-paced clients; request bursts get the account flagged.
type Policy struct {
	Min float64 // seconds
	Max float64
}

func New(min, max float64) *Policy {
	if max < min {
		min, max = max, min
	}
	return &Policy{Min: min, Max: max}
}

// Duration samples a normal distribution centered on the interval midpoint
// (stddev of range/6 keeps ~99.7% of raw samples in bounds) and resamples
// until the value falls inside [Min, Max].
func (p *Policy) Duration() time.Duration {
	mean := (p.Min + p.Max) / 2
	stddev := (p.Max - p.Min) / 6

	for {
		seconds := rand.NormFloat64()*stddev + mean
		if seconds >= p.Min && seconds <= p.Max {
			return time.Duration(seconds * float64(time.Second))
		}
	}
}

// Wait blocks for one sampled duration or until ctx is done.
func (p *Policy) Wait(ctx context.Context) error {
	timer := time.NewTimer(p.Duration())
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
