package delay

import (
	"context"
	"testing"
	"time"
)

func TestDurationStaysInBounds(t *testing.T) {
	policy := New(8, 12)

	var total time.Duration
	const samples = 2000
	for i := 0; i < samples; i++ {
		d := policy.Duration()
		if d < 8*time.Second || d > 12*time.Second {
			t.Fatalf("sample %d out of bounds: %v", i, d)
		}
		total += d
	}

	// The distribution concentrates near the midpoint; with 2000 samples the
	// mean lands well inside the middle of the interval.
	mean := total / samples
	if mean < 9500*time.Millisecond || mean > 10500*time.Millisecond {
		t.Errorf("mean %v not concentrated near midpoint", mean)
	}
}

func TestDurationDegenerateInterval(t *testing.T) {
	policy := New(3, 3)
	if d := policy.Duration(); d != 3*time.Second {
		t.Errorf("expected exactly 3s, got %v", d)
	}
}

func TestNewSwapsInvertedBounds(t *testing.T) {
	policy := New(12, 8)
	if policy.Min != 8 || policy.Max != 12 {
		t.Errorf("bounds not normalized: min=%v max=%v", policy.Min, policy.Max)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	policy := New(5, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := policy.Wait(ctx); err == nil {
		t.Fatal("expected context error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Wait did not return promptly after cancellation: %v", elapsed)
	}
}
