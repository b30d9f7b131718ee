package network

import (
	"testing"
	"time"
)

func TestBackoffDelayDoubles(t *testing.T) {
	base := 2 * time.Second
	cap := 30 * time.Second

	want := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	for i, w := range want {
		got := backoffDelay(base, cap, 0, i+1)
		if got != w {
			t.Errorf("backoffDelay(attempt=%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestBackoffDelayJitterBounds(t *testing.T) {
	base := time.Second
	cap := 8 * time.Second
	jitter := 500 * time.Millisecond

	for i := 0; i < 200; i++ {
		got := backoffDelay(base, cap, jitter, 2)
		if got < 2*time.Second || got >= 2*time.Second+jitter {
			t.Fatalf("backoffDelay with jitter = %v, want in [2s, 2.5s)", got)
		}
	}
}

func TestBackoffDelayClampsAttempt(t *testing.T) {
	if got := backoffDelay(time.Second, time.Minute, 0, 0); got != time.Second {
		t.Errorf("backoffDelay(attempt=0) = %v, want 1s", got)
	}
	// A huge attempt count must not overflow past the cap.
	if got := backoffDelay(time.Second, time.Minute, 0, 500); got != time.Minute {
		t.Errorf("backoffDelay(attempt=500) = %v, want 1m", got)
	}
}
