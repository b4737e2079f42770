package realtime

import (
	"testing"
	"time"
)

func TestBackoff_DelayWithoutJitter(t *testing.T) {
	p := newBackoffPolicy(500*time.Millisecond, 5*time.Second, 0)

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, 1000 * time.Millisecond},
		{2, 2000 * time.Millisecond},
		{3, 4000 * time.Millisecond},
		{4, 5000 * time.Millisecond}, // 8000 clipped to the cap
		{5, 5000 * time.Millisecond},
		{20, 5000 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := p.delay(tc.attempt); got != tc.want {
			t.Errorf("delay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestBackoff_JitterRange(t *testing.T) {
	p := newBackoffPolicy(500*time.Millisecond, 5*time.Second, 200*time.Millisecond)

	for attempt := 0; attempt < 8; attempt++ {
		base := 500 * time.Millisecond << uint(attempt)
		if base > 5*time.Second {
			base = 5 * time.Second
		}
		for i := 0; i < 200; i++ {
			got := p.delay(attempt)
			if got < base || got >= base+200*time.Millisecond {
				t.Fatalf("delay(%d) = %v outside [%v, %v)", attempt, got, base, base+200*time.Millisecond)
			}
		}
	}
}

func TestBackoff_JitterDrawUsed(t *testing.T) {
	p := newBackoffPolicy(500*time.Millisecond, 5*time.Second, 200*time.Millisecond)

	var gotN int64
	p.randN = func(n int64) int64 {
		gotN = n
		return 199 * int64(time.Millisecond)
	}

	if got, want := p.delay(0), 699*time.Millisecond; got != want {
		t.Errorf("delay(0) = %v, want %v", got, want)
	}
	if gotN != int64(200*time.Millisecond) {
		t.Errorf("jitter bound = %d, want %d", gotN, int64(200*time.Millisecond))
	}
}
