package realtime

import (
	"math/rand"
	"time"
)

// backoffPolicy computes reconnect delays: exponential growth from base,
// capped at max, plus a uniform jitter draw to avoid synchronized
// reconnection storms across many clients.
type backoffPolicy struct {
	base   time.Duration
	max    time.Duration
	jitter time.Duration

	// randN draws a uniform value in [0, n). Injectable for tests.
	randN func(n int64) int64
}

func newBackoffPolicy(base, max, jitter time.Duration) *backoffPolicy {
	return &backoffPolicy{
		base:   base,
		max:    max,
		jitter: jitter,
		randN:  rand.Int63n,
	}
}

// delay returns the wait before the attempt-th retry (0-based):
// min(max, base * 2^attempt) + jitter in [0, jitter).
func (p *backoffPolicy) delay(attempt int) time.Duration {
	d := p.base
	for i := 0; i < attempt && d < p.max; i++ {
		d *= 2
	}
	if d > p.max {
		d = p.max
	}
	if p.jitter > 0 {
		d += time.Duration(p.randN(int64(p.jitter)))
	}
	return d
}
