package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer spaces successive operations at least gap apart, optionally adding
// jitter. The first call to Wait never blocks. It is safe for concurrent use;
// concurrent callers are released one gap apart.
type Pacer struct {
	mu     sync.Mutex
	gap    time.Duration
	jitter float64 // 0.0 to 1.0
	next   time.Time
}

// NewPacer creates a pacer with the given minimum gap between operations.
// Jitter is clamped to [0, 1] and adds up to jitter*gap of extra delay.
// If gap is <= 0, the pacer does not block.
func NewPacer(gap time.Duration, jitter float64) *Pacer {
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}
	return &Pacer{gap: gap, jitter: jitter}
}

// Wait blocks until the next operation may run, or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.gap <= 0 {
		return nil
	}

	p.mu.Lock()
	now := time.Now()
	at := p.next
	if at.Before(now) {
		at = now
	}
	p.next = at.Add(p.interval())
	p.mu.Unlock()

	wait := time.Until(at)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// interval is the gap plus a random share of gap*jitter.
func (p *Pacer) interval() time.Duration {
	if p.jitter == 0 {
		return p.gap
	}
	return p.gap + time.Duration(rand.Float64()*p.jitter*float64(p.gap))
}
