// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package revgeo

import (
	"sync"
	"time"
)

// Limiter is the single admission gate in front of the upstream service.
// It enforces a minimum spacing between any two permitted calls and bounds
// how long one request may queue for its turn.
//
// The gate is deliberately held while the spacing delay elapses: the delay
// and the grant-time stamp must be atomic with respect to every other
// caller, otherwise a late arrival could consume the slot the current
// holder is waiting for.
type Limiter struct {
	mu            sync.Mutex
	lastGrantedAt time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// NewLimiter creates a limiter with no grant history.
func NewLimiter() *Limiter {
	return &Limiter{
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// AwaitPermit blocks until the caller may perform one upstream call, or
// reports false when that is not possible within maxWait. minInterval is
// the spacing enforced since the previous grant; maxWait is this caller's
// total wait budget, covering both queueing and the enforced delay.
// Rejections are immediate, never a silent park.
func (l *Limiter) AwaitPermit(minInterval, maxWait time.Duration) bool {
	enqueued := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	remaining := maxWait - now.Sub(enqueued)
	if remaining < 0 {
		return false
	}

	var delay time.Duration
	if !l.lastGrantedAt.IsZero() {
		delay = l.lastGrantedAt.Add(minInterval).Sub(now)
		if delay < 0 {
			delay = 0
		}
	}

	if delay > remaining {
		return false
	}

	if delay > 0 {
		l.sleep(delay)
	}

	l.lastGrantedAt = l.now()

	return true
}

// Reset clears the grant history. Only tests use this.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastGrantedAt = time.Time{}
}
