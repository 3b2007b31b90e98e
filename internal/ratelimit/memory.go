package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const sweepThreshold = 10000

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Memory is a token bucket per key refilling Max tokens per Window. Budgets
// are local to the process.
type Memory struct {
	policy  Policy
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewMemory(policy Policy) *Memory {
	return &Memory{
		policy:  policy,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (m *Memory) Name() string {
	return m.policy.Name
}

func (m *Memory) Kind() string {
	return "memory"
}

func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if !ok {
		if len(m.buckets) >= sweepThreshold {
			m.sweep(now)
		}
		every := m.policy.Window / time.Duration(max(m.policy.Max, 1))
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), max(m.policy.Max, 1))}
		m.buckets[key] = b
	}
	b.lastSeen = now

	res := b.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return Decision{Allowed: false, RetryAfter: delay}, nil
	}
	return Decision{Allowed: true}, nil
}

// sweep drops buckets idle for a full window; they would be full again anyway.
func (m *Memory) sweep(now time.Time) {
	for key, b := range m.buckets {
		if now.Sub(b.lastSeen) > m.policy.Window {
			delete(m.buckets, key)
		}
	}
}
