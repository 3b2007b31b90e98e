// Package ratelimit provides per-key request budgets backed by process memory
// or Redis.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call. RetryAfter is set when the
// request was rejected.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter grants at most a fixed number of events per window to each key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	// Name is the budget, e.g. "login".
	Name() string
	// Kind names the backend, "memory" or "redis".
	Kind() string
}

// Policy is one named budget.
type Policy struct {
	Name   string
	Max    int
	Window time.Duration
}
