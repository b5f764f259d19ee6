package ratelimit

import (
	"context"
	"time"
)

// LimitConfig names one rate limit: a key prefix scoping the counter, a
// fixed window size, and the request budget per window.
type LimitConfig struct {
	KeyPrefix   string
	Window      time.Duration
	MaxRequests int
}

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter provides fixed-window rate limit checks.
type Limiter interface {
	Allow(ctx context.Context, key string, window time.Duration, limit int, now time.Time) (Result, error)
}
