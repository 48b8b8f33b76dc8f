// Package ratelimiter provides per-IP sliding-window limiters for the
// unauthenticated demo endpoint. Both implementations fail open: an
// infrastructure error lets the request through with err set so the caller
// can log it, rather than turning a limiter outage into a user-facing outage.
package ratelimiter

import (
	"fmt"
	"time"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// PostgresWindowLimiter counts append-only request_logs rows in the trailing
// window. Counting and inserting are two statements, so concurrent requests
// at the boundary can both pass; the window is advisory, not exact.
type PostgresWindowLimiter struct {
	Logs   domain.RequestLogRepository
	Limit  int64
	Window time.Duration
	Now    func() time.Time
}

// NewPostgresWindowLimiter constructs a limiter over the request log table.
func NewPostgresWindowLimiter(logs domain.RequestLogRepository, limit int64, window time.Duration) *PostgresWindowLimiter {
	return &PostgresWindowLimiter{Logs: logs, Limit: limit, Window: window, Now: time.Now}
}

// Allow reports whether the ip may call the route now, recording the request
// when it is admitted.
func (l *PostgresWindowLimiter) Allow(ctx domain.Context, ip, route string) (bool, time.Duration, error) {
	now := l.Now().UTC()
	count, err := l.Logs.CountSince(ctx, ip, route, now.Add(-l.Window))
	if err != nil {
		return true, 0, fmt.Errorf("op=ratelimit.count: %w", err)
	}
	if count >= l.Limit {
		return false, l.Window, nil
	}
	if err := l.Logs.Insert(ctx, domain.RequestLogEntry{IPAddress: ip, Route: route, CreatedAt: now}); err != nil {
		return true, 0, fmt.Errorf("op=ratelimit.record: %w", err)
	}
	return true, 0, nil
}
