package postgres

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// RequestLogRepo appends and counts request log rows used for sliding-window
// rate limiting.
type RequestLogRepo struct{ Pool PgxPool }

// NewRequestLogRepo constructs a RequestLogRepo with the given pool.
func NewRequestLogRepo(p PgxPool) *RequestLogRepo { return &RequestLogRepo{Pool: p} }

// Insert appends one request log row.
func (r *RequestLogRepo) Insert(ctx domain.Context, e domain.RequestLogEntry) error {
	tracer := otel.Tracer("repo.request_logs")
	ctx, span := tracer.Start(ctx, "request_logs.Insert")
	defer span.End()
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	q := `INSERT INTO request_logs (ip_address, route, created_at) VALUES ($1,$2,$3)`
	if _, err := r.Pool.Exec(ctx, q, e.IPAddress, e.Route, created); err != nil {
		return fmt.Errorf("op=request_log.insert: %w", err)
	}
	return nil
}

// CountSince counts rows for (ip, route) created at or after since.
func (r *RequestLogRepo) CountSince(ctx domain.Context, ip, route string, since time.Time) (int64, error) {
	tracer := otel.Tracer("repo.request_logs")
	ctx, span := tracer.Start(ctx, "request_logs.CountSince")
	defer span.End()
	q := `SELECT COUNT(*) FROM request_logs WHERE ip_address=$1 AND route=$2 AND created_at >= $3`
	var n int64
	if err := r.Pool.QueryRow(ctx, q, ip, route, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("op=request_log.count_since: %w", err)
	}
	return n, nil
}
