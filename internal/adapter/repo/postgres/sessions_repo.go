package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// SessionRepo persists and loads interview sessions using a minimal pgx pool.
type SessionRepo struct{ Pool PgxPool }

// NewSessionRepo constructs a SessionRepo with the given pool.
func NewSessionRepo(p PgxPool) *SessionRepo { return &SessionRepo{Pool: p} }

// Create inserts a new session and returns its id (generates one if empty).
func (r *SessionRepo) Create(ctx domain.Context, s domain.Session) (string, error) {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.Create")
	defer span.End()
	id := s.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO sessions (id, user_id, topic, status, started_at) VALUES ($1,$2,$3,$4,$5)`
	_, err := r.Pool.Exec(ctx, q, id, s.UserID, s.Topic, s.Status, s.StartedAt)
	if err != nil {
		return "", fmt.Errorf("op=session.create: %w", err)
	}
	return id, nil
}

// Get loads a session by id.
func (r *SessionRepo) Get(ctx domain.Context, id string) (domain.Session, error) {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.Get")
	defer span.End()
	q := `SELECT id, user_id, COALESCE(topic,''), status, started_at, completed_at, overall_analysis FROM sessions WHERE id=$1`
	row := r.Pool.QueryRow(ctx, q, id)
	var s domain.Session
	if err := row.Scan(&s.ID, &s.UserID, &s.Topic, &s.Status, &s.StartedAt, &s.CompletedAt, &s.OverallAnalysis); err != nil {
		if err == pgx.ErrNoRows {
			return domain.Session{}, fmt.Errorf("op=session.get: %w", domain.ErrNotFound)
		}
		return domain.Session{}, fmt.Errorf("op=session.get: %w", err)
	}
	return s, nil
}

// ListInProgress returns the user's in_progress sessions, newest first.
func (r *SessionRepo) ListInProgress(ctx domain.Context, userID string) ([]domain.Session, error) {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.ListInProgress")
	defer span.End()
	q := `SELECT id, user_id, COALESCE(topic,''), status, started_at, completed_at, overall_analysis FROM sessions WHERE user_id=$1 AND status=$2 ORDER BY started_at DESC`
	rows, err := r.Pool.Query(ctx, q, userID, domain.SessionInProgress)
	if err != nil {
		return nil, fmt.Errorf("op=session.list_in_progress: %w", err)
	}
	defer rows.Close()
	var out []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.Topic, &s.Status, &s.StartedAt, &s.CompletedAt, &s.OverallAnalysis); err != nil {
			return nil, fmt.Errorf("op=session.list_scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=session.list_rows: %w", err)
	}
	return out, nil
}

// UpdateStatus transitions a session; completedAt is written when non-nil.
func (r *SessionRepo) UpdateStatus(ctx domain.Context, id string, status domain.SessionStatus, completedAt *time.Time) error {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.UpdateStatus")
	defer span.End()
	q := `UPDATE sessions SET status=$2, completed_at=COALESCE($3, completed_at) WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, id, status, completedAt)
	if err != nil {
		return fmt.Errorf("op=session.update_status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=session.update_status: %w", domain.ErrNotFound)
	}
	return nil
}

// SetAnalyzed stores the overall feedback and moves the session to analyzed.
func (r *SessionRepo) SetAnalyzed(ctx domain.Context, id string, overall []byte) error {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.SetAnalyzed")
	defer span.End()
	q := `UPDATE sessions SET status=$2, overall_analysis=$3 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, id, domain.SessionAnalyzed, overall)
	if err != nil {
		return fmt.Errorf("op=session.set_analyzed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=session.set_analyzed: %w", domain.ErrNotFound)
	}
	return nil
}

// CountStartedSince counts the user's sessions started at or after since.
func (r *SessionRepo) CountStartedSince(ctx domain.Context, userID string, since time.Time) (int64, error) {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.CountStartedSince")
	defer span.End()
	q := `SELECT COUNT(*) FROM sessions WHERE user_id=$1 AND started_at >= $2`
	var n int64
	if err := r.Pool.QueryRow(ctx, q, userID, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("op=session.count_started_since: %w", err)
	}
	return n, nil
}

// CompleteStale completes in_progress sessions started before cutoff and
// returns the number of rows affected.
func (r *SessionRepo) CompleteStale(ctx domain.Context, userID string, cutoff, completedAt time.Time) (int64, error) {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.CompleteStale")
	defer span.End()
	q := `UPDATE sessions SET status=$2, completed_at=$3 WHERE user_id=$1 AND status=$4 AND started_at < $5`
	tag, err := r.Pool.Exec(ctx, q, userID, domain.SessionCompleted, completedAt, domain.SessionInProgress, cutoff)
	if err != nil {
		return 0, fmt.Errorf("op=session.complete_stale: %w", err)
	}
	return tag.RowsAffected(), nil
}
