// Package usecase contains application business logic services.
package usecase

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// SessionService owns the session lifecycle: creation under the daily quota,
// staleness sweeping, and the forward-only status transitions.
type SessionService struct {
	Sessions   domain.SessionRepository
	DailyLimit int
	StaleAfter time.Duration
	Now        func() time.Time
	// OnSwept, when set, is called with the number of sessions a sweep
	// auto-completed.
	OnSwept func(count int64)
}

// NewSessionService constructs a SessionService with its dependencies.
func NewSessionService(repo domain.SessionRepository, dailyLimit int, staleAfter time.Duration) SessionService {
	return SessionService{Sessions: repo, DailyLimit: dailyLimit, StaleAfter: staleAfter, Now: time.Now}
}

// Start creates a new in_progress session unless the user already started
// DailyLimit sessions since local midnight. The count is a plain read before
// the insert; two concurrent starts at the boundary can both pass, which is
// an accepted off-by-one.
func (s SessionService) Start(ctx domain.Context, userID, topic string) (domain.Session, error) {
	if userID == "" {
		return domain.Session{}, fmt.Errorf("%w: user id required", domain.ErrInvalidArgument)
	}
	now := s.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	count, err := s.Sessions.CountStartedSince(ctx, userID, midnight)
	if err != nil {
		return domain.Session{}, fmt.Errorf("op=session.Start count: %w", err)
	}
	if count >= int64(s.DailyLimit) {
		reset := midnight.AddDate(0, 0, 1)
		return domain.Session{}, fmt.Errorf("%w: daily limit of %d sessions reached, resets at %s",
			domain.ErrQuotaExceeded, s.DailyLimit, reset.Format(time.RFC3339))
	}
	sess := domain.Session{
		UserID:    userID,
		Topic:     topic,
		Status:    domain.SessionInProgress,
		StartedAt: now.UTC(),
	}
	id, err := s.Sessions.Create(ctx, sess)
	if err != nil {
		return domain.Session{}, fmt.Errorf("op=session.Start create: %w", err)
	}
	sess.ID = id
	return sess, nil
}

// Get returns the session after an ownership check.
func (s SessionService) Get(ctx domain.Context, sessionID, userID string) (domain.Session, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if sess.UserID != userID {
		return domain.Session{}, fmt.Errorf("%w: session belongs to another user", domain.ErrForbidden)
	}
	return sess, nil
}

// ListActive sweeps stale sessions for the user and returns the remaining
// in_progress ones. The sweep is lazy; there is no background scheduler.
func (s SessionService) ListActive(ctx domain.Context, userID string) ([]domain.Session, error) {
	if _, err := s.SweepStale(ctx, userID); err != nil {
		// The listing still proceeds; a failed sweep only means stale rows
		// linger until the next read.
		slog.Warn("stale session sweep failed", slog.String("user_id", userID), slog.Any("error", err))
	}
	return s.Sessions.ListInProgress(ctx, userID)
}

// SweepStale completes in_progress sessions started more than StaleAfter ago.
// Returns the number of sessions swept. Safe to call repeatedly.
func (s SessionService) SweepStale(ctx domain.Context, userID string) (int64, error) {
	now := s.Now().UTC()
	n, err := s.Sessions.CompleteStale(ctx, userID, now.Add(-s.StaleAfter), now)
	if err != nil {
		return 0, fmt.Errorf("op=session.SweepStale: %w", err)
	}
	if n > 0 {
		slog.Info("swept stale sessions", slog.String("user_id", userID), slog.Int64("count", n))
		if s.OnSwept != nil {
			s.OnSwept(n)
		}
	}
	return n, nil
}

// EndEarly completes an in_progress session. Calling it on a session that is
// already completed or analyzed is a no-op success, so repeated clicks and
// races with the staleness sweep stay harmless.
func (s SessionService) EndEarly(ctx domain.Context, sessionID, userID string) error {
	return s.complete(ctx, sessionID, userID)
}

// Finish completes the session at the end of the interview flow. Completion
// succeeds independently of whatever the caller does next (e.g. analysis).
func (s SessionService) Finish(ctx domain.Context, sessionID, userID string) error {
	return s.complete(ctx, sessionID, userID)
}

func (s SessionService) complete(ctx domain.Context, sessionID, userID string) error {
	sess, err := s.Get(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if sess.Status != domain.SessionInProgress {
		return nil
	}
	if !sess.Status.CanTransitionTo(domain.SessionCompleted) {
		return fmt.Errorf("%w: cannot complete session in status %s", domain.ErrInvalidArgument, sess.Status)
	}
	now := s.Now().UTC()
	if err := s.Sessions.UpdateStatus(ctx, sessionID, domain.SessionCompleted, &now); err != nil {
		return fmt.Errorf("op=session.complete: %w", err)
	}
	return nil
}
