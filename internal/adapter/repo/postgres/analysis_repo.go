package postgres

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// AnalysisRepo persists analysis results using a minimal pgx pool.
type AnalysisRepo struct{ Pool PgxPool }

// NewAnalysisRepo constructs an AnalysisRepo with the given pool.
func NewAnalysisRepo(p PgxPool) *AnalysisRepo { return &AnalysisRepo{Pool: p} }

// BulkCreate inserts all results in one transaction.
func (r *AnalysisRepo) BulkCreate(ctx domain.Context, rs []domain.AnalysisResult) error {
	tracer := otel.Tracer("repo.analysis")
	ctx, span := tracer.Start(ctx, "analysis.BulkCreate")
	defer span.End()
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("op=analysis.bulk_create begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	q := `INSERT INTO analysis_results (id, answer_id, rating, good_points, suggestions, analysis_text, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	for _, item := range rs {
		id := item.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := tx.Exec(ctx, q, id, item.AnswerID, item.Rating, item.GoodPoints, item.Suggestions, item.AnalysisText, item.CreatedAt); err != nil {
			return fmt.Errorf("op=analysis.bulk_create insert: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("op=analysis.bulk_create commit: %w", err)
	}
	return nil
}

// ExistsForSession reports whether any answer in the session already carries
// an analysis result.
func (r *AnalysisRepo) ExistsForSession(ctx domain.Context, sessionID string) (bool, error) {
	tracer := otel.Tracer("repo.analysis")
	ctx, span := tracer.Start(ctx, "analysis.ExistsForSession")
	defer span.End()
	q := `SELECT EXISTS (
SELECT 1 FROM analysis_results ar
JOIN answers a ON a.id = ar.answer_id
JOIN questions q ON q.id = a.question_id
WHERE q.session_id=$1)`
	var exists bool
	if err := r.Pool.QueryRow(ctx, q, sessionID).Scan(&exists); err != nil {
		return false, fmt.Errorf("op=analysis.exists_for_session: %w", err)
	}
	return exists, nil
}
