package postgres

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// QuestionRepo persists and loads questions using a minimal pgx pool.
type QuestionRepo struct{ Pool PgxPool }

// NewQuestionRepo constructs a QuestionRepo with the given pool.
func NewQuestionRepo(p PgxPool) *QuestionRepo { return &QuestionRepo{Pool: p} }

// BulkCreate inserts all questions in one transaction so a session never ends
// up with a partial question set. Returns the questions with ids assigned.
func (r *QuestionRepo) BulkCreate(ctx domain.Context, qs []domain.Question) ([]domain.Question, error) {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.BulkCreate")
	defer span.End()
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("op=question.bulk_create begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	out := make([]domain.Question, len(qs))
	q := `INSERT INTO questions (id, session_id, position, question_text, question_type, created_at) VALUES ($1,$2,$3,$4,$5,$6)`
	for i, item := range qs {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if _, err := tx.Exec(ctx, q, item.ID, item.SessionID, item.Position, item.Text, item.Type, item.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=question.bulk_create insert: %w", err)
		}
		out[i] = item
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("op=question.bulk_create commit: %w", err)
	}
	return out, nil
}

// ListBySession returns the session's questions in position order.
func (r *QuestionRepo) ListBySession(ctx domain.Context, sessionID string) ([]domain.Question, error) {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.ListBySession")
	defer span.End()
	q := `SELECT id, session_id, position, question_text, question_type, created_at FROM questions WHERE session_id=$1 ORDER BY position ASC`
	rows, err := r.Pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("op=question.list_by_session: %w", err)
	}
	defer rows.Close()
	var out []domain.Question
	for rows.Next() {
		var item domain.Question
		if err := rows.Scan(&item.ID, &item.SessionID, &item.Position, &item.Text, &item.Type, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=question.list_scan: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=question.list_rows: %w", err)
	}
	return out, nil
}
