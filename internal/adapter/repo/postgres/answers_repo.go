package postgres

import (
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// AnswerRepo persists and loads answers using a minimal pgx pool.
type AnswerRepo struct{ Pool PgxPool }

// NewAnswerRepo constructs an AnswerRepo with the given pool.
func NewAnswerRepo(p PgxPool) *AnswerRepo { return &AnswerRepo{Pool: p} }

// Upsert writes the answer keyed on (question_id, user_id) and returns the
// row id. Repeated saves update text and modality in place.
func (r *AnswerRepo) Upsert(ctx domain.Context, a domain.Answer) (string, error) {
	tracer := otel.Tracer("repo.answers")
	ctx, span := tracer.Start(ctx, "answers.Upsert")
	defer span.End()
	id := a.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO answers (id, question_id, user_id, answer_text, is_code, language, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (question_id, user_id) DO UPDATE
SET answer_text=EXCLUDED.answer_text, is_code=EXCLUDED.is_code, language=EXCLUDED.language, updated_at=EXCLUDED.updated_at
RETURNING id`
	var rowID string
	if err := r.Pool.QueryRow(ctx, q, id, a.QuestionID, a.UserID, a.Text, a.IsCode, a.Language, a.CreatedAt, a.UpdatedAt).Scan(&rowID); err != nil {
		return "", fmt.Errorf("op=answer.upsert: %w", err)
	}
	return rowID, nil
}

// ListBySession returns the user's answers to the session's questions.
func (r *AnswerRepo) ListBySession(ctx domain.Context, sessionID, userID string) ([]domain.Answer, error) {
	tracer := otel.Tracer("repo.answers")
	ctx, span := tracer.Start(ctx, "answers.ListBySession")
	defer span.End()
	q := `SELECT a.id, a.question_id, a.user_id, a.answer_text, a.is_code, COALESCE(a.language,''), a.created_at, a.updated_at
FROM answers a
JOIN questions q ON q.id = a.question_id
WHERE q.session_id=$1 AND a.user_id=$2
ORDER BY q.position ASC`
	rows, err := r.Pool.Query(ctx, q, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("op=answer.list_by_session: %w", err)
	}
	defer rows.Close()
	var out []domain.Answer
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.UserID, &a.Text, &a.IsCode, &a.Language, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("op=answer.list_scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=answer.list_rows: %w", err)
	}
	return out, nil
}
