package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/pkg/textx"
)

// AnswerService persists candidate answers. Saves are upserts keyed on
// (question_id, user_id); the latest write wins.
type AnswerService struct {
	Answers domain.AnswerRepository
	Now     func() time.Time
}

// NewAnswerService constructs an AnswerService with its dependencies.
func NewAnswerService(repo domain.AnswerRepository) AnswerService {
	return AnswerService{Answers: repo, Now: time.Now}
}

// Save upserts the answer. Blank or whitespace-only text is a silent no-op:
// the empty id return with nil error means nothing was written. This keeps
// debounced autosave ticks on untouched editors from creating empty rows.
func (s AnswerService) Save(ctx domain.Context, a domain.Answer) (string, error) {
	if a.QuestionID == "" || a.UserID == "" {
		return "", fmt.Errorf("%w: question id and user id required", domain.ErrInvalidArgument)
	}
	a.Text = textx.SanitizeText(a.Text)
	if strings.TrimSpace(a.Text) == "" {
		return "", nil
	}
	now := s.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	id, err := s.Answers.Upsert(ctx, a)
	if err != nil {
		return "", fmt.Errorf("op=answer.Save: %w", err)
	}
	return id, nil
}
