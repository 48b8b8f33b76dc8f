package usecase

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/pkg/textx"
)

//go:embed fallback_questions.yaml
var defaultFallbackYAML []byte

type fallbackFile struct {
	Questions []domain.GeneratedQuestion `yaml:"questions"`
}

// LoadFallbackQuestions reads the fallback question table from path, or the
// built-in table when path is empty.
func LoadFallbackQuestions(path string) ([]domain.GeneratedQuestion, error) {
	raw := defaultFallbackYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("op=fallback.Load read %s: %w", path, err)
		}
		raw = b
	}
	var f fallbackFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("op=fallback.Load parse: %w", err)
	}
	if len(f.Questions) == 0 {
		return nil, fmt.Errorf("%w: fallback question table is empty", domain.ErrInvalidArgument)
	}
	for _, q := range f.Questions {
		if q.QuestionText == "" {
			return nil, fmt.Errorf("%w: fallback question with empty text", domain.ErrInvalidArgument)
		}
	}
	return f.Questions, nil
}

// QuestionService generates interview questions for a session. Generation is
// best-effort: any model, parse, or validation failure degrades to the
// fallback table rather than failing the session.
type QuestionService struct {
	Sessions     domain.SessionRepository
	Questions    domain.QuestionRepository
	Profiles     domain.ProfileRepository
	AI           domain.AIClient
	Fallback     []domain.GeneratedQuestion
	DefaultCount int
	Now          func() time.Time
	// OnGenerated, when set, is called with the source ("model" or
	// "fallback") and the number of questions produced.
	OnGenerated func(source string, count int)
}

// NewQuestionService constructs a QuestionService with its dependencies.
func NewQuestionService(sessions domain.SessionRepository, questions domain.QuestionRepository, profiles domain.ProfileRepository, ai domain.AIClient, fallback []domain.GeneratedQuestion, defaultCount int) QuestionService {
	return QuestionService{
		Sessions: sessions, Questions: questions, Profiles: profiles, AI: ai,
		Fallback: fallback, DefaultCount: defaultCount, Now: time.Now,
	}
}

// Generate produces n questions for the session and persists them with
// contiguous positions from 1. A missing profile never blocks generation.
func (s QuestionService) Generate(ctx domain.Context, sessionID, userID string, n int) ([]domain.Question, error) {
	if n <= 0 {
		n = s.DefaultCount
	}
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, fmt.Errorf("%w: session belongs to another user", domain.ErrForbidden)
	}
	if sess.Status != domain.SessionInProgress {
		return nil, fmt.Errorf("%w: cannot generate questions for session in status %s", domain.ErrInvalidArgument, sess.Status)
	}

	var profile *domain.CandidateProfile
	if p, perr := s.Profiles.GetByUserID(ctx, userID); perr == nil {
		profile = &p
	} else if !isNotFound(perr) {
		slog.Warn("profile lookup failed, generating without profile hints",
			slog.String("user_id", userID), slog.Any("error", perr))
	}

	source := "model"
	generated := s.generateFromModel(ctx, sess.Topic, profile, n)
	if len(generated) == 0 {
		source = "fallback"
		generated = s.fallbackSlice(n)
	}
	if s.OnGenerated != nil {
		s.OnGenerated(source, len(generated))
	}

	now := s.Now().UTC()
	qs := make([]domain.Question, 0, len(generated))
	for i, g := range generated {
		qs = append(qs, domain.Question{
			SessionID: sessionID,
			Position:  i + 1,
			Text:      g.QuestionText,
			Type:      g.QuestionType,
			CreatedAt: now,
		})
	}
	created, err := s.Questions.BulkCreate(ctx, qs)
	if err != nil {
		return nil, fmt.Errorf("op=question.Generate insert: %w", err)
	}
	return created, nil
}

// generateFromModel returns nil on any failure so the caller degrades to the
// fallback table.
func (s QuestionService) generateFromModel(ctx domain.Context, topic string, profile *domain.CandidateProfile, n int) []domain.GeneratedQuestion {
	raw, err := s.AI.Generate(ctx, domain.GenerationRequest{
		Prompt:          buildQuestionPrompt(topic, profile, n),
		Temperature:     questionsTemperature,
		MaxOutputTokens: questionsMaxTokens,
	})
	if err != nil {
		slog.Warn("question generation failed, using fallback questions", slog.Any("error", err))
		return nil
	}
	cleaned := textx.ExtractJSONArray(textx.StripCodeFences(raw))
	if cleaned == "" {
		slog.Warn("question generation returned no JSON array, using fallback questions")
		return nil
	}
	var generated []domain.GeneratedQuestion
	if err := json.Unmarshal([]byte(cleaned), &generated); err != nil {
		slog.Warn("question generation returned malformed JSON, using fallback questions", slog.Any("error", err))
		return nil
	}
	if len(generated) == 0 {
		slog.Warn("question generation returned an empty array, using fallback questions")
		return nil
	}
	for _, g := range generated {
		if g.QuestionText == "" {
			slog.Warn("question generation returned an item with empty text, using fallback questions")
			return nil
		}
	}
	if len(generated) > n {
		generated = generated[:n]
	}
	return generated
}

func (s QuestionService) fallbackSlice(n int) []domain.GeneratedQuestion {
	if n > len(s.Fallback) {
		n = len(s.Fallback)
	}
	out := make([]domain.GeneratedQuestion, n)
	copy(out, s.Fallback[:n])
	return out
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
