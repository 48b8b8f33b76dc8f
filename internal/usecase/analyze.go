package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/pkg/textx"
)

// AnalysisService runs the post-session feedback pass: it builds the
// transcript, asks the model for structured feedback, and reconciles the
// response back onto answer rows via the stable question identifiers.
type AnalysisService struct {
	Sessions  domain.SessionRepository
	Questions domain.QuestionRepository
	Answers   domain.AnswerRepository
	Analyses  domain.AnalysisRepository
	Profiles  domain.ProfileRepository
	AI        domain.AIClient
	Now       func() time.Time
}

// NewAnalysisService constructs an AnalysisService with its dependencies.
func NewAnalysisService(sessions domain.SessionRepository, questions domain.QuestionRepository, answers domain.AnswerRepository, analyses domain.AnalysisRepository, profiles domain.ProfileRepository, ai domain.AIClient) AnalysisService {
	return AnalysisService{
		Sessions: sessions, Questions: questions, Answers: answers,
		Analyses: analyses, Profiles: profiles, AI: ai, Now: time.Now,
	}
}

// AnalysisOutcome reports what Analyze did.
type AnalysisOutcome struct {
	AlreadyAnalyzed bool
	StoredCount     int
	OverallStored   bool
}

// Analyze runs feedback generation for a completed session. It is guarded to
// run at most once: when any answer in the session already carries an
// analysis result the call returns AlreadyAnalyzed without touching the
// model. The guard is a read-then-act check, so two simultaneous calls can
// both pass it; the worst case is duplicated feedback, not corruption.
func (s AnalysisService) Analyze(ctx domain.Context, sessionID, userID string) (AnalysisOutcome, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return AnalysisOutcome{}, err
	}
	if sess.UserID != userID {
		return AnalysisOutcome{}, fmt.Errorf("%w: session belongs to another user", domain.ErrForbidden)
	}
	if sess.Status == domain.SessionInProgress {
		return AnalysisOutcome{}, fmt.Errorf("%w: session must be completed before analysis", domain.ErrInvalidArgument)
	}

	questions, err := s.Questions.ListBySession(ctx, sessionID)
	if err != nil {
		return AnalysisOutcome{}, fmt.Errorf("op=analysis.Analyze questions: %w", err)
	}
	if len(questions) == 0 {
		return AnalysisOutcome{}, fmt.Errorf("%w: no questions found in this session to analyze", domain.ErrInvalidArgument)
	}

	exists, err := s.Analyses.ExistsForSession(ctx, sessionID)
	if err != nil {
		return AnalysisOutcome{}, fmt.Errorf("op=analysis.Analyze idempotency check: %w", err)
	}
	if exists {
		slog.Info("analysis already exists for session, skipping", slog.String("session_id", sessionID))
		return AnalysisOutcome{AlreadyAnalyzed: true}, nil
	}

	answers, err := s.Answers.ListBySession(ctx, sessionID, userID)
	if err != nil {
		return AnalysisOutcome{}, fmt.Errorf("op=analysis.Analyze answers: %w", err)
	}
	answerByQuestion := make(map[string]domain.Answer, len(answers))
	for _, a := range answers {
		answerByQuestion[a.QuestionID] = a
	}

	transcript := make([]domain.TranscriptEntry, 0, len(questions))
	for _, q := range questions {
		e := domain.TranscriptEntry{
			QuestionID:   q.ID,
			QuestionText: q.Text,
			QuestionType: q.Type,
		}
		if a, ok := answerByQuestion[q.ID]; ok {
			e.AnswerID = a.ID
			e.AnswerText = &a.Text
		}
		transcript = append(transcript, e)
	}

	var profile *domain.CandidateProfile
	if p, perr := s.Profiles.GetByUserID(ctx, userID); perr == nil {
		profile = &p
	} else if !isNotFound(perr) {
		slog.Warn("profile lookup failed, analyzing without profile context",
			slog.String("user_id", userID), slog.Any("error", perr))
	}

	raw, err := s.AI.Generate(ctx, domain.GenerationRequest{
		Prompt:          buildAnalysisPrompt(sess.Topic, profile, transcript),
		Temperature:     analysisTemperature,
		MaxOutputTokens: analysisMaxTokens,
	})
	if err != nil {
		return AnalysisOutcome{}, fmt.Errorf("AI analysis failed: %w", err)
	}

	feedback, err := parseAnalysisFeedback(raw)
	if err != nil {
		return AnalysisOutcome{}, err
	}

	now := s.Now().UTC()
	staged := s.reconcile(feedback.QuestionFeedback, answerByQuestion, now)

	outcome := AnalysisOutcome{StoredCount: len(staged)}
	if feedback.OverallFeedback != nil {
		overall, merr := json.Marshal(feedback.OverallFeedback)
		if merr != nil {
			return AnalysisOutcome{}, fmt.Errorf("op=analysis.Analyze marshal overall: %w", merr)
		}
		// The session moves to analyzed even when no per-question feedback
		// survived reconciliation; failure here must not block storing the
		// per-question rows.
		if uerr := s.Sessions.SetAnalyzed(ctx, sessionID, overall); uerr != nil {
			slog.Error("failed to store overall analysis on session",
				slog.String("session_id", sessionID), slog.Any("error", uerr))
		} else {
			outcome.OverallStored = true
		}
	}

	if len(staged) > 0 {
		if err := s.Analyses.BulkCreate(ctx, staged); err != nil {
			return AnalysisOutcome{}, fmt.Errorf("failed to store AI analysis: %w", err)
		}
	} else if feedback.OverallFeedback == nil {
		return AnalysisOutcome{}, fmt.Errorf("%w: AI generated no actionable feedback to store", domain.ErrSchemaInvalid)
	}
	return outcome, nil
}

// parseAnalysisFeedback cleans and strictly parses the model response. A
// response that is not a single JSON object is rejected.
func parseAnalysisFeedback(raw string) (domain.AnalysisFeedback, error) {
	cleaned := textx.ExtractJSONObject(textx.StripCodeFences(raw))
	if cleaned == "" {
		return domain.AnalysisFeedback{}, fmt.Errorf("%w: AI analysis failed: response was not a valid JSON object", domain.ErrSchemaInvalid)
	}
	var feedback domain.AnalysisFeedback
	if err := json.Unmarshal([]byte(cleaned), &feedback); err != nil {
		return domain.AnalysisFeedback{}, fmt.Errorf("%w: AI analysis failed: %v", domain.ErrSchemaInvalid, err)
	}
	return feedback, nil
}

// reconcile maps feedback items back onto answer rows. Items with a missing
// or unknown question identifier are dropped, as are items for questions the
// candidate never answered. The model's question_text is never trusted for
// matching; only the echoed identifier counts.
func (s AnalysisService) reconcile(items []domain.QuestionFeedback, answerByQuestion map[string]domain.Answer, now time.Time) []domain.AnalysisResult {
	staged := make([]domain.AnalysisResult, 0, len(items))
	for _, fb := range items {
		if fb.QuestionID == "" {
			slog.Warn("analysis feedback item missing question_id, cannot link")
			continue
		}
		answer, ok := answerByQuestion[fb.QuestionID]
		if !ok {
			slog.Warn("analysis feedback references unknown or unanswered question, skipping",
				slog.String("question_id", fb.QuestionID))
			continue
		}
		evalJSON, err := json.Marshal(fb.Evaluation)
		if err != nil {
			slog.Warn("analysis feedback evaluation not serializable, skipping",
				slog.String("question_id", fb.QuestionID), slog.Any("error", err))
			continue
		}
		staged = append(staged, domain.AnalysisResult{
			AnswerID:     answer.ID,
			Rating:       fb.Evaluation.Rating,
			GoodPoints:   joinBullets(fb.Evaluation.GoodPoints),
			Suggestions:  joinBullets(fb.Evaluation.Suggestions),
			AnalysisText: string(evalJSON),
			CreatedAt:    now,
		})
	}
	return staged
}

func joinBullets(items []string) string {
	return strings.Join(items, "\n- ")
}
