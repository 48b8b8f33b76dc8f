package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/internal/usecase"
)

var testFallback = []domain.GeneratedQuestion{
	{QuestionText: "Tell me about yourself. (Fallback)", QuestionType: "behavioral"},
	{QuestionText: "What are your strengths? (Fallback)", QuestionType: "behavioral"},
	{QuestionText: "Why are you interested in this type of role? (Fallback)", QuestionType: "behavioral"},
	{QuestionText: "Describe a challenging project you worked on. (Fallback)", QuestionType: "technical_experience"},
	{QuestionText: "Where do you see yourself in 5 years? (Fallback)", QuestionType: "career_goals"},
}

func newQuestionFixture() (*mockSessionRepo, *mockQuestionRepo, *mockProfileRepo, *mockAIClient, usecase.QuestionService) {
	sessions := &mockSessionRepo{}
	questions := &mockQuestionRepo{}
	profiles := &mockProfileRepo{}
	ai := &mockAIClient{}
	svc := usecase.NewQuestionService(sessions, questions, profiles, ai, testFallback, 5)
	return sessions, questions, profiles, ai, svc
}

func ownInProgressSession(sessions *mockSessionRepo) {
	sessions.On("Get", mock.Anything, "sess-1").Return(domain.Session{
		ID: "sess-1", UserID: "u1", Topic: "Go", Status: domain.SessionInProgress,
	}, nil)
}

func echoCreated(questions *mockQuestionRepo) {
	questions.On("BulkCreate", mock.Anything, mock.Anything).Return(
		func(_ domain.Context, qs []domain.Question) []domain.Question { return qs }, nil)
}

func TestGenerate_HappyPath(t *testing.T) {
	sessions, questions, profiles, ai, svc := newQuestionFixture()
	ownInProgressSession(sessions)
	profiles.On("GetByUserID", mock.Anything, "u1").Return(domain.CandidateProfile{}, domain.ErrNotFound)
	ai.On("Generate", mock.Anything, mock.MatchedBy(func(r domain.GenerationRequest) bool {
		return r.Temperature == 0.7 && r.MaxOutputTokens == 2048
	})).Return("```json\n[{\"question_text\":\"Q1\",\"question_type\":\"behavioral\"},{\"question_text\":\"Q2\",\"question_type\":\"coding_exercise\"}]\n```", nil)
	echoCreated(questions)

	got, err := svc.Generate(context.Background(), "sess-1", "u1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, 1, got[0].Position)
	require.Equal(t, 2, got[1].Position)
	require.Equal(t, "Q1", got[0].Text)
	require.Equal(t, "sess-1", got[0].SessionID)
}

func TestGenerate_FallbackOnModelError(t *testing.T) {
	sessions, questions, profiles, ai, svc := newQuestionFixture()
	ownInProgressSession(sessions)
	profiles.On("GetByUserID", mock.Anything, "u1").Return(domain.CandidateProfile{}, domain.ErrNotFound)
	ai.On("Generate", mock.Anything, mock.Anything).Return("", domain.ErrUpstreamUnavailable)
	echoCreated(questions)

	got, err := svc.Generate(context.Background(), "sess-1", "u1", 5)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, q := range got {
		require.Equal(t, i+1, q.Position)
		require.NotEmpty(t, q.Text)
	}
	require.Equal(t, "Tell me about yourself. (Fallback)", got[0].Text)
}

func TestGenerate_FallbackOnMalformedJSON(t *testing.T) {
	sessions, questions, profiles, ai, svc := newQuestionFixture()
	ownInProgressSession(sessions)
	profiles.On("GetByUserID", mock.Anything, "u1").Return(domain.CandidateProfile{}, domain.ErrNotFound)
	ai.On("Generate", mock.Anything, mock.Anything).Return("Sure! Here are your questions: one, two, three.", nil)
	echoCreated(questions)

	got, err := svc.Generate(context.Background(), "sess-1", "u1", 5)
	require.NoError(t, err)
	require.Len(t, got, 5)
}

func TestGenerate_FallbackOnEmptyArray(t *testing.T) {
	sessions, questions, profiles, ai, svc := newQuestionFixture()
	ownInProgressSession(sessions)
	profiles.On("GetByUserID", mock.Anything, "u1").Return(domain.CandidateProfile{}, domain.ErrNotFound)
	ai.On("Generate", mock.Anything, mock.Anything).Return("[]", nil)
	echoCreated(questions)

	got, err := svc.Generate(context.Background(), "sess-1", "u1", 5)
	require.NoError(t, err)
	require.Len(t, got, 5)
}

func TestGenerate_TruncatesToRequestedCount(t *testing.T) {
	sessions, questions, profiles, ai, svc := newQuestionFixture()
	ownInProgressSession(sessions)
	profiles.On("GetByUserID", mock.Anything, "u1").Return(domain.CandidateProfile{}, domain.ErrNotFound)
	ai.On("Generate", mock.Anything, mock.Anything).Return(
		`[{"question_text":"Q1","question_type":"a"},{"question_text":"Q2","question_type":"b"},{"question_text":"Q3","question_type":"c"}]`, nil)
	echoCreated(questions)

	got, err := svc.Generate(context.Background(), "sess-1", "u1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestGenerate_ProfileLookupFailureDoesNotBlock(t *testing.T) {
	sessions, questions, profiles, ai, svc := newQuestionFixture()
	ownInProgressSession(sessions)
	profiles.On("GetByUserID", mock.Anything, "u1").Return(domain.CandidateProfile{}, errors.New("profile store down"))
	ai.On("Generate", mock.Anything, mock.Anything).Return(`[{"question_text":"Q1","question_type":"a"}]`, nil)
	echoCreated(questions)

	got, err := svc.Generate(context.Background(), "sess-1", "u1", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestGenerate_ForbiddenForNonOwner(t *testing.T) {
	sessions, _, _, _, svc := newQuestionFixture()
	sessions.On("Get", mock.Anything, "sess-1").Return(domain.Session{
		ID: "sess-1", UserID: "owner", Status: domain.SessionInProgress,
	}, nil)

	_, err := svc.Generate(context.Background(), "sess-1", "intruder", 5)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGenerate_RejectsCompletedSession(t *testing.T) {
	sessions, _, _, _, svc := newQuestionFixture()
	sessions.On("Get", mock.Anything, "sess-1").Return(domain.Session{
		ID: "sess-1", UserID: "u1", Status: domain.SessionCompleted,
	}, nil)

	_, err := svc.Generate(context.Background(), "sess-1", "u1", 5)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestLoadFallbackQuestions_Default(t *testing.T) {
	qs, err := usecase.LoadFallbackQuestions("")
	require.NoError(t, err)
	require.Len(t, qs, 5)
	for _, q := range qs {
		require.NotEmpty(t, q.QuestionText)
		require.NotEmpty(t, q.QuestionType)
	}
}

func TestLoadFallbackQuestions_MissingFile(t *testing.T) {
	_, err := usecase.LoadFallbackQuestions("/nonexistent/questions.yaml")
	require.Error(t, err)
}
