package usecase_test

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

type mockSessionRepo struct{ mock.Mock }

func (m *mockSessionRepo) Create(ctx domain.Context, s domain.Session) (string, error) {
	args := m.Called(ctx, s)
	return args.String(0), args.Error(1)
}

func (m *mockSessionRepo) Get(ctx domain.Context, id string) (domain.Session, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Session), args.Error(1)
}

func (m *mockSessionRepo) ListInProgress(ctx domain.Context, userID string) ([]domain.Session, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]domain.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionRepo) UpdateStatus(ctx domain.Context, id string, status domain.SessionStatus, completedAt *time.Time) error {
	args := m.Called(ctx, id, status, completedAt)
	return args.Error(0)
}

func (m *mockSessionRepo) SetAnalyzed(ctx domain.Context, id string, overall []byte) error {
	args := m.Called(ctx, id, overall)
	return args.Error(0)
}

func (m *mockSessionRepo) CountStartedSince(ctx domain.Context, userID string, since time.Time) (int64, error) {
	args := m.Called(ctx, userID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) CompleteStale(ctx domain.Context, userID string, cutoff, completedAt time.Time) (int64, error) {
	args := m.Called(ctx, userID, cutoff, completedAt)
	return args.Get(0).(int64), args.Error(1)
}

type mockQuestionRepo struct{ mock.Mock }

func (m *mockQuestionRepo) BulkCreate(ctx domain.Context, qs []domain.Question) ([]domain.Question, error) {
	args := m.Called(ctx, qs)
	switch v := args.Get(0).(type) {
	case func(domain.Context, []domain.Question) []domain.Question:
		return v(ctx, qs), args.Error(1)
	case []domain.Question:
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockQuestionRepo) ListBySession(ctx domain.Context, sessionID string) ([]domain.Question, error) {
	args := m.Called(ctx, sessionID)
	if v := args.Get(0); v != nil {
		return v.([]domain.Question), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAnswerRepo struct{ mock.Mock }

func (m *mockAnswerRepo) Upsert(ctx domain.Context, a domain.Answer) (string, error) {
	args := m.Called(ctx, a)
	return args.String(0), args.Error(1)
}

func (m *mockAnswerRepo) ListBySession(ctx domain.Context, sessionID, userID string) ([]domain.Answer, error) {
	args := m.Called(ctx, sessionID, userID)
	if v := args.Get(0); v != nil {
		return v.([]domain.Answer), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAnalysisRepo struct{ mock.Mock }

func (m *mockAnalysisRepo) BulkCreate(ctx domain.Context, rs []domain.AnalysisResult) error {
	args := m.Called(ctx, rs)
	return args.Error(0)
}

func (m *mockAnalysisRepo) ExistsForSession(ctx domain.Context, sessionID string) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

type mockProfileRepo struct{ mock.Mock }

func (m *mockProfileRepo) GetByUserID(ctx domain.Context, userID string) (domain.CandidateProfile, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.CandidateProfile), args.Error(1)
}

type mockAIClient struct{ mock.Mock }

func (m *mockAIClient) Generate(ctx domain.Context, req domain.GenerationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type mockLimiter struct{ mock.Mock }

func (m *mockLimiter) Allow(ctx domain.Context, ip, route string) (bool, time.Duration, error) {
	args := m.Called(ctx, ip, route)
	return args.Bool(0), args.Get(1).(time.Duration), args.Error(2)
}
