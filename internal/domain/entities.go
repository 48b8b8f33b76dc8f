package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrUnauthenticated     = errors.New("not authenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("not found")
	ErrQuotaExceeded       = errors.New("quota exceeded")
	ErrRateLimited         = errors.New("rate limited")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrSchemaInvalid       = errors.New("schema invalid")
	ErrStorage             = errors.New("storage error")
	ErrInternal            = errors.New("internal error")
)

// RateLimitError is the ErrRateLimited variant that carries the limiter's
// retry hint, so transport layers can surface it (Retry-After) instead of
// re-deriving it from configuration.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: too many requests, retry after %s", ErrRateLimited, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// SessionStatus is the closed set of session lifecycle states.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAnalyzed   SessionStatus = "analyzed"
)

// sessionTransitions is the explicit transition table. A status may only
// advance forward; anything not listed here is an illegal transition.
var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionInProgress: {SessionCompleted},
	SessionCompleted:  {SessionAnalyzed},
	SessionAnalyzed:   {},
}

// Valid reports whether s is a known session status.
func (s SessionStatus) Valid() bool {
	_, ok := sessionTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	for _, t := range sessionTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Session is one candidate's attempt at a mock interview.
// Sessions are never hard-deleted; they are retained for history/review.
type Session struct {
	ID              string
	UserID          string
	Topic           string
	Status          SessionStatus
	StartedAt       time.Time
	CompletedAt     *time.Time
	OverallAnalysis []byte // raw overall_feedback JSON, set when analyzed
}

// Question belongs to a session and is immutable once created.
// Position is unique per session and contiguous from 1.
type Question struct {
	ID        string
	SessionID string
	Position  int
	Text      string
	Type      string
	CreatedAt time.Time
}

// Answer is the candidate's response to one question. At most one answer
// exists per (question, user); writes go through upsert on that pair.
type Answer struct {
	ID         string
	QuestionID string
	UserID     string
	Text       string
	IsCode     bool
	Language   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AnalysisResult holds the LLM feedback for exactly one answer.
// Created at most once per answer; re-analysis is refused, not overwritten.
type AnalysisResult struct {
	ID           string
	AnswerID     string
	Rating       string
	GoodPoints   string // "- "-joined bullet list
	Suggestions  string // "- "-joined bullet list
	AnalysisText string // raw evaluation JSON
	CreatedAt    time.Time
}

// RequestLogEntry is an append-only record used for sliding-window counting.
type RequestLogEntry struct {
	ID        int64
	IPAddress string
	Route     string
	CreatedAt time.Time
}

// CandidateProfile is the read-only slice of the user profile consumed by
// question generation. Profile CRUD lives outside this service.
type CandidateProfile struct {
	UserID               string
	YearsOfExperience    int
	PrimaryTechStack     string
	ProgrammingLanguages []string
	Technologies         []string
	TargetRoles          []string
	ProfileComplete      bool
}

// Repositories (ports)

type SessionRepository interface {
	Create(ctx Context, s Session) (string, error)
	Get(ctx Context, id string) (Session, error)
	ListInProgress(ctx Context, userID string) ([]Session, error)
	// UpdateStatus transitions a session; completedAt is set when non-nil.
	UpdateStatus(ctx Context, id string, status SessionStatus, completedAt *time.Time) error
	// SetAnalyzed stores overall feedback and moves the session to analyzed.
	SetAnalyzed(ctx Context, id string, overall []byte) error
	CountStartedSince(ctx Context, userID string, since time.Time) (int64, error)
	// CompleteStale transitions in_progress sessions started before cutoff
	// to completed and returns the number of rows affected.
	CompleteStale(ctx Context, userID string, cutoff time.Time, completedAt time.Time) (int64, error)
}

type QuestionRepository interface {
	BulkCreate(ctx Context, qs []Question) ([]Question, error)
	ListBySession(ctx Context, sessionID string) ([]Question, error)
}

type AnswerRepository interface {
	// Upsert writes the answer keyed on (question_id, user_id) and returns the row id.
	Upsert(ctx Context, a Answer) (string, error)
	ListBySession(ctx Context, sessionID, userID string) ([]Answer, error)
}

type AnalysisRepository interface {
	BulkCreate(ctx Context, rs []AnalysisResult) error
	// ExistsForSession reports whether any answer in the session already has
	// an analysis result. Used as the at-most-once guard before calling the model.
	ExistsForSession(ctx Context, sessionID string) (bool, error)
}

type RequestLogRepository interface {
	Insert(ctx Context, e RequestLogEntry) error
	CountSince(ctx Context, ip, route string, since time.Time) (int64, error)
}

type ProfileRepository interface {
	// GetByUserID returns ErrNotFound when the user has no profile row.
	GetByUserID(ctx Context, userID string) (CandidateProfile, error)
}

// GenerationRequest is the narrow contract with the text-generation service.
type GenerationRequest struct {
	Prompt          string
	Temperature     float64
	MaxOutputTokens int
	// SafetyThreshold applies to all harm categories; empty means the
	// gateway default (BLOCK_MEDIUM_AND_ABOVE).
	SafetyThreshold string
}

// AIClient (port)

type AIClient interface {
	// Generate returns the raw response text for the prompt. Implementations
	// must map a missing credential to ErrUpstreamUnavailable, not a panic.
	Generate(ctx Context, req GenerationRequest) (string, error)
}

// RequestLimiter guards the unauthenticated demo endpoint. Implementations
// fail open on infrastructure errors (allowed=true with err set).
type RequestLimiter interface {
	Allow(ctx Context, ip, route string) (allowed bool, retryAfter time.Duration, err error)
}

// Context is an alias to context.Context so the domain package reads cleanly
// without importing std context at every call site.
type Context = context.Context
