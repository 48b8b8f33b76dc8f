package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-coach/internal/config"
	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg           config.Config
	Sessions      usecase.SessionService
	Questions     usecase.QuestionService
	Analysis      usecase.AnalysisService
	Autosave      *usecase.Autosaver
	Demo          usecase.DemoFeedbackService
	QuestionStore domain.QuestionRepository
	AnswerStore   domain.AnswerRepository
	DBCheck       func(ctx context.Context) error
	RedisCheck    func(ctx context.Context) error
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
		return false
	}
	if err := getValidator().Struct(dst); err != nil {
		verrs := map[string]string{}
		if ve, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ve {
				verrs[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
		return false
	}
	return true
}

type sessionView struct {
	ID              string          `json:"id"`
	Topic           string          `json:"topic,omitempty"`
	Status          string          `json:"status"`
	StartedAt       time.Time       `json:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	OverallAnalysis json.RawMessage `json:"overall_analysis,omitempty"`
}

func toSessionView(s domain.Session) sessionView {
	return sessionView{
		ID:              s.ID,
		Topic:           s.Topic,
		Status:          string(s.Status),
		StartedAt:       s.StartedAt,
		CompletedAt:     s.CompletedAt,
		OverallAnalysis: json.RawMessage(s.OverallAnalysis),
	}
}

// StartSessionHandler creates a new interview session, subject to the daily quota.
func (s *Server) StartSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Topic string `json:"topic" validate:"max=100"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		sess, err := s.Sessions.Start(r.Context(), UserFrom(r.Context()), req.Topic)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		observability.SessionsStartedTotal.Inc()
		writeJSON(w, http.StatusCreated, toSessionView(sess))
	}
}

// ListSessionsHandler returns the caller's active sessions, sweeping stale
// ones into completed first.
func (s *Server) ListSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserFrom(r.Context())
		sessions, err := s.Sessions.ListActive(r.Context(), userID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]sessionView, 0, len(sessions))
		for _, sess := range sessions {
			out = append(out, toSessionView(sess))
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": out})
	}
}

type answerView struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsCode    bool      `json:"is_code"`
	Language  string    `json:"language,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type questionView struct {
	ID       string      `json:"id"`
	Position int         `json:"position"`
	Text     string      `json:"text"`
	Type     string      `json:"type"`
	Answer   *answerView `json:"answer,omitempty"`
}

// GetSessionHandler returns a session with its questions and the caller's answers.
func (s *Server) GetSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserFrom(r.Context())
		id := chi.URLParam(r, "id")
		sess, err := s.Sessions.Get(r.Context(), id, userID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		qs, err := s.QuestionStore.ListBySession(r.Context(), id)
		if err != nil {
			writeError(w, r, fmt.Errorf("op=http.session_detail questions: %w", err), nil)
			return
		}
		answers, err := s.AnswerStore.ListBySession(r.Context(), id, userID)
		if err != nil {
			writeError(w, r, fmt.Errorf("op=http.session_detail answers: %w", err), nil)
			return
		}
		byQuestion := make(map[string]domain.Answer, len(answers))
		for _, a := range answers {
			byQuestion[a.QuestionID] = a
		}
		qviews := make([]questionView, 0, len(qs))
		for _, q := range qs {
			qv := questionView{ID: q.ID, Position: q.Position, Text: q.Text, Type: q.Type}
			if a, ok := byQuestion[q.ID]; ok {
				qv.Answer = &answerView{ID: a.ID, Text: a.Text, IsCode: a.IsCode, Language: a.Language, UpdatedAt: a.UpdatedAt}
			}
			qviews = append(qviews, qv)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"session":   toSessionView(sess),
			"questions": qviews,
		})
	}
}

// GenerateQuestionsHandler generates and persists questions for a session.
func (s *Server) GenerateQuestionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Count int `json:"count" validate:"omitempty,min=1,max=10"`
		}
		if r.ContentLength > 0 {
			if !decodeJSON(w, r, &req) {
				return
			}
		}
		id := chi.URLParam(r, "id")
		qs, err := s.Questions.Generate(r.Context(), id, UserFrom(r.Context()), req.Count)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]questionView, 0, len(qs))
		for _, q := range qs {
			out = append(out, questionView{ID: q.ID, Position: q.Position, Text: q.Text, Type: q.Type})
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"questions": out})
	}
}

// SaveAnswerHandler buffers an answer through the debounced autosaver. With
// flush=true the write is persisted before responding (navigation, blur).
func (s *Server) SaveAnswerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionID string `json:"question_id" validate:"required,max=64"`
			Text       string `json:"text" validate:"max=20000"`
			IsCode     bool   `json:"is_code"`
			Language   string `json:"language" validate:"max=40"`
			Flush      bool   `json:"flush"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		userID := UserFrom(r.Context())
		id := chi.URLParam(r, "id")
		if _, err := s.Sessions.Get(r.Context(), id, userID); err != nil {
			writeError(w, r, err, nil)
			return
		}
		qs, err := s.QuestionStore.ListBySession(r.Context(), id)
		if err != nil {
			writeError(w, r, fmt.Errorf("op=http.save_answer questions: %w", err), nil)
			return
		}
		known := false
		for _, q := range qs {
			if q.ID == req.QuestionID {
				known = true
				break
			}
		}
		if !known {
			writeError(w, r, fmt.Errorf("%w: question does not belong to this session", domain.ErrInvalidArgument), nil)
			return
		}
		a := domain.Answer{
			QuestionID: req.QuestionID,
			UserID:     userID,
			Text:       req.Text,
			IsCode:     req.IsCode,
			Language:   req.Language,
		}
		s.Autosave.Record(a)
		if req.Flush {
			if err := s.Autosave.Flush(r.Context(), req.QuestionID, userID); err != nil {
				writeError(w, r, err, nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
	}
}

// FinishSessionHandler completes a session after the interview ran its course.
func (s *Server) FinishSessionHandler() http.HandlerFunc {
	return s.completeHandler(func(ctx context.Context, id, userID string) error {
		return s.Sessions.Finish(ctx, id, userID)
	})
}

// EndSessionHandler completes a session the candidate abandoned early.
func (s *Server) EndSessionHandler() http.HandlerFunc {
	return s.completeHandler(func(ctx context.Context, id, userID string) error {
		return s.Sessions.EndEarly(ctx, id, userID)
	})
}

func (s *Server) completeHandler(complete func(ctx context.Context, id, userID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserFrom(r.Context())
		id := chi.URLParam(r, "id")
		// The caller's pending edits must land before the session stops
		// accepting answers. Other users' buffers stay on their own timers.
		if err := s.Autosave.FlushUser(r.Context(), userID); err != nil {
			LoggerFrom(r).Warn("autosave drain failed before completion", "session_id", id, "error", err)
		}
		if err := complete(r.Context(), id, userID); err != nil {
			writeError(w, r, err, nil)
			return
		}
		sess, err := s.Sessions.Get(r.Context(), id, userID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toSessionView(sess))
	}
}

// AnalyzeSessionHandler runs LLM analysis over the session transcript.
func (s *Server) AnalyzeSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserFrom(r.Context())
		id := chi.URLParam(r, "id")
		outcome, err := s.Analysis.Analyze(r.Context(), id, userID)
		if err != nil {
			observability.AnalysesTotal.WithLabelValues("error").Inc()
			writeError(w, r, err, nil)
			return
		}
		if outcome.AlreadyAnalyzed {
			observability.AnalysesTotal.WithLabelValues("already_analyzed").Inc()
			writeJSON(w, http.StatusOK, map[string]interface{}{"status": "already_analyzed"})
			return
		}
		observability.AnalysesTotal.WithLabelValues("ok").Inc()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":         "analyzed",
			"stored_count":   outcome.StoredCount,
			"overall_stored": outcome.OverallStored,
		})
	}
}

// DemoFeedbackHandler serves the unauthenticated single-answer feedback demo.
func (s *Server) DemoFeedbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Question string `json:"question" validate:"required,max=2000"`
			Answer   string `json:"answer" validate:"required,max=2000"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		fb, err := s.Demo.Feedback(r.Context(), clientIP(r), req.Question, req.Answer)
		if err != nil {
			if errors.Is(err, domain.ErrRateLimited) {
				observability.RateLimitedTotal.WithLabelValues(r.URL.Path).Inc()
				retry := s.Cfg.DemoRateWindow
				var rl *domain.RateLimitError
				if errors.As(err, &rl) && rl.RetryAfter > 0 {
					retry = rl.RetryAfter
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
			}
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, fb)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ReadyzHandler probes the backing services.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 2)
		if s.DBCheck != nil {
			if err := s.DBCheck(ctx); err != nil {
				checks = append(checks, check{Name: "db", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "db", OK: true})
			}
		}
		if s.RedisCheck != nil {
			if err := s.RedisCheck(ctx); err != nil {
				checks = append(checks, check{Name: "redis", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "redis", OK: true})
			}
		}
		st := http.StatusOK
		for _, c := range checks {
			if !c.OK {
				st = http.StatusServiceUnavailable
				break
			}
		}
		writeJSON(w, st, map[string]interface{}{"checks": checks})
	}
}
