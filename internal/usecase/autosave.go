package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// Autosaver debounces answer writes while the candidate types. Each edit
// replaces the pending buffer for its question and re-arms the timer; the
// write goes out only after Debounce of silence, or immediately on Flush
// (navigation, session end).
type Autosaver struct {
	Answers  AnswerService
	Debounce time.Duration

	mu      sync.Mutex
	pending map[string]*pendingAnswer
}

type pendingAnswer struct {
	answer domain.Answer
	timer  *time.Timer
	// flushing guards the single in-flight write per question. A timer fire
	// during a flush is dropped; the next edit re-arms.
	flushing bool
	dirty    bool
}

// NewAutosaver constructs an Autosaver around the answer service.
func NewAutosaver(answers AnswerService, debounce time.Duration) *Autosaver {
	return &Autosaver{
		Answers:  answers,
		Debounce: debounce,
		pending:  make(map[string]*pendingAnswer),
	}
}

func pendingKey(a domain.Answer) string { return a.QuestionID + "/" + a.UserID }

// Record buffers the latest answer text and resets the debounce timer.
func (s *Autosaver) Record(a domain.Answer) {
	key := pendingKey(a)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[key]
	if !ok {
		p = &pendingAnswer{}
		s.pending[key] = p
	}
	p.answer = a
	p.dirty = true
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(s.Debounce, func() { s.flushTimer(key) })
}

// Flush persists the pending answer for the question synchronously. No-op
// when nothing is pending or a timer flush is already in flight.
func (s *Autosaver) Flush(ctx domain.Context, questionID, userID string) error {
	return s.flush(ctx, questionID+"/"+userID)
}

// FlushUser drains every pending answer belonging to userID, used when the
// user completes a session. Other users' buffers stay on their timers.
func (s *Autosaver) FlushUser(ctx domain.Context, userID string) error {
	suffix := "/" + userID
	s.mu.Lock()
	keys := make([]string, 0, len(s.pending))
	for k := range s.pending {
		if strings.HasSuffix(k, suffix) {
			keys = append(keys, k)
		}
	}
	s.mu.Unlock()
	var firstErr error
	for _, k := range keys {
		if err := s.flush(ctx, k); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// FlushAll drains every pending answer, used on shutdown. The first error is
// returned after all keys were attempted.
func (s *Autosaver) FlushAll(ctx domain.Context) error {
	s.mu.Lock()
	keys := make([]string, 0, len(s.pending))
	for k := range s.pending {
		keys = append(keys, k)
	}
	s.mu.Unlock()
	var firstErr error
	for _, k := range keys {
		if err := s.flush(ctx, k); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Autosaver) flush(ctx domain.Context, key string) error {
	s.mu.Lock()
	p, ok := s.pending[key]
	if !ok || p.flushing || !p.dirty {
		s.mu.Unlock()
		return nil
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.flushing = true
	p.dirty = false
	a := p.answer
	s.mu.Unlock()

	_, err := s.Answers.Save(ctx, a)

	s.mu.Lock()
	p.flushing = false
	if err != nil {
		// Keep the buffer and re-arm the timer so the write retries without
		// requiring another edit.
		p.dirty = true
		p.timer = time.AfterFunc(s.Debounce, func() { s.flushTimer(key) })
	} else if !p.dirty {
		delete(s.pending, key)
	}
	s.mu.Unlock()
	return err
}

func (s *Autosaver) flushTimer(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.flush(ctx, key); err != nil {
		slog.Warn("autosave flush failed", slog.String("key", key), slog.Any("error", err))
	}
}
