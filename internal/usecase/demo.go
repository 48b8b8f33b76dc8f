package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/pkg/textx"
)

// maxDemoAnswerLen bounds the free-form answer on the public endpoint.
const maxDemoAnswerLen = 2000

// DemoFeedbackService powers the unauthenticated one-shot feedback demo.
// Every call is rate limited per IP before the model is touched.
type DemoFeedbackService struct {
	AI      domain.AIClient
	Limiter domain.RequestLimiter
}

// NewDemoFeedbackService constructs a DemoFeedbackService.
func NewDemoFeedbackService(ai domain.AIClient, limiter domain.RequestLimiter) DemoFeedbackService {
	return DemoFeedbackService{AI: ai, Limiter: limiter}
}

// demoRoute identifies the endpoint in the request log and limiter keys.
const demoRoute = "/v1/demo/feedback"

// Feedback returns one-shot feedback for a question/answer pair. A limiter
// infrastructure failure lets the request through; only an explicit deny
// returns a RateLimitError carrying the limiter's retry hint.
func (s DemoFeedbackService) Feedback(ctx domain.Context, ip, question, answer string) (domain.DemoFeedback, error) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return domain.DemoFeedback{}, fmt.Errorf("%w: question and answer are required", domain.ErrInvalidArgument)
	}
	if len(answer) > maxDemoAnswerLen {
		return domain.DemoFeedback{}, fmt.Errorf("%w: answer is too long for the demo", domain.ErrInvalidArgument)
	}

	allowed, retryAfter, err := s.Limiter.Allow(ctx, ip, demoRoute)
	if err != nil {
		slog.Warn("rate limit check failed, proceeding without enforcement",
			slog.String("ip", ip), slog.Any("error", err))
	}
	if !allowed {
		return domain.DemoFeedback{}, &domain.RateLimitError{RetryAfter: retryAfter}
	}

	raw, err := s.AI.Generate(ctx, domain.GenerationRequest{
		Prompt:          buildDemoPrompt(question, answer),
		Temperature:     demoTemperature,
		MaxOutputTokens: demoMaxTokens,
	})
	if err != nil {
		return domain.DemoFeedback{}, err
	}
	cleaned := textx.ExtractJSONObject(textx.StripCodeFences(raw))
	if cleaned == "" {
		return domain.DemoFeedback{}, fmt.Errorf("%w: AI returned an unexpected format", domain.ErrSchemaInvalid)
	}
	var fb domain.DemoFeedback
	if err := json.Unmarshal([]byte(cleaned), &fb); err != nil {
		return domain.DemoFeedback{}, fmt.Errorf("%w: AI returned an unexpected format: %v", domain.ErrSchemaInvalid, err)
	}
	return fb, nil
}
