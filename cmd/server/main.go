// Command server starts the AI Interview Coach HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/ai/gemini"
	httpserver "github.com/fairyhunter13/ai-interview-coach/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-interview-coach/internal/app"
	"github.com/fairyhunter13/ai-interview-coach/internal/config"
	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/internal/service/ratelimiter"
	"github.com/fairyhunter13/ai-interview-coach/internal/usecase"
)

// redisAdapter narrows *redis.Client to the readiness interface.
type redisAdapter struct{ *redis.Client }

func (r redisAdapter) Ping(ctx context.Context) app.RedisPingResult {
	return r.Client.Ping(ctx)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Repositories
	sessionRepo := postgres.NewSessionRepo(pool)
	questionRepo := postgres.NewQuestionRepo(pool)
	answerRepo := postgres.NewAnswerRepo(pool)
	analysisRepo := postgres.NewAnalysisRepo(pool)
	requestLogRepo := postgres.NewRequestLogRepo(pool)
	profileRepo := postgres.NewProfileRepo(pool)

	// Demo limiter: Redis sliding window when configured, request-log
	// window on Postgres otherwise.
	var rdb *redis.Client
	var limiter domain.RequestLimiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid redis url", slog.Any("error", err))
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		limiter = ratelimiter.NewRedisWindowLimiter(rdb, int64(cfg.DemoRateLimit), cfg.DemoRateWindow)
		slog.Info("demo rate limiter using redis")
	} else {
		limiter = ratelimiter.NewPostgresWindowLimiter(requestLogRepo, int64(cfg.DemoRateLimit), cfg.DemoRateWindow)
		slog.Info("demo rate limiter using request log table")
	}

	// AI client
	aiClient := gemini.New(cfg)

	// Fallback question table
	fallback, err := usecase.LoadFallbackQuestions(cfg.FallbackQuestionsPath)
	if err != nil {
		slog.Error("fallback question table load failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Usecases
	sessionSvc := usecase.NewSessionService(sessionRepo, cfg.DailySessionLimit, cfg.SessionStaleAfter)
	sessionSvc.OnSwept = func(count int64) {
		observability.SessionsSweptTotal.Add(float64(count))
	}
	questionSvc := usecase.NewQuestionService(sessionRepo, questionRepo, profileRepo, aiClient, fallback, cfg.QuestionCount)
	questionSvc.OnGenerated = func(source string, count int) {
		observability.QuestionsGeneratedTotal.WithLabelValues(source).Add(float64(count))
	}
	answerSvc := usecase.NewAnswerService(answerRepo)
	autosaver := usecase.NewAutosaver(answerSvc, cfg.AutosaveDebounce)
	analysisSvc := usecase.NewAnalysisService(sessionRepo, questionRepo, answerRepo, analysisRepo, profileRepo, aiClient)
	demoSvc := usecase.NewDemoFeedbackService(aiClient, limiter)

	// Readiness checks
	dbCheck, redisCheck := app.BuildReadinessChecks(pool, redisClientOrNil(rdb))

	srv := &httpserver.Server{
		Cfg:           cfg,
		Sessions:      sessionSvc,
		Questions:     questionSvc,
		Analysis:      analysisSvc,
		Autosave:      autosaver,
		Demo:          demoSvc,
		QuestionStore: questionRepo,
		AnswerStore:   answerRepo,
		DBCheck:       dbCheck,
		RedisCheck:    redisCheck,
	}

	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)

	// Pending autosaves must land before the process exits.
	if err := autosaver.FlushAll(shutdownCtx); err != nil {
		slog.Error("autosave drain failed on shutdown", slog.Any("error", err))
	}
}

func redisClientOrNil(rdb *redis.Client) app.RedisClient {
	if rdb == nil {
		return nil
	}
	return redisAdapter{rdb}
}
