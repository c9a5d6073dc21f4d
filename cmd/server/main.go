package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opencourse/proctor-backend/internal/config"
	"github.com/opencourse/proctor-backend/internal/database"
	"github.com/opencourse/proctor-backend/internal/events"
	"github.com/opencourse/proctor-backend/internal/handler"
	"github.com/opencourse/proctor-backend/internal/logger"
	"github.com/opencourse/proctor-backend/internal/notification"
	"github.com/opencourse/proctor-backend/internal/repository"
	"github.com/opencourse/proctor-backend/internal/router"
	"github.com/opencourse/proctor-backend/internal/service"
	"github.com/opencourse/proctor-backend/internal/validator"
	"github.com/opencourse/proctor-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Proctor Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	providerRepo := repository.NewProviderRepository(pool)
	configRepo := repository.NewCourseConfigRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	clock := service.NewClock()
	publisher := events.NewRedisPublisher(rdb, log)
	notifier := notification.NewEmailNotifier(cfg.SMTPAddr, cfg.SMTPFrom, userRepo, log)

	authService := service.NewAuthService(cfg, userRepo, rdb)
	attemptService := service.NewAttemptService(attemptRepo, examRepo, notifier, publisher, clock, log)
	accessService := service.NewAccessService(examRepo, attemptRepo, cfg, clock, log)
	examService := service.NewExamService(examRepo, configRepo, clock, log)
	providerService := service.NewProviderService(providerRepo, log)
	configService := service.NewCourseConfigService(configRepo, providerRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Attempt:      handler.NewAttemptHandler(attemptService),
		Access:       handler.NewAccessHandler(accessService),
		Exam:         handler.NewExamHandler(examService),
		Provider:     handler.NewProviderHandler(providerService),
		CourseConfig: handler.NewCourseConfigHandler(configService),
		Monitor:      handler.NewMonitorHandler(rdb, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	timeoutWorker := worker.NewTimeoutWorker(attemptRepo, attemptService, cfg.TimeoutSweepInterval, log)
	go timeoutWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the timeout sweeper mid-cycle safely; transitions are
	// transactional so an interrupted sweep resumes next boot.
	workerCancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
