package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/opencourse/proctor-backend/internal/config"
	"github.com/opencourse/proctor-backend/internal/handler"
	"github.com/opencourse/proctor-backend/internal/middleware"
	"github.com/opencourse/proctor-backend/internal/response"
	"github.com/opencourse/proctor-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	Attempt      *handler.AttemptHandler
	Access       *handler.AccessHandler
	Exam         *handler.ExamHandler
	Provider     *handler.ProviderHandler
	CourseConfig *handler.CourseConfigHandler
	Monitor      *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireLearnerJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireLearnerJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Learner Group (JWT + Single Device) ────────────────────────
	learnerAPI := router.Group("/api/v1/learner")
	learnerAPI.Use(
		middleware.RequireLearnerJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		learnerAPI.GET("/attempts/active", handlers.Attempt.GetActive)
		learnerAPI.PUT("/attempts/:attempt_id/status", handlers.Attempt.UpdateStatus)
		learnerAPI.GET("/exams/:exam_id", handlers.Exam.Get)
		learnerAPI.GET("/exams/:exam_id/attempt", handlers.Attempt.GetCurrent)
		learnerAPI.POST("/exams/:exam_id/attempt", handlers.Attempt.Create)
		learnerAPI.GET("/exams/:exam_id/access", handlers.Access.CheckAccess)
	}

	// ─── 3. Staff Group (JWT, staff token type) ────────────────────────
	staffAPI := router.Group("/api/v1/staff")
	staffAPI.Use(middleware.RequireStaffJWT(authService))
	{
		staffAPI.PUT("/attempts/:attempt_id/status", handlers.Attempt.StaffUpdateStatus)
		staffAPI.DELETE("/attempts/:attempt_id", handlers.Attempt.Reset)

		staffAPI.POST("/exams", handlers.Exam.Register)
		staffAPI.GET("/exams/:exam_id/attempts", handlers.Attempt.ListByExam)

		staffAPI.GET("/providers", handlers.Provider.List)
		staffAPI.POST("/providers", handlers.Provider.Create)

		staffAPI.GET("/courses/:course_id/exams", handlers.Exam.ListByCourse)
		staffAPI.GET("/courses/:course_id/configuration", handlers.CourseConfig.Get)
		staffAPI.PUT("/courses/:course_id/configuration", handlers.CourseConfig.Upsert)
	}

	// ─── 4. WebSocket Group (Staff WS Auth) ────────────────────────────
	wsAPI := router.Group("/ws/v1")
	wsAPI.Use(middleware.RequireStaffWSAuth(authService))
	{
		wsAPI.GET("/staff/courses/:course_id/monitor", handlers.Monitor.CourseMonitorStream)
	}

	return router
}
