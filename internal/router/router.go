package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/railji/railji-backend/internal/config"
	"github.com/railji/railji-backend/internal/handler"
	"github.com/railji/railji-backend/internal/middleware"
	"github.com/railji/railji-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Department *handler.DepartmentHandler
	Paper      *handler.PaperHandler
	Exam       *handler.ExamHandler
	Admin      *handler.AdminHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// examLimiter throttles exam start and submit per client IP; gatherer backs
// the /metrics endpoint.
func SetupRouter(
	handlers *Handlers,
	cfg *config.Config,
	examLimiter *middleware.RateLimiter,
	gatherer prometheus.Gatherer,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// Restricted to ALLOWED_ORIGINS when set, all origins otherwise.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Metrics())

	// Workbooks are zip archives already.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		Skip: func(c *gin.Context) bool {
			return strings.HasSuffix(c.Request.URL.Path, "/export")
		},
	}))

	router.NoRoute(response.NotFoundRoute)

	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", middleware.PrometheusHandler(gatherer))

	api := router.Group("/api/v1")

	// ─── 1. Departments ────────────────────────────────────────────────
	departments := api.Group("/departments")
	departments.Use(middleware.CacheControl(60))
	{
		departments.GET("", handlers.Department.List)
		departments.GET("/:id", handlers.Department.Get)
		departments.GET("/:id/materials", handlers.Department.Materials)
	}

	// ─── 2. Papers & questions ─────────────────────────────────────────
	papers := api.Group("/papers")
	{
		papers.GET("/top", middleware.CacheControl(60), handlers.Paper.Top)
		papers.GET("/:departmentId", middleware.CacheControl(60), handlers.Paper.ForDepartment)
		papers.GET("/:departmentId/:paperId", middleware.CacheControl(300), handlers.Paper.Questions)
		papers.GET("/:departmentId/:paperId/questions/:questionId", middleware.CacheControl(300), handlers.Paper.Question)
		papers.GET("/:departmentId/:paperId/answers", middleware.NoStore(), handlers.Paper.Answers)
	}

	// ─── 3. Exams (rate limited) ───────────────────────────────────────
	exams := api.Group("/exams")
	exams.Use(middleware.NoStore())
	{
		exams.POST("/start", examLimiter.Middleware(), handlers.Exam.Start)
		exams.POST("/submit", examLimiter.Middleware(), handlers.Exam.Submit)
		exams.GET("/history", handlers.Exam.History)
		exams.GET("/:examId/result", handlers.Exam.Result)
	}

	// ─── 4. Admin ──────────────────────────────────────────────────────
	admin := api.Group("/admin")
	admin.Use(middleware.NoStore())
	{
		admin.POST("/departments", handlers.Admin.CreateDepartment)
		admin.POST("/materials", handlers.Admin.CreateMaterial)

		admin.GET("/papers", handlers.Admin.ListPapers)
		admin.POST("/papers", handlers.Admin.CreatePaper)
		admin.GET("/papers/:paperId", handlers.Admin.GetPaper)
		admin.PATCH("/papers/:paperId", handlers.Admin.UpdatePaper)
		admin.DELETE("/papers/:paperId", handlers.Admin.DeletePaper)
		admin.GET("/papers/:paperId/attempts/export", handlers.Admin.ExportAttempts)

		admin.GET("/cache/stats", handlers.Admin.CacheStats)
		admin.DELETE("/cache", handlers.Admin.ClearCache)

		admin.GET("/system", handlers.System.Runtime)
	}

	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		response.Fail(c, http.StatusMethodNotAllowed, response.ErrBadRequest)
	})

	return router
}
