package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/railji/railji-backend/internal/apperror"
	"github.com/railji/railji-backend/internal/cache"
	"github.com/railji/railji-backend/internal/config"
	"github.com/railji/railji-backend/internal/database"
	"github.com/railji/railji-backend/internal/handler"
	"github.com/railji/railji-backend/internal/logger"
	"github.com/railji/railji-backend/internal/middleware"
	"github.com/railji/railji-backend/internal/repository"
	"github.com/railji/railji-backend/internal/repository/memstore"
	"github.com/railji/railji-backend/internal/router"
	"github.com/railji/railji-backend/internal/service"
	"github.com/railji/railji-backend/internal/validator"
	"github.com/railji/railji-backend/internal/worker"
)

// repositories is the storage backend selected by STORAGE_DRIVER.
type repositories struct {
	departments repository.DepartmentRepository
	materials   repository.MaterialRepository
	papers      repository.PaperRepository
	banks       repository.QuestionBankRepository
	attempts    repository.ExamAttemptRepository
}

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("storage", cfg.StorageDriver).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Railji Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := map[string]handler.HealthCheck{}

	// ─── Storage ───────────────────────────────────────────────────────
	var repos repositories
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		store := memstore.New()
		repos = repositories{
			departments: store.Departments(),
			materials:   store.Materials(),
			papers:      store.Papers(),
			banks:       store.QuestionBanks(),
			attempts:    store.Attempts(),
		}
	case config.StoragePostgres:
		if cfg.AutoMigrate {
			if err := database.MigrateUp(cfg.DatabaseURL, log); err != nil {
				log.Fatal().Err(err).Msg("Failed to migrate database")
			}
		}

		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()

		repos = postgresRepositories(pool)
		checks["postgres"] = pool.Ping
	default:
		log.Fatal().Str("driver", cfg.StorageDriver).Msg("Unknown STORAGE_DRIVER")
	}

	// ─── Connect to Redis (optional) ───────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb != nil {
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// ─── Cache ─────────────────────────────────────────────────────────
	l1 := cache.NewMemory()
	var store cache.Store = cache.NewTiered(l1, nil, cfg.L1PromoteTTL, log)
	if rdb != nil {
		store = cache.NewTiered(l1, cache.NewRedis(rdb, cfg.CacheNamespace), cfg.L1PromoteTTL, log)
	}

	// ─── Metrics ───────────────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	registry.MustRegister(cache.Collectors()...)
	registry.MustRegister(service.Collectors()...)
	registry.MustRegister(middleware.Collectors()...)

	// ─── Initialize Services ──────────────────────────────────────────
	classifier := apperror.NewClassifier(log)
	ttls := service.CacheTTLsFromConfig(cfg)
	stats, statsWorker := attemptStats(repos.papers, rdb, log)

	departmentService := service.NewDepartmentService(repos.departments, repos.materials, store, classifier, ttls, log)
	paperService := service.NewPaperService(repos.papers, repos.departments, store, classifier, ttls, log)
	questionService := service.NewQuestionBankService(repos.banks, store, classifier, ttls, log)
	examService := service.NewExamService(repos.attempts, repos.papers, questionService, stats, classifier, log)
	reportService := service.NewReportService(repos.papers, repos.attempts, classifier, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Department: handler.NewDepartmentHandler(departmentService),
		Paper:      handler.NewPaperHandler(paperService, questionService),
		Exam:       handler.NewExamHandler(examService),
		Admin:      handler.NewAdminHandler(departmentService, paperService, reportService),
		System:     handler.NewSystemHandler(checks, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	run := func(fn func(context.Context)) {
		workers.Add(1)
		go func() {
			defer workers.Done()
			fn(workerCtx)
		}()
	}

	run(func(ctx context.Context) { l1.Run(ctx, cfg.CacheSweepPeriod) })
	run(worker.NewAttemptTimeoutWorker(repos.attempts, cfg.AttemptTimeoutGrace, cfg.AttemptSweepPeriod, log).Start)
	if statsWorker != nil {
		run(statsWorker.Start)
	}

	examLimiter := middleware.NewRateLimiter(cfg.SubmitRatePerMinute, time.Minute)
	run(func(ctx context.Context) { examLimiter.Run(ctx.Done(), time.Minute) })

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg, examLimiter, registry)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	// 2. Stop background workers; the stats worker flushes its batch on exit.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

func postgresRepositories(pool *pgxpool.Pool) repositories {
	return repositories{
		departments: repository.NewDepartmentRepository(pool),
		materials:   repository.NewMaterialRepository(pool),
		papers:      repository.NewPaperRepository(pool),
		banks:       repository.NewQuestionBankRepository(pool),
		attempts:    repository.NewExamAttemptRepository(pool),
	}
}

// attemptStats queues increments through Redis when available and applies
// them inline otherwise.
func attemptStats(papers repository.PaperRepository, rdb *redis.Client, log zerolog.Logger) (service.StatsRecorder, *worker.AttemptStatsWorker) {
	if rdb == nil {
		return worker.NewDirectAttemptStats(papers), nil
	}
	w := worker.NewAttemptStatsWorker(papers, rdb, log)
	return w, w
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
