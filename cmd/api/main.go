// Package main is the entrypoint for the FinWell API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/finwell/finwell/internal/auth"
	"github.com/finwell/finwell/internal/cache"
	"github.com/finwell/finwell/internal/config"
	"github.com/finwell/finwell/internal/flow"
	"github.com/finwell/finwell/internal/handler"
	"github.com/finwell/finwell/internal/mailer"
	"github.com/finwell/finwell/internal/metrics"
	"github.com/finwell/finwell/internal/middleware"
	"github.com/finwell/finwell/internal/scheduler"
	"github.com/finwell/finwell/internal/server"
	"github.com/finwell/finwell/internal/store"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize the record store
	st, err := store.Open(ctx, cfg.StorageBackend, cfg.DataDir, cfg.DatabaseURL, cfg.MongoURL, cfg.MongoDatabase)
	if err != nil {
		logger.Error(
			"failed to open record store",
			slog.String("backend", cfg.StorageBackend),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL, cfg.MongoURL)),
		)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("record store ready", "backend", cfg.StorageBackend)

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Metrics
	metricsRecorder := metrics.NewInMemory()

	// Email dispatch: MailerSend API first, SMTP fallback. Deliveries
	// feed the metrics recorder, plus the SQL audit log when
	// configured.
	renderer, err := mailer.NewRenderer()
	if err != nil {
		logger.Error("failed to load email templates", "error", err)
		os.Exit(1)
	}

	recorders := mailer.FanoutRecorder{mailer.NewMetricsRecorder(metricsRecorder)}
	if cfg.DeliveryLogURL != "" {
		deliveryLog, err := mailer.NewSQLDeliveryLog(cfg.DeliveryLogURL, logger)
		if err != nil {
			logger.Error(
				"failed to open delivery log",
				slog.String("error", sanitizeError(err, cfg.DeliveryLogURL)),
			)
			os.Exit(1)
		}
		defer deliveryLog.Close()
		recorders = append(recorders, deliveryLog)
	}

	dispatcher := mailer.NewDispatcher(renderer, logger, recorders,
		mailer.NewAPIProvider(cfg.MailAPIURL, cfg.MailAPIToken, cfg.MailFromEmail, cfg.MailFromName),
		mailer.NewSMTPProvider(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFromName),
	)

	// Flows and account service
	flows, err := flow.New(flow.Deps{
		Store:    st,
		Drafts:   cacheClient,
		Sender:   dispatcher,
		BaseURL:  cfg.BaseURL,
		DraftTTL: cfg.DraftTTL,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to wire flows", "error", err)
		os.Exit(1)
	}
	authService := auth.NewService(st, logger)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(st, cacheClient)
	billHandler := handler.NewBillHandler(flows.Bill, metricsRecorder, logger)
	budgetHandler := handler.NewBudgetHandler(flows.Budget, metricsRecorder, logger)
	netWorthHandler := handler.NewNetWorthHandler(flows.NetWorth, metricsRecorder, logger)
	fundHandler := handler.NewEmergencyFundHandler(flows.EmergencyFund, metricsRecorder, logger)
	healthScoreHandler := handler.NewFinancialHealthHandler(flows.FinancialHealth, metricsRecorder, logger)
	quizHandler := handler.NewQuizHandler(flows.Quiz, metricsRecorder, logger)
	learningHandler := handler.NewLearningHandler(flows.Learning, logger)
	authHandler := handler.NewAuthHandler(authService, cfg.IsProduction(), logger)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)

	// Setup router
	r := setupRouter(routerDeps{
		base:        h,
		health:      healthHandler,
		bills:       billHandler,
		budget:      budgetHandler,
		netWorth:    netWorthHandler,
		fund:        fundHandler,
		healthScore: healthScoreHandler,
		quiz:        quizHandler,
		learning:    learningHandler,
		auth:        authHandler,
		metrics:     metricsHandler,
		cache:       cacheClient,
		cfg:         cfg,
		logger:      logger,
	})

	// Create server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Daily jobs: overdue sweep, then the reminder batch.
	runner := scheduler.NewRunner(cfg.SchedulerInterval, logger,
		scheduler.NewOverdueSweep(st, logger).WithMetrics(metricsRecorder),
		scheduler.NewReminderBatch(st, dispatcher, cacheClient, cfg.DefaultReminderDays, cfg.BaseURL, logger).
			WithMetrics(metricsRecorder),
	).WithMetrics(metricsRecorder)

	schedCtx, cancelSched := context.WithCancel(ctx)
	go func() {
		if err := runner.Run(schedCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler stopped", "error", err)
		}
	}()
	srv.OnShutdown("scheduler", func(context.Context) error {
		cancelSched()
		return nil
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// routerDeps bundles everything setupRouter needs.
type routerDeps struct {
	base        *handler.Handler
	health      *handler.HealthHandler
	bills       *handler.BillHandler
	budget      *handler.BudgetHandler
	netWorth    *handler.NetWorthHandler
	fund        *handler.EmergencyFundHandler
	healthScore *handler.FinancialHealthHandler
	quiz        *handler.QuizHandler
	learning    *handler.LearningHandler
	auth        *handler.AuthHandler
	metrics     *handler.MetricsHandler
	cache       *cache.Cache
	cfg         *config.Config
	logger      *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment: deps.cfg.IsDevelopment(),
	}))
	corsCfg := middleware.DefaultCORSConfig()
	if len(deps.cfg.AllowedOrigins) > 0 {
		corsCfg.AllowedOrigins = deps.cfg.AllowedOrigins
	}
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no session required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)
	r.Get("/metrics", deps.metrics.Metrics)

	// Root info endpoint
	r.Get("/", deps.base.Hello)

	// Rate limit configuration for abuse-prone endpoints
	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  deps.logger,
		Limiter: deps.cache,
		Enabled: deps.cfg.RateLimitEnabled,
		Limit:   deps.cfg.RateLimitPerMinute,
		Window:  time.Minute,
	}

	// API v1 routes (session cookie assigned on first contact)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(deps.cfg.IsProduction()))

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimitIP(rateLimitCfg))
			r.Post("/register", deps.auth.Register)
			r.Post("/login", deps.auth.Login)
		})

		r.Route("/bills", func(r chi.Router) {
			r.Get("/", deps.bills.List)
			r.Get("/dashboard", deps.bills.Dashboard)
			r.Post("/steps/1", deps.bills.Step1)
			r.Post("/", deps.bills.Complete)
			r.Post("/{id}/toggle", deps.bills.Toggle)
			r.Delete("/{id}", deps.bills.Delete)
			r.With(middleware.RateLimitIP(rateLimitCfg)).Get("/unsubscribe", deps.bills.Unsubscribe)
		})

		r.Route("/budget", func(r chi.Router) {
			r.Get("/latest", deps.budget.Latest)
			r.Post("/steps/1", deps.budget.Step1)
			r.Post("/steps/2", deps.budget.Step2)
			r.Post("/steps/3", deps.budget.Step3)
			r.Post("/", deps.budget.Complete)
		})

		r.Route("/networth", func(r chi.Router) {
			r.Post("/steps/1", deps.netWorth.Step1)
			r.Post("/steps/2", deps.netWorth.Step2)
			r.Post("/", deps.netWorth.Complete)
			r.With(middleware.RateLimitIP(rateLimitCfg)).Get("/unsubscribe", deps.netWorth.Unsubscribe)
		})

		r.Route("/emergency-fund", func(r chi.Router) {
			r.Post("/steps/1", deps.fund.Step1)
			r.Post("/steps/2", deps.fund.Step2)
			r.Post("/steps/3", deps.fund.Step3)
			r.Post("/", deps.fund.Complete)
			r.With(middleware.RateLimitIP(rateLimitCfg)).Get("/unsubscribe", deps.fund.Unsubscribe)
		})

		r.Route("/financial-health", func(r chi.Router) {
			r.Get("/latest", deps.healthScore.Latest)
			r.Post("/steps/1", deps.healthScore.Step1)
			r.Post("/steps/2", deps.healthScore.Step2)
			r.Post("/", deps.healthScore.Complete)
		})

		r.Route("/quiz", func(r chi.Router) {
			r.Get("/questions", deps.quiz.Questions)
			r.Post("/steps/1", deps.quiz.Step1)
			r.Post("/answers/{page}", deps.quiz.Answers)
			r.Post("/", deps.quiz.Complete)
		})

		r.Route("/learning", func(r chi.Router) {
			r.Get("/courses", deps.learning.Courses)
			r.Get("/progress", deps.learning.Progress)
			r.Post("/lessons/complete", deps.learning.CompleteLesson)
			r.Post("/quiz-scores", deps.learning.QuizScore)
		})
	})

	// 404 and 405 handlers
	r.NotFound(deps.base.NotFound)
	r.MethodNotAllowed(deps.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
