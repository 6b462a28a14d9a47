// Package main is the entrypoint for the ResumeLens API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/resumelens/resumelens/internal/analysis"
	"github.com/resumelens/resumelens/internal/auth"
	"github.com/resumelens/resumelens/internal/cache"
	"github.com/resumelens/resumelens/internal/config"
	"github.com/resumelens/resumelens/internal/extract"
	"github.com/resumelens/resumelens/internal/handler"
	"github.com/resumelens/resumelens/internal/metrics"
	"github.com/resumelens/resumelens/internal/middleware"
	"github.com/resumelens/resumelens/internal/provider"
	"github.com/resumelens/resumelens/internal/repository"
	"github.com/resumelens/resumelens/internal/server"
	"github.com/resumelens/resumelens/internal/upload"
)

func main() {
	ctx := context.Background()

	// Load .env in development; ignored when the file is absent
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

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

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenIssuer)
	store := upload.NewStore(cfg.UploadDir, cfg.MaxUploadBytes)
	extractors := extract.NewRegistry()
	completions := provider.NewClient(cfg.ProviderURL, cfg.ProviderModel, cfg.ProviderTimeout)

	metricsRecorder := metrics.NewNoop()
	analysisService := analysis.NewService(repo, repo, completions, extractors, store, logger, metricsRecorder)

	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	authHandler := handler.NewAuthHandler(repo, tokens, logger)
	keyHandler := handler.NewProviderKeyHandler(repo, logger)
	analysisHandler := handler.NewAnalysisHandler(store, analysisService, repo, cacheClient, logger, metricsRecorder)

	r := setupRouter(healthHandler, authHandler, keyHandler, analysisHandler, tokens, cacheClient, cfg, logger)

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"provider_model", cfg.ProviderModel,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
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

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	healthHandler *handler.HealthHandler,
	authHandler *handler.AuthHandler,
	keyHandler *handler.ProviderKeyHandler,
	analysisHandler *handler.AnalysisHandler,
	tokens *auth.TokenIssuer,
	cacheClient *cache.Cache,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	// Root info endpoint
	r.Get("/", handler.Hello)

	authCfg := middleware.AuthConfig{
		Logger: logger,
		Tokens: tokens,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:    logger,
		Cache:     cacheClient,
		Enabled:   cfg.RateLimitAnalyzeEnabled,
		PerMinute: cfg.RateLimitAnalyzePerMinute,
		Burst:     cfg.RateLimitAnalyzeBurst,
	}

	jsonBody := middleware.MaxBodySize(cfg.MaxRequestBodySize)

	r.Route("/api/v1", func(r chi.Router) {
		// Account endpoints (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.Use(jsonBody)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// Everything below requires a session token
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))

			r.Route("/provider-keys", func(r chi.Router) {
				r.Use(jsonBody)
				r.Post("/", keyHandler.Save)
				r.Get("/", keyHandler.List)
			})

			r.Route("/analyses", func(r chi.Router) {
				r.With(middleware.RateLimitAnalyze(rateLimitCfg)).Post("/", analysisHandler.Create)
				r.Get("/", analysisHandler.List)
				r.Get("/{id}", analysisHandler.Get)
			})
		})
	})

	// 404 and 405 handlers
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

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
