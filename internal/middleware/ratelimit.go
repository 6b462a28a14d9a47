package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/resumelens/resumelens/internal/auth"
	"github.com/resumelens/resumelens/internal/cache"
)

// RateLimitConfig holds configuration for the analyze rate limiter.
type RateLimitConfig struct {
	Logger    *slog.Logger
	Cache     *cache.Cache
	Enabled   bool
	PerMinute int
	Burst     int
}

// RateLimitAnalyze returns middleware that rate limits analysis submissions
// per user. Every accepted request costs an upstream LLM call paid for with
// the user's own key, so the bucket is deliberately small.
// Must be applied after Auth middleware.
func RateLimitAnalyze(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			userID := auth.UserIDFromContext(r.Context())
			if userID == "" {
				// Auth middleware did not run; let the handler reject it
				next.ServeHTTP(w, r)
				return
			}

			result, err := cfg.Cache.CheckAnalyzeRateLimit(r.Context(), userID, cfg.PerMinute, cfg.Burst)
			if err != nil {
				cfg.Logger.Error("rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("user_id", userID),
				)
				// Fail open - allow request
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.PerMinute))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))

			if !result.Allowed {
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("user_id", userID),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
				writeRateLimitError(w, result.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimitError(w http.ResponseWriter, retryAfter time.Duration) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"Too many analysis requests, retry in ` +
		strconv.Itoa(int(retryAfter.Seconds())) + `s","code":"RATE_LIMITED"}`))
}
