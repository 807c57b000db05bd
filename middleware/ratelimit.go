package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/at-fk/finalproject/services"
	"github.com/at-fk/finalproject/services/ratelimit"
	"github.com/at-fk/finalproject/utils"
	"go.uber.org/zap"
)

// RateLimitChecker defines the interface for rate limit checking
type RateLimitChecker interface {
	CheckLimit(ctx context.Context, identifier string) (*ratelimit.RateLimitResult, error)
}

// RateLimitMiddleware spends the caller's request budget before the handler runs
type RateLimitMiddleware struct {
	limiter RateLimitChecker
	logger  *zap.Logger
}

// NewRateLimitMiddleware creates a new RateLimitMiddleware
func NewRateLimitMiddleware(limiter RateLimitChecker, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		logger:  logger,
	}
}

// Limit answers 429 once the caller's budget is spent. It always reports
// X-RateLimit-Limit and X-RateLimit-Remaining.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		caller, ok := GetCallerFromContext(ctx)
		if !ok {
			caller = Caller{ID: ClientIP(r), Source: CallerSourceIP}
		}

		result, err := m.limiter.CheckLimit(ctx, caller.Key())
		if result != nil {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			if !result.ResetAt.IsZero() {
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
			}
		}

		if err != nil {
			if errors.Is(err, services.ErrRateLimitExceeded) {
				m.logger.Warn("request blocked by rate limit",
					zap.String("request_id", requestID),
					zap.String("caller", caller.ID))
				_ = utils.WriteTooManyRequests(w, "Too Many Requests")
				return
			}
			m.logger.Error("failed to check rate limit",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteInternalServerError(w, "Failed to check rate limit")
			return
		}

		next.ServeHTTP(w, r)
	})
}
