package ratelimit

import (
	"context"
	"time"

	"github.com/at-fk/finalproject/services"
	"go.uber.org/zap"
)

// Config describes a points budget that refills once per interval
type Config struct {
	Points          int
	PointsToConsume int
	Interval        time.Duration
	Prefix          string
}

// DefaultConfig returns the budget applied to the search API
func DefaultConfig() Config {
	return Config{
		Points:          30,
		PointsToConsume: 1,
		Interval:        60 * time.Second,
		Prefix:          "search_api",
	}
}

// RateLimitResult represents the result of a rate limit check
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Store consumes points for a key
type Store interface {
	Consume(ctx context.Context, key string, cfg Config) (*RateLimitResult, error)
}

// RateLimitService applies a points budget per caller
type RateLimitService struct {
	store  Store
	config Config
	logger *zap.Logger
}

// NewRateLimitService creates a new RateLimitService instance
func NewRateLimitService(store Store, config Config, logger *zap.Logger) *RateLimitService {
	defaults := DefaultConfig()
	if config.Points <= 0 {
		config.Points = defaults.Points
	}
	if config.PointsToConsume <= 0 {
		config.PointsToConsume = defaults.PointsToConsume
	}
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.Prefix == "" {
		config.Prefix = defaults.Prefix
	}

	return &RateLimitService{
		store:  store,
		config: config,
		logger: logger,
	}
}

// Config returns the effective configuration
func (s *RateLimitService) Config() Config {
	return s.config
}

// CheckLimit consumes points for identifier and returns ErrRateLimitExceeded
// together with the result once the budget is spent.
// A failing store lets the request through.
func (s *RateLimitService) CheckLimit(ctx context.Context, identifier string) (*RateLimitResult, error) {
	key := buildKey(s.config.Prefix, identifier)

	result, err := s.store.Consume(ctx, key, s.config)
	if err != nil {
		s.logger.Warn("rate limit store unavailable, allowing request",
			zap.String("key", key),
			zap.Error(err),
		)
		return &RateLimitResult{
			Allowed:   true,
			Limit:     s.config.Points,
			Remaining: s.config.Points,
		}, nil
	}

	if !result.Allowed {
		s.logger.Info("rate limit exceeded",
			zap.String("key", key),
			zap.Time("reset_at", result.ResetAt),
		)
		return result, services.ErrRateLimitExceeded
	}

	return result, nil
}

// buildKey builds a unique key for the rate limit scope
func buildKey(prefix, identifier string) string {
	return prefix + ":" + identifier
}
