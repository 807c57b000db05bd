package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type bucket struct {
	points    int
	timestamp time.Time
}

// MemoryStore keeps budgets in process memory
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	logger  *zap.Logger
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]*bucket),
		now:     time.Now,
		logger:  logger,
	}
}

// Consume starts a fresh budget when the key is unknown or its interval has passed,
// otherwise takes points from the current one. A rejected request consumes nothing.
func (m *MemoryStore) Consume(ctx context.Context, key string, cfg Config) (*RateLimitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, exists := m.buckets[key]

	if !exists || now.Sub(entry.timestamp) > cfg.Interval {
		entry = &bucket{points: cfg.Points - cfg.PointsToConsume, timestamp: now}
		m.buckets[key] = entry
		return &RateLimitResult{
			Allowed:   true,
			Limit:     cfg.Points,
			Remaining: entry.points,
			ResetAt:   now.Add(cfg.Interval),
		}, nil
	}

	resetAt := entry.timestamp.Add(cfg.Interval)
	if entry.points < cfg.PointsToConsume {
		return &RateLimitResult{
			Allowed:   false,
			Limit:     cfg.Points,
			Remaining: entry.points,
			ResetAt:   resetAt,
		}, nil
	}

	entry.points -= cfg.PointsToConsume
	return &RateLimitResult{
		Allowed:   true,
		Limit:     cfg.Points,
		Remaining: entry.points,
		ResetAt:   resetAt,
	}, nil
}

// CleanupExpired removes budgets older than maxAge and returns how many were removed
func (m *MemoryStore) CleanupExpired(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, entry := range m.buckets {
		if now.Sub(entry.timestamp) > maxAge {
			delete(m.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

// StartCleanupWorker periodically drops budgets older than maxAge until ctx is done
func (m *MemoryStore) StartCleanupWorker(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("started rate limit cleanup worker",
		zap.Duration("interval", interval),
		zap.Duration("max_age", maxAge))

	for {
		select {
		case <-ticker.C:
			if removed := m.CleanupExpired(maxAge); removed > 0 {
				m.logger.Debug("cleaned up rate limit buckets", zap.Int("removed", removed))
			}
		case <-ctx.Done():
			m.logger.Info("stopping rate limit cleanup worker")
			return
		}
	}
}
