package search

import (
	"context"
	"strings"
	"time"

	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/services/cache"
	"go.uber.org/zap"
)

// cacheKeyPrefix namespaces search responses in the cache
const cacheKeyPrefix = "search"

// UnifiedService dispatches a search to the keyword or semantic service
type UnifiedService struct {
	keyword  Searcher
	semantic Searcher
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewUnifiedService creates a new UnifiedService. A nil cache disables response caching.
func NewUnifiedService(keyword, semantic Searcher, c cache.Cache, cacheTTL time.Duration, logger *zap.Logger) *UnifiedService {
	return &UnifiedService{
		keyword:  keyword,
		semantic: semantic,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Search routes semantic requests with a non-blank query to the semantic service
// and everything else to the keyword service. Only successful responses are cached.
func (s *UnifiedService) Search(ctx context.Context, params models.SearchParams) (*models.SearchResponse, error) {
	target := s.keyword
	if params.Type == models.SearchTypeSemantic && strings.TrimSpace(params.SemanticQuery) != "" {
		target = s.semantic
	}

	key := s.cacheKey(params)
	if key != "" {
		var cached models.SearchResponse
		found, err := cache.GetJSON(ctx, s.cache, key, &cached)
		if err != nil {
			s.logger.Warn("search cache read failed", zap.Error(err))
		} else if found {
			s.logger.Debug("search cache hit", zap.String("key", key))
			return &cached, nil
		}
	}

	resp, err := target.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := cache.SetJSON(ctx, s.cache, key, resp, s.cacheTTL); err != nil {
			s.logger.Warn("search cache write failed", zap.Error(err))
		}
	}

	return resp, nil
}

func (s *UnifiedService) cacheKey(params models.SearchParams) string {
	if s.cache == nil {
		return ""
	}
	key, err := cache.KeyFor(cacheKeyPrefix, params)
	if err != nil {
		s.logger.Warn("failed to build search cache key", zap.Error(err))
		return ""
	}
	return key
}
