package app

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/at-fk/finalproject/config"
	"github.com/at-fk/finalproject/repositories/postgres"
	"github.com/at-fk/finalproject/services/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Environment = "test"
	cfg.Embedding.URL = "http://127.0.0.1:1/embeddings"
	return cfg
}

func newTestFactory(t *testing.T) (*postgres.RepositoryFactory, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	logger := zaptest.NewLogger(t)
	return postgres.NewRepositoryFactoryFromDB(postgres.WrapDB(db, logger), logger), mock
}

func TestNewDependenciesWithFactory(t *testing.T) {
	t.Run("wires services with memory backends", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)
		cfg.Providers.OpenAI.APIKey = "sk-test"
		factory, mock := newTestFactory(t)

		deps, err := NewDependenciesWithFactory(ctx, cfg, factory, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NotNil(t, deps)

		assert.NotNil(t, deps.DB)
		assert.NotNil(t, deps.Repositories)
		assert.NotNil(t, deps.Pool)
		assert.IsType(t, &cache.MemoryCache{}, deps.Cache)
		assert.Nil(t, deps.Redis)
		assert.Equal(t, []string{"openai"}, deps.ProviderRegistry.ListProviders())
		assert.NotNil(t, deps.Embedder)
		assert.NotNil(t, deps.Search)
		assert.NotNil(t, deps.Answer)
		assert.NotNil(t, deps.Articles)
		assert.NotNil(t, deps.Structure)
		assert.NotNil(t, deps.RateLimiter)
		assert.NotNil(t, deps.RateLimitMiddleware)
		assert.NotNil(t, deps.IdentityMiddleware)

		assert.Equal(t, 30, deps.RateLimiter.Config().Points)
		assert.Equal(t, "search_api", deps.RateLimiter.Config().Prefix)

		mock.ExpectClose()
		require.NoError(t, deps.Close(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cache and rate limiting can be disabled", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)
		cfg.Cache.Backend = "none"
		cfg.RateLimit.Enabled = false
		factory, mock := newTestFactory(t)

		deps, err := NewDependenciesWithFactory(ctx, cfg, factory, zaptest.NewLogger(t))
		require.NoError(t, err)

		assert.Nil(t, deps.Cache)
		assert.Nil(t, deps.RateLimiter)
		assert.Nil(t, deps.RateLimitMiddleware)
		assert.Empty(t, deps.ProviderRegistry.ListProviders())

		mock.ExpectClose()
		require.NoError(t, deps.Close(ctx))
	})

	t.Run("unreachable redis fails", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)
		cfg.Cache.Backend = "redis"
		cfg.Cache.Redis.Addr = "127.0.0.1:1"
		cfg.Cache.Redis.MaxRetries = 1
		factory, _ := newTestFactory(t)

		deps, err := NewDependenciesWithFactory(ctx, cfg, factory, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize redis")
	})
}

func TestNewDependencies_DatabaseFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Host = "127.0.0.1"
	cfg.Database.Port = 1

	deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
	assert.Nil(t, deps)
	assert.Contains(t, err.Error(), "failed to initialize database")
}
