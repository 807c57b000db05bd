package app

import (
	"context"
	"fmt"

	"github.com/at-fk/finalproject/config"
	"github.com/at-fk/finalproject/middleware"
	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/repositories"
	"github.com/at-fk/finalproject/repositories/postgres"
	"github.com/at-fk/finalproject/services/answer"
	"github.com/at-fk/finalproject/services/article"
	"github.com/at-fk/finalproject/services/cache"
	"github.com/at-fk/finalproject/services/contextbuilder"
	"github.com/at-fk/finalproject/services/embedding"
	"github.com/at-fk/finalproject/services/providers"
	"github.com/at-fk/finalproject/services/providers/bedrock"
	"github.com/at-fk/finalproject/services/providers/openai"
	"github.com/at-fk/finalproject/services/ratelimit"
	"github.com/at-fk/finalproject/services/search"
	"github.com/at-fk/finalproject/services/structure"
	"github.com/panjf2000/ants/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// structurePoolSize bounds concurrent chapter loads across all requests
const structurePoolSize = 16

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger
	Redis  *redis.Client
	Pool   *ants.Pool

	// Repository Factory
	RepoFactory  *postgres.RepositoryFactory
	Repositories *repositories.Repositories

	// Services
	Cache            cache.Cache
	ProviderRegistry *providers.Registry
	Embedder         *embedding.JinaClient
	Search           *search.UnifiedService
	Answer           *answer.Service
	Articles         *article.Service
	Structure        *structure.Service
	RateLimiter      *ratelimit.RateLimitService

	// Middleware
	IdentityMiddleware  *middleware.IdentityMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware

	stopWorkers context.CancelFunc
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.Database.InitSchema {
		if err := factory.GetDB().InitSchema(ctx); err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	deps, err := NewDependenciesWithFactory(ctx, cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithFactory wires the services over an already opened repository factory
func NewDependenciesWithFactory(ctx context.Context, cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	workerCtx, stop := context.WithCancel(context.Background())

	deps := &Dependencies{
		Config:       cfg,
		Logger:       logger,
		RepoFactory:  factory,
		DB:           factory.GetDB(),
		Repositories: factory.NewRepositories(),
		stopWorkers:  stop,
	}

	if err := deps.initRedis(ctx, cfg); err != nil {
		stop()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	deps.initCache(workerCtx, cfg)

	if err := deps.initProviders(ctx, cfg); err != nil {
		deps.closeRedis()
		stop()
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	if err := deps.initServices(cfg); err != nil {
		deps.closeRedis()
		stop()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	deps.initRateLimit(workerCtx, cfg)
	deps.initIdentity(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initRedis connects only when a backend needs it
func (d *Dependencies) initRedis(ctx context.Context, cfg *config.Config) error {
	needsRedis := cfg.Cache.Backend == "redis" || (cfg.RateLimit.Enabled && cfg.RateLimit.Backend == "redis")
	if !needsRedis {
		return nil
	}

	client, err := cache.ConnectRedis(ctx, cache.RedisConfig{
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		MaxRetries: cfg.Cache.Redis.MaxRetries,
	}, d.Logger)
	if err != nil {
		return err
	}
	d.Redis = client
	return nil
}

func (d *Dependencies) initCache(workerCtx context.Context, cfg *config.Config) {
	switch cfg.Cache.Backend {
	case "redis":
		d.Cache = cache.NewRedisCache(d.Redis, cfg.Cache.Keyspace, d.Logger)
	case "memory":
		mem := cache.NewMemoryCache(cfg.Cache.MaxSize)
		if cfg.Cache.Cleanup > 0 {
			go mem.StartCleanupWorker(cfg.Cache.Cleanup, workerCtx.Done())
		}
		d.Cache = mem
	default:
		d.Logger.Info("search response cache disabled")
	}
}

// initProviders registers OpenAI when a key is configured and Bedrock when enabled
func (d *Dependencies) initProviders(ctx context.Context, cfg *config.Config) error {
	registry := providers.NewRegistry()

	if cfg.Providers.OpenAI.APIKey != "" {
		adapter := openai.NewOpenAIAdapter(providers.ProviderConfig{
			APIKey:  cfg.Providers.OpenAI.APIKey,
			BaseURL: cfg.Providers.OpenAI.BaseURL,
			OrgID:   cfg.Providers.OpenAI.OrgID,
			Timeout: cfg.Providers.OpenAI.Timeout,
		})
		if err := registry.RegisterProvider(adapter); err != nil {
			return err
		}
		d.Logger.Info("registered OpenAI provider")
	}

	if cfg.Providers.Bedrock.Enabled {
		adapter, err := bedrock.NewBedrockAdapter(ctx, providers.ProviderConfig{
			Region:  cfg.Providers.Bedrock.Region,
			Models:  cfg.Providers.Bedrock.Models,
			Timeout: cfg.Providers.Bedrock.Timeout,
		})
		if err != nil {
			return fmt.Errorf("failed to create bedrock adapter: %w", err)
		}
		if err := registry.RegisterProvider(adapter); err != nil {
			return err
		}
		d.Logger.Info("registered Bedrock provider", zap.String("region", cfg.Providers.Bedrock.Region))
	}

	if len(registry.ListProviders()) == 0 {
		d.Logger.Warn("no LLM providers configured, answering is disabled")
	}

	d.ProviderRegistry = registry
	return nil
}

func (d *Dependencies) initServices(cfg *config.Config) error {
	pool, err := ants.NewPool(structurePoolSize)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	d.Pool = pool

	d.Embedder = embedding.NewJinaClient(embedding.Config{
		URL:        cfg.Embedding.URL,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.Embedding.Timeout,
	}, d.Logger)

	transformer := search.NewTransformer(d.Logger)
	keyword := search.NewKeywordService(d.Repositories.Search, transformer, d.Logger)
	semantic := search.NewSemanticService(d.Repositories.Search, d.Embedder, transformer, d.Logger)
	d.Search = search.NewUnifiedService(keyword, semantic, d.Cache, cfg.Cache.TTL, d.Logger)

	d.Answer = answer.NewService(d.ProviderRegistry, d.Search, contextbuilder.NewBuilder(d.Logger), answer.Config{
		Provider:        cfg.Answer.Provider,
		Model:           cfg.Answer.Model,
		MaxTokens:       cfg.Answer.MaxTokens,
		Temperature:     cfg.Answer.Temperature,
		DefaultLanguage: models.Language(cfg.Answer.DefaultLanguage),
	}, d.Logger)

	d.Articles = article.NewService(d.Repositories.Article, d.Repositories.Tx, d.Logger)
	d.Structure = structure.NewService(d.Repositories.Structure, d.Pool, d.Logger)

	return nil
}

func (d *Dependencies) initRateLimit(workerCtx context.Context, cfg *config.Config) {
	if !cfg.RateLimit.Enabled {
		d.Logger.Info("rate limiting disabled")
		return
	}

	limits := ratelimit.Config{
		Points:          cfg.RateLimit.Points,
		PointsToConsume: cfg.RateLimit.PointsToConsume,
		Interval:        cfg.RateLimit.Interval,
		Prefix:          cfg.RateLimit.Prefix,
	}

	var store ratelimit.Store
	if cfg.RateLimit.Backend == "redis" {
		store = ratelimit.NewRedisStore(d.Redis)
	} else {
		mem := ratelimit.NewMemoryStore(d.Logger)
		interval := cfg.RateLimit.Interval
		if interval <= 0 {
			interval = ratelimit.DefaultConfig().Interval
		}
		go mem.StartCleanupWorker(workerCtx, interval, 2*interval)
		store = mem
	}

	d.RateLimiter = ratelimit.NewRateLimitService(store, limits, d.Logger)
	d.RateLimitMiddleware = middleware.NewRateLimitMiddleware(d.RateLimiter, d.Logger)
}

// initIdentity enables bearer tokens when a secret is configured; callers are otherwise
// identified by client address
func (d *Dependencies) initIdentity(cfg *config.Config) {
	var validator middleware.TokenValidator
	if cfg.Auth.JWTSecret != "" {
		validator = middleware.NewHMACValidator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	} else {
		d.Logger.Info("JWT secret not configured, identifying callers by address")
	}
	d.IdentityMiddleware = middleware.NewIdentityMiddleware(validator, d.Logger)
}

func (d *Dependencies) closeRedis() {
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.stopWorkers != nil {
		d.stopWorkers()
	}

	if d.Pool != nil {
		d.Pool.Release()
	}

	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
