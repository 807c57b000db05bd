package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Cache         CacheConfig         `yaml:"cache"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Providers     ProvidersConfig     `yaml:"providers"`
	Answer        AnswerConfig        `yaml:"answer"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
	Environment   string              `yaml:"environment"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string        `yaml:"url"`
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	User             string        `yaml:"user"`
	Password         string        `yaml:"password"`
	Database         string        `yaml:"name"`
	SSLMode          string        `yaml:"sslmode"`
	MaxOpenConns     int           `yaml:"max_open_conns"`
	MaxIdleConns     int           `yaml:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `yaml:"conn_max_lifetime"`
	InitSchema       bool          `yaml:"init_schema"`
}

// CacheConfig selects the search response cache backend
type CacheConfig struct {
	Backend  string        `yaml:"backend"` // memory, redis or none
	TTL      time.Duration `yaml:"ttl"`
	MaxSize  int           `yaml:"max_size"`
	Redis    RedisConfig   `yaml:"redis"`
	Cleanup  time.Duration `yaml:"cleanup_interval"`
	Keyspace string        `yaml:"keyspace"`
}

// RedisConfig holds the Redis connection shared by the cache and the rate limiter
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	MaxRetries int    `yaml:"max_retries"`
}

// RateLimitConfig holds the per-caller budget of the search API
type RateLimitConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Backend         string        `yaml:"backend"` // memory or redis
	Points          int           `yaml:"points"`
	PointsToConsume int           `yaml:"points_to_consume"`
	Interval        time.Duration `yaml:"interval"`
	Prefix          string        `yaml:"prefix"`
}

// EmbeddingConfig holds the query embedding endpoint
type EmbeddingConfig struct {
	URL        string        `yaml:"url"`
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`
	Dimensions int           `yaml:"dimensions"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ProvidersConfig holds LLM provider configurations
type ProvidersConfig struct {
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Bedrock BedrockConfig `yaml:"bedrock"`
}

// OpenAIConfig holds OpenAI provider configuration
type OpenAIConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	OrgID   string        `yaml:"org_id"`
	Timeout time.Duration `yaml:"timeout"`
}

// BedrockConfig holds AWS Bedrock provider configuration.
// Credentials come from the default AWS chain.
type BedrockConfig struct {
	Enabled bool          `yaml:"enabled"`
	Region  string        `yaml:"region"`
	Models  []string      `yaml:"models"`
	Timeout time.Duration `yaml:"timeout"`
}

// AnswerConfig holds answer generation settings
type AnswerConfig struct {
	Provider        string        `yaml:"provider"`
	Model           string        `yaml:"model"`
	MaxTokens       int           `yaml:"max_tokens"`
	Temperature     float64       `yaml:"temperature"`
	DefaultLanguage string        `yaml:"default_language"`
	StreamTimeout   time.Duration `yaml:"stream_timeout"`
}

// AuthConfig holds the optional bearer token settings used to identify callers
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // json or console
}

// New creates a Config from defaults, an optional YAML file (CONFIG_FILE) and
// environment variables, in increasing order of precedence
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    0,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"http://localhost:*", "https://*"},
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Database:        "legal",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Cache: CacheConfig{
			Backend:  "memory",
			TTL:      time.Hour,
			MaxSize:  1000,
			Cleanup:  5 * time.Minute,
			Keyspace: "search:",
			Redis: RedisConfig{
				Addr:       "localhost:6379",
				MaxRetries: 5,
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			Backend:         "memory",
			Points:          30,
			PointsToConsume: 1,
			Interval:        60 * time.Second,
			Prefix:          "search_api",
		},
		Embedding: EmbeddingConfig{
			URL:        "https://api.jina.ai/v1/embeddings",
			Model:      "jina-embeddings-v3",
			Dimensions: 256,
			Timeout:    15 * time.Second,
		},
		Providers: ProvidersConfig{
			OpenAI: OpenAIConfig{
				BaseURL: "https://api.openai.com/v1",
				Timeout: 2 * time.Minute,
			},
			Bedrock: BedrockConfig{
				Region:  "us-east-1",
				Timeout: 2 * time.Minute,
			},
		},
		Answer: AnswerConfig{
			Provider:        "openai",
			Model:           "gpt-4o",
			MaxTokens:       5000,
			Temperature:     0,
			DefaultLanguage: "ja",
			StreamTimeout:   2 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// LoadFile overlays the YAML file at path onto c
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields with the environment variables that are set
func (c *Config) applyEnv() {
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getPort(c.Server.Port)
	c.Server.ReadTimeout = getEnvAsDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.AllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", c.Server.AllowedOrigins)

	c.Database.ConnectionString = getEnv("DATABASE_URL", c.Database.ConnectionString)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvAsInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Database = getEnv("DB_NAME", c.Database.Database)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetime = getEnvAsDuration("DB_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime)
	c.Database.InitSchema = getEnvAsBool("DB_INIT_SCHEMA", c.Database.InitSchema)

	c.Cache.Backend = getEnv("CACHE_BACKEND", c.Cache.Backend)
	c.Cache.TTL = getEnvAsDuration("CACHE_TTL", c.Cache.TTL)
	c.Cache.MaxSize = getEnvAsInt("CACHE_MAX_SIZE", c.Cache.MaxSize)
	c.Cache.Redis.Addr = getEnv("REDIS_ADDR", c.Cache.Redis.Addr)
	c.Cache.Redis.Password = getEnv("REDIS_PASSWORD", c.Cache.Redis.Password)
	c.Cache.Redis.DB = getEnvAsInt("REDIS_DB", c.Cache.Redis.DB)

	c.RateLimit.Enabled = getEnvAsBool("RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.Backend = getEnv("RATE_LIMIT_BACKEND", c.RateLimit.Backend)
	c.RateLimit.Points = getEnvAsInt("RATE_LIMIT_POINTS", c.RateLimit.Points)
	c.RateLimit.Interval = getEnvAsDuration("RATE_LIMIT_INTERVAL", c.RateLimit.Interval)

	c.Embedding.URL = getEnv("EMBEDDING_API_URL", c.Embedding.URL)
	c.Embedding.APIKey = getEnv("JINA_API_KEY", c.Embedding.APIKey)
	c.Embedding.Model = getEnv("EMBEDDING_MODEL", c.Embedding.Model)
	c.Embedding.Dimensions = getEnvAsInt("EMBEDDING_DIMENSIONS", c.Embedding.Dimensions)
	c.Embedding.Timeout = getEnvAsDuration("EMBEDDING_TIMEOUT", c.Embedding.Timeout)

	c.Providers.OpenAI.APIKey = getEnv("OPENAI_API_KEY", c.Providers.OpenAI.APIKey)
	c.Providers.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", c.Providers.OpenAI.BaseURL)
	c.Providers.OpenAI.OrgID = getEnv("OPENAI_ORG_ID", c.Providers.OpenAI.OrgID)
	c.Providers.OpenAI.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", c.Providers.OpenAI.Timeout)
	c.Providers.Bedrock.Enabled = getEnvAsBool("BEDROCK_ENABLED", c.Providers.Bedrock.Enabled)
	c.Providers.Bedrock.Region = getEnv("BEDROCK_REGION", c.Providers.Bedrock.Region)
	c.Providers.Bedrock.Models = getEnvAsList("BEDROCK_MODELS", c.Providers.Bedrock.Models)

	c.Answer.Provider = getEnv("ANSWER_PROVIDER", c.Answer.Provider)
	c.Answer.Model = getEnv("ANSWER_MODEL", c.Answer.Model)
	c.Answer.MaxTokens = getEnvAsInt("ANSWER_MAX_TOKENS", c.Answer.MaxTokens)
	c.Answer.Temperature = getEnvAsFloat("ANSWER_TEMPERATURE", c.Answer.Temperature)
	c.Answer.DefaultLanguage = getEnv("ANSWER_DEFAULT_LANGUAGE", c.Answer.DefaultLanguage)
	c.Answer.StreamTimeout = getEnvAsDuration("ANSWER_STREAM_TIMEOUT", c.Answer.StreamTimeout)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.JWTIssuer = getEnv("JWT_ISSUER", c.Auth.JWTIssuer)

	c.Observability.LogLevel = getEnv("LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = getEnv("LOG_FORMAT", c.Observability.LogFormat)
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown rate limit backend %q", c.RateLimit.Backend)
	}
	if (c.Cache.Backend == "redis" || (c.RateLimit.Enabled && c.RateLimit.Backend == "redis")) && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("redis address is required for the redis backend")
	}

	switch c.Answer.DefaultLanguage {
	case "ja", "en":
	default:
		return fmt.Errorf("unsupported default language %q", c.Answer.DefaultLanguage)
	}

	if c.IsProduction() {
		if c.Providers.OpenAI.APIKey == "" && !c.Providers.Bedrock.Enabled {
			return fmt.Errorf("at least one LLM provider must be configured in production")
		}
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("embedding API key is required in production")
		}
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT, falling back to current
func getPort(current int) int {
	for _, key := range []string{"PORT", "SERVER_PORT"} {
		if value := os.Getenv(key); value != "" {
			if p, err := strconv.Atoi(value); err == nil {
				return p
			}
		}
	}
	return current
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated variable, dropping empty items
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
