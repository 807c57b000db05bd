package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/at-fk/finalproject/config"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return WrapDB(db, logger), nil
}

// WrapDB wraps an already opened pool
func WrapDB(db *sql.DB, logger *zap.Logger) *DB {
	return &DB{
		DB:     db,
		logger: logger,
	}
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Stats returns database connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// InitSchema creates the regulation tables when they do not exist yet.
// The search_articles and match_articles functions are owned by the ingestion
// pipeline and are not created here.
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		CREATE EXTENSION IF NOT EXISTS vector;

		CREATE TABLE IF NOT EXISTS regulations (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			official_title TEXT,
			short_title VARCHAR(255),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS chapters (
			id UUID PRIMARY KEY,
			regulation_id UUID NOT NULL REFERENCES regulations(id) ON DELETE CASCADE,
			chapter_number VARCHAR(20) NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			order_index INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS sections (
			id UUID PRIMARY KEY,
			chapter_id UUID NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
			section_number VARCHAR(20) NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			order_index INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS articles (
			id UUID PRIMARY KEY,
			regulation_id UUID NOT NULL REFERENCES regulations(id) ON DELETE CASCADE,
			chapter_id UUID REFERENCES chapters(id) ON DELETE SET NULL,
			section_id UUID REFERENCES sections(id) ON DELETE SET NULL,
			article_number VARCHAR(20) NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content_full TEXT NOT NULL DEFAULT '',
			order_index INTEGER NOT NULL DEFAULT 0,
			embedding vector(256),
			CHECK (section_id IS NULL OR chapter_id IS NOT NULL)
		);

		CREATE TABLE IF NOT EXISTS paragraphs (
			id UUID PRIMARY KEY,
			article_id UUID NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			paragraph_number VARCHAR(20) NOT NULL,
			content_full TEXT NOT NULL DEFAULT '',
			chapeau TEXT,
			order_index INTEGER NOT NULL DEFAULT 0,
			embedding vector(256)
		);

		CREATE TABLE IF NOT EXISTS subparagraphs (
			id UUID PRIMARY KEY,
			paragraph_id UUID NOT NULL REFERENCES paragraphs(id) ON DELETE CASCADE,
			subparagraph_id VARCHAR(20) NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			type VARCHAR(20) NOT NULL DEFAULT 'subparagraph',
			order_index INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS legal_references (
			id UUID PRIMARY KEY,
			source_article_id UUID REFERENCES articles(id) ON DELETE CASCADE,
			target_article_id UUID REFERENCES articles(id) ON DELETE SET NULL,
			source_type VARCHAR(20) NOT NULL,
			source_article VARCHAR(20) NOT NULL,
			source_paragraph VARCHAR(20),
			source_subparagraph VARCHAR(20),
			reference_type VARCHAR(20) NOT NULL,
			target_type VARCHAR(20) NOT NULL,
			target_regulation VARCHAR(255),
			target_article VARCHAR(20),
			target_paragraph VARCHAR(20),
			target_subparagraph VARCHAR(20),
			target_point VARCHAR(20),
			context TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_chapters_regulation_id ON chapters(regulation_id);
		CREATE INDEX IF NOT EXISTS idx_sections_chapter_id ON sections(chapter_id);
		CREATE INDEX IF NOT EXISTS idx_articles_regulation_id ON articles(regulation_id);
		CREATE INDEX IF NOT EXISTS idx_articles_chapter_id ON articles(chapter_id);
		CREATE INDEX IF NOT EXISTS idx_articles_section_id ON articles(section_id);
		CREATE INDEX IF NOT EXISTS idx_paragraphs_article_id ON paragraphs(article_id);
		CREATE INDEX IF NOT EXISTS idx_subparagraphs_paragraph_id ON subparagraphs(paragraph_id);
		CREATE INDEX IF NOT EXISTS idx_legal_references_source ON legal_references(source_article_id);
		CREATE INDEX IF NOT EXISTS idx_legal_references_target ON legal_references(target_article_id);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
