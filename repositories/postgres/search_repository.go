package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/repositories"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// Both search functions return composite rows with nested json columns.
// to_jsonb flattens each row into one document that decodes straight into
// the raw row models.
const (
	searchArticlesQuery = `
		SELECT to_jsonb(r)
		FROM search_articles(
			search_query => $1,
			search_mode => $2,
			regulation_id => $3::uuid,
			start_article => $4,
			end_article => $5
		) AS r
	`

	matchArticlesQuery = `
		SELECT to_jsonb(r)
		FROM match_articles(
			query_embedding => $1::vector,
			match_threshold => $2,
			match_count => $3,
			regulation_filters => $4::uuid[],
			search_level => $5,
			start_article => $6,
			end_article => $7
		) AS r
	`
)

// SearchRepository implements repositories.SearchRepository over the SQL search functions
type SearchRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewSearchRepository creates a new search repository
func NewSearchRepository(db *DB, logger *zap.Logger) repositories.SearchRepository {
	return &SearchRepository{
		db:     db,
		logger: logger,
	}
}

// SearchArticles runs search_articles
func (r *SearchRepository) SearchArticles(ctx context.Context, q repositories.KeywordQuery) ([]*models.KeywordRow, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, searchArticlesQuery,
		nullString(q.Query),
		q.Mode,
		q.RegulationID,
		nullString(q.StartArticle),
		nullString(q.EndArticle),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to run search_articles: %w", err)
	}

	results, err := scanJSONRows[models.KeywordRow](rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read search_articles rows: %w", err)
	}

	r.logger.Debug("search_articles completed",
		zap.String("regulation_id", q.RegulationID),
		zap.Int("rows", len(results)),
	)
	return results, nil
}

// MatchArticles runs match_articles
func (r *SearchRepository) MatchArticles(ctx context.Context, q repositories.SimilarityQuery) ([]*models.SimilarityRow, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, matchArticlesQuery,
		pgvector.NewVector(q.Embedding),
		q.Threshold,
		q.Count,
		pq.Array(q.RegulationFilters),
		string(q.SearchLevel),
		nullString(q.StartArticle),
		nullString(q.EndArticle),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to run match_articles: %w", err)
	}

	results, err := scanJSONRows[models.SimilarityRow](rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read match_articles rows: %w", err)
	}

	r.logger.Debug("match_articles completed",
		zap.Strings("regulation_filters", q.RegulationFilters),
		zap.String("search_level", string(q.SearchLevel)),
		zap.Int("rows", len(results)),
	)
	return results, nil
}

// scanJSONRows decodes a single jsonb column per row and closes rows
func scanJSONRows[T any](rows *sql.Rows) ([]*T, error) {
	defer rows.Close()

	results := make([]*T, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		item := new(T)
		if err := json.Unmarshal(raw, item); err != nil {
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}
		results = append(results, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
