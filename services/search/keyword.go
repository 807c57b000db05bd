package search

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/repositories"
	"github.com/at-fk/finalproject/services"
	"go.uber.org/zap"
)

// keywordSearchMode is the boolean mode passed to search_articles
const keywordSearchMode = "AND"

var likeSpecialChars = regexp.MustCompile(`[%_\[\]]`)

// Searcher executes one search mode
type Searcher interface {
	Search(ctx context.Context, params models.SearchParams) (*models.SearchResponse, error)
}

// KeywordService runs keyword and article-range searches
type KeywordService struct {
	repo        repositories.SearchRepository
	transformer *Transformer
	logger      *zap.Logger
}

// NewKeywordService creates a new KeywordService instance
func NewKeywordService(repo repositories.SearchRepository, transformer *Transformer, logger *zap.Logger) *KeywordService {
	return &KeywordService{
		repo:        repo,
		transformer: transformer,
		logger:      logger,
	}
}

// Search validates params, runs search_articles and normalizes the rows.
// An empty keyword performs a range-only search.
func (s *KeywordService) Search(ctx context.Context, params models.SearchParams) (*models.SearchResponse, error) {
	if err := validateKeywordParams(params); err != nil {
		return nil, err
	}

	q := repositories.KeywordQuery{
		Mode:         keywordSearchMode,
		RegulationID: params.RegulationID,
		StartArticle: optionalString(params.StartArticle),
		EndArticle:   optionalString(params.EndArticle),
	}
	if params.Keyword != "" {
		escaped := EscapeKeyword(params.Keyword)
		q.Query = &escaped
	}

	rows, err := s.repo.SearchArticles(ctx, q)
	if err != nil {
		s.logger.Error("keyword search failed",
			zap.String("regulation_id", params.RegulationID),
			zap.Error(err),
		)
		return nil, services.NewDomainError(services.ErrorTypeSearch, "Error occurred during search", err)
	}

	raw := make([]models.RawRow, 0, len(rows))
	for _, r := range rows {
		raw = append(raw, r)
	}

	results, err := s.transformer.Transform(raw, models.SearchTypeKeyword)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("keyword search completed",
		zap.String("regulation_id", params.RegulationID),
		zap.Int("results", len(results)),
	)

	return &models.SearchResponse{
		Results:  results,
		Total:    len(results),
		Page:     params.PageOrDefault(),
		PageSize: params.PageSizeOrDefault(),
	}, nil
}

// EscapeKeyword prefixes LIKE wildcards and bracket characters with a backslash
func EscapeKeyword(keyword string) string {
	return likeSpecialChars.ReplaceAllString(keyword, `\$0`)
}

func validateKeywordParams(params models.SearchParams) error {
	if params.RegulationID == "" {
		return services.ErrRegulationIDRequired
	}

	if params.StartArticle != "" && params.EndArticle != "" {
		start, errStart := strconv.Atoi(strings.TrimSpace(params.StartArticle))
		end, errEnd := strconv.Atoi(strings.TrimSpace(params.EndArticle))
		if errStart != nil || errEnd != nil || start < 1 || end < 1 {
			return services.ErrInvalidArticleNumber
		}
		if start > end {
			return services.ErrInvalidArticleRange
		}
	}

	return nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
