package search

import (
	"context"
	"strings"

	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/repositories"
	"github.com/at-fk/finalproject/services"
	"go.uber.org/zap"
)

// Embedder turns text into a query embedding
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SemanticService runs embedding similarity searches
type SemanticService struct {
	repo        repositories.SearchRepository
	embedder    Embedder
	transformer *Transformer
	logger      *zap.Logger
}

// NewSemanticService creates a new SemanticService instance
func NewSemanticService(repo repositories.SearchRepository, embedder Embedder, transformer *Transformer, logger *zap.Logger) *SemanticService {
	return &SemanticService{
		repo:        repo,
		embedder:    embedder,
		transformer: transformer,
		logger:      logger,
	}
}

// Search embeds the query, runs match_articles and keeps results that have at least
// one paragraph above the threshold. Total is the number of rows the provider returned.
func (s *SemanticService) Search(ctx context.Context, params models.SearchParams) (*models.SearchResponse, error) {
	if params.RegulationID == "" {
		return nil, services.ErrRegulationIDRequired
	}
	if strings.TrimSpace(params.SemanticQuery) == "" {
		return nil, services.ErrSearchQueryRequired
	}

	embedding, err := s.embed(ctx, params.SemanticQuery)
	if err != nil {
		return nil, err
	}

	level := params.SearchLevel
	if level == "" {
		level = models.SearchLevelArticle
	}
	threshold := params.Threshold()

	rows, err := s.repo.MatchArticles(ctx, repositories.SimilarityQuery{
		Embedding:         embedding,
		Threshold:         threshold,
		Count:             params.PageSizeOrDefault(),
		RegulationFilters: []string{params.RegulationID},
		SearchLevel:       level,
		StartArticle:      optionalString(params.StartArticle),
		EndArticle:        optionalString(params.EndArticle),
	})
	if err != nil {
		s.logger.Error("semantic search failed",
			zap.String("regulation_id", params.RegulationID),
			zap.Error(err),
		)
		return nil, services.NewDomainError(services.ErrorTypeSemanticSearch, "Error occurred during semantic search", err)
	}
	if len(rows) == 0 {
		return nil, services.ErrNoRelevantContent
	}

	raw := make([]models.RawRow, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			withThreshold(r, threshold)
		}
		raw = append(raw, r)
	}

	transformed, err := s.transformer.Transform(raw, models.SearchTypeSemantic)
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(transformed))
	for _, result := range transformed {
		if !hasParagraphAboveThreshold(result) {
			s.logger.Debug("result excluded, no paragraph above threshold",
				zap.String("article_id", result.ID),
				zap.String("article_number", result.Metadata.ArticleNumber),
			)
			continue
		}
		t := threshold
		result.DebugInfo = &models.DebugInfo{
			SearchType:  models.SearchTypeSemantic,
			SearchLevel: level,
			Threshold:   &t,
		}
		results = append(results, result)
	}
	if len(results) == 0 {
		return nil, services.ErrNoContentAboveThreshold
	}

	s.logger.Debug("semantic search completed",
		zap.String("regulation_id", params.RegulationID),
		zap.Int("rows", len(rows)),
		zap.Int("results", len(results)),
	)

	return &models.SearchResponse{
		Results:  results,
		Total:    len(rows),
		Page:     params.PageOrDefault(),
		PageSize: params.PageSizeOrDefault(),
	}, nil
}

func (s *SemanticService) embed(ctx context.Context, text string) ([]float32, error) {
	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		if services.IsEmbeddingError(err) {
			return nil, err
		}
		return nil, services.NewDomainError(services.ErrorTypeEmbedding, "Failed to generate embedding", err)
	}
	if len(embedding) == 0 {
		return nil, services.ErrEmbeddingFailed
	}
	return embedding, nil
}

// withThreshold records the requested threshold on rows whose provider did not report one
func withThreshold(r *models.SimilarityRow, threshold float64) {
	if r.DebugInfo == nil {
		r.DebugInfo = &models.DebugInfo{}
	}
	if r.DebugInfo.Threshold == nil {
		t := threshold
		r.DebugInfo.Threshold = &t
	}
}

func hasParagraphAboveThreshold(result models.SearchResult) bool {
	for _, p := range result.Paragraphs {
		if p.AboveThreshold() {
			return true
		}
	}
	return false
}
