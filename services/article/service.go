package article

import (
	"context"
	"errors"

	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/repositories"
	"github.com/at-fk/finalproject/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service reads articles together with their provisions and cross-references
type Service struct {
	repo   repositories.ArticleRepository
	tx     repositories.TransactionManager
	logger *zap.Logger
}

// NewService creates a new article service
func NewService(repo repositories.ArticleRepository, tx repositories.TransactionManager, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		tx:     tx,
		logger: logger,
	}
}

// ParseID validates an article identifier
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, services.ErrInvalidArticleID.WithDetail("id", raw)
	}
	return id, nil
}

// GetDetail loads the article, its regulation and chapter, its paragraphs with
// subparagraphs and the references from and to it within one read-only snapshot.
func (s *Service) GetDetail(ctx context.Context, id uuid.UUID) (*models.ArticleDetail, error) {
	detail, err := services.WithReadOnlyTransaction(ctx, s.tx, func(ctx context.Context) (*models.ArticleDetail, error) {
		article, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		regulation, err := s.repo.GetRegulation(ctx, article.RegulationID)
		if err != nil {
			return nil, err
		}

		var chapter *models.Chapter
		if article.ChapterID != nil {
			chapter, err = s.repo.GetChapter(ctx, *article.ChapterID)
			if err != nil && !errors.Is(err, repositories.ErrNotFound) {
				return nil, err
			}
		}

		paragraphs, err := s.repo.ListParagraphs(ctx, id)
		if err != nil {
			return nil, err
		}
		references, err := s.repo.ListReferences(ctx, id)
		if err != nil {
			return nil, err
		}
		referencedBy, err := s.repo.ListReferencedBy(ctx, id)
		if err != nil {
			return nil, err
		}

		return &models.ArticleDetail{
			Article:      *article,
			Regulation:   regulation,
			Chapter:      chapter,
			Paragraphs:   nonNil(paragraphs),
			References:   nonNil(references),
			ReferencedBy: nonNil(referencedBy),
		}, nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrArticleNotFound
		}
		s.logger.Error("failed to load article",
			zap.String("article_id", id.String()),
			zap.Error(err),
		)
		return nil, services.WrapInternal("Failed to fetch article", err)
	}

	return detail, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
