package structure

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/repositories"
	"github.com/at-fk/finalproject/services"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Service builds the table of contents of a regulation
type Service struct {
	repo   repositories.StructureRepository
	pool   *ants.Pool
	logger *zap.Logger
}

// NewService creates a new structure service. Chapters are loaded concurrently on pool.
func NewService(repo repositories.StructureRepository, pool *ants.Pool, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		pool:   pool,
		logger: logger,
	}
}

// GetStructure returns chapters with their sections and articles ordered by order_index.
// Regulations without chapters return an empty chapter list and their root articles.
func (s *Service) GetStructure(ctx context.Context, regulationID uuid.UUID) (*models.RegulationStructure, error) {
	chapters, err := s.repo.ListChapters(ctx, regulationID)
	if err != nil {
		return nil, services.WrapInternal("Failed to load regulation structure", err)
	}

	if len(chapters) == 0 {
		articles, err := s.repo.ListRootArticles(ctx, regulationID)
		if err != nil {
			return nil, services.WrapInternal("Failed to load regulation structure", err)
		}
		return &models.RegulationStructure{
			Chapters: []models.ChapterStructure{},
			Articles: nonNilArticles(articles),
		}, nil
	}

	nodes, err := s.loadChapters(ctx, chapters)
	if err != nil {
		return nil, services.WrapInternal("Failed to load regulation structure", err)
	}

	s.logger.Debug("regulation structure loaded",
		zap.String("regulation_id", regulationID.String()),
		zap.Int("chapters", len(nodes)),
	)

	return &models.RegulationStructure{Chapters: nodes}, nil
}

// loadChapters fans the per-chapter queries out on the pool and returns the
// nodes sorted by order_index regardless of completion order.
func (s *Service) loadChapters(ctx context.Context, chapters []models.Chapter) ([]models.ChapterStructure, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	nodes := make([]models.ChapterStructure, len(chapters))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := range chapters {
		i := i
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			node, err := s.loadChapter(ctx, chapters[i])
			if err != nil {
				fail(err)
				return
			}
			nodes[i] = node
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("failed to schedule chapter %s: %w", chapters[i].ChapterNumber, err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	// tasks skipped after cancellation leave zero-value nodes behind
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].OrderIndex < nodes[j].OrderIndex
	})
	return nodes, nil
}

func (s *Service) loadChapter(ctx context.Context, chapter models.Chapter) (models.ChapterStructure, error) {
	sections, err := s.repo.ListSections(ctx, chapter.ID)
	if err != nil {
		return models.ChapterStructure{}, err
	}

	sectionNodes := make([]models.SectionStructure, 0, len(sections))
	for _, sec := range sections {
		articles, err := s.repo.ListSectionArticles(ctx, sec.ID)
		if err != nil {
			return models.ChapterStructure{}, err
		}
		sectionNodes = append(sectionNodes, models.SectionStructure{
			Section:  sec,
			Articles: nonNilArticles(articles),
		})
	}
	sort.SliceStable(sectionNodes, func(i, j int) bool {
		return sectionNodes[i].OrderIndex < sectionNodes[j].OrderIndex
	})

	articles, err := s.repo.ListChapterArticles(ctx, chapter.ID)
	if err != nil {
		return models.ChapterStructure{}, err
	}

	return models.ChapterStructure{
		Chapter:  chapter,
		Sections: sectionNodes,
		Articles: nonNilArticles(articles),
	}, nil
}

func nonNilArticles(articles []models.Article) []models.Article {
	if articles == nil {
		return []models.Article{}
	}
	return articles
}
