package postgres

import (
	"context"
	"fmt"

	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const structureArticleColumns = `id, regulation_id, chapter_id, section_id, article_number, title, order_index`

// StructureRepository implements repositories.StructureRepository
type StructureRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewStructureRepository creates a new structure repository
func NewStructureRepository(db *DB, logger *zap.Logger) repositories.StructureRepository {
	return &StructureRepository{
		db:     db,
		logger: logger,
	}
}

// ListChapters returns the chapters of a regulation
func (r *StructureRepository) ListChapters(ctx context.Context, regulationID uuid.UUID) ([]models.Chapter, error) {
	query := `
		SELECT id, regulation_id, chapter_number, title, order_index
		FROM chapters
		WHERE regulation_id = $1
		ORDER BY order_index
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, regulationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}

	chapters := make([]models.Chapter, 0)
	err = forEachRow(rows, func() error {
		var ch models.Chapter
		if err := rows.Scan(&ch.ID, &ch.RegulationID, &ch.ChapterNumber, &ch.Title, &ch.OrderIndex); err != nil {
			return err
		}
		chapters = append(chapters, ch)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan chapters: %w", err)
	}

	return chapters, nil
}

// ListSections returns the sections of a chapter
func (r *StructureRepository) ListSections(ctx context.Context, chapterID uuid.UUID) ([]models.Section, error) {
	query := `
		SELECT id, chapter_id, section_number, title, order_index
		FROM sections
		WHERE chapter_id = $1
		ORDER BY order_index
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}

	sections := make([]models.Section, 0)
	err = forEachRow(rows, func() error {
		var s models.Section
		if err := rows.Scan(&s.ID, &s.ChapterID, &s.SectionNumber, &s.Title, &s.OrderIndex); err != nil {
			return err
		}
		sections = append(sections, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan sections: %w", err)
	}

	return sections, nil
}

// ListSectionArticles returns the articles of a section
func (r *StructureRepository) ListSectionArticles(ctx context.Context, sectionID uuid.UUID) ([]models.Article, error) {
	query := `SELECT ` + structureArticleColumns + `
		FROM articles
		WHERE section_id = $1
		ORDER BY order_index
	`
	return r.queryArticles(ctx, query, sectionID)
}

// ListChapterArticles returns the articles placed directly under a chapter
func (r *StructureRepository) ListChapterArticles(ctx context.Context, chapterID uuid.UUID) ([]models.Article, error) {
	query := `SELECT ` + structureArticleColumns + `
		FROM articles
		WHERE chapter_id = $1 AND section_id IS NULL
		ORDER BY order_index
	`
	return r.queryArticles(ctx, query, chapterID)
}

// ListRootArticles returns the articles of a regulation outside any chapter
func (r *StructureRepository) ListRootArticles(ctx context.Context, regulationID uuid.UUID) ([]models.Article, error) {
	query := `SELECT ` + structureArticleColumns + `
		FROM articles
		WHERE regulation_id = $1 AND chapter_id IS NULL AND section_id IS NULL
		ORDER BY order_index
	`
	return r.queryArticles(ctx, query, regulationID)
}

func (r *StructureRepository) queryArticles(ctx context.Context, query string, id uuid.UUID) ([]models.Article, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	articles := make([]models.Article, 0)
	err = forEachRow(rows, func() error {
		a, err := scanArticle(rows, false)
		if err != nil {
			return err
		}
		articles = append(articles, *a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan articles: %w", err)
	}

	return articles, nil
}
