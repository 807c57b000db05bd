package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const referenceColumns = `
	id, source_type, source_article, source_paragraph, source_subparagraph,
	reference_type, target_type, target_regulation, target_article,
	target_paragraph, target_subparagraph, target_point, context
`

// ArticleRepository implements repositories.ArticleRepository
type ArticleRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *DB, logger *zap.Logger) repositories.ArticleRepository {
	return &ArticleRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves an article by ID
func (r *ArticleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	query := `
		SELECT id, regulation_id, chapter_id, section_id, article_number, title, content_full, order_index
		FROM articles
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	article, err := scanArticle(executor.QueryRowContext(ctx, query, id), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("article %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return article, nil
}

// GetRegulation retrieves a regulation by ID
func (r *ArticleRepository) GetRegulation(ctx context.Context, id uuid.UUID) (*models.Regulation, error) {
	query := `
		SELECT id, name, COALESCE(official_title, ''), COALESCE(short_title, ''), created_at
		FROM regulations
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	reg := &models.Regulation{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&reg.ID,
		&reg.Name,
		&reg.OfficialTitle,
		&reg.ShortTitle,
		&reg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("regulation %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get regulation: %w", err)
	}

	return reg, nil
}

// GetChapter retrieves a chapter by ID
func (r *ArticleRepository) GetChapter(ctx context.Context, id uuid.UUID) (*models.Chapter, error) {
	query := `
		SELECT id, regulation_id, chapter_number, title, order_index
		FROM chapters
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	ch := &models.Chapter{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&ch.ID,
		&ch.RegulationID,
		&ch.ChapterNumber,
		&ch.Title,
		&ch.OrderIndex,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chapter %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}

	return ch, nil
}

// ListParagraphs returns the paragraphs of an article with their subparagraphs.
// Paragraphs and subparagraphs are read with two queries and joined in memory.
func (r *ArticleRepository) ListParagraphs(ctx context.Context, articleID uuid.UUID) ([]models.Paragraph, error) {
	paragraphQuery := `
		SELECT id, paragraph_number, content_full, chapeau
		FROM paragraphs
		WHERE article_id = $1
		ORDER BY order_index
	`
	subparagraphQuery := `
		SELECT s.id, s.paragraph_id, s.subparagraph_id, s.content, s.type, s.order_index
		FROM subparagraphs s
		JOIN paragraphs p ON p.id = s.paragraph_id
		WHERE p.article_id = $1
		ORDER BY s.order_index
	`

	executor := GetExecutor(ctx, r.db)

	rows, err := executor.QueryContext(ctx, paragraphQuery, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list paragraphs: %w", err)
	}

	paragraphs := make([]models.Paragraph, 0)
	index := make(map[uuid.UUID]int)
	err = forEachRow(rows, func() error {
		var p models.Paragraph
		var chapeau sql.NullString
		if err := rows.Scan(&p.ID, &p.ParagraphNumber, &p.ContentFull, &chapeau); err != nil {
			return err
		}
		if chapeau.Valid {
			p.Chapeau = &chapeau.String
		}
		p.Subparagraphs = []models.Subparagraph{}
		index[p.ID] = len(paragraphs)
		paragraphs = append(paragraphs, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan paragraphs: %w", err)
	}
	if len(paragraphs) == 0 {
		return paragraphs, nil
	}

	rows, err = executor.QueryContext(ctx, subparagraphQuery, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subparagraphs: %w", err)
	}
	err = forEachRow(rows, func() error {
		var s models.Subparagraph
		var paragraphID uuid.UUID
		if err := rows.Scan(&s.ID, &paragraphID, &s.SubparagraphID, &s.Content, &s.Type, &s.OrderIndex); err != nil {
			return err
		}
		if i, ok := index[paragraphID]; ok {
			paragraphs[i].Subparagraphs = append(paragraphs[i].Subparagraphs, s)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan subparagraphs: %w", err)
	}

	return paragraphs, nil
}

// ListReferences returns references whose source is the article
func (r *ArticleRepository) ListReferences(ctx context.Context, articleID uuid.UUID) ([]models.Reference, error) {
	query := `SELECT ` + referenceColumns + ` FROM legal_references WHERE source_article_id = $1 ORDER BY id`
	return r.queryReferences(ctx, query, articleID)
}

// ListReferencedBy returns references whose target is the article
func (r *ArticleRepository) ListReferencedBy(ctx context.Context, articleID uuid.UUID) ([]models.Reference, error) {
	query := `SELECT ` + referenceColumns + ` FROM legal_references WHERE target_article_id = $1 ORDER BY id`
	return r.queryReferences(ctx, query, articleID)
}

func (r *ArticleRepository) queryReferences(ctx context.Context, query string, articleID uuid.UUID) ([]models.Reference, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list references: %w", err)
	}

	refs := make([]models.Reference, 0)
	err = forEachRow(rows, func() error {
		var ref models.Reference
		if err := rows.Scan(
			&ref.ID,
			&ref.SourceType,
			&ref.SourceArticle,
			&ref.SourceParagraph,
			&ref.SourceSubparagraph,
			&ref.ReferenceType,
			&ref.TargetType,
			&ref.TargetRegulation,
			&ref.TargetArticle,
			&ref.TargetParagraph,
			&ref.TargetSubparagraph,
			&ref.TargetPoint,
			&ref.Context,
		); err != nil {
			return err
		}
		refs = append(refs, ref)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan references: %w", err)
	}

	return refs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanArticle reads the article column list; withContent selects whether
// content_full is part of it.
func scanArticle(row rowScanner, withContent bool) (*models.Article, error) {
	a := &models.Article{}
	var chapterID, sectionID uuid.NullUUID

	dest := []interface{}{&a.ID, &a.RegulationID, &chapterID, &sectionID, &a.ArticleNumber, &a.Title}
	if withContent {
		dest = append(dest, &a.ContentFull)
	}
	dest = append(dest, &a.OrderIndex)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if chapterID.Valid {
		a.ChapterID = &chapterID.UUID
	}
	if sectionID.Valid {
		a.SectionID = &sectionID.UUID
	}
	return a, nil
}

// forEachRow calls fn for every row and closes rows
func forEachRow(rows *sql.Rows, fn func() error) error {
	defer rows.Close()
	for rows.Next() {
		if err := fn(); err != nil {
			return err
		}
	}
	return rows.Err()
}
