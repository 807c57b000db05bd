package repositories

import (
	"context"
	"errors"

	"github.com/at-fk/finalproject/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned (wrapped) when a requested row does not exist
var ErrNotFound = errors.New("record not found")

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction. Read-only transactions give multi-query
	// reads a single snapshot.
	Begin(ctx context.Context, readOnly bool) (Transaction, error)
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error

	// Context returns a context that routes repository queries through the transaction
	Context() context.Context
}

// KeywordQuery holds the arguments of the search_articles SQL function.
// Nil pointers are passed as SQL NULL.
type KeywordQuery struct {
	Query        *string
	Mode         string
	RegulationID string
	StartArticle *string
	EndArticle   *string
}

// SimilarityQuery holds the arguments of the match_articles SQL function
type SimilarityQuery struct {
	Embedding         []float32
	Threshold         float64
	Count             int
	RegulationFilters []string
	SearchLevel       models.SearchLevel
	StartArticle      *string
	EndArticle        *string
}

// SearchRepository runs the structured and vector search functions of the store
type SearchRepository interface {
	// SearchArticles runs a keyword / article-range search
	SearchArticles(ctx context.Context, q KeywordQuery) ([]*models.KeywordRow, error)

	// MatchArticles runs a vector similarity search
	MatchArticles(ctx context.Context, q SimilarityQuery) ([]*models.SimilarityRow, error)
}

// ArticleRepository reads single articles with their provisions and references
type ArticleRepository interface {
	// GetByID retrieves an article by ID; wraps ErrNotFound when absent
	GetByID(ctx context.Context, id uuid.UUID) (*models.Article, error)

	// GetRegulation retrieves a regulation by ID; wraps ErrNotFound when absent
	GetRegulation(ctx context.Context, id uuid.UUID) (*models.Regulation, error)

	// GetChapter retrieves a chapter by ID; wraps ErrNotFound when absent
	GetChapter(ctx context.Context, id uuid.UUID) (*models.Chapter, error)

	// ListParagraphs returns the paragraphs of an article with their subparagraphs
	ListParagraphs(ctx context.Context, articleID uuid.UUID) ([]models.Paragraph, error)

	// ListReferences returns references whose source is the article
	ListReferences(ctx context.Context, articleID uuid.UUID) ([]models.Reference, error)

	// ListReferencedBy returns references whose target is the article
	ListReferencedBy(ctx context.Context, articleID uuid.UUID) ([]models.Reference, error)
}

// StructureRepository enumerates the table of contents of a regulation
type StructureRepository interface {
	// ListChapters returns the chapters of a regulation ordered by order_index
	ListChapters(ctx context.Context, regulationID uuid.UUID) ([]models.Chapter, error)

	// ListSections returns the sections of a chapter ordered by order_index
	ListSections(ctx context.Context, chapterID uuid.UUID) ([]models.Section, error)

	// ListSectionArticles returns the articles of a section ordered by order_index
	ListSectionArticles(ctx context.Context, sectionID uuid.UUID) ([]models.Article, error)

	// ListChapterArticles returns the articles of a chapter that belong to no section
	ListChapterArticles(ctx context.Context, chapterID uuid.UUID) ([]models.Article, error)

	// ListRootArticles returns the articles of a regulation that belong to no chapter
	ListRootArticles(ctx context.Context, regulationID uuid.UUID) ([]models.Article, error)
}

// Repositories holds all repository instances
type Repositories struct {
	Search    SearchRepository
	Article   ArticleRepository
	Structure StructureRepository
	Tx        TransactionManager
}
