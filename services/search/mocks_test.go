package search

import (
	"context"

	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/repositories"
	"github.com/stretchr/testify/mock"
)

// MockSearchRepository is a mock implementation of repositories.SearchRepository
type MockSearchRepository struct {
	mock.Mock
}

func (m *MockSearchRepository) SearchArticles(ctx context.Context, q repositories.KeywordQuery) ([]*models.KeywordRow, error) {
	args := m.Called(ctx, q)
	if rows := args.Get(0); rows != nil {
		return rows.([]*models.KeywordRow), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSearchRepository) MatchArticles(ctx context.Context, q repositories.SimilarityQuery) ([]*models.SimilarityRow, error) {
	args := m.Called(ctx, q)
	if rows := args.Get(0); rows != nil {
		return rows.([]*models.SimilarityRow), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockEmbedder is a mock implementation of Embedder
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if v := args.Get(0); v != nil {
		return v.([]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockSearcher is a mock implementation of Searcher
type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, params models.SearchParams) (*models.SearchResponse, error) {
	args := m.Called(ctx, params)
	if v := args.Get(0); v != nil {
		return v.(*models.SearchResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }
func intPtr(v int) *int           { return &v }

func similarityRow(id string, pcts ...float64) *models.SimilarityRow {
	row := &models.SimilarityRow{
		RawArticle: models.RawArticle{
			ID:            id,
			Title:         "Article " + id,
			ArticleNumber: id,
			Regulation:    []models.RawRegulation{{ID: "reg-1", Name: "GDPR"}},
		},
	}
	for i, pct := range pcts {
		p := pct
		row.Paragraphs = append(row.Paragraphs, models.RawParagraph{
			ParagraphNumber:      string(rune('1' + i)),
			SimilarityPercentage: &p,
			Elements:             []models.RawElement{{Content: "text " + id}},
		})
	}
	return row
}
