package structure

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/services"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockStructureRepository struct {
	mock.Mock
}

func (m *MockStructureRepository) ListChapters(ctx context.Context, regulationID uuid.UUID) ([]models.Chapter, error) {
	args := m.Called(ctx, regulationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Chapter), args.Error(1)
}

func (m *MockStructureRepository) ListSections(ctx context.Context, chapterID uuid.UUID) ([]models.Section, error) {
	args := m.Called(ctx, chapterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Section), args.Error(1)
}

func (m *MockStructureRepository) ListSectionArticles(ctx context.Context, sectionID uuid.UUID) ([]models.Article, error) {
	args := m.Called(ctx, sectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Article), args.Error(1)
}

func (m *MockStructureRepository) ListChapterArticles(ctx context.Context, chapterID uuid.UUID) ([]models.Article, error) {
	args := m.Called(ctx, chapterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Article), args.Error(1)
}

func (m *MockStructureRepository) ListRootArticles(ctx context.Context, regulationID uuid.UUID) ([]models.Article, error) {
	args := m.Called(ctx, regulationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Article), args.Error(1)
}

func newPool(t *testing.T, size int) *ants.Pool {
	t.Helper()
	pool, err := ants.NewPool(size)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return pool
}

func TestGetStructure_Chapters(t *testing.T) {
	repo := new(MockStructureRepository)
	regulationID := uuid.New()

	chapters := make([]models.Chapter, 0, 5)
	for i := 1; i <= 5; i++ {
		chapters = append(chapters, models.Chapter{ID: uuid.New(), RegulationID: regulationID, ChapterNumber: fmt.Sprint(i), OrderIndex: i})
	}
	repo.On("ListChapters", mock.Anything, regulationID).Return(chapters, nil)

	sectionID := uuid.New()
	for i, ch := range chapters {
		if i == 0 {
			repo.On("ListSections", mock.Anything, ch.ID).Return([]models.Section{{ID: sectionID, ChapterID: ch.ID, SectionNumber: "1", OrderIndex: 1}}, nil)
			repo.On("ListChapterArticles", mock.Anything, ch.ID).Return([]models.Article{{ArticleNumber: "1"}}, nil)
			continue
		}
		// later chapters answer slower to scramble completion order
		delay := time.Duration(5-i) * 5 * time.Millisecond
		repo.On("ListSections", mock.Anything, ch.ID).After(delay).Return([]models.Section{}, nil)
		repo.On("ListChapterArticles", mock.Anything, ch.ID).Return(nil, nil)
	}
	repo.On("ListSectionArticles", mock.Anything, sectionID).Return([]models.Article{{ArticleNumber: "2"}, {ArticleNumber: "3"}}, nil)

	svc := NewService(repo, newPool(t, 3), zap.NewNop())
	got, err := svc.GetStructure(context.Background(), regulationID)

	require.NoError(t, err)
	require.Len(t, got.Chapters, 5)
	for i, node := range got.Chapters {
		assert.Equal(t, i+1, node.OrderIndex)
		assert.NotNil(t, node.Articles)
		assert.NotNil(t, node.Sections)
	}
	first := got.Chapters[0]
	require.Len(t, first.Sections, 1)
	assert.Len(t, first.Sections[0].Articles, 2)
	assert.Equal(t, "1", first.Articles[0].ArticleNumber)
	assert.Nil(t, got.Articles)
	repo.AssertNotCalled(t, "ListRootArticles", mock.Anything, mock.Anything)
}

func TestGetStructure_NoChapters(t *testing.T) {
	repo := new(MockStructureRepository)
	regulationID := uuid.New()
	repo.On("ListChapters", mock.Anything, regulationID).Return([]models.Chapter{}, nil)
	repo.On("ListRootArticles", mock.Anything, regulationID).Return([]models.Article{{ArticleNumber: "1"}, {ArticleNumber: "2"}}, nil)

	svc := NewService(repo, newPool(t, 2), zap.NewNop())
	got, err := svc.GetStructure(context.Background(), regulationID)

	require.NoError(t, err)
	assert.NotNil(t, got.Chapters)
	assert.Empty(t, got.Chapters)
	assert.Len(t, got.Articles, 2)
}

func TestGetStructure_Errors(t *testing.T) {
	t.Run("chapters", func(t *testing.T) {
		repo := new(MockStructureRepository)
		repo.On("ListChapters", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

		_, err := NewService(repo, newPool(t, 2), zap.NewNop()).GetStructure(context.Background(), uuid.New())

		assert.True(t, services.IsInternalError(err))
	})

	t.Run("chapter worker", func(t *testing.T) {
		repo := new(MockStructureRepository)
		chapter := models.Chapter{ID: uuid.New(), OrderIndex: 1}
		repo.On("ListChapters", mock.Anything, mock.Anything).Return([]models.Chapter{chapter}, nil)
		repo.On("ListSections", mock.Anything, chapter.ID).Return(nil, errors.New("timeout"))

		_, err := NewService(repo, newPool(t, 2), zap.NewNop()).GetStructure(context.Background(), uuid.New())

		require.Error(t, err)
		assert.True(t, services.IsInternalError(err))
		assert.Contains(t, err.Error(), "timeout")
	})

	t.Run("cancelled before chapters load", func(t *testing.T) {
		repo := new(MockStructureRepository)
		chapters := []models.Chapter{{ID: uuid.New(), OrderIndex: 1}, {ID: uuid.New(), OrderIndex: 2}}
		repo.On("ListChapters", mock.Anything, mock.Anything).Return(chapters, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		got, err := NewService(repo, newPool(t, 2), zap.NewNop()).GetStructure(ctx, uuid.New())

		require.Error(t, err)
		assert.Nil(t, got)
		assert.True(t, services.IsInternalError(err))
		assert.ErrorIs(t, err, context.Canceled)
		repo.AssertNotCalled(t, "ListSections", mock.Anything, mock.Anything)
	})

	t.Run("released pool", func(t *testing.T) {
		repo := new(MockStructureRepository)
		repo.On("ListChapters", mock.Anything, mock.Anything).Return([]models.Chapter{{ID: uuid.New()}}, nil)
		pool, err := ants.NewPool(1)
		require.NoError(t, err)
		pool.Release()

		_, err = NewService(repo, pool, zap.NewNop()).GetStructure(context.Background(), uuid.New())

		assert.True(t, services.IsInternalError(err))
	})
}
