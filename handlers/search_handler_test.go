package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/at-fk/finalproject/middleware"
	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockSearchService is a mock implementation of SearchService
type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, params models.SearchParams) (*models.SearchResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SearchResponse), args.Error(1)
}

type envelopeBody struct {
	Data  *models.SearchResponse `json:"data"`
	Error *string                `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelopeBody {
	t.Helper()
	var body envelopeBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func searchRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithRequestID(req.Context(), "req-1"))
}

func TestHandleSearch(t *testing.T) {
	logger := zap.NewNop()

	t.Run("returns data envelope", func(t *testing.T) {
		svc := new(MockSearchService)
		handler := NewSearchHandler(svc, logger)

		svc.On("Search", mock.Anything, mock.MatchedBy(func(p models.SearchParams) bool {
			return p.Type == models.SearchTypeSemantic && p.SemanticQuery == "consent" && p.RegulationID == "reg-1" && p.MaxContexts == 5
		})).Return(&models.SearchResponse{
			Results:  []models.SearchResult{{ID: "a1", Title: "Conditions for consent"}},
			Total:    1,
			Page:     1,
			PageSize: 10,
		}, nil)

		w := httptest.NewRecorder()
		handler.HandleSearch(w, searchRequest(http.MethodPost, "/api/search",
			`{"type":"semantic","semanticQuery":"consent","regulation_id":"reg-1","maxContexts":5}`))

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeEnvelope(t, w)
		assert.Nil(t, body.Error)
		require.NotNil(t, body.Data)
		assert.Equal(t, 1, body.Data.Total)
		assert.Equal(t, "a1", body.Data.Results[0].ID)
		svc.AssertExpectations(t)
	})

	t.Run("invalid search type is rejected before the service", func(t *testing.T) {
		svc := new(MockSearchService)
		handler := NewSearchHandler(svc, logger)

		w := httptest.NewRecorder()
		handler.HandleSearch(w, searchRequest(http.MethodPost, "/api/search", `{"type":"fuzzy"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeEnvelope(t, w)
		assert.Nil(t, body.Data)
		require.NotNil(t, body.Error)
		assert.Contains(t, *body.Error, "type must be one of")
		svc.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	})

	t.Run("maxContexts above 30 is rejected", func(t *testing.T) {
		svc := new(MockSearchService)
		handler := NewSearchHandler(svc, logger)

		w := httptest.NewRecorder()
		handler.HandleSearch(w, searchRequest(http.MethodPost, "/api/search", `{"type":"semantic","maxContexts":31}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	})

	t.Run("malformed body", func(t *testing.T) {
		handler := NewSearchHandler(new(MockSearchService), logger)

		w := httptest.NewRecorder()
		handler.HandleSearch(w, searchRequest(http.MethodPost, "/api/search", `{`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeEnvelope(t, w)
		require.NotNil(t, body.Error)
		assert.Contains(t, *body.Error, "invalid request body")
	})

	t.Run("service validation error", func(t *testing.T) {
		svc := new(MockSearchService)
		handler := NewSearchHandler(svc, logger)
		svc.On("Search", mock.Anything, mock.Anything).Return(nil, services.ErrRegulationIDRequired)

		w := httptest.NewRecorder()
		handler.HandleSearch(w, searchRequest(http.MethodPost, "/api/search", `{"type":"keyword","keyword":"consent"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeEnvelope(t, w)
		require.NotNil(t, body.Error)
		assert.Equal(t, "Regulation ID is required", *body.Error)
	})

	t.Run("embedding failure maps to bad gateway", func(t *testing.T) {
		svc := new(MockSearchService)
		handler := NewSearchHandler(svc, logger)
		svc.On("Search", mock.Anything, mock.Anything).Return(nil, services.ErrEmbeddingFailed)

		w := httptest.NewRecorder()
		handler.HandleSearch(w, searchRequest(http.MethodPost, "/api/search", `{"type":"semantic","semanticQuery":"x","regulation_id":"r"}`))

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestHandleKeywordSearch(t *testing.T) {
	logger := zap.NewNop()

	t.Run("maps query parameters", func(t *testing.T) {
		svc := new(MockSearchService)
		handler := NewSearchHandler(svc, logger)

		svc.On("Search", mock.Anything, models.SearchParams{
			Type:         models.SearchTypeKeyword,
			Keyword:      "personal data",
			StartArticle: "5",
			EndArticle:   "9",
			RegulationID: "reg-1",
			Page:         2,
		}).Return(&models.SearchResponse{Results: []models.SearchResult{}, Page: 2, PageSize: 10}, nil)

		w := httptest.NewRecorder()
		handler.HandleKeywordSearch(w, searchRequest(http.MethodGet,
			"/api/search?keyword=personal+data&startArticle=5&endArticle=9&regulation_id=reg-1&page=2", ""))

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeEnvelope(t, w)
		require.NotNil(t, body.Data)
		assert.Equal(t, 2, body.Data.Page)
		svc.AssertExpectations(t)
	})

	t.Run("non-numeric page", func(t *testing.T) {
		svc := new(MockSearchService)
		handler := NewSearchHandler(svc, logger)

		w := httptest.NewRecorder()
		handler.HandleKeywordSearch(w, searchRequest(http.MethodGet, "/api/search?keyword=x&page=two", ""))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeEnvelope(t, w)
		require.NotNil(t, body.Error)
		assert.Equal(t, "page must be an integer", *body.Error)
		svc.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	})

	t.Run("missing keyword and range", func(t *testing.T) {
		svc := new(MockSearchService)
		handler := NewSearchHandler(svc, logger)
		svc.On("Search", mock.Anything, mock.Anything).Return(nil, services.ErrSearchQueryRequired)

		w := httptest.NewRecorder()
		handler.HandleKeywordSearch(w, searchRequest(http.MethodGet, "/api/search?regulation_id=reg-1", ""))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
