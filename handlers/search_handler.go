package handlers

import (
	"context"
	"net/http"

	"github.com/at-fk/finalproject/middleware"
	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/utils"
	"go.uber.org/zap"
)

// SearchService runs unified searches
type SearchService interface {
	Search(ctx context.Context, params models.SearchParams) (*models.SearchResponse, error)
}

// SearchHandler serves /api/search
type SearchHandler struct {
	service SearchService
	logger  *zap.Logger
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(service SearchService, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		service: service,
		logger:  logger,
	}
}

// HandleSearch handles POST /api/search
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var params models.SearchParams
	if err := utils.DecodeJSON(w, r, &params); err != nil {
		h.writeBadRequest(w, err)
		return
	}
	if err := utils.ValidateStruct(params); err != nil {
		h.writeBadRequest(w, err)
		return
	}

	h.search(w, r, params)
}

// HandleKeywordSearch handles GET /api/search?keyword=&startArticle=&endArticle=&regulation_id=
func (h *SearchHandler) HandleKeywordSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := models.SearchParams{
		Type:         models.SearchTypeKeyword,
		Keyword:      q.Get("keyword"),
		StartArticle: q.Get("startArticle"),
		EndArticle:   q.Get("endArticle"),
		RegulationID: q.Get("regulation_id"),
	}

	var err error
	if params.Page, err = utils.ParseOptionalInt(q.Get("page"), "page"); err != nil {
		h.writeBadRequest(w, err)
		return
	}
	if params.PageSize, err = utils.ParseOptionalInt(q.Get("pageSize"), "pageSize"); err != nil {
		h.writeBadRequest(w, err)
		return
	}
	if err := utils.ValidateStruct(params); err != nil {
		h.writeBadRequest(w, err)
		return
	}

	h.search(w, r, params)
}

func (h *SearchHandler) search(w http.ResponseWriter, r *http.Request, params models.SearchParams) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	resp, err := h.service.Search(ctx, params)
	if err != nil {
		h.logger.Debug("search failed",
			zap.String("request_id", requestID),
			zap.String("type", string(params.Type)),
			zap.Error(err),
		)
		HandleEnvelopeError(w, err, h.logger)
		return
	}

	h.logger.Info("search completed",
		zap.String("request_id", requestID),
		zap.String("type", string(params.Type)),
		zap.Int("total", resp.Total),
	)

	if err := utils.WriteEnvelope(w, http.StatusOK, resp); err != nil {
		h.logger.Error("failed to write search response", zap.Error(err))
	}
}

func (h *SearchHandler) writeBadRequest(w http.ResponseWriter, err error) {
	if err := utils.WriteEnvelopeError(w, http.StatusBadRequest, err.Error()); err != nil {
		h.logger.Error("failed to write search response", zap.Error(err))
	}
}
