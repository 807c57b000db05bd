package handlers

import (
	"context"
	"net/http"

	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/services"
	"github.com/at-fk/finalproject/services/article"
	"github.com/at-fk/finalproject/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ArticleService reads article details
type ArticleService interface {
	GetDetail(ctx context.Context, id uuid.UUID) (*models.ArticleDetail, error)
}

// StructureService reads the chapter tree of a regulation
type StructureService interface {
	GetStructure(ctx context.Context, regulationID uuid.UUID) (*models.RegulationStructure, error)
}

// ArticleHandler serves article and regulation structure lookups
type ArticleHandler struct {
	articles  ArticleService
	structure StructureService
	logger    *zap.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(articles ArticleService, structure StructureService, logger *zap.Logger) *ArticleHandler {
	return &ArticleHandler{
		articles:  articles,
		structure: structure,
		logger:    logger,
	}
}

// HandleGetArticle handles GET /api/articles/{id}
func (h *ArticleHandler) HandleGetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := article.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	detail, err := h.articles.GetDetail(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, map[string]interface{}{"article": detail}); err != nil {
		h.logger.Error("failed to write article response", zap.Error(err))
	}
}

// HandleGetStructure handles GET /api/regulations/{id}/structure
func (h *ArticleHandler) HandleGetStructure(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		HandleServiceError(w, services.ErrInvalidRegulationID.WithDetail("id", raw), h.logger)
		return
	}

	structure, err := h.structure.GetStructure(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, structure); err != nil {
		h.logger.Error("failed to write structure response", zap.Error(err))
	}
}
