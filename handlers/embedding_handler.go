package handlers

import (
	"context"
	"net/http"

	"github.com/at-fk/finalproject/middleware"
	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/utils"
	"go.uber.org/zap"
)

// Embedder generates text embeddings
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingHandler serves /api/embedding
type EmbeddingHandler struct {
	embedder Embedder
	logger   *zap.Logger
}

// NewEmbeddingHandler creates a new EmbeddingHandler
func NewEmbeddingHandler(embedder Embedder, logger *zap.Logger) *EmbeddingHandler {
	return &EmbeddingHandler{
		embedder: embedder,
		logger:   logger,
	}
}

// HandleEmbedding handles POST /api/embedding
func (h *EmbeddingHandler) HandleEmbedding(w http.ResponseWriter, r *http.Request) {
	var req models.EmbeddingRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	embedding, err := h.embedder.Embed(r.Context(), req.Text)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug("embedding served",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.Int("dimensions", len(embedding)),
	)

	if err := utils.WriteOK(w, map[string]interface{}{"embedding": embedding}); err != nil {
		h.logger.Error("failed to write embedding response", zap.Error(err))
	}
}
