package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/at-fk/finalproject/middleware"
	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/services/answer"
	"github.com/at-fk/finalproject/utils"
	"go.uber.org/zap"
)

// DefaultStreamTimeout bounds a single answer stream
const DefaultStreamTimeout = 2 * time.Minute

// AnswerService streams answers as events
type AnswerService interface {
	AskSelected(ctx context.Context, req models.AskRequest) (<-chan answer.Event, error)
	AskSemantic(ctx context.Context, req models.SemanticAskRequest) (<-chan answer.Event, error)
}

// contextEvent, contentEvent and doneEvent are the SSE payloads of an answer stream
type contextEvent struct {
	Type        string `json:"type"`
	UsedContext string `json:"usedContext"`
}

type contentEvent struct {
	Content string `json:"content"`
}

type doneEvent struct {
	Type string `json:"type"`
}

// AskHandler serves /api/ask and /api/ask/semantic as server-sent events
type AskHandler struct {
	service AnswerService
	timeout time.Duration
	logger  *zap.Logger
}

// NewAskHandler creates a new AskHandler
func NewAskHandler(service AnswerService, timeout time.Duration, logger *zap.Logger) *AskHandler {
	if timeout <= 0 {
		timeout = DefaultStreamTimeout
	}
	return &AskHandler{
		service: service,
		timeout: timeout,
		logger:  logger,
	}
}

// HandleAsk handles POST /api/ask
func (h *AskHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		h.streamError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.streamError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("ask request",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.Int("selected_contents", len(req.SelectedContents)),
		zap.String("language", string(req.Language)),
	)

	h.stream(w, r, func(ctx context.Context) (<-chan answer.Event, error) {
		return h.service.AskSelected(ctx, req)
	})
}

// HandleSemanticAsk handles POST /api/ask/semantic
func (h *AskHandler) HandleSemanticAsk(w http.ResponseWriter, r *http.Request) {
	var req models.SemanticAskRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		h.streamError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.streamError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("semantic ask request",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("regulation_id", req.SearchParams.RegulationID),
		zap.Bool("has_history", req.LastQA != nil),
	)

	h.stream(w, r, func(ctx context.Context) (<-chan answer.Event, error) {
		return h.service.AskSemantic(ctx, req)
	})
}

// stream relays events until done, error or cancellation.
// Failures before the first event keep their mapped status; later ones become an error event.
func (h *AskHandler) stream(w http.ResponseWriter, r *http.Request, start func(ctx context.Context) (<-chan answer.Event, error)) {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	sse, err := utils.NewSSEWriter(w)
	if err != nil {
		h.logger.Error("response writer cannot stream", zap.String("request_id", requestID))
		if err := utils.WriteInternalServerError(w, internalErrorMessage); err != nil {
			h.logger.Error("failed to write error response", zap.Error(err))
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	events, err := start(ctx)
	if err != nil {
		status, message := ErrorStatus(err)
		logServiceError(h.logger, status, err)
		sse.Start(status)
		if err := sse.SendError(message); err != nil {
			h.logger.Debug("failed to write stream error", zap.Error(err))
		}
		return
	}

	finished := false
	for event := range events {
		var payload interface{}
		switch event.Type {
		case answer.EventContext:
			payload = contextEvent{Type: "context", UsedContext: event.Content}
		case answer.EventContent:
			payload = contentEvent{Content: event.Content}
		case answer.EventDone:
			payload = doneEvent{Type: "done"}
			finished = true
		case answer.EventError:
			status, message := ErrorStatus(event.Err)
			logServiceError(h.logger, status, event.Err)
			payload = map[string]string{"error": message}
			finished = true
		default:
			continue
		}

		if err := sse.Send(payload); err != nil {
			h.logger.Debug("client went away during stream",
				zap.String("request_id", requestID),
				zap.Error(err),
			)
			return
		}
	}

	if !finished && errors.Is(ctx.Err(), context.DeadlineExceeded) && r.Context().Err() == nil {
		h.logger.Warn("answer stream timed out",
			zap.String("request_id", requestID),
			zap.Duration("timeout", h.timeout),
		)
		if err := sse.SendError("Answer generation timed out"); err != nil {
			h.logger.Debug("failed to write stream error", zap.Error(err))
		}
	}
}

// streamError writes a single error event with the given status
func (h *AskHandler) streamError(w http.ResponseWriter, status int, message string) {
	sse, err := utils.NewSSEWriter(w)
	if err != nil {
		if err := utils.WriteError(w, status, message, nil); err != nil {
			h.logger.Error("failed to write error response", zap.Error(err))
		}
		return
	}
	sse.Start(status)
	if err := sse.SendError(message); err != nil {
		h.logger.Debug("failed to write stream error", zap.Error(err))
	}
}
