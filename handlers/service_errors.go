package handlers

import (
	"net/http"

	"github.com/at-fk/finalproject/services"
	"github.com/at-fk/finalproject/utils"
	"go.uber.org/zap"
)

const internalErrorMessage = "An internal error occurred"

// ErrorStatus maps a service error to an HTTP status and the message shown to clients.
// Internal failures never leak their cause.
func ErrorStatus(err error) (int, string) {
	switch {
	case services.IsValidationError(err):
		return http.StatusBadRequest, services.GetErrorMessage(err)
	case services.IsNoResultsError(err), services.IsNotFoundError(err):
		return http.StatusNotFound, services.GetErrorMessage(err)
	case services.IsRateLimitError(err):
		return http.StatusTooManyRequests, services.GetErrorMessage(err)
	case services.IsEmbeddingError(err), services.IsExternalError(err):
		return http.StatusBadGateway, services.GetErrorMessage(err)
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}

// logServiceError logs server-side failures at error level and client-side ones at debug
func logServiceError(logger *zap.Logger, status int, err error) {
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("error_type", string(services.GetErrorType(err))),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("service error", fields...)
		return
	}
	logger.Debug("handled service error", fields...)
}

// HandleServiceError maps domain errors to {"error": message} responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	status, message := ErrorStatus(err)
	logServiceError(logger, status, err)

	var details map[string]interface{}
	if status == http.StatusBadRequest {
		if d := services.GetErrorDetails(err); len(d) > 0 {
			details = d
		}
	}

	if err := utils.WriteError(w, status, message, details); err != nil {
		logger.Error("failed to write error response", zap.Error(err))
	}
}

// HandleEnvelopeError maps domain errors to {"data": null, "error": message} responses
func HandleEnvelopeError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	status, message := ErrorStatus(err)
	logServiceError(logger, status, err)

	if err := utils.WriteEnvelopeError(w, status, message); err != nil {
		logger.Error("failed to write error response", zap.Error(err))
	}
}

// HandleValidationError handles errors from request decoding and struct validation
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
