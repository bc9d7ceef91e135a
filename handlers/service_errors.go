package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/kb-assistant/services"
	"github.com/upb/kb-assistant/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	var domainErr *services.DomainError
	errors.As(err, &domainErr)
	details := services.GetErrorDetails(err)

	switch {
	case services.IsValidationError(err):
		if err := utils.WriteBadRequest(w, domainErr.Message, details); err != nil {
			logger.Error("failed to write bad request response", zap.Error(err))
		}

	case services.IsFetchError(err):
		// Fetch failures are upstream problems
		logger.Warn("content fetch failed", zap.Error(err))
		if err := utils.WriteBadGateway(w, domainErr.Message, details); err != nil {
			logger.Error("failed to write bad gateway response", zap.Error(err))
		}

	case services.IsGenerationError(err):
		// Provider detail stays in the logs
		logger.Error("answer generation failed", zap.Error(err))
		if err := utils.WriteInternalServerError(w, domainErr.Message); err != nil {
			logger.Error("failed to write generation error response", zap.Error(err))
		}

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		if err := utils.WriteInternalServerError(w, "An internal error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		if err := utils.WriteInternalServerError(w, "An unexpected error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}
	}

	if domainErr != nil {
		logger.Debug("handled service error",
			zap.String("type", string(domainErr.Type)),
			zap.String("message", domainErr.Message),
			zap.Any("details", domainErr.Details))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		details := utils.FieldsToDetails(utils.GetValidationFields(err))
		if err := utils.WriteBadRequest(w, err.Error(), details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	// Generic validation error
	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}

// HandleDecodeError handles request bodies that could not be decoded
func HandleDecodeError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if errors.Is(err, utils.ErrBodyTooLarge) {
		if err := utils.WriteRequestTooLarge(w); err != nil {
			logger.Error("failed to write request too large response", zap.Error(err))
		}
		return
	}
	if err := utils.WriteBadRequest(w, "Invalid request body", nil); err != nil {
		logger.Error("failed to write bad request response", zap.Error(err))
	}
}
