package handlers

import (
	"net/http"

	"github.com/upb/whatsapp-saas/services"
	"github.com/upb/whatsapp-saas/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses. Clients only ever
// see the domain message; causes stay in the log.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	domainErr, ok := services.AsDomainError(err)
	if !ok {
		logger.Error("unhandled error", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "An unexpected error occurred")
		return
	}

	details := domainErr.Details
	if len(details) == 0 {
		details = nil
	}

	var writeErr error
	switch domainErr.Type {
	case services.ErrorTypeNotFound:
		writeErr = utils.WriteNotFound(w, domainErr.Message)
	case services.ErrorTypeValidation:
		writeErr = utils.WriteBadRequest(w, domainErr.Message, details)
	case services.ErrorTypeUnauthorized:
		logger.Warn("unauthorized", zap.Error(err))
		writeErr = utils.WriteBearerChallenge(w)
	case services.ErrorTypeForbidden:
		writeErr = utils.WriteForbidden(w, domainErr.Message)
	case services.ErrorTypeConflict:
		writeErr = utils.WriteConflict(w, domainErr.Message, details)
	case services.ErrorTypeExternal:
		logger.Error("external service error", zap.Error(err))
		writeErr = utils.WriteError(w, http.StatusBadGateway, domainErr.Message, details)
	case services.ErrorTypeInternal:
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")
	default:
		logger.Error("unhandled error type", zap.Error(err), zap.String("error_type", string(domainErr.Type)))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError handles validation errors from request parsing
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
