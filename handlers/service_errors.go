package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/crmbridge/external-service/services"
	"github.com/crmbridge/external-service/utils"
)

// HandleServiceError maps domain errors to HTTP responses. Internal errors
// are logged in full but reported with a generic message.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	switch {
	case services.IsValidationError(err):
		_ = utils.WriteBadRequest(w, err.Error(), nil)

	case services.IsUnauthorizedError(err):
		_ = utils.WriteUnauthorized(w, err.Error())

	case services.IsExternalError(err):
		logger.Error("upstream dependency failed", zap.Error(err))
		_ = utils.WriteBadGateway(w, "Upstream service unavailable")

	default:
		logger.Error("internal server error", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
	}
}
