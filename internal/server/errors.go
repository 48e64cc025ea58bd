package server

import (
	"net/http"

	"go.uber.org/zap"

	"gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/pkg/logger"
	"gitlab.com/crmcom/api/centralwap-router/pkg/utils"
)

// statusForError maps the error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case apperrors.IsValidationError(err), apperrors.IsBadRequestError(err), apperrors.IsUnparseableError(err):
		return http.StatusBadRequest
	case apperrors.IsNotFoundError(err):
		return http.StatusNotFound
	case apperrors.IsUnauthorizedError(err):
		return http.StatusUnauthorized
	case apperrors.IsDuplicateError(err):
		return http.StatusConflict
	case apperrors.IsUpstreamRejectedError(err):
		return http.StatusBadGateway
	case apperrors.IsTimeoutError(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the structured error body the REST surface promises.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("Request failed", zap.Int("status", status), zap.Error(err))
	} else {
		logger.FromContext(r.Context()).Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}
	utils.WriteErrorResponse(w, status, err.Error())
}
