package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"genie-dashboard/internal/domain"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	var queryFailed *domain.QueryFailedError
	var pollTimeout *domain.PollTimeoutError
	var upstream *domain.UpstreamError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &queryFailed):
		return http.StatusBadGateway
	case errors.As(err, &pollTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and writes the error body. Internal errors
// are logged and their message replaced.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal server error"
	} else if status >= http.StatusBadGateway {
		h.logger.WarnContext(r.Context(), "upstream failure",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody{Code: status, Message: msg})
}
