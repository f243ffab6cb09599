package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/moenga-git/ELD-VO/internal/contract"
	"github.com/moenga-git/ELD-VO/internal/domain"
	"github.com/moenga-git/ELD-VO/internal/hos"
)

// Error codes carried in ErrorResponse bodies.
const (
	codeNotFound         = "not_found"
	codeValidation       = "validation_error"
	codeBadRequest       = "bad_request"
	codeTooLarge         = "payload_too_large"
	codeRouteUnavailable = "route_unavailable"
	codeInternal         = "internal_error"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an ErrorResponse body.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, contract.ErrorResponse{Error: contract.ErrorDetail{Code: code, Message: message}})
}

// fail maps a service error onto a status code. notFound is the message used
// when err wraps domain.ErrNotFound, because the handler is the layer that
// knows what was being looked up.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, codeBadRequest, strings.TrimPrefix(err.Error(), errBadRequest.Error()+": "))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, notFound)
	case errors.Is(err, domain.ErrValidation), errors.Is(err, hos.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, codeValidation, unwrapMessage(err))
	case errors.Is(err, domain.ErrRouteUnavailable):
		writeError(w, http.StatusBadGateway, codeRouteUnavailable, "routing provider unavailable")
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge, "request body is too large")
	default:
		s.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.TripService.Create: validation error: pickup is required" → "pickup is required"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	const marker = "validation error: "
	if i := strings.LastIndex(msg, marker); i >= 0 && i+len(marker) < len(msg) {
		return msg[i+len(marker):]
	}
	return msg
}
