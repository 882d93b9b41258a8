package apihttp

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"lcatricity/internal/apperr"
)

type errorBody struct {
	Response  int    `json:"response"`
	ErrorInfo string `json:"error_info"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindNoData:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindTooMuchData:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError is the only place errors become responses. Server-side kinds are
// logged in full and reported to the caller without detail.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	msg := apperr.MessageOf(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "path", r.URL.Path, "query", r.URL.RawQuery, "kind", kind.String(), "err", err)
		switch kind {
		case apperr.KindIntegrity:
			msg = "data integrity error"
		case apperr.KindConfiguration:
			msg = "server configuration error"
		default:
			msg = "internal error"
		}
	}
	writeStatusJSON(w, status, errorBody{Response: status, ErrorInfo: msg})
}

func writeStatusJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
