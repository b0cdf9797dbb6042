package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"carenote/internal/core"
	"carenote/internal/services"
	"carenote/internal/verify"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeDomainError maps a domain error onto an HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidRecord),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidPay),
		errors.Is(err, verify.ErrInvalidPhone):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrActiveCaseExists),
		errors.Is(err, core.ErrAlreadyRecorded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrNoActiveCase),
		errors.Is(err, core.ErrNoRepeatSource):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, verify.ErrVerificationFailed):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
