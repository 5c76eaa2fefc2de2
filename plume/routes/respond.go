package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"plume/plume/utils/apperrors"
	"plume/plume/utils/logging"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.ErrorLogger.Error("response encode error", zap.Error(err))
	}
}

// writeError maps the error taxonomy onto status codes. Unclassified errors
// are logged in full and collapsed to a short 500 body so no store or
// provider detail reaches the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrValidation):
		http.Error(w, "invalid request", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrRateLimited):
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	default:
		logging.ErrorLogger.Error("internal error",
			zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
