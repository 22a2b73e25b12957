package api

import (
	"encoding/json"
	"net/http"

	"github.com/nils/studyflash/internal/errors"
	"github.com/nils/studyflash/internal/logger"
)

// handleError centralizes error handling for HTTP responses
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	// Check if it's already an AppError
	appErr, ok := err.(*errors.AppError)
	if !ok {
		// Wrap unknown errors as internal errors
		appErr = errors.NewInternalError(err)
	}

	// Log based on status code
	if appErr.Status >= 500 {
		log.Error("server error: %v", appErr)
	} else {
		log.Warn("client error: %v", appErr)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}
