// Package utils holds small HTTP helpers shared by the admin API.
package utils

import (
	"encoding/json"
	"net/http"

	"github.com/brizzai/mcp-openapi-hub/internal/logger"
	"go.uber.org/zap"
)

// WriteJSON writes a 200 JSON response
func WriteJSON(w http.ResponseWriter, data any) {
	WriteJSONStatus(w, http.StatusOK, data)
}

// WriteJSONStatus writes a JSON response with the given status
func WriteJSONStatus(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Debug("Failed to write JSON response", zap.Error(err))
	}
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code, message string, status int) {
	WriteJSONStatus(w, status, map[string]string{
		"error":             code,
		"error_description": message,
	})
}
