package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/interfaces"
)

// SettingsHandler manages the key/value settings store (API keys and UI
// preferences). Values are masked in list responses.
type SettingsHandler struct {
	kv     interfaces.KeyValueStorage
	logger arbor.ILogger
}

// NewSettingsHandler creates a settings handler.
func NewSettingsHandler(kv interfaces.KeyValueStorage, logger arbor.ILogger) *SettingsHandler {
	return &SettingsHandler{
		kv:     kv,
		logger: logger,
	}
}

// KeysHandler handles /api/settings/keys - GET lists entries, POST upserts.
func (h *SettingsHandler) KeysHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		pairs, err := h.kv.List()
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to list settings")
			WriteError(w, http.StatusInternalServerError, "Failed to list settings")
			return
		}

		sanitized := make([]map[string]interface{}, len(pairs))
		for i, pair := range pairs {
			sanitized[i] = map[string]interface{}{
				"key":         pair.Key,
				"value":       maskValue(pair.Value),
				"description": pair.Description,
				"created_at":  pair.CreatedAt,
				"updated_at":  pair.UpdatedAt,
			}
		}
		WriteJSON(w, http.StatusOK, sanitized)

	case "POST":
		var req struct {
			Key         string `json:"key"`
			Value       string `json:"value"`
			Description string `json:"description"`
		}
		if !DecodeJSONBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Key) == "" {
			WriteError(w, http.StatusBadRequest, "Missing key")
			return
		}

		if err := h.kv.Set(req.Key, req.Value, req.Description); err != nil {
			h.logger.Error().Err(err).Str("key", req.Key).Msg("Failed to store setting")
			WriteError(w, http.StatusInternalServerError, "Failed to store setting")
			return
		}
		WriteSuccess(w, "Setting stored")

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// KeyRoutes handles DELETE /api/settings/keys/{key}.
func (h *SettingsHandler) KeyRoutes(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	encodedKey := strings.TrimPrefix(r.URL.Path, "/api/settings/keys/")
	key, err := url.QueryUnescape(encodedKey)
	if err != nil || key == "" {
		WriteError(w, http.StatusBadRequest, "Invalid key")
		return
	}

	if err := h.kv.Delete(key); err != nil {
		if errors.Is(err, interfaces.ErrKeyNotFound) {
			WriteError(w, http.StatusNotFound, "Key not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to delete setting")
		return
	}
	WriteSuccess(w, "Setting deleted")
}

// maskValue hides all but the last four characters of stored values.
func maskValue(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
