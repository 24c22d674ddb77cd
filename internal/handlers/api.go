package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/common"
	"github.com/ternarybob/mediscan/internal/interfaces"
)

type APIHandler struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

func NewAPIHandler(llm interfaces.LLMService) *APIHandler {
	return &APIHandler{
		llm:    llm,
		logger: common.GetLogger(),
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// HealthHandler returns health check status. The service is healthy even
// without a provider credential; llm_configured tells clients whether
// degraded mode is active.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"llm_configured": h.llm.Configured(),
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
