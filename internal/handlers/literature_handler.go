package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/common"
	"github.com/ternarybob/mediscan/internal/interfaces"
)

// LiteratureHandler serves PubMed publication and clinical trial lookups.
type LiteratureHandler struct {
	literature interfaces.LiteratureService
	config     *common.PubMedConfig
	logger     arbor.ILogger
}

// NewLiteratureHandler creates a literature handler.
func NewLiteratureHandler(literature interfaces.LiteratureService, config *common.PubMedConfig, logger arbor.ILogger) *LiteratureHandler {
	return &LiteratureHandler{
		literature: literature,
		config:     config,
		logger:     logger,
	}
}

// SearchHandler handles GET /api/literature?keywords=a,b[&max=N] - returns
// matching publications and related clinical trials.
func (h *LiteratureHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	keywordsParam := r.URL.Query().Get("keywords")
	if strings.TrimSpace(keywordsParam) == "" {
		WriteError(w, http.StatusBadRequest, "Missing keywords parameter")
		return
	}

	keywords := []string{}
	for _, keyword := range strings.Split(keywordsParam, ",") {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	if len(keywords) == 0 {
		WriteError(w, http.StatusBadRequest, "Missing keywords parameter")
		return
	}

	maxResults := h.config.MaxResults
	if maxStr := r.URL.Query().Get("max"); maxStr != "" {
		if parsed, err := strconv.Atoi(maxStr); err == nil && parsed > 0 {
			maxResults = parsed
		}
	}

	publications := h.literature.SearchPublications(r.Context(), keywords, maxResults)
	trials := h.literature.ClinicalTrials(keywords, 3)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"publications": publications,
		"trials":       trials,
	})
}
