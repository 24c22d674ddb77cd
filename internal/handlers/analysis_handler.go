package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/common"
	"github.com/ternarybob/mediscan/internal/interfaces"
	"github.com/ternarybob/mediscan/internal/services/heatmap"
	"github.com/ternarybob/mediscan/internal/services/pdf"
)

// maxUploadBytes caps uploaded image size (32 MB).
const maxUploadBytes = 32 << 20

// AnalysisHandler handles image analysis, report retrieval and PDF export.
type AnalysisHandler struct {
	analysisService interfaces.AnalysisService
	reportStore     interfaces.ReportStore
	pdfService      interfaces.PDFService
	literature      interfaces.LiteratureService
	config          *common.Config
	logger          arbor.ILogger
}

// NewAnalysisHandler creates an analysis handler.
func NewAnalysisHandler(
	analysisService interfaces.AnalysisService,
	reportStore interfaces.ReportStore,
	pdfService interfaces.PDFService,
	literature interfaces.LiteratureService,
	config *common.Config,
	logger arbor.ILogger,
) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		reportStore:     reportStore,
		pdfService:      pdfService,
		literature:      literature,
		config:          config,
		logger:          logger,
	}
}

// readUpload extracts the uploaded image from a multipart form.
func readUpload(r *http.Request) (data []byte, filename, mimeType string, err error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", "", fmt.Errorf("failed to parse multipart form: %w", err)
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", "", fmt.Errorf("missing image file field: %w", err)
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) == 0 {
		return nil, "", "", fmt.Errorf("uploaded image is empty")
	}

	mimeType = header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	return data, header.Filename, mimeType, nil
}

// AnalyzeHandler handles POST /api/analyze - runs vision analysis on an
// uploaded image and stores the resulting report.
func (h *AnalysisHandler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	data, filename, mimeType, err := readUpload(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.analysisService.Analyze(r.Context(), data, mimeType, filename)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", filename).Msg("Failed to store analysis")
		WriteError(w, http.StatusInternalServerError, "Failed to store analysis report")
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// HeatmapHandler handles POST /api/heatmap - returns the jet overlay PNG for
// an uploaded image without storing anything.
func (h *AnalysisHandler) HeatmapHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	data, _, _, err := readUpload(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	overlay, err := heatmap.Generate(data)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Failed to generate heatmap: unsupported or corrupt image")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(overlay)
}

// ListAnalysesHandler handles GET /api/analyses - lists stored reports.
// Optional ?limit=N returns the N most recent reports instead.
func (h *AnalysisHandler) ListAnalysesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			WriteError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		reports, err := h.reportStore.Latest(limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to list analyses")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"analyses": reports})
		return
	}

	reports, err := h.reportStore.List()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list analyses")
		WriteError(w, http.StatusInternalServerError, "Failed to list analyses")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"analyses": reports})
}

// AnalysisRoutes handles GET /api/analyses/{id} and
// GET /api/analyses/{id}/report.pdf.
func (h *AnalysisHandler) AnalysisRoutes(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/analyses/")
	if rest == "" {
		WriteError(w, http.StatusBadRequest, "Missing analysis id")
		return
	}

	if id, ok := strings.CutSuffix(rest, "/report.pdf"); ok {
		h.reportPDF(w, r, id)
		return
	}

	report, err := h.reportStore.GetByID(rest)
	if err != nil {
		if errors.Is(err, interfaces.ErrReportNotFound) {
			WriteError(w, http.StatusNotFound, "Analysis not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to load analysis")
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// reportPDF renders the clinical PDF for a stored report, optionally with
// literature and trial references.
func (h *AnalysisHandler) reportPDF(w http.ResponseWriter, r *http.Request, id string) {
	report, err := h.reportStore.GetByID(id)
	if err != nil {
		if errors.Is(err, interfaces.ErrReportNotFound) {
			WriteError(w, http.StatusNotFound, "Analysis not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to load analysis")
		return
	}

	markdown := pdf.BuildClinicalReport(report, nil, nil)
	if h.config.Reports.IncludeReferences && len(report.Keywords) > 0 {
		publications := h.literature.SearchPublications(r.Context(), report.Keywords, 3)
		trials := h.literature.ClinicalTrials(report.Keywords, 2)
		markdown = pdf.BuildClinicalReport(report, publications, trials)
	}

	data, err := h.pdfService.ConvertMarkdownToPDF(markdown, pdf.ClinicalReportTitle)
	if err != nil {
		h.logger.Error().Err(err).Str("report_id", id).Msg("Failed to render report PDF")
		WriteError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"report_%s.pdf\"", id))
	w.Write(data)
}

// StatisticsPDFHandler handles GET /api/reports/statistics.pdf - renders the
// aggregate keyword statistics report.
func (h *AnalysisHandler) StatisticsPDFHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	reports, err := h.reportStore.List()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to load analyses")
		return
	}
	if len(reports) == 0 {
		WriteError(w, http.StatusNotFound, "No analyses stored")
		return
	}

	counts, err := h.reportStore.KeywordCounts()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to aggregate keywords")
		return
	}

	markdown := pdf.BuildStatisticsReport(len(reports), counts)
	data, err := h.pdfService.ConvertMarkdownToPDF(markdown, pdf.StatisticsReportTitle)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to render statistics PDF")
		WriteError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"statistics.pdf\"")
	w.Write(data)
}
