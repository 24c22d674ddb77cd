package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Image analysis and reports
	mux.HandleFunc("/api/analyze", s.app.AnalysisHandler.AnalyzeHandler)                      // POST - analyze uploaded image
	mux.HandleFunc("/api/heatmap", s.app.AnalysisHandler.HeatmapHandler)                      // POST - heatmap overlay for uploaded image
	mux.HandleFunc("/api/analyses", s.app.AnalysisHandler.ListAnalysesHandler)                // GET - list stored analyses
	mux.HandleFunc("/api/analyses/", s.app.AnalysisHandler.AnalysisRoutes)                    // GET /{id}, /{id}/report.pdf
	mux.HandleFunc("/api/reports/statistics.pdf", s.app.AnalysisHandler.StatisticsPDFHandler) // GET - aggregate statistics PDF

	// API routes - Report question answering
	mux.HandleFunc("/api/qa/ask", s.app.QAHandler.AskHandler)     // POST - answer question within a session
	mux.HandleFunc("/api/qa/clear", s.app.QAHandler.ClearHandler) // POST - reset session history
	mux.HandleFunc("/api/qa/rooms", s.app.QAHandler.RoomsHandler) // GET (list), POST (create)
	mux.HandleFunc("/api/qa/rooms/", s.app.QAHandler.RoomRoutes)  // /{id}/messages, DELETE /{id}

	// API routes - Case discussion rooms
	mux.HandleFunc("/api/rooms", s.app.RoomsHandler.RoomsHandler) // GET (list), POST (create)
	mux.HandleFunc("/api/rooms/", s.app.RoomsHandler.RoomRoutes)  // /{id}, /{id}/join, /{id}/messages

	// API routes - Medical literature
	mux.HandleFunc("/api/literature", s.app.LiteratureHandler.SearchHandler) // GET - PubMed search + trials

	// API routes - Settings (API keys)
	mux.HandleFunc("/api/settings/keys", s.app.SettingsHandler.KeysHandler) // GET (list), POST (upsert)
	mux.HandleFunc("/api/settings/keys/", s.app.SettingsHandler.KeyRoutes)  // DELETE /{key}

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
