package app

import (
	"fmt"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/common"
	"github.com/ternarybob/mediscan/internal/handlers"
	"github.com/ternarybob/mediscan/internal/interfaces"
	"github.com/ternarybob/mediscan/internal/services/analysis"
	"github.com/ternarybob/mediscan/internal/services/embeddings"
	"github.com/ternarybob/mediscan/internal/services/llm"
	"github.com/ternarybob/mediscan/internal/services/pdf"
	"github.com/ternarybob/mediscan/internal/services/pubmed"
	"github.com/ternarybob/mediscan/internal/services/qa"
	"github.com/ternarybob/mediscan/internal/services/reports"
	"github.com/ternarybob/mediscan/internal/services/rooms"
	"github.com/ternarybob/mediscan/internal/storage/badger"
)

// App holds all initialized services and handlers
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	BadgerDB  *badger.BadgerDB
	KVService interfaces.KeyValueStorage

	// Core services
	LLMService       interfaces.LLMService
	EmbeddingService interfaces.EmbeddingService
	ReportStore      interfaces.ReportStore
	Retriever        interfaces.ContextRetriever
	QASessions       *qa.SessionManager
	QARoomStore      interfaces.QARoomStore
	CaseRoomStore    interfaces.CaseRoomStore
	Assistant        *rooms.Assistant
	AnalysisService  interfaces.AnalysisService
	PDFService       interfaces.PDFService
	Literature       interfaces.LiteratureService

	// HTTP handlers
	APIHandler        *handlers.APIHandler
	AnalysisHandler   *handlers.AnalysisHandler
	QAHandler         *handlers.QAHandler
	RoomsHandler      *handlers.RoomsHandler
	LiteratureHandler *handlers.LiteratureHandler
	SettingsHandler   *handlers.SettingsHandler
	WSHandler         *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("data_dir", cfg.Storage.DataDir).
		Bool("llm_configured", app.LLMService.Configured()).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage opens the BadgerDB settings store.
func (a *App) initStorage() error {
	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to open settings database: %w", err)
	}
	a.BadgerDB = db
	a.KVService = badger.NewKVStorage(db, a.Logger)
	return nil
}

// initServices wires the analysis, QA and reporting services.
func (a *App) initServices() error {
	llmService, err := llm.NewService(a.Config, a.KVService, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM service: %w", err)
	}
	a.LLMService = llmService

	a.EmbeddingService = embeddings.NewService(a.LLMService, a.Config.Gemini.EmbedDimension, a.Logger)

	dataDir := a.Config.Storage.DataDir
	a.ReportStore = reports.NewStore(filepath.Join(dataDir, "analysis_store.json"), a.Logger)
	a.QARoomStore = rooms.NewQAStore(filepath.Join(dataDir, "qa_chat_store.json"), a.Logger)
	a.CaseRoomStore = rooms.NewCaseStore(filepath.Join(dataDir, "chat_store.json"), a.Logger)

	a.Retriever = qa.NewRetriever(a.ReportStore, a.EmbeddingService, a.Logger)
	a.QASessions = qa.NewSessionManager(a.Retriever, a.LLMService, &a.Config.QA, a.Logger)

	a.Assistant = rooms.NewAssistant(a.LLMService, a.Logger)
	a.AnalysisService = analysis.NewService(a.LLMService, a.ReportStore, a.Logger)
	a.PDFService = pdf.NewService(a.Logger)
	a.Literature = pubmed.NewClient(&a.Config.PubMed, a.Logger)

	return nil
}

// initHandlers creates the HTTP handler layer.
func (a *App) initHandlers() {
	a.WSHandler = handlers.NewWebSocketHandler(a.Logger)
	a.APIHandler = handlers.NewAPIHandler(a.LLMService)
	a.AnalysisHandler = handlers.NewAnalysisHandler(a.AnalysisService, a.ReportStore, a.PDFService, a.Literature, a.Config, a.Logger)
	a.QAHandler = handlers.NewQAHandler(a.QASessions, a.QARoomStore, a.WSHandler, a.Logger)
	a.RoomsHandler = handlers.NewRoomsHandler(a.CaseRoomStore, a.Assistant, a.ReportStore, a.WSHandler, a.Logger)
	a.LiteratureHandler = handlers.NewLiteratureHandler(a.Literature, &a.Config.PubMed, a.Logger)
	a.SettingsHandler = handlers.NewSettingsHandler(a.KVService, a.Logger)
}

// Close releases application resources.
func (a *App) Close() {
	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}
	if a.BadgerDB != nil {
		if err := a.BadgerDB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close settings database")
		}
	}
	a.Logger.Info().Msg("Application closed")
}
