package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/common"
	"github.com/ternarybob/mediscan/internal/interfaces"
	"github.com/ternarybob/mediscan/internal/models"
)

// visionPrompt instructs the model to produce the sectioned analysis the
// extraction step depends on.
const visionPrompt = `Provide a detailed medical analysis of this image.
Include:
1. Description of key findings
2. Possible diagnoses
3. Recommendations for clinical correlation or follow-up

Format your response with "Radiological Analysis" and "Impression" sections.`

// Service implements the vision analysis pipeline: model call, extraction,
// persistence.
type Service struct {
	llm    interfaces.LLMService
	store  interfaces.ReportStore
	logger arbor.ILogger
}

// NewService creates an analysis service.
func NewService(llm interfaces.LLMService, store interfaces.ReportStore, logger arbor.ILogger) interfaces.AnalysisService {
	return &Service{
		llm:    llm,
		store:  store,
		logger: logger,
	}
}

// Analyze produces and stores a report for the image. A provider failure is
// recorded as a report whose analysis text carries the error detail.
func (s *Service) Analyze(ctx context.Context, imageData []byte, mimeType, filename string) (models.Report, error) {
	report := models.Report{
		ID:       common.NewReportID(),
		Date:     time.Now(),
		Filename: filename,
		Findings: []string{},
		Keywords: []string{},
	}

	analysisText, err := s.llm.AnalyzeImage(ctx, visionPrompt, imageData, mimeType)
	if err != nil {
		s.logger.Warn().Err(err).Str("filename", filename).Msg("Image analysis failed")
		report.Analysis = fmt.Sprintf("Error analyzing image: %s", err.Error())
	} else {
		report.Analysis = analysisText
		report.Findings, report.Keywords = ExtractFindingsAndKeywords(analysisText)
	}

	if err := s.store.Append(report); err != nil {
		return models.Report{}, fmt.Errorf("failed to store analysis report: %w", err)
	}

	s.logger.Info().
		Str("report_id", report.ID).
		Str("filename", filename).
		Int("findings", len(report.Findings)).
		Int("keywords", len(report.Keywords)).
		Msg("Image analysis stored")

	return report, nil
}

var _ interfaces.AnalysisService = (*Service)(nil)
