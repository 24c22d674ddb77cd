package reports

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/interfaces"
	"github.com/ternarybob/mediscan/internal/models"
)

// storeDocument is the on-disk shape of the analysis store.
type storeDocument struct {
	Analyses []models.Report `json:"analyses"`
}

// Store persists reports in a single flat JSON file. Every mutation reads
// the full document, modifies it in memory and writes it back. A mutex
// serializes access within the process; concurrent writers from separate
// processes follow last-writer-wins.
type Store struct {
	path   string
	mu     sync.Mutex
	logger arbor.ILogger
}

// NewStore creates a report store backed by the given JSON file. The file is
// created on first append; a missing file reads as an empty store.
func NewStore(path string, logger arbor.ILogger) interfaces.ReportStore {
	return &Store{
		path:   path,
		logger: logger,
	}
}

// Append adds a report to the store and persists it.
func (s *Store) Append(report models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	doc.Analyses = append(doc.Analyses, report)

	if err := s.save(doc); err != nil {
		return err
	}

	s.logger.Debug().
		Str("report_id", report.ID).
		Str("filename", report.Filename).
		Int("total", len(doc.Analyses)).
		Msg("Report appended to analysis store")

	return nil
}

// List returns all reports in store order.
func (s *Store) List() ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Analyses, nil
}

// GetByID returns the report with the given id or ErrReportNotFound.
func (s *Store) GetByID(id string) (models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Report{}, err
	}

	for _, report := range doc.Analyses {
		if report.ID == id {
			return report, nil
		}
	}
	return models.Report{}, interfaces.ErrReportNotFound
}

// Latest returns up to limit reports sorted by date, newest first.
func (s *Store) Latest(limit int) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	sorted := make([]models.Report, len(doc.Analyses))
	copy(sorted, doc.Analyses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// KeywordCounts returns keyword frequencies across all stored reports.
func (s *Store) KeywordCounts() (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, report := range doc.Analyses {
		for _, keyword := range report.Keywords {
			counts[keyword]++
		}
	}
	return counts, nil
}

func (s *Store) load() (*storeDocument, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &storeDocument{Analyses: []models.Report{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis store: %w", err)
	}

	var doc storeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse analysis store: %w", err)
	}
	if doc.Analyses == nil {
		doc.Analyses = []models.Report{}
	}
	return &doc, nil
}

func (s *Store) save(doc *storeDocument) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode analysis store: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write analysis store: %w", err)
	}
	return nil
}

var _ interfaces.ReportStore = (*Store)(nil)
