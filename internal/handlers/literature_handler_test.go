package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/common"
	"github.com/ternarybob/mediscan/internal/models"
)

// mockLiteratureService implements interfaces.LiteratureService for testing
type mockLiteratureService struct {
	searchFunc func(ctx context.Context, keywords []string, maxResults int) []models.Publication
	trialsFunc func(keywords []string, maxResults int) []models.ClinicalTrial
}

func (m *mockLiteratureService) SearchPublications(ctx context.Context, keywords []string, maxResults int) []models.Publication {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, keywords, maxResults)
	}
	return nil
}

func (m *mockLiteratureService) ClinicalTrials(keywords []string, maxResults int) []models.ClinicalTrial {
	if m.trialsFunc != nil {
		return m.trialsFunc(keywords, maxResults)
	}
	return nil
}

func newTestLiteratureHandler(service *mockLiteratureService) *LiteratureHandler {
	config := &common.PubMedConfig{MaxResults: 5}
	return NewLiteratureHandler(service, config, arbor.NewLogger())
}

func TestLiteratureSearch(t *testing.T) {
	var gotKeywords []string
	var gotMax int
	service := &mockLiteratureService{
		searchFunc: func(ctx context.Context, keywords []string, maxResults int) []models.Publication {
			gotKeywords = keywords
			gotMax = maxResults
			return []models.Publication{
				{ID: "12345", Title: "Pneumonia outcomes", Journal: "Chest", Year: "2024"},
			}
		},
		trialsFunc: func(keywords []string, maxResults int) []models.ClinicalTrial {
			return []models.ClinicalTrial{
				{ID: "NCT1000", Title: "Clinical Trial on pneumonia effusion", Status: "Recruiting", Phase: "Phase 1"},
			}
		},
	}
	handler := newTestLiteratureHandler(service)

	req := httptest.NewRequest("GET", "/api/literature?keywords=pneumonia,%20effusion", nil)
	rec := httptest.NewRecorder()

	handler.SearchHandler(rec, req)

	if rec.Code != 200 {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if len(gotKeywords) != 2 || gotKeywords[0] != "pneumonia" || gotKeywords[1] != "effusion" {
		t.Errorf("Unexpected keywords: %v", gotKeywords)
	}
	if gotMax != 5 {
		t.Errorf("Expected config default max 5, got %d", gotMax)
	}

	var response struct {
		Publications []models.Publication  `json:"publications"`
		Trials       []models.ClinicalTrial `json:"trials"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(response.Publications) != 1 || response.Publications[0].ID != "12345" {
		t.Errorf("Unexpected publications: %+v", response.Publications)
	}
	if len(response.Trials) != 1 || response.Trials[0].ID != "NCT1000" {
		t.Errorf("Unexpected trials: %+v", response.Trials)
	}
}

func TestLiteratureSearch_MaxOverride(t *testing.T) {
	var gotMax int
	service := &mockLiteratureService{
		searchFunc: func(ctx context.Context, keywords []string, maxResults int) []models.Publication {
			gotMax = maxResults
			return nil
		},
	}
	handler := newTestLiteratureHandler(service)

	req := httptest.NewRequest("GET", "/api/literature?keywords=nodule&max=2", nil)
	rec := httptest.NewRecorder()

	handler.SearchHandler(rec, req)

	if rec.Code != 200 {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if gotMax != 2 {
		t.Errorf("Expected max 2, got %d", gotMax)
	}
}

func TestLiteratureSearch_MissingKeywords(t *testing.T) {
	handler := newTestLiteratureHandler(&mockLiteratureService{})

	for _, url := range []string{"/api/literature", "/api/literature?keywords=%20,%20"} {
		req := httptest.NewRequest("GET", url, nil)
		rec := httptest.NewRecorder()

		handler.SearchHandler(rec, req)

		if rec.Code != 400 {
			t.Errorf("%s: expected status 400, got %d", url, rec.Code)
		}
	}
}
