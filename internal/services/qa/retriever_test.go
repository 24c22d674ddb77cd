package qa

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/interfaces"
	"github.com/ternarybob/mediscan/internal/models"
)

// stubReportStore serves a fixed report slice.
type stubReportStore struct {
	reports []models.Report
	err     error
}

func (s *stubReportStore) Append(models.Report) error { return nil }

func (s *stubReportStore) List() ([]models.Report, error) {
	return s.reports, s.err
}

func (s *stubReportStore) GetByID(id string) (models.Report, error) {
	for _, r := range s.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Report{}, interfaces.ErrReportNotFound
}

func (s *stubReportStore) Latest(limit int) ([]models.Report, error) {
	return s.reports, nil
}

func (s *stubReportStore) KeywordCounts() (map[string]int, error) {
	return map[string]int{}, nil
}

// stubEmbedder maps exact texts to fixed vectors and counts calls. Unknown
// texts get an orthogonal default vector.
type stubEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) models.Embedding {
	s.calls++
	if v, ok := s.vectors[text]; ok {
		return models.Embedding{Values: v}
	}
	return models.Embedding{Values: []float32{0, 0, 1}}
}

func (s *stubEmbedder) Dimension() int { return 3 }

func TestRetrieveEmptyStoreReturnsSentinel(t *testing.T) {
	embedder := &stubEmbedder{}
	retriever := NewRetriever(&stubReportStore{}, embedder, arbor.NewLogger())

	contexts, err := retriever.Retrieve(context.Background(), "any question", 3)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(contexts) != 1 || contexts[0] != NoReportsSentinel {
		t.Errorf("Expected sentinel block, got %v", contexts)
	}
	if embedder.calls != 0 {
		t.Errorf("Expected no embedding calls for empty store, got %d", embedder.calls)
	}
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	reports := []models.Report{
		{ID: "far", Analysis: "Orthogonal content", Date: date},
		{ID: "near", Analysis: "Matching content", Date: date},
		{ID: "middle", Analysis: "Partial content", Date: date},
	}

	embedder := &stubEmbedder{vectors: map[string][]float32{
		"query":                        {1, 0, 0},
		BuildReportText(reports[0]):    {0, 1, 0},
		BuildReportText(reports[1]):    {1, 0, 0},
		BuildReportText(reports[2]):    {1, 1, 0},
	}}

	retriever := NewRetriever(&stubReportStore{reports: reports}, embedder, arbor.NewLogger())

	contexts, err := retriever.Retrieve(context.Background(), "query", 2)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(contexts) != 2 {
		t.Fatalf("Expected 2 contexts, got %d", len(contexts))
	}
	if !strings.Contains(contexts[0], "Matching content") {
		t.Errorf("Expected best match first, got %q", contexts[0])
	}
	if !strings.Contains(contexts[1], "Partial content") {
		t.Errorf("Expected partial match second, got %q", contexts[1])
	}
}

func TestRetrieveTiesKeepStoreOrder(t *testing.T) {
	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	reports := []models.Report{
		{ID: "first", Analysis: "Alpha", Date: date},
		{ID: "second", Analysis: "Beta", Date: date},
	}

	// Both candidates share the query vector, so similarities tie
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"query":                     {1, 0, 0},
		BuildReportText(reports[0]): {1, 0, 0},
		BuildReportText(reports[1]): {1, 0, 0},
	}}

	retriever := NewRetriever(&stubReportStore{reports: reports}, embedder, arbor.NewLogger())

	contexts, err := retriever.Retrieve(context.Background(), "query", 3)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(contexts) != 2 {
		t.Fatalf("Expected 2 contexts, got %d", len(contexts))
	}
	if !strings.Contains(contexts[0], "Alpha") || !strings.Contains(contexts[1], "Beta") {
		t.Errorf("Tied similarities should keep store order: %q, %q", contexts[0], contexts[1])
	}
}

func TestRetrieveSkipsBlankAnalyses(t *testing.T) {
	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	reports := []models.Report{
		{ID: "blank", Analysis: "   ", Date: date},
		{ID: "real", Analysis: "Real analysis text", Date: date},
	}

	embedder := &stubEmbedder{vectors: map[string][]float32{}}
	retriever := NewRetriever(&stubReportStore{reports: reports}, embedder, arbor.NewLogger())

	contexts, err := retriever.Retrieve(context.Background(), "query", 3)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(contexts) != 1 {
		t.Fatalf("Expected only the non-blank report, got %d contexts", len(contexts))
	}
	if !strings.Contains(contexts[0], "Real analysis text") {
		t.Errorf("Unexpected context: %q", contexts[0])
	}
	// One call for the query, one for the single candidate
	if embedder.calls != 2 {
		t.Errorf("Expected 2 embedding calls, got %d", embedder.calls)
	}
}

func TestBuildReportText(t *testing.T) {
	report := models.Report{
		ID:       "r1",
		Analysis: "Radiological Analysis: mild cardiomegaly.",
		Findings: []string{"Mild cardiomegaly", "No pleural effusion"},
		Date:     time.Date(2026, 3, 14, 15, 4, 5, 0, time.UTC),
		Filename: "chest.png",
	}

	text := BuildReportText(report)
	want := "Radiological Analysis: mild cardiomegaly." +
		"\n\nFindings:\n- Mild cardiomegaly\n- No pleural effusion" +
		"\n\nImage: chest.png" +
		"\nDate: 2026-03-14"
	if text != want {
		t.Errorf("Report text mismatch:\ngot:  %q\nwant: %q", text, want)
	}
}

func TestBuildReportTextUnknownFilename(t *testing.T) {
	report := models.Report{Analysis: "Text", Date: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}
	text := BuildReportText(report)
	if !strings.Contains(text, "Image: unknown") {
		t.Errorf("Expected unknown filename placeholder, got %q", text)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{name: "identical vectors", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal vectors", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite vectors", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "zero norm", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "length mismatch", a: []float32{1}, b: []float32{1, 1}, want: 0},
		{name: "empty vectors", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}
