package qa

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/interfaces"
	"github.com/ternarybob/mediscan/internal/models"
)

// NoReportsSentinel is the single context block returned when the analysis
// store holds no reports. Callers check for it before invoking the model.
const NoReportsSentinel = "No previous analyses found."

// Retriever ranks stored report texts against a query by embedding cosine
// similarity. Embeddings are recomputed per call; report volume is small
// enough that caching is not worth the staleness handling.
type Retriever struct {
	store    interfaces.ReportStore
	embedder interfaces.EmbeddingService
	logger   arbor.ILogger
}

// NewRetriever creates a context retriever over the given report store.
func NewRetriever(store interfaces.ReportStore, embedder interfaces.EmbeddingService, logger arbor.ILogger) interfaces.ContextRetriever {
	return &Retriever{
		store:    store,
		embedder: embedder,
		logger:   logger,
	}
}

// BuildReportText assembles the retrievable text block for a report: the
// analysis, a findings list, and image/date metadata lines.
func BuildReportText(report models.Report) string {
	var sb strings.Builder
	sb.WriteString(report.Analysis)

	if len(report.Findings) > 0 {
		sb.WriteString("\n\nFindings:\n")
		lines := make([]string, 0, len(report.Findings))
		for _, finding := range report.Findings {
			lines = append(lines, fmt.Sprintf("- %s", finding))
		}
		sb.WriteString(strings.Join(lines, "\n"))
	}

	filename := report.Filename
	if filename == "" {
		filename = "unknown"
	}
	sb.WriteString(fmt.Sprintf("\n\nImage: %s", filename))
	sb.WriteString(fmt.Sprintf("\nDate: %s", report.Date.Format("2006-01-02")))

	return sb.String()
}

// Retrieve returns up to topK report text blocks ranked by cosine similarity
// against the query embedding. An empty store yields the sentinel block;
// reports with blank analysis text are skipped.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	reports, err := r.store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to load reports for retrieval: %w", err)
	}

	if len(reports) == 0 {
		return []string{NoReportsSentinel}, nil
	}

	queryEmbedding := r.embedder.Embed(ctx, query)

	type candidate struct {
		text       string
		similarity float64
	}

	candidates := make([]candidate, 0, len(reports))
	for _, report := range reports {
		if strings.TrimSpace(report.Analysis) == "" {
			continue
		}

		text := BuildReportText(report)
		embedding := r.embedder.Embed(ctx, text)
		candidates = append(candidates, candidate{
			text:       text,
			similarity: cosineSimilarity(queryEmbedding.Values, embedding.Values),
		})
	}

	// Stable sort keeps store order for equal similarities
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})

	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}

	contexts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		contexts = append(contexts, c.text)
	}

	r.logger.Debug().
		Int("reports", len(reports)).
		Int("contexts", len(contexts)).
		Bool("synthetic_query_embedding", queryEmbedding.Synthetic).
		Msg("Context retrieval completed")

	return contexts, nil
}

// cosineSimilarity returns dot(a,b) / (|a| * |b|), or 0 when either vector
// has zero norm or the lengths differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ interfaces.ContextRetriever = (*Retriever)(nil)
