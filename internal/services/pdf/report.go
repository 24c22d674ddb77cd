package pdf

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/mediscan/internal/models"
)

// ClinicalReportTitle is the heading and metadata title of per-analysis
// reports.
const ClinicalReportTitle = "Medical Imaging Analysis Report"

// StatisticsReportTitle is the heading of the aggregate statistics report.
const StatisticsReportTitle = "Medical Imaging Statistics Report"

// maxKeywordRows caps the keyword frequency table in the statistics report.
const maxKeywordRows = 10

// BuildClinicalReport renders the markdown for a single analysis report.
// Literature and trial references are optional; empty slices omit their
// sections.
func BuildClinicalReport(report models.Report, publications []models.Publication, trials []models.ClinicalTrial) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", ClinicalReportTitle))
	sb.WriteString(fmt.Sprintf("Date: %s\n\n", time.Now().Format("2006-01-02 15:04")))
	sb.WriteString(fmt.Sprintf("Report ID: %s\n\n", report.ID))
	if report.Filename != "" {
		sb.WriteString(fmt.Sprintf("Image: %s\n\n", report.Filename))
	}

	sb.WriteString("## Analysis Results\n\n")
	sb.WriteString(report.Analysis)
	sb.WriteString("\n\n")

	if len(report.Findings) > 0 {
		sb.WriteString("## Key Findings\n\n")
		for i, finding := range report.Findings {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, finding))
		}
		sb.WriteString("\n")
	}

	if len(report.Keywords) > 0 {
		sb.WriteString("## Keywords\n\n")
		sb.WriteString(strings.Join(report.Keywords, ", "))
		sb.WriteString("\n\n")
	}

	if len(publications) > 0 {
		sb.WriteString("## Relevant Medical Literature\n\n")
		for _, pub := range publications {
			sb.WriteString(fmt.Sprintf("- %s\n", pub.Title))
			sb.WriteString(fmt.Sprintf("- %s, %s (PMID: %s)\n", pub.Journal, pub.Year, pub.ID))
		}
		sb.WriteString("\n")
	}

	if len(trials) > 0 {
		sb.WriteString("## Related Clinical Trials\n\n")
		for _, trial := range trials {
			sb.WriteString(fmt.Sprintf("- %s\n", trial.Title))
			sb.WriteString(fmt.Sprintf("- ID: %s, Status: %s\n", trial.ID, trial.Status))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// BuildStatisticsReport renders the markdown for the aggregate statistics
// report: total analysis count plus a keyword frequency table of the ten
// most common keywords.
func BuildStatisticsReport(totalAnalyses int, keywordCounts map[string]int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", StatisticsReportTitle))
	sb.WriteString(fmt.Sprintf("Date: %s\n\n", time.Now().Format("2006-01-02 15:04")))
	sb.WriteString(fmt.Sprintf("Total analyses: %d\n\n", totalAnalyses))

	if len(keywordCounts) == 0 {
		return sb.String()
	}

	type keywordCount struct {
		keyword string
		count   int
	}
	sorted := make([]keywordCount, 0, len(keywordCounts))
	for keyword, count := range keywordCounts {
		sorted = append(sorted, keywordCount{keyword: keyword, count: count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].keyword < sorted[j].keyword
	})
	if len(sorted) > maxKeywordRows {
		sorted = sorted[:maxKeywordRows]
	}

	sb.WriteString("## Most Common Findings\n\n")
	sb.WriteString("| Keyword | Occurrences |\n")
	sb.WriteString("| --- | --- |\n")
	for _, kc := range sorted {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", kc.keyword, kc.count))
	}
	sb.WriteString("\n")

	return sb.String()
}
