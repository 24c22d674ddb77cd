package pubmed

import (
	"strings"
	"unicode"

	"github.com/ternarybob/mediscan/internal/models"
)

// fallbackYear is used when a record's publication date has no leading year.
const fallbackYear = "2024"

// ParseMedline extracts publications from MEDLINE-format text. Records are
// separated by blank lines; only the PMID, title, journal abbreviation and
// publication year fields are read. Records without a PMID are dropped.
func ParseMedline(text string) []models.Publication {
	publications := []models.Publication{}

	for _, record := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(record) == "" {
			continue
		}

		var pub models.Publication
		for _, line := range strings.Split(record, "\n") {
			switch {
			case strings.HasPrefix(line, "PMID- "):
				pub.ID = strings.TrimSpace(line[6:])
			case strings.HasPrefix(line, "TI  - "):
				pub.Title = strings.TrimSpace(line[6:])
			case strings.HasPrefix(line, "TA  - "):
				pub.Journal = strings.TrimSpace(line[6:])
			case strings.HasPrefix(line, "DP  - "):
				pub.Year = parseYear(strings.TrimSpace(line[6:]))
			}
		}

		if pub.ID != "" {
			publications = append(publications, pub)
		}
	}

	return publications
}

// parseYear returns the leading token of a DP field when it is numeric,
// otherwise the fallback year.
func parseYear(date string) string {
	fields := strings.Fields(date)
	if len(fields) == 0 {
		return fallbackYear
	}

	year := fields[0]
	for _, r := range year {
		if !unicode.IsDigit(r) {
			return fallbackYear
		}
	}
	return year
}
