package analysis

import "strings"

// keywordStopwords are common words excluded from keyword extraction.
var keywordStopwords = map[string]bool{
	"about": true,
	"with":  true,
	"that":  true,
	"this":  true,
	"these": true,
	"those": true,
}

// commonRadiologicalTerms are always promoted to keywords when they appear
// anywhere in the analysis text.
var commonRadiologicalTerms = []string{
	"pneumonia", "infiltrates", "opacities", "nodule", "mass", "tumor",
	"cardiomegaly", "effusion", "consolidation", "atelectasis", "edema",
	"fracture", "fibrosis", "emphysema", "pneumothorax", "metastasis",
}

// maxKeywords caps the keyword list per report.
const maxKeywords = 5

// ExtractFindingsAndKeywords pulls structured findings and search keywords
// out of free-form analysis text. Findings come from list items under the
// "Impression:" section; keywords are the longer finding words plus any
// common radiological terms present in the full text, deduplicated in order
// of first appearance.
func ExtractFindingsAndKeywords(analysisText string) ([]string, []string) {
	findings := []string{}
	keywords := []string{}

	if _, impression, ok := strings.Cut(analysisText, "Impression:"); ok {
		for _, item := range strings.Split(strings.TrimSpace(impression), "\n") {
			item = strings.TrimSpace(item)
			if item == "" || !isListItem(item) {
				continue
			}

			finding := cleanListItem(item)
			findings = append(findings, finding)

			for _, word := range strings.Fields(finding) {
				word = strings.ToLower(strings.Trim(word, ",.:;()"))
				if len(word) > 4 && !keywordStopwords[word] {
					keywords = append(keywords, word)
				}
			}
		}
	}

	lowerText := strings.ToLower(analysisText)
	for _, term := range commonRadiologicalTerms {
		if strings.Contains(lowerText, term) && !contains(keywords, term) {
			keywords = append(keywords, term)
		}
	}

	keywords = dedupe(keywords)
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}

	return findings, keywords
}

// isListItem reports whether a line looks like a numbered or bulleted item.
func isListItem(item string) bool {
	c := item[0]
	return (c >= '0' && c <= '9') || c == '-' || c == '*'
}

// cleanListItem strips the "N." or bullet prefix from a list item.
func cleanListItem(item string) string {
	c := item[0]
	if c >= '0' && c <= '9' {
		head := item
		if len(head) > 3 {
			head = item[:3]
		}
		if strings.Contains(head, ".") {
			_, rest, _ := strings.Cut(item, ".")
			return strings.TrimSpace(rest)
		}
		return item
	}
	if c == '-' || c == '*' {
		return strings.TrimSpace(item[1:])
	}
	return item
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}

// dedupe removes duplicates while preserving first-occurrence order.
func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
