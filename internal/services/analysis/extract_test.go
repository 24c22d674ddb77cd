package analysis

import (
	"reflect"
	"testing"
)

func TestExtractFindingsAndKeywords(t *testing.T) {
	tests := []struct {
		name         string
		analysis     string
		wantFindings []string
		wantKeywords []string
	}{
		{
			name: "numbered impression items",
			analysis: "Radiological Analysis\nThe chest radiograph shows changes.\n\nImpression:\n" +
				"1. Bilateral infiltrates consistent with pneumonia\n" +
				"2. Mild cardiomegaly",
			wantFindings: []string{
				"Bilateral infiltrates consistent with pneumonia",
				"Mild cardiomegaly",
			},
			wantKeywords: []string{"bilateral", "infiltrates", "consistent", "pneumonia", "cardiomegaly"},
		},
		{
			name:         "bulleted impression items",
			analysis:     "Impression:\n- Left pleural effusion\n* Compression fracture noted",
			wantFindings: []string{"Left pleural effusion", "Compression fracture noted"},
			wantKeywords: []string{"pleural", "effusion", "compression", "fracture", "noted"},
		},
		{
			name:         "no impression section",
			analysis:     "The image shows possible pneumothorax and small nodule formation.",
			wantFindings: []string{},
			wantKeywords: []string{"nodule", "pneumothorax"},
		},
		{
			name:         "empty text",
			analysis:     "",
			wantFindings: []string{},
			wantKeywords: []string{},
		},
		{
			name:         "plain lines under impression are skipped",
			analysis:     "Impression:\nOverall stable appearance.\n1. No acute findings",
			wantFindings: []string{"No acute findings"},
			wantKeywords: []string{"acute", "findings"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings, keywords := ExtractFindingsAndKeywords(tt.analysis)
			if !reflect.DeepEqual(findings, tt.wantFindings) {
				t.Errorf("findings = %v, want %v", findings, tt.wantFindings)
			}
			if !reflect.DeepEqual(keywords, tt.wantKeywords) {
				t.Errorf("keywords = %v, want %v", keywords, tt.wantKeywords)
			}
		})
	}
}

func TestExtractKeywordsCapped(t *testing.T) {
	analysis := "Impression:\n1. Extensive bilateral consolidation involving multiple segments suggesting severe multifocal pneumonia"
	_, keywords := ExtractFindingsAndKeywords(analysis)
	if len(keywords) != 5 {
		t.Errorf("Expected keywords capped at 5, got %d: %v", len(keywords), keywords)
	}
}

func TestExtractKeywordsDeduplicated(t *testing.T) {
	analysis := "Impression:\n1. Effusion noted\n2. Effusion persists"
	_, keywords := ExtractFindingsAndKeywords(analysis)

	seen := map[string]int{}
	for _, k := range keywords {
		seen[k]++
	}
	if seen["effusion"] != 1 {
		t.Errorf("Expected effusion once, got %d in %v", seen["effusion"], keywords)
	}
}

func TestCleanListItem(t *testing.T) {
	tests := []struct {
		item string
		want string
	}{
		{item: "1. First finding", want: "First finding"},
		{item: "10. Tenth finding", want: "Tenth finding"},
		{item: "- Dashed finding", want: "Dashed finding"},
		{item: "* Starred finding", want: "Starred finding"},
		{item: "2mm nodule", want: "2mm nodule"},
	}

	for _, tt := range tests {
		if got := cleanListItem(tt.item); got != tt.want {
			t.Errorf("cleanListItem(%q) = %q, want %q", tt.item, got, tt.want)
		}
	}
}
