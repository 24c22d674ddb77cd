package pubmed

import "testing"

const sampleMedline = `PMID- 36690042
OWN - NLM
TI  - Community-acquired pneumonia in adults: diagnosis and management.
TA  - Am Fam Physician
DP  - 2023 Feb

PMID- 35123456
TI  - Pleural effusion imaging review.
TA  - Radiol Clin North Am
DP  - Spring 2022

OWN - NLM
TI  - Record without a PMID is dropped.
`

func TestParseMedline(t *testing.T) {
	publications := ParseMedline(sampleMedline)
	if len(publications) != 2 {
		t.Fatalf("Expected 2 publications, got %d", len(publications))
	}

	first := publications[0]
	if first.ID != "36690042" {
		t.Errorf("Unexpected id: %s", first.ID)
	}
	if first.Title != "Community-acquired pneumonia in adults: diagnosis and management." {
		t.Errorf("Unexpected title: %s", first.Title)
	}
	if first.Journal != "Am Fam Physician" {
		t.Errorf("Unexpected journal: %s", first.Journal)
	}
	if first.Year != "2023" {
		t.Errorf("Unexpected year: %s", first.Year)
	}

	// Non-numeric leading token falls back to the default year
	if publications[1].Year != fallbackYear {
		t.Errorf("Expected fallback year, got %s", publications[1].Year)
	}
}

func TestParseMedlineEmpty(t *testing.T) {
	if got := ParseMedline(""); len(got) != 0 {
		t.Errorf("Expected no publications, got %v", got)
	}
	if got := ParseMedline("\n\n\n"); len(got) != 0 {
		t.Errorf("Expected no publications for blank records, got %v", got)
	}
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{date: "2023 Feb", want: "2023"},
		{date: "2021", want: "2021"},
		{date: "Winter 2020", want: fallbackYear},
		{date: "", want: fallbackYear},
	}

	for _, tt := range tests {
		if got := parseYear(tt.date); got != tt.want {
			t.Errorf("parseYear(%q) = %q, want %q", tt.date, got, tt.want)
		}
	}
}
