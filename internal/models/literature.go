package models

// Publication is a single bibliographic search result.
type Publication struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Journal string `json:"journal"`
	Year    string `json:"year"`
}

// ClinicalTrial is a related clinical trial reference.
type ClinicalTrial struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Phase  string `json:"phase"`
}
