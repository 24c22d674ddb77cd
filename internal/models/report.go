package models

import "time"

// Report is a single stored medical image analysis. Reports are immutable
// once written to the analysis store; there is no update or delete path.
type Report struct {
	ID       string    `json:"id"`
	Analysis string    `json:"analysis"`
	Findings []string  `json:"findings"`
	Keywords []string  `json:"keywords"`
	Date     time.Time `json:"date"`
	Filename string    `json:"filename"`
}

// Embedding is a fixed-dimension vector for a piece of text. Synthetic marks
// vectors that were generated locally (no credential or provider failure) and
// therefore carry no semantic meaning. Callers ranking by similarity can
// inspect the flag instead of treating degraded vectors as real data.
type Embedding struct {
	Values    []float32 `json:"values"`
	Synthetic bool      `json:"synthetic"`
}

// Dimension returns the vector length.
func (e Embedding) Dimension() int {
	return len(e.Values)
}
