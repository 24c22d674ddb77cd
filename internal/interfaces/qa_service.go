package interfaces

import "context"

// AnswerResult is the answer-shaped value returned for every QA question.
// Failures are folded into the Answer text with Degraded set, so callers
// never need a separate error branch from the success branch.
type AnswerResult struct {
	Answer   string   `json:"answer"`
	Degraded bool     `json:"degraded"`
	Contexts []string `json:"contexts,omitempty"`
}

// ContextRetriever selects the stored report texts most relevant to a query.
type ContextRetriever interface {
	// Retrieve returns up to topK report text blocks ranked by cosine
	// similarity against the query embedding. An empty store yields a single
	// sentinel block that callers must special-case.
	Retrieve(ctx context.Context, query string, topK int) ([]string, error)
}

// QASession answers questions about stored reports while maintaining a
// bounded conversation history. A session belongs to exactly one user
// session; it is not safe for concurrent use.
type QASession interface {
	// Answer responds to a question using retrieval-augmented generation.
	Answer(ctx context.Context, question string) AnswerResult

	// Clear resets conversation history and returns a confirmation message.
	// Clearing an already-empty history is a no-op with the same message.
	Clear() string

	// History returns a copy of the current conversation turns.
	History() []Message
}
