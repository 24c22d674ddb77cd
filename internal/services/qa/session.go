package qa

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/common"
	"github.com/ternarybob/mediscan/internal/interfaces"
)

const (
	// noCredentialAnswer is returned without any network call when no
	// provider credential is configured.
	noCredentialAnswer = "Please configure an API key to enable the QA system."

	// noReportsAnswer is returned when the analysis store is empty.
	noReportsAnswer = "I don't have any medical reports to reference. Please upload and analyze some images first."

	// clearConfirmation is returned by Clear regardless of prior state.
	clearConfirmation = "Conversation history cleared."
)

// Session answers questions about stored reports with retrieval-augmented
// generation, keeping a bounded conversation history. Not safe for
// concurrent use; the session manager serializes access.
type Session struct {
	retriever    interfaces.ContextRetriever
	llm          interfaces.LLMService
	history      []interfaces.Message
	topK         int
	historyLimit int
	logger       arbor.ILogger
}

// NewSession creates a QA session with empty history.
func NewSession(retriever interfaces.ContextRetriever, llm interfaces.LLMService, config *common.QAConfig, logger arbor.ILogger) *Session {
	return &Session{
		retriever:    retriever,
		llm:          llm,
		topK:         config.TopK,
		historyLimit: config.HistoryLimit,
		logger:       logger,
	}
}

// Answer responds to a question. Failures never surface as errors; they are
// folded into the answer text with Degraded set.
func (s *Session) Answer(ctx context.Context, question string) interfaces.AnswerResult {
	if !s.llm.Configured() {
		return interfaces.AnswerResult{Answer: noCredentialAnswer, Degraded: true}
	}

	contexts, err := s.retriever.Retrieve(ctx, question, s.topK)
	if err != nil {
		return s.errorResult(err)
	}

	if len(contexts) == 0 || contexts[0] == NoReportsSentinel {
		return interfaces.AnswerResult{Answer: noReportsAnswer}
	}

	s.history = append(s.history, interfaces.Message{Role: "user", Content: question})

	messages := make([]interfaces.Message, 0, len(s.history)+1)
	messages = append(messages, interfaces.Message{Role: "system", Content: buildAnswerSystemPrompt(contexts)})
	messages = append(messages, s.history...)

	answer, err := s.llm.Chat(ctx, messages)
	if err != nil {
		s.logger.Warn().Err(err).Msg("QA completion failed")
		return s.errorResult(err)
	}

	s.history = append(s.history, interfaces.Message{Role: "assistant", Content: answer})
	if len(s.history) > s.historyLimit {
		s.history = s.history[len(s.history)-s.historyLimit:]
	}

	return interfaces.AnswerResult{Answer: answer, Contexts: contexts}
}

// Clear resets conversation history. Idempotent.
func (s *Session) Clear() string {
	s.history = nil
	return clearConfirmation
}

// History returns a copy of the current conversation turns.
func (s *Session) History() []interfaces.Message {
	history := make([]interfaces.Message, len(s.history))
	copy(history, s.history)
	return history
}

func (s *Session) errorResult(err error) interfaces.AnswerResult {
	return interfaces.AnswerResult{
		Answer:   fmt.Sprintf("I encountered an error while answering your question: %s", err.Error()),
		Degraded: true,
	}
}

var _ interfaces.QASession = (*Session)(nil)
