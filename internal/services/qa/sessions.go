package qa

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/common"
	"github.com/ternarybob/mediscan/internal/interfaces"
)

// managedSession pairs a session with the mutex that serializes its use.
type managedSession struct {
	mu      sync.Mutex
	session *Session
}

// SessionManager owns one QA session per client session id. Sessions are
// created lazily on first use and live until the process exits; history is
// deliberately in-memory only.
type SessionManager struct {
	mu        sync.Mutex
	sessions  map[string]*managedSession
	retriever interfaces.ContextRetriever
	llm       interfaces.LLMService
	config    *common.QAConfig
	logger    arbor.ILogger
}

// NewSessionManager creates an empty session manager.
func NewSessionManager(retriever interfaces.ContextRetriever, llm interfaces.LLMService, config *common.QAConfig, logger arbor.ILogger) *SessionManager {
	return &SessionManager{
		sessions:  make(map[string]*managedSession),
		retriever: retriever,
		llm:       llm,
		config:    config,
		logger:    logger,
	}
}

// Ask answers a question within the named session, creating it if needed.
func (m *SessionManager) Ask(ctx context.Context, sessionID, question string) interfaces.AnswerResult {
	ms := m.get(sessionID)
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.session.Answer(ctx, question)
}

// Clear resets the named session's history and returns the confirmation
// message. Clearing an unknown session creates and clears an empty one.
func (m *SessionManager) Clear(sessionID string) string {
	ms := m.get(sessionID)
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.session.Clear()
}

// History returns the conversation turns of the named session.
func (m *SessionManager) History(sessionID string) []interfaces.Message {
	ms := m.get(sessionID)
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.session.History()
}

func (m *SessionManager) get(sessionID string) *managedSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, ok := m.sessions[sessionID]
	if !ok {
		ms = &managedSession{
			session: NewSession(m.retriever, m.llm, m.config, m.logger),
		}
		m.sessions[sessionID] = ms
		m.logger.Debug().Str("session_id", sessionID).Msg("QA session created")
	}
	return ms
}
