package usecase

import (
	"sync"

	"github.com/google/uuid"

	"policychat/internal/domain/entity"
)

// Session is the server-side state of one logged-in user: an opaque
// token, the collections the user may query, and a bounded chat
// history. The mutex serializes questions within the session.
type Session struct {
	Token       string
	Email       string
	Collections []string
	History     *entity.ChatSession

	mu sync.Mutex
}

// Allowed reports whether the session may query the collection.
func (s *Session) Allowed(collection string) bool {
	for _, c := range s.Collections {
		if c == collection {
			return true
		}
	}
	return false
}

// DefaultCollection is the collection used when a request names none.
func (s *Session) DefaultCollection() string {
	if len(s.Collections) == 0 {
		return ""
	}
	return s.Collections[0]
}

// SessionManager owns the login lifecycle over a static per-user
// access-control mapping (email -> allowed collections). Distinct
// sessions are independent; only the semantic cache and the document
// index are shared across them.
type SessionManager struct {
	mu           sync.RWMutex
	access       map[string][]string
	sessions     map[string]*Session
	maxExchanges int
}

func NewSessionManager(access map[string][]string, maxExchanges int) *SessionManager {
	return &SessionManager{
		access:       access,
		sessions:     make(map[string]*Session),
		maxExchanges: maxExchanges,
	}
}

// Login creates a session for a known user; unknown emails are
// rejected with ErrUnauthorized.
func (m *SessionManager) Login(email string) (*Session, error) {
	collections, ok := m.access[email]
	if !ok {
		return nil, entity.ErrUnauthorized
	}

	sess := &Session{
		Token:       uuid.NewString(),
		Email:       email,
		Collections: collections,
		History:     entity.NewChatSession(m.maxExchanges),
	}

	m.mu.Lock()
	m.sessions[sess.Token] = sess
	m.mu.Unlock()
	return sess, nil
}

// Logout clears the session history and forgets the token.
func (m *SessionManager) Logout(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[token]
	if !ok {
		return entity.ErrSessionNotFound
	}
	sess.History.Clear()
	delete(m.sessions, token)
	return nil
}

// Get resolves a session token.
func (m *SessionManager) Get(token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[token]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return sess, nil
}
