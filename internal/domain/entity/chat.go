package entity

import "sync"

// Role identifies the author of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is a single message in a conversation.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatSession is the bounded turn log of one logged-in user.
// Turns alternate User, Assistant; the log is trimmed oldest-first
// whenever it exceeds the configured number of exchanges. The log has
// a single writer per session but concurrent readers (history polling
// while an answer resolves), so access is guarded internally.
type ChatSession struct {
	mu           sync.RWMutex
	turns        []ChatTurn
	maxExchanges int
}

// DefaultMaxExchanges keeps the last 3 question/answer pairs (6 turns).
const DefaultMaxExchanges = 3

func NewChatSession(maxExchanges int) *ChatSession {
	if maxExchanges <= 0 {
		maxExchanges = DefaultMaxExchanges
	}
	return &ChatSession{maxExchanges: maxExchanges}
}

// Append adds a turn to the log. Callers append the matching assistant
// turn in the same exchange; the log is transiently odd in between.
func (s *ChatSession) Append(turn ChatTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
}

// TrimToBound drops the oldest turns beyond the exchange bound.
func (s *ChatSession) TrimToBound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := s.maxExchanges * 2
	if len(s.turns) > max {
		s.turns = append(s.turns[:0:0], s.turns[len(s.turns)-max:]...)
	}
}

// Clear empties the log. Called on logout.
func (s *ChatSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

// Turns returns a copy of the current log, oldest first.
func (s *ChatSession) Turns() []ChatTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChatTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *ChatSession) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}
