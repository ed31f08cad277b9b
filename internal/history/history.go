package history

import (
	"sync"
	"time"

	"storefront-chat/internal/llm"
)

const DefaultMaxTurns = 20

// Turn is one message of a session. Turns are never modified after Append.
type Turn struct {
	Role      string
	Content   string
	Timestamp time.Time
}

type session struct {
	turns      []Turn
	lastActive time.Time
}

// Manager keeps the recent turns of every session in memory.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session
	maxTurns int
	now      func() time.Time
}

func NewManager(maxTurns int) *Manager {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Manager{
		sessions: make(map[string]*session),
		maxTurns: maxTurns,
		now:      time.Now,
	}
}

func (m *Manager) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) AppendUser(sessionID, content string) {
	m.Append(sessionID, llm.RoleUser, content)
}

func (m *Manager) AppendAssistant(sessionID, content string) {
	m.Append(sessionID, llm.RoleAssistant, content)
}

// Append stores a turn and drops the oldest ones beyond the turn limit.
func (m *Manager) Append(sessionID, role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s, ok := m.sessions[sessionID]
	if !ok {
		s = &session{}
		m.sessions[sessionID] = s
	}
	s.turns = append(s.turns, Turn{Role: role, Content: content, Timestamp: now})
	if over := len(s.turns) - m.maxTurns; over > 0 {
		// copy so the dropped head does not pin the old backing array
		s.turns = append([]Turn(nil), s.turns[over:]...)
	}
	s.lastActive = now
}

// Replay returns the session as prompt messages in insertion order.
func (m *Manager) Replay(sessionID string) []llm.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return []llm.Message{}
	}
	out := make([]llm.Message, 0, len(s.turns))
	for _, t := range s.turns {
		role := llm.RoleUser
		if t.Role == llm.RoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: t.Content})
	}
	return out
}

func (m *Manager) Turns(sessionID string) []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	return append([]Turn(nil), s.turns...)
}

// SweepIdle drops sessions without activity for longer than ttl.
// A zero ttl disables the sweep.
func (m *Manager) SweepIdle(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-ttl)
	removed := 0
	for id, s := range m.sessions {
		if s.lastActive.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
