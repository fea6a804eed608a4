package session

import (
	"sync"

	"github.com/google/uuid"
)

// Manager tracks live sessions keyed by participant id. Ids are short
// uuid prefixes: stable for the session's lifetime, not guaranteed
// globally unique across restarts (collision odds accepted).
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	taskCount int
}

func NewManager(taskCount int) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		taskCount: taskCount,
	}
}

func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()[:8]
	for m.sessions[id] != nil {
		id = uuid.NewString()[:8]
	}
	s := newSession(id, m.taskCount)
	m.sessions[id] = s
	return s
}

func (m *Manager) Get(userID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

func (m *Manager) Remove(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
