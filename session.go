package agent

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/generative-ai-go/genai"
)

// Session is one conversation. Contents is the full transcript, oldest first.
type Session struct {
	ID       string
	UserID   string
	Contents []*genai.Content

	mu sync.Mutex
}

// SessionStore keeps sessions in memory.
type SessionStore struct {
	counter  atomic.Uint64
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session with the given id, creating it for userID
// when missing. An empty id allocates a fresh one. A session belongs to the
// user that created it.
func (m *SessionStore) GetOrCreate(id, userID string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = fmt.Sprintf("session-%d", m.counter.Add(1))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		if s.UserID != userID {
			return nil, fmt.Errorf("session %s belongs to another user", id)
		}
		return s, nil
	}
	s := &Session{ID: id, UserID: userID}
	m.sessions[id] = s
	return s, nil
}

func (m *SessionStore) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *SessionStore) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// IDs returns the active session ids, sorted.
func (m *SessionStore) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
