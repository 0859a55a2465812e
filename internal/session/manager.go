package session

import (
	"sync"
	"time"
)

// Manager holds one Context per conversation id. Sessions never share
// state, so different sessions may be orchestrated concurrently.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Context
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a session manager. A non-zero ttl starts a background
// sweep that evicts sessions idle longer than ttl.
func NewManager(ttl time.Duration) *Manager {
	m := &Manager{
		sessions: make(map[string]*Context),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	if ttl > 0 {
		go m.sweep()
	}
	return m
}

// Get returns the context for a conversation id, creating it on first use.
func (m *Manager) Get(id string) *Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.sessions[id]; ok {
		c.Touch()
		return c
	}
	c := newContext(id)
	m.sessions[id] = c
	return c
}

// Lookup returns the context for an id without creating one.
func (m *Manager) Lookup(id string) (*Context, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.sessions[id]
	return c, ok
}

// Close tears down a session. Returns false if no such session existed.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Stop halts the idle sweep goroutine.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Manager) sweep() {
	ticker := time.NewTicker(m.ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-m.ttl)
			m.mu.Lock()
			for id, c := range m.sessions {
				if c.idleSince().Before(cutoff) {
					delete(m.sessions, id)
				}
			}
			m.mu.Unlock()
		}
	}
}
