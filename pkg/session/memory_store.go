package session

import (
	"context"
	"sync"
	"time"
)

// memoryStore keeps sessions in process memory with a periodic expiry sweep.
// Suitable for development and single-instance deployments.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	stop     chan struct{}
	closed   bool
}

// NewMemoryStore creates an in-memory session store. cleanupInterval governs
// how often expired sessions are swept; zero disables the sweeper.
func NewMemoryStore(cleanupInterval time.Duration) Store {
	s := &memoryStore{
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go s.sweep(cleanupInterval)
	}
	return s
}

func (m *memoryStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Token] = s
	return nil
}

func (m *memoryStore) Get(_ context.Context, token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrNotFound
	}
	if s.IsExpired() {
		return nil, ErrExpired
	}
	return s, nil
}

func (m *memoryStore) Update(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.Token]; !ok {
		return ErrNotFound
	}
	m.sessions[s.Token] = s
	return nil
}

func (m *memoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// Close stops the expiry sweeper.
func (m *memoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.stop)
	}
	return nil
}

func (m *memoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for token, s := range m.sessions {
				if now.After(s.ExpiresAt) {
					delete(m.sessions, token)
				}
			}
			m.mu.Unlock()
		}
	}
}
