package authstate

import (
	"sync"

	"FreshCart/events"
	"FreshCart/tokenstore"
)

// Manager hands out the per-session auth store, creating and hydrating
// it on first sight of a session ID.
type Manager struct {
	mu       sync.RWMutex
	stores   map[string]*Store
	backend  Backend
	tokens   *tokenstore.Store
	producer *events.Producer
}

func NewManager(backend Backend, tokens *tokenstore.Store, producer *events.Producer) *Manager {
	return &Manager{
		stores:   make(map[string]*Store),
		backend:  backend,
		tokens:   tokens,
		producer: producer,
	}
}

func (m *Manager) GetOrCreate(sessionID string) *Store {
	m.mu.RLock()
	store, exists := m.stores[sessionID]
	m.mu.RUnlock()
	if exists {
		return store
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if store, exists := m.stores[sessionID]; exists {
		return store
	}
	store = NewStore(sessionID, m.backend, m.tokens, m.producer)
	m.stores[sessionID] = store
	return store
}
