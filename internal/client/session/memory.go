package session

import (
	"context"
	"sync"
)

// MemoryStore keeps the session for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	state State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, nil
}

func (m *MemoryStore) Save(_ context.Context, s State) error {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.state = State{}
	m.mu.Unlock()
	return nil
}
