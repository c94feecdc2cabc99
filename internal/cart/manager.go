package cart

import (
	"sync"
	"time"

	pkgerrors "github.com/scentlane/storefront-backend/pkg/errors"
)

// Manager hands out one Store per storefront session so the in-memory
// attention signal survives across requests. Item state itself always
// round-trips through persistence, so evicting an idle store only costs a
// rehydrate on the next request.
type Manager struct {
	mu          sync.Mutex
	stores      map[string]*Store
	persistence Persistence
	signalDecay time.Duration
}

func NewManager(persistence Persistence, signalDecay time.Duration) (*Manager, error) {
	if persistence == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart manager requires persistence")
	}
	if signalDecay <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart manager requires a positive signal decay")
	}
	return &Manager{
		stores:      make(map[string]*Store),
		persistence: persistence,
		signalDecay: signalDecay,
	}, nil
}

// Store returns the session's cart store, creating one on first use.
func (m *Manager) Store(sessionID string) (*Store, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if store, ok := m.stores[sessionID]; ok {
		return store, nil
	}

	store, err := NewStore(sessionID, m.persistence, m.signalDecay)
	if err != nil {
		return nil, err
	}
	m.stores[sessionID] = store
	return store, nil
}

// Evict drops the in-memory store for a session. Persisted items are untouched.
func (m *Manager) Evict(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, sessionID)
}
