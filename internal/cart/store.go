package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/scentlane/storefront-backend/internal/pricing"
	pkgerrors "github.com/scentlane/storefront-backend/pkg/errors"
)

// Emptiness is the observable cart state. Until hydration completes the state
// is unknown, so consumers can distinguish "not loaded yet" from "empty".
type Emptiness int

const (
	EmptinessUnknown Emptiness = iota
	EmptinessEmpty
	EmptinessNotEmpty
)

func (e Emptiness) String() string {
	switch e {
	case EmptinessEmpty:
		return "empty"
	case EmptinessNotEmpty:
		return "not_empty"
	default:
		return "unknown"
	}
}

// Store is the per-session cart. Mutations are write-through: the in-memory
// state only changes once the persisted snapshot is updated, and rolls back
// when the write fails.
type Store struct {
	mu          sync.Mutex
	sessionID   string
	persistence Persistence
	signal      *AttentionSignal
	items       []pricing.LineItem
	hydrated    bool
}

// NewStore builds a cart store for the session. Call Hydrate before any
// mutation.
func NewStore(sessionID string, persistence Persistence, signalDecay time.Duration) (*Store, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id required")
	}
	if persistence == nil {
		return nil, fmt.Errorf("persistence required")
	}
	return &Store{
		sessionID:   sessionID,
		persistence: persistence,
		signal:      NewAttentionSignal(signalDecay),
	}, nil
}

// Hydrate loads the persisted cart. A corrupted payload resets the cart to
// empty, overwrites the stored snapshot, and returns an error wrapping
// ErrCorrupted so the caller can log the recovery; the store is still usable.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated {
		return nil
	}

	items, found, err := s.persistence.Load(ctx, s.sessionID)
	if err != nil {
		if !errors.Is(err, ErrCorrupted) {
			return err
		}
		s.items = nil
		s.hydrated = true
		if saveErr := s.persistence.Save(ctx, s.sessionID, nil); saveErr != nil {
			return saveErr
		}
		return err
	}

	if found {
		s.items = items
	}
	s.hydrated = true
	return nil
}

// Emptiness reports the observable cart state.
func (s *Store) Emptiness() Emptiness {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hydrated {
		return EmptinessUnknown
	}
	if len(s.items) == 0 {
		return EmptinessEmpty
	}
	return EmptinessNotEmpty
}

// Items returns a copy of the current lines.
func (s *Store) Items() []pricing.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pricing.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// ItemCount returns the sum of quantities across all lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// Add merges the item into the cart. An existing line for the same variant
// gains the added quantity; otherwise a new line is appended. The attention
// signal is armed on success.
func (s *Store) Add(ctx context.Context, item pricing.LineItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureHydrated(); err != nil {
		return err
	}

	next := make([]pricing.LineItem, len(s.items))
	copy(next, s.items)

	merged := false
	for i := range next {
		if next[i].SameVariant(item) {
			next[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		next = append(next, item)
	}

	if err := s.persistence.Save(ctx, s.sessionID, next); err != nil {
		return err
	}
	s.items = next
	s.signal.Trigger()
	return nil
}

// Remove decrements the matching variant's quantity by one, dropping the line
// when it reaches zero. Removing a variant that is not in the cart is a no-op.
func (s *Store) Remove(ctx context.Context, productID, size, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureHydrated(); err != nil {
		return err
	}

	target := pricing.LineItem{ProductID: productID, Size: size, Color: color}
	idx := -1
	for i := range s.items {
		if s.items[i].SameVariant(target) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}

	next := make([]pricing.LineItem, len(s.items))
	copy(next, s.items)
	if next[idx].Quantity > 1 {
		next[idx].Quantity--
	} else {
		next = append(next[:idx], next[idx+1:]...)
	}

	if err := s.persistence.Save(ctx, s.sessionID, next); err != nil {
		return err
	}
	s.items = next
	return nil
}

// Clear empties the cart and removes the persisted snapshot.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureHydrated(); err != nil {
		return err
	}

	if err := s.persistence.Delete(ctx, s.sessionID); err != nil {
		return err
	}
	s.items = nil
	return nil
}

// ConsumeSignal reports and disarms the attention signal.
func (s *Store) ConsumeSignal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signal.Consume()
}

func (s *Store) ensureHydrated() error {
	if !s.hydrated {
		return pkgerrors.New(pkgerrors.CodeHydration, "cart has not been hydrated")
	}
	return nil
}
