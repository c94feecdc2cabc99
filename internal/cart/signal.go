package cart

import "time"

// AttentionSignal flags that the cart just changed so the UI can glow the
// cart icon. A trigger arms the signal for a fixed decay window; reads after
// the window, or a second read of the same trigger, see it off.
type AttentionSignal struct {
	decay     time.Duration
	expiresAt time.Time
	now       func() time.Time
}

// NewAttentionSignal builds a signal with the given decay window.
func NewAttentionSignal(decay time.Duration) *AttentionSignal {
	return &AttentionSignal{decay: decay, now: time.Now}
}

// Trigger arms the signal. Re-triggering while armed restarts the window.
func (s *AttentionSignal) Trigger() {
	s.expiresAt = s.now().Add(s.decay)
}

// Consume reports whether the signal is armed and disarms it. Each trigger is
// observable at most once.
func (s *AttentionSignal) Consume() bool {
	if s.expiresAt.IsZero() || s.now().After(s.expiresAt) {
		return false
	}
	s.expiresAt = time.Time{}
	return true
}

// Active reports whether the signal is armed without consuming it.
func (s *AttentionSignal) Active() bool {
	return !s.expiresAt.IsZero() && !s.now().After(s.expiresAt)
}
