package checkout

import (
	"time"

	"github.com/scentlane/storefront-backend/internal/pricing"
)

// Mode records which source a checkout session was built from.
type Mode string

const (
	ModeCart   Mode = "cart"
	ModeBuyNow Mode = "buyNow"
)

// Session is an immutable snapshot of what the shopper is about to buy.
// Once built, later cart changes never leak into it.
type Session struct {
	mode      Mode
	items     []pricing.LineItem
	totals    pricing.Result
	createdAt time.Time
}

func newSession(mode Mode, items []pricing.LineItem, totals pricing.Result, createdAt time.Time) *Session {
	copied := make([]pricing.LineItem, len(items))
	copy(copied, items)
	return &Session{
		mode:      mode,
		items:     copied,
		totals:    totals,
		createdAt: createdAt,
	}
}

// Mode returns the session's source mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// Items returns a copy of the snapshotted lines.
func (s *Session) Items() []pricing.LineItem {
	out := make([]pricing.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Totals returns the priced breakdown captured at build time.
func (s *Session) Totals() pricing.Result {
	return s.totals
}

// CreatedAt returns when the snapshot was taken.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// ItemCount returns the sum of quantities in the snapshot.
func (s *Session) ItemCount() int {
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}
