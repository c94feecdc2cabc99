package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/scentlane/storefront-backend/internal/cart"
	"github.com/scentlane/storefront-backend/internal/pricing"
	pkgerrors "github.com/scentlane/storefront-backend/pkg/errors"
)

// CartSource is the slice of the cart store the builder reads.
type CartSource interface {
	Emptiness() cart.Emptiness
	Items() []pricing.LineItem
}

// BuyNowSource returns the transient single-item snapshot for a session.
type BuyNowSource interface {
	Get(ctx context.Context, sessionID string) (pricing.LineItem, bool, error)
}

// Builder turns a purchase source into an immutable checkout session priced
// under the deployment policy.
type Builder struct {
	engine *pricing.Engine
	now    func() time.Time
}

// NewBuilder returns a builder pricing with the given engine.
func NewBuilder(engine *pricing.Engine) (*Builder, error) {
	if engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	return &Builder{engine: engine, now: time.Now}, nil
}

// BuildFromCart snapshots the hydrated cart. An unhydrated cart cannot be
// checked out, and an empty cart yields an empty-source error.
func (b *Builder) BuildFromCart(source CartSource) (*Session, error) {
	switch source.Emptiness() {
	case cart.EmptinessUnknown:
		return nil, pkgerrors.New(pkgerrors.CodeHydration, "cart has not been hydrated")
	case cart.EmptinessEmpty:
		return nil, pkgerrors.New(pkgerrors.CodeEmptySource, "cart is empty")
	}

	items := source.Items()
	return newSession(ModeCart, items, b.engine.ComputeTotals(items), b.now()), nil
}

// BuildFromBuyNow snapshots the session's buy-now item, bypassing the cart
// entirely. A missing snapshot yields an empty-source error.
func (b *Builder) BuildFromBuyNow(ctx context.Context, source BuyNowSource, sessionID string) (*Session, error) {
	item, found, err := source.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeEmptySource, "no buy-now item staged")
	}

	items := []pricing.LineItem{item}
	return newSession(ModeBuyNow, items, b.engine.ComputeTotals(items), b.now()), nil
}
