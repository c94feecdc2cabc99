package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/scentlane/storefront-backend/api/middleware"
	"github.com/scentlane/storefront-backend/api/responses"
	"github.com/scentlane/storefront-backend/api/validators"
	"github.com/scentlane/storefront-backend/internal/cart"
	"github.com/scentlane/storefront-backend/internal/checkout"
	"github.com/scentlane/storefront-backend/internal/pricing"
	pkgerrors "github.com/scentlane/storefront-backend/pkg/errors"
	"github.com/scentlane/storefront-backend/pkg/logger"
)

// BuyNowStager is the slice of the buy-now store the checkout routes use.
type BuyNowStager interface {
	Put(ctx context.Context, sessionID string, item pricing.LineItem) error
	Get(ctx context.Context, sessionID string) (pricing.LineItem, bool, error)
	Delete(ctx context.Context, sessionID string) error
}

type BuildCheckoutRequest struct {
	Source string `json:"source" validate:"required,oneof=cart buyNow"`
}

type CheckoutSessionView struct {
	Mode      checkout.Mode      `json:"mode"`
	Items     []pricing.LineItem `json:"items"`
	ItemCount int                `json:"item_count"`
	Totals    pricing.Result     `json:"totals"`
	CreatedAt time.Time          `json:"created_at"`
}

func checkoutSessionView(session *checkout.Session) CheckoutSessionView {
	return CheckoutSessionView{
		Mode:      session.Mode(),
		Items:     session.Items(),
		ItemCount: session.ItemCount(),
		Totals:    session.Totals(),
		CreatedAt: session.CreatedAt(),
	}
}

// CheckoutBuild snapshots the chosen purchase source into a priced, immutable
// checkout session and returns it for review.
func CheckoutBuild(builder *checkout.Builder, mgr *cart.Manager, buyNow BuyNowStager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if builder == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout builder unavailable"))
			return
		}

		var req BuildCheckoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())

		session, err := buildSession(r, builder, mgr, buyNow, checkout.Mode(req.Source), sessionID, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, checkoutSessionView(session))
	}
}

// CheckoutStageBuyNow stages a single item for the buy-now path without
// touching the cart.
func CheckoutStageBuyNow(buyNow BuyNowStager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if buyNow == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "buy-now store unavailable"))
			return
		}

		var req AddCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := req.lineItem()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if err := buyNow.Put(r.Context(), sessionID, item); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// CheckoutDiscardBuyNow drops the staged buy-now item when the shopper
// abandons the flow. Missing snapshots are fine, the delete is idempotent.
func CheckoutDiscardBuyNow(buyNow BuyNowStager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if buyNow == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "buy-now store unavailable"))
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if err := buyNow.Delete(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"discarded": true})
	}
}

// buildSession assembles a checkout session from either purchase source. The
// cart path hydrates first so a cold process can still check out a persisted
// cart.
func buildSession(r *http.Request, builder *checkout.Builder, mgr *cart.Manager, buyNow BuyNowStager, mode checkout.Mode, sessionID string, logg *logger.Logger) (*checkout.Session, error) {
	switch mode {
	case checkout.ModeCart:
		if mgr == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart manager unavailable")
		}
		store, err := mgr.Store(sessionID)
		if err != nil {
			return nil, err
		}
		if err := hydrateTolerant(r, store, logg); err != nil {
			return nil, err
		}
		return builder.BuildFromCart(store)
	case checkout.ModeBuyNow:
		if buyNow == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "buy-now store unavailable")
		}
		return builder.BuildFromBuyNow(r.Context(), buyNow, sessionID)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "source must be cart or buyNow")
	}
}
