package controllers

import (
	"net/http"

	"github.com/scentlane/storefront-backend/api/middleware"
	"github.com/scentlane/storefront-backend/api/responses"
	"github.com/scentlane/storefront-backend/api/validators"
	"github.com/scentlane/storefront-backend/internal/cart"
	"github.com/scentlane/storefront-backend/internal/checkout"
	internalorders "github.com/scentlane/storefront-backend/internal/orders"
	pkgerrors "github.com/scentlane/storefront-backend/pkg/errors"
	"github.com/scentlane/storefront-backend/pkg/logger"
)

// SubmitOrderRequest is the checkout form plus the purchase source the
// session should be rebuilt from at submission time.
type SubmitOrderRequest struct {
	Source string `json:"source" validate:"required,oneof=cart buyNow"`
	internalorders.SubmitOrderInput
}

// OrderSubmit rebuilds the checkout session from its source and hands it to
// the submission service. The snapshot is built and submitted in one request
// so stale review-page sessions can never be charged.
func OrderSubmit(svc internalorders.Service, builder *checkout.Builder, mgr *cart.Manager, buyNow BuyNowStager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		if builder == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout builder unavailable"))
			return
		}

		var req SubmitOrderRequest
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

		order, err := svc.Submit(r.Context(), sessionID, session, req.SubmitOrderInput)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if session.Mode() == checkout.ModeCart && mgr != nil {
			mgr.Evict(sessionID)
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
