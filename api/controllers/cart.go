package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/scentlane/storefront-backend/api/middleware"
	"github.com/scentlane/storefront-backend/api/responses"
	"github.com/scentlane/storefront-backend/api/validators"
	"github.com/scentlane/storefront-backend/internal/cart"
	"github.com/scentlane/storefront-backend/internal/pricing"
	pkgerrors "github.com/scentlane/storefront-backend/pkg/errors"
	"github.com/scentlane/storefront-backend/pkg/logger"
)

type AddCartItemRequest struct {
	ProductID     string `json:"product_id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Price         string `json:"price" validate:"required"`
	Quantity      int    `json:"quantity" validate:"required,min=1"`
	SelectedSize  string `json:"selected_size"`
	SelectedColor string `json:"selected_color"`
	ImageURL      string `json:"image_url"`
	OnSale        bool   `json:"on_sale"`
	NewArrival    bool   `json:"new_arrival"`
}

// lineItem turns the request into a validated line, carrying the catalog
// flags the product detail page sent along.
func (req AddCartItemRequest) lineItem() (pricing.LineItem, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil {
		return pricing.LineItem{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "price must be a decimal string")
	}

	item, err := pricing.NewLineItem(req.ProductID, req.Name, price, req.Quantity, req.SelectedSize, req.SelectedColor, req.ImageURL)
	if err != nil {
		return pricing.LineItem{}, err
	}
	item.OnSale = req.OnSale
	item.NewArrival = req.NewArrival
	return item, nil
}

type CartView struct {
	Items     []pricing.LineItem `json:"items"`
	ItemCount int                `json:"item_count"`
	Emptiness string             `json:"emptiness"`
	Attention bool               `json:"attention"`
	Totals    pricing.Result     `json:"totals"`
}

// CartFetch returns the hydrated cart with computed totals. Reading the cart
// consumes the pending attention signal, so a second fetch comes back calm.
func CartFetch(mgr *cart.Manager, engine *pricing.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionStore(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := hydrateTolerant(r, store, logg); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartView(store, engine))
	}
}

// CartAddItem merges one line into the cart and persists the result.
func CartAddItem(mgr *cart.Manager, engine *pricing.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionStore(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
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

		if err := hydrateTolerant(r, store, logg); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.Add(r.Context(), item); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, cartView(store, engine))
	}
}

// CartRemoveItem decrements one unit of the addressed variant. Quantity one
// drops the line; a missing variant is a no-op.
func CartRemoveItem(mgr *cart.Manager, engine *pricing.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionStore(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		productID := strings.TrimSpace(query.Get("product_id"))
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product_id query parameter required"))
			return
		}
		size := strings.TrimSpace(query.Get("selected_size"))
		color := strings.TrimSpace(query.Get("selected_color"))

		if err := hydrateTolerant(r, store, logg); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.Remove(r.Context(), productID, size, color); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartView(store, engine))
	}
}

// CartClear empties the cart and removes its snapshot.
func CartClear(mgr *cart.Manager, engine *pricing.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionStore(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := hydrateTolerant(r, store, logg); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartView(store, engine))
	}
}

func sessionStore(r *http.Request, mgr *cart.Manager) (*cart.Store, error) {
	if mgr == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart manager unavailable")
	}
	sessionID := middleware.SessionIDFromContext(r.Context())
	return mgr.Store(sessionID)
}

// hydrateTolerant hydrates the store, downgrading a corrupted snapshot to a
// warning: the store has already reset itself to a usable empty cart.
func hydrateTolerant(r *http.Request, store *cart.Store, logg *logger.Logger) error {
	if err := store.Hydrate(r.Context()); err != nil {
		if errors.Is(err, cart.ErrCorrupted) {
			if logg != nil {
				logg.Warn(r.Context(), "cart snapshot corrupted, reset to empty")
			}
			return nil
		}
		return err
	}
	return nil
}

func cartView(store *cart.Store, engine *pricing.Engine) CartView {
	items := store.Items()
	return CartView{
		Items:     items,
		ItemCount: store.ItemCount(),
		Emptiness: store.Emptiness().String(),
		Attention: store.ConsumeSignal(),
		Totals:    engine.ComputeTotals(items),
	}
}
