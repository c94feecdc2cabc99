package controllers

import (
	"net/http"
	"strings"

	"github.com/scentlane/storefront-backend/api/responses"
	"github.com/scentlane/storefront-backend/api/validators"
	"github.com/scentlane/storefront-backend/internal/customers"
	pkgerrors "github.com/scentlane/storefront-backend/pkg/errors"
	"github.com/scentlane/storefront-backend/pkg/logger"
	"github.com/scentlane/storefront-backend/pkg/pagination"
)

// AdminCustomersList pages through aggregated purchase history, newest first.
func AdminCustomersList(repo customers.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customers repository unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		page, err := repo.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers"))
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// AdminCustomerDetail looks up one customer's aggregate by email.
func AdminCustomerDetail(repo customers.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customers repository unavailable"))
			return
		}

		email := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
		if email == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "email query parameter required"))
			return
		}

		customer, err := repo.FindByEmail(r.Context(), email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find customer"))
			return
		}
		if customer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found"))
			return
		}
		responses.WriteSuccess(w, customer)
	}
}
