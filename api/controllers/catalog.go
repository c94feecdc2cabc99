package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/scentlane/storefront-backend/api/responses"
	"github.com/scentlane/storefront-backend/internal/catalog"
	pkgerrors "github.com/scentlane/storefront-backend/pkg/errors"
	"github.com/scentlane/storefront-backend/pkg/logger"
)

// CatalogReader is the slice of the catalog gateway the storefront routes use.
type CatalogReader interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	HomepageProducts(ctx context.Context) ([]catalog.Product, error)
	ProductsByCategory(ctx context.Context, categoryID string) ([]catalog.Product, error)
	ProductBySlug(ctx context.Context, slug string) (*catalog.Product, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	CategoryBySlug(ctx context.Context, slug string) (*catalog.Category, error)
}

// ProductsList serves the product collection. ?featured=true narrows to the
// homepage set and ?category= narrows to one category.
func ProductsList(gw CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gw == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog gateway unavailable"))
			return
		}

		query := r.URL.Query()
		category := strings.TrimSpace(query.Get("category"))
		featured := strings.EqualFold(strings.TrimSpace(query.Get("featured")), "true")

		var (
			products []catalog.Product
			err      error
		)
		switch {
		case featured:
			products, err = gw.HomepageProducts(r.Context())
		case category != "":
			products, err = gw.ProductsByCategory(r.Context(), category)
		default:
			products, err = gw.ListProducts(r.Context())
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func ProductDetail(gw CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gw == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog gateway unavailable"))
			return
		}

		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product slug is required"))
			return
		}

		product, err := gw.ProductBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if product == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func CategoriesList(gw CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gw == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog gateway unavailable"))
			return
		}

		categories, err := gw.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

func CategoryDetail(gw CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gw == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog gateway unavailable"))
			return
		}

		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "category slug is required"))
			return
		}

		category, err := gw.CategoryBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if category == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "category not found"))
			return
		}
		responses.WriteSuccess(w, category)
	}
}
