package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scentlane/storefront-backend/api/controllers"
	"github.com/scentlane/storefront-backend/api/middleware"
	"github.com/scentlane/storefront-backend/internal/cart"
	"github.com/scentlane/storefront-backend/internal/checkout"
	"github.com/scentlane/storefront-backend/internal/customers"
	"github.com/scentlane/storefront-backend/internal/orders"
	"github.com/scentlane/storefront-backend/internal/pricing"
	"github.com/scentlane/storefront-backend/pkg/config"
	"github.com/scentlane/storefront-backend/pkg/db"
	"github.com/scentlane/storefront-backend/pkg/logger"
	"github.com/scentlane/storefront-backend/pkg/redis"
)

// Deps collects everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Registry *prometheus.Registry

	Catalog   controllers.CatalogReader
	Buster    interface{ Bust(tags ...string) }
	CartMgr   *cart.Manager
	Engine    *pricing.Engine
	Builder   *checkout.Builder
	BuyNow    *checkout.BuyNowStore
	Orders    orders.Service
	Customers customers.Repository
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	var (
		idemStore   redis.IdempotencyStore
		redisPinger redis.Pinger
	)
	if deps.Redis != nil {
		idemStore = deps.Redis
		redisPinger = deps.Redis
	}

	var buyNow controllers.BuyNowStager
	if deps.BuyNow != nil {
		buyNow = deps.BuyNow
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// Public catalog reads and the CMS revalidation hook.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(deps.Catalog, logg))
		r.Get("/{slug}", controllers.ProductDetail(deps.Catalog, logg))
	})
	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", controllers.CategoriesList(deps.Catalog, logg))
		r.Get("/{slug}", controllers.CategoryDetail(deps.Catalog, logg))
	})
	r.Post("/api/v1/webhooks/revalidate", controllers.RevalidateWebhook(deps.Buster, cfg.Webhook.RevalidateSecret, logg))

	// Session-scoped storefront routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.CartMgr, deps.Engine, logg))
			r.Post("/items", controllers.CartAddItem(deps.CartMgr, deps.Engine, logg))
			r.Delete("/items", controllers.CartRemoveItem(deps.CartMgr, deps.Engine, logg))
			r.Delete("/", controllers.CartClear(deps.CartMgr, deps.Engine, logg))
		})

		r.Route("/api/v1/checkout", func(r chi.Router) {
			r.Post("/", controllers.CheckoutBuild(deps.Builder, deps.CartMgr, buyNow, logg))
			r.Post("/buy-now", controllers.CheckoutStageBuyNow(buyNow, logg))
			r.Delete("/buy-now", controllers.CheckoutDiscardBuyNow(buyNow, logg))
		})

		r.Post("/api/v1/orders", controllers.OrderSubmit(deps.Orders, deps.Builder, deps.CartMgr, buyNow, logg))
	})

	// Dashboard routes behind the allowlist.
	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.Admin, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrdersList(deps.Orders, logg))
			r.Get("/{orderNumber}", controllers.AdminOrderDetail(deps.Orders, logg))
			r.Patch("/{orderNumber}", controllers.AdminOrderUpdate(deps.Orders, logg))
		})
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.AdminCustomersList(deps.Customers, logg))
			r.Get("/lookup", controllers.AdminCustomerDetail(deps.Customers, logg))
		})
	})

	return r
}
