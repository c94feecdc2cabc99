package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/scentlane/storefront-backend/pkg/metrics"
)

// Cache tags. A webhook bust on a tag drops every cached entry filed under it.
const (
	TagProducts   = "products"
	TagCategories = "categories"
	TagHomepage   = "homepage"
)

// Fetcher is the upstream surface the gateway caches.
type Fetcher interface {
	ListProducts(ctx context.Context) ([]Product, error)
	HomepageProducts(ctx context.Context) ([]Product, error)
	ProductsByCategory(ctx context.Context, categoryID string) ([]Product, error)
	ProductBySlug(ctx context.Context, slug string) (*Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	CategoryBySlug(ctx context.Context, slug string) (*Category, error)
}

// Gateway serves catalog reads from a short-lived local cache so every
// storefront request does not hammer the CMS. Entries expire on their own;
// the revalidation webhook busts them early by tag.
type Gateway struct {
	upstream Fetcher
	cache    *gocache.Cache
	ttl      time.Duration
	metrics  *metrics.StorefrontMetrics

	mu       sync.Mutex
	tagIndex map[string]map[string]struct{}
}

// NewGateway builds the caching gateway.
func NewGateway(upstream Fetcher, ttl time.Duration, m *metrics.StorefrontMetrics) (*Gateway, error) {
	if upstream == nil {
		return nil, fmt.Errorf("catalog fetcher required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive")
	}
	return &Gateway{
		upstream: upstream,
		cache:    gocache.New(ttl, 2*ttl),
		ttl:      ttl,
		metrics:  m,
		tagIndex: map[string]map[string]struct{}{},
	}, nil
}

// ListProducts returns all products, cached under the products tag.
func (g *Gateway) ListProducts(ctx context.Context) ([]Product, error) {
	return cachedSlice(g, ctx, "products:all", "products", []string{TagProducts, TagCategories},
		g.upstream.ListProducts)
}

// HomepageProducts returns the landing page set, cached under products and
// homepage tags.
func (g *Gateway) HomepageProducts(ctx context.Context) ([]Product, error) {
	return cachedSlice(g, ctx, "products:homepage", "products", []string{TagProducts, TagHomepage},
		g.upstream.HomepageProducts)
}

// ProductsByCategory returns one category's products.
func (g *Gateway) ProductsByCategory(ctx context.Context, categoryID string) ([]Product, error) {
	key := "products:category:" + categoryID
	return cachedSlice(g, ctx, key, "products", []string{TagProducts, TagCategories},
		func(ctx context.Context) ([]Product, error) {
			return g.upstream.ProductsByCategory(ctx, categoryID)
		})
}

// ProductBySlug returns a single product, or nil when it does not exist.
func (g *Gateway) ProductBySlug(ctx context.Context, slug string) (*Product, error) {
	key := "product:" + slug
	if value, ok := g.cache.Get(key); ok {
		g.metrics.IncCacheHit("products")
		product := value.(Product)
		return &product, nil
	}
	g.metrics.IncCacheMiss("products")

	product, err := g.upstream.ProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	g.put(key, *product, []string{TagProducts})
	return product, nil
}

// ListCategories returns all categories.
func (g *Gateway) ListCategories(ctx context.Context) ([]Category, error) {
	return cachedSlice(g, ctx, "categories:all", "categories", []string{TagCategories},
		g.upstream.ListCategories)
}

// CategoryBySlug returns a single category, or nil when it does not exist.
func (g *Gateway) CategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	key := "category:" + slug
	if value, ok := g.cache.Get(key); ok {
		g.metrics.IncCacheHit("categories")
		category := value.(Category)
		return &category, nil
	}
	g.metrics.IncCacheMiss("categories")

	category, err := g.upstream.CategoryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, nil
	}
	g.put(key, *category, []string{TagCategories})
	return category, nil
}

// Bust drops every cached entry filed under the given tags.
func (g *Gateway) Bust(tags ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, tag := range tags {
		for key := range g.tagIndex[tag] {
			g.cache.Delete(key)
		}
		delete(g.tagIndex, tag)
		g.metrics.IncCacheBust(tag)
	}
}

// TagsForDocumentType maps an upstream document type to the cache tags it
// invalidates. Products reference categories, so a category change also busts
// products.
func TagsForDocumentType(documentType string) []string {
	switch documentType {
	case "product":
		return []string{TagProducts, TagHomepage}
	case "category":
		return []string{TagCategories, TagProducts}
	default:
		return nil
	}
}

func (g *Gateway) put(key string, value any, tags []string) {
	g.cache.Set(key, value, g.ttl)
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, tag := range tags {
		if g.tagIndex[tag] == nil {
			g.tagIndex[tag] = map[string]struct{}{}
		}
		g.tagIndex[tag][key] = struct{}{}
	}
}

func cachedSlice[T any](g *Gateway, ctx context.Context, key, resource string, tags []string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if value, ok := g.cache.Get(key); ok {
		g.metrics.IncCacheHit(resource)
		cached := value.([]T)
		out := make([]T, len(cached))
		copy(out, cached)
		return out, nil
	}
	g.metrics.IncCacheMiss(resource)

	fetched, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	g.put(key, fetched, tags)

	out := make([]T, len(fetched))
	copy(out, fetched)
	return out, nil
}
