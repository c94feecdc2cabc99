package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/scentlane/storefront-backend/pkg/config"
	pkgerrors "github.com/scentlane/storefront-backend/pkg/errors"
)

// Client fetches catalog documents from the upstream CMS API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a catalog client from config.
func NewClient(cfg config.CatalogConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("catalog base url required")
	}
	return &Client{
		baseURL: base,
		token:   cfg.APIToken,
		http:    &http.Client{Timeout: cfg.FetchTimeout},
	}, nil
}

// ListProducts returns the full product list with category references.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.get(ctx, "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// HomepageProducts returns the curated set shown on the landing page.
func (c *Client) HomepageProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.get(ctx, "/products", url.Values{"featured": {"true"}}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ProductsByCategory returns products belonging to the category.
func (c *Client) ProductsByCategory(ctx context.Context, categoryID string) ([]Product, error) {
	var products []Product
	if err := c.get(ctx, "/products", url.Values{"category": {categoryID}}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ProductBySlug returns a single product, or nil when it does not exist.
func (c *Client) ProductBySlug(ctx context.Context, slug string) (*Product, error) {
	var product Product
	err := c.get(ctx, "/products/"+url.PathEscape(slug), nil, &product)
	if pkgerrors.As(err) != nil && pkgerrors.As(err).Code() == pkgerrors.CodeNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListCategories returns all categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.get(ctx, "/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CategoryBySlug returns a single category, or nil when it does not exist.
func (c *Client) CategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	var category Category
	err := c.get(ctx, "/categories/"+url.PathEscape(slug), nil, &category)
	if pkgerrors.As(err) != nil && pkgerrors.As(err).Code() == pkgerrors.CodeNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building catalog request")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "calling catalog")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, "catalog document not found")
	case resp.StatusCode >= 400:
		return pkgerrors.New(pkgerrors.CodeGateway,
			fmt.Sprintf("catalog returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decoding catalog response")
	}
	return nil
}
