package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/scentlane/storefront-backend/api/middleware"
	"github.com/scentlane/storefront-backend/internal/cart"
	"github.com/scentlane/storefront-backend/internal/checkout"
	"github.com/scentlane/storefront-backend/internal/pricing"
	"github.com/scentlane/storefront-backend/pkg/config"
	"github.com/scentlane/storefront-backend/pkg/logger"
)

type memoryPersistence struct {
	mu    sync.Mutex
	items map[string][]pricing.LineItem
}

func (m *memoryPersistence) Load(_ context.Context, sessionID string) ([]pricing.LineItem, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.items[sessionID]
	return items, ok, nil
}

func (m *memoryPersistence) Save(_ context.Context, sessionID string, items []pricing.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = map[string][]pricing.LineItem{}
	}
	m.items[sessionID] = items
	return nil
}

func (m *memoryPersistence) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, sessionID)
	return nil
}

type memoryBuyNow struct {
	mu    sync.Mutex
	items map[string]pricing.LineItem
}

func (m *memoryBuyNow) Put(_ context.Context, sessionID string, item pricing.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = map[string]pricing.LineItem{}
	}
	m.items[sessionID] = item
	return nil
}

func (m *memoryBuyNow) Get(_ context.Context, sessionID string) (pricing.LineItem, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[sessionID]
	return item, ok, nil
}

func (m *memoryBuyNow) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, sessionID)
	return nil
}

func testEngine(t *testing.T) *pricing.Engine {
	t.Helper()
	policy, err := pricing.PolicyFromConfig(config.PricingConfig{
		TaxRate:               "0.13",
		FlatShippingFee:       "500",
		FreeShippingThreshold: "10000",
		Currency:              "PKR",
	})
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	engine, err := pricing.NewEngine(policy)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return engine
}

func testBuilder(t *testing.T, engine *pricing.Engine) *checkout.Builder {
	t.Helper()
	builder, err := checkout.NewBuilder(engine)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	return builder
}

func testManager(t *testing.T) *cart.Manager {
	t.Helper()
	mgr, err := cart.NewManager(&memoryPersistence{}, 500*time.Millisecond)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return mgr
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func sessionRequest(method, target, sessionID string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.WithSessionID(req.Context(), sessionID))
}
