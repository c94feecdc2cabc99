package orders

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/scentlane/storefront-backend/internal/cart"
	"github.com/scentlane/storefront-backend/internal/checkout"
	"github.com/scentlane/storefront-backend/internal/customers"
	"github.com/scentlane/storefront-backend/internal/pricing"
	"github.com/scentlane/storefront-backend/pkg/db/models"
	"github.com/scentlane/storefront-backend/pkg/enums"
	pkgerrors "github.com/scentlane/storefront-backend/pkg/errors"
	"github.com/scentlane/storefront-backend/pkg/logger"
	"github.com/scentlane/storefront-backend/pkg/pagination"
)

type stubRepo struct {
	byNumber map[string]*models.Order
	byKey    map[string]*models.Order
	created  []*models.Order
	create   func(ctx context.Context, order *models.Order) (*models.Order, error)
	updates  map[string]any
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		byNumber: map[string]*models.Order{},
		byKey:    map[string]*models.Order{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if s.create != nil {
		return s.create(ctx, order)
	}
	s.store(order)
	return order, nil
}

func (s *stubRepo) store(order *models.Order) {
	s.created = append(s.created, order)
	s.byNumber[order.OrderNumber] = order
	if order.IdempotencyKey != nil {
		s.byKey[*order.IdempotencyKey] = order
	}
}

func (s *stubRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return s.byNumber[orderNumber], nil
}

func (s *stubRepo) FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	return s.byKey[key], nil
}

func (s *stubRepo) UpdateByOrderNumber(ctx context.Context, orderNumber string, updates map[string]any) error {
	order, ok := s.byNumber[orderNumber]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.updates = updates
	if status, ok := updates["status"].(enums.OrderStatus); ok {
		order.Status = status
	}
	if payment, ok := updates["payment_status"].(enums.PaymentStatus); ok {
		order.PaymentStatus = payment
	}
	return nil
}

func (s *stubRepo) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderPage, error) {
	orders := make([]models.Order, 0, len(s.created))
	for _, order := range s.created {
		orders = append(orders, *order)
	}
	return &OrderPage{Orders: orders}, nil
}

type stubCustomers struct {
	upserts []string
	err     error
}

func (s *stubCustomers) WithTx(tx *gorm.DB) customers.Repository {
	return s
}

func (s *stubCustomers) UpsertOnOrder(ctx context.Context, email, name, phone string, orderTotal decimal.Decimal) error {
	if s.err != nil {
		return s.err
	}
	s.upserts = append(s.upserts, email)
	return nil
}

func (s *stubCustomers) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return nil, nil
}

func (s *stubCustomers) List(ctx context.Context, params pagination.Params) (*customers.CustomerPage, error) {
	return &customers.CustomerPage{}, nil
}

type stubTx struct {
	calls int
}

func (s *stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.calls++
	return fn(nil)
}

type stubLocker struct {
	held     map[string]bool
	acquired []string
	released []string
	deny     bool
}

func newStubLocker() *stubLocker {
	return &stubLocker{held: map[string]bool{}}
}

func (s *stubLocker) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.deny || s.held[key] {
		return false, nil
	}
	s.held[key] = true
	s.acquired = append(s.acquired, key)
	return true, nil
}

func (s *stubLocker) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.held, key)
		s.released = append(s.released, key)
	}
	return nil
}

func (s *stubLocker) SubmitLockKey(sessionID string) string {
	return "sf:submit_lock:" + sessionID
}

type stubCleaner struct {
	deleted []string
	err     error
}

func (s *stubCleaner) Delete(ctx context.Context, sessionID string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, sessionID)
	return nil
}

type stubMailer struct {
	sent []string
	err  error
}

func (s *stubMailer) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, order.OrderNumber)
	return nil
}

type fixtureCartSource struct {
	items []pricing.LineItem
}

func (f *fixtureCartSource) Emptiness() cart.Emptiness {
	if len(f.items) == 0 {
		return cart.EmptinessEmpty
	}
	return cart.EmptinessNotEmpty
}

func (f *fixtureCartSource) Items() []pricing.LineItem {
	return f.items
}

type testHarness struct {
	service   Service
	repo      *stubRepo
	customers *stubCustomers
	tx        *stubTx
	locker    *stubLocker
	cart      *stubCleaner
	buyNow    *stubCleaner
	mailer    *stubMailer
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	h := &testHarness{
		repo:      newStubRepo(),
		customers: &stubCustomers{},
		tx:        &stubTx{},
		locker:    newStubLocker(),
		cart:      &stubCleaner{},
		buyNow:    &stubCleaner{},
		mailer:    &stubMailer{},
	}
	svc, err := NewService(ServiceDeps{
		Repo:      h.repo,
		Customers: h.customers,
		Tx:        h.tx,
		Locker:    h.locker,
		LockTTL:   30 * time.Second,
		Cart:      h.cart,
		BuyNow:    h.buyNow,
		Mailer:    h.mailer,
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	h.service = svc
	return h
}

func sessionFixture(t *testing.T, mode checkout.Mode) *checkout.Session {
	t.Helper()
	engine, err := pricing.NewEngine(pricing.Policy{
		TaxRate:               decimal.RequireFromString("0.13"),
		FlatShippingFee:       decimal.RequireFromString("500"),
		FreeShippingThreshold: decimal.RequireFromString("10000"),
		Currency:              "PKR",
	})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	builder, err := checkout.NewBuilder(engine)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	item, err := pricing.NewLineItem("p1", "Rose Attar", decimal.RequireFromString("2500"), 2, "50ml", "amber", "")
	if err != nil {
		t.Fatalf("item: %v", err)
	}
	item.OnSale = true
	item.NewArrival = true

	if mode == checkout.ModeBuyNow {
		session, err := builder.BuildFromBuyNow(context.Background(), staticBuyNow{item: item}, "sess-1")
		if err != nil {
			t.Fatalf("buy-now session: %v", err)
		}
		return session
	}
	session, err := builder.BuildFromCart(&fixtureCartSource{items: []pricing.LineItem{item}})
	if err != nil {
		t.Fatalf("cart session: %v", err)
	}
	return session
}

type staticBuyNow struct {
	item pricing.LineItem
}

func (s staticBuyNow) Get(ctx context.Context, sessionID string) (pricing.LineItem, bool, error) {
	return s.item, true, nil
}

func validInput() SubmitOrderInput {
	return SubmitOrderInput{
		CustomerName:  "Ayesha Khan",
		CustomerEmail: "Ayesha@Example.com",
		CustomerPhone: "+923001234567",
		Address:       "12 Mall Road",
		City:          "Lahore",
		State:         "Punjab",
		Zip:           "54000",
	}
}

func TestSubmitPersistsOrderFromCartSession(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	order, err := h.service.Submit(ctx, "sess-1", sessionFixture(t, checkout.ModeCart), validInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if !strings.HasPrefix(order.OrderNumber, "ORD-") {
		t.Fatalf("order number %q missing prefix", order.OrderNumber)
	}
	if order.Status != enums.OrderStatusPending || order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("new orders must start pending/pending, got %s/%s", order.Status, order.PaymentStatus)
	}
	if order.CustomerEmail != "ayesha@example.com" {
		t.Fatalf("email not normalized: %s", order.CustomerEmail)
	}
	if !order.Subtotal.Equal(decimal.RequireFromString("5000")) {
		t.Fatalf("subtotal = %s", order.Subtotal)
	}
	if !order.Total.Equal(decimal.RequireFromString("6150")) {
		t.Fatalf("total = %s", order.Total)
	}
	if len(order.Items) != 1 || order.Items[0].ProductID != "p1" || order.Items[0].Quantity != 2 {
		t.Fatalf("order items wrong: %+v", order.Items)
	}
	if !order.Items[0].OnSale || !order.Items[0].NewArrival || order.Items[0].AddedAt.IsZero() {
		t.Fatalf("catalog metadata dropped from order item: %+v", order.Items[0])
	}

	if len(h.repo.created) != 1 {
		t.Fatalf("expected one persisted order, got %d", len(h.repo.created))
	}
	if h.tx.calls != 1 {
		t.Fatalf("order and customer must write in one transaction, got %d", h.tx.calls)
	}
	if len(h.customers.upserts) != 1 || h.customers.upserts[0] != "ayesha@example.com" {
		t.Fatalf("customer upsert missing: %v", h.customers.upserts)
	}
	if len(h.cart.deleted) != 1 || h.cart.deleted[0] != "sess-1" {
		t.Fatalf("cart not cleared: %v", h.cart.deleted)
	}
	if len(h.buyNow.deleted) != 0 {
		t.Fatalf("buy-now snapshot must not be touched in cart mode")
	}
	if len(h.mailer.sent) != 1 {
		t.Fatalf("confirmation email not sent")
	}
	if len(h.locker.released) != 1 {
		t.Fatalf("submit lock not released")
	}
}

func TestSubmitBuyNowCleansSnapshotOnly(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	_, err := h.service.Submit(ctx, "sess-1", sessionFixture(t, checkout.ModeBuyNow), validInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(h.buyNow.deleted) != 1 {
		t.Fatalf("buy-now snapshot not dropped")
	}
	if len(h.cart.deleted) != 0 {
		t.Fatalf("cart must survive a buy-now purchase")
	}
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	input := validInput()
	input.Zip = "ABCDE"

	_, err := h.service.Submit(ctx, "sess-1", sessionFixture(t, checkout.ModeCart), input)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := coded.Details().(map[string]string)
	if !ok || details["zip"] == "" {
		t.Fatalf("expected zip detail, got %v", coded.Details())
	}
	if len(h.repo.created) != 0 {
		t.Fatalf("invalid input must not persist anything")
	}
}

func TestSubmitZipWithPlusFour(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	input := validInput()
	input.Zip = "54000-1234"

	if _, err := h.service.Submit(ctx, "sess-1", sessionFixture(t, checkout.ModeCart), input); err != nil {
		t.Fatalf("zip+4 should validate, got %v", err)
	}
}

func TestSubmitEmptySession(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	_, err := h.service.Submit(ctx, "sess-1", nil, validInput())
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeEmptySource {
		t.Fatalf("expected empty source error, got %v", err)
	}
}

func TestSubmitReplaysIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	input := validInput()
	input.IdempotencyKey = "client-key-0001"

	first, err := h.service.Submit(ctx, "sess-1", sessionFixture(t, checkout.ModeCart), input)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	second, err := h.service.Submit(ctx, "sess-1", sessionFixture(t, checkout.ModeCart), input)
	if err != nil {
		t.Fatalf("replay submit: %v", err)
	}

	if second.OrderNumber != first.OrderNumber {
		t.Fatalf("replay minted a new order: %s vs %s", second.OrderNumber, first.OrderNumber)
	}
	if len(h.repo.created) != 1 {
		t.Fatalf("replay must not persist a second order, got %d", len(h.repo.created))
	}
	if len(h.cart.deleted) != 1 {
		t.Fatalf("replay must not clear the cart again, got %d clears", len(h.cart.deleted))
	}
}

func TestSubmitBlockedWhileInFlight(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)
	h.locker.deny = true

	_, err := h.service.Submit(ctx, "sess-1", sessionFixture(t, checkout.ModeCart), validInput())
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict while in flight, got %v", err)
	}
	if len(h.repo.created) != 0 {
		t.Fatalf("blocked submit must not persist")
	}
}

func TestSubmitRetriesOrderNumberCollision(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	attempts := 0
	h.repo.create = func(ctx context.Context, order *models.Order) (*models.Order, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New(`duplicate key value violates unique constraint "idx_orders_order_number"`)
		}
		h.repo.store(order)
		return order, nil
	}

	order, err := h.service.Submit(ctx, "sess-1", sessionFixture(t, checkout.ModeCart), validInput())
	if err != nil {
		t.Fatalf("submit should retry past a number collision: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 create attempts, got %d", attempts)
	}
	if order == nil || len(h.repo.created) != 1 {
		t.Fatalf("order not persisted after retry")
	}
}

func TestSubmitResolvesIdempotencyRace(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	key := "client-key-race"
	winner := &models.Order{OrderNumber: "ORD-111-AAAA", IdempotencyKey: &key}

	h.repo.create = func(ctx context.Context, order *models.Order) (*models.Order, error) {
		// simulate the concurrent winner landing between lookup and insert
		h.repo.byKey[key] = winner
		return nil, errors.New(`duplicate key value violates unique constraint "idx_orders_idempotency_key"`)
	}

	input := validInput()
	input.IdempotencyKey = key

	order, err := h.service.Submit(ctx, "sess-1", sessionFixture(t, checkout.ModeCart), input)
	if err != nil {
		t.Fatalf("race should resolve to the winner: %v", err)
	}
	if order.OrderNumber != winner.OrderNumber {
		t.Fatalf("expected winner order, got %s", order.OrderNumber)
	}
}

func TestSubmitSurvivesMailerFailure(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)
	h.mailer.err = errors.New("smtp down")

	if _, err := h.service.Submit(ctx, "sess-1", sessionFixture(t, checkout.ModeCart), validInput()); err != nil {
		t.Fatalf("mail failure must not fail the order: %v", err)
	}
	if len(h.repo.created) != 1 {
		t.Fatalf("order not persisted")
	}
}

func TestUpdatePatchesOnlyProvidedFields(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	order, err := h.service.Submit(ctx, "sess-1", sessionFixture(t, checkout.ModeCart), validInput())
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}

	paid := enums.PaymentStatusPaid
	updated, err := h.service.Update(ctx, order.OrderNumber, UpdateOrderInput{PaymentStatus: &paid})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("payment status not updated: %s", updated.PaymentStatus)
	}
	if updated.Status != enums.OrderStatusPending {
		t.Fatalf("status must be untouched, got %s", updated.Status)
	}
	if _, ok := h.repo.updates["status"]; ok {
		t.Fatalf("patch must not include absent fields")
	}
}

func TestUpdateAcceptsAnyKnownStatus(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	order, err := h.service.Submit(ctx, "sess-1", sessionFixture(t, checkout.ModeCart), validInput())
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}

	// the dashboard dropdown sets any status directly, including skipping
	// intermediate steps
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusPending,
		enums.OrderStatusCancelled,
	} {
		updated, err := h.service.Update(ctx, order.OrderNumber, UpdateOrderInput{Status: &status})
		if err != nil {
			t.Fatalf("set status %s: %v", status, err)
		}
		if updated.Status != status {
			t.Fatalf("status not applied, want %s got %s", status, updated.Status)
		}
	}

	unknown := enums.OrderStatus("done")
	_, err = h.service.Update(ctx, order.OrderNumber, UpdateOrderInput{Status: &unknown})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unknown status must be rejected, got %v", err)
	}
}

func TestUpdateRejectsEmptyPatch(t *testing.T) {
	h := newTestHarness(t)

	_, err := h.service.Update(context.Background(), "ORD-1-AAAA", UpdateOrderInput{})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateUnknownOrder(t *testing.T) {
	h := newTestHarness(t)

	paid := enums.PaymentStatusPaid
	_, err := h.service.Update(context.Background(), "ORD-missing", UpdateOrderInput{PaymentStatus: &paid})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
