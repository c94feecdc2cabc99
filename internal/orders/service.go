package orders

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/scentlane/storefront-backend/internal/checkout"
	"github.com/scentlane/storefront-backend/internal/customers"
	"github.com/scentlane/storefront-backend/internal/notifications"
	"github.com/scentlane/storefront-backend/internal/pricing"
	"github.com/scentlane/storefront-backend/pkg/db"
	"github.com/scentlane/storefront-backend/pkg/db/models"
	"github.com/scentlane/storefront-backend/pkg/enums"
	pkgerrors "github.com/scentlane/storefront-backend/pkg/errors"
	"github.com/scentlane/storefront-backend/pkg/logger"
	"github.com/scentlane/storefront-backend/pkg/metrics"
	"github.com/scentlane/storefront-backend/pkg/pagination"
	"github.com/scentlane/storefront-backend/pkg/types"
)

const submitRetries = 3

var zipRe = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type submitLocker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	SubmitLockKey(sessionID string) string
}

// snapshotCleaner drops the purchase source once the order is recorded.
type snapshotCleaner interface {
	Delete(ctx context.Context, sessionID string) error
}

// Service turns checkout sessions into persisted orders and serves the admin
// order workflow.
type Service interface {
	Submit(ctx context.Context, sessionID string, session *checkout.Session, input SubmitOrderInput) (*models.Order, error)
	Get(ctx context.Context, orderNumber string) (*models.Order, error)
	Update(ctx context.Context, orderNumber string, input UpdateOrderInput) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderPage, error)
}

type service struct {
	repo      Repository
	customers customers.Repository
	tx        txRunner
	locker    submitLocker
	lockTTL   time.Duration
	cart      snapshotCleaner
	buyNow    snapshotCleaner
	mailer    notifications.OrderMailer
	metrics   *metrics.StorefrontMetrics
	logg      *logger.Logger
	validate  *validator.Validate
	now       func() time.Time
}

// ServiceDeps wires the collaborators a Service needs.
type ServiceDeps struct {
	Repo      Repository
	Customers customers.Repository
	Tx        txRunner
	Locker    submitLocker
	LockTTL   time.Duration
	Cart      snapshotCleaner
	BuyNow    snapshotCleaner
	Mailer    notifications.OrderMailer
	Metrics   *metrics.StorefrontMetrics
	Logger    *logger.Logger
}

// NewService builds the order service.
func NewService(deps ServiceDeps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Customers == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Locker == nil {
		return nil, fmt.Errorf("submit locker required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if deps.LockTTL <= 0 {
		deps.LockTTL = 30 * time.Second
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("zipcode", func(fl validator.FieldLevel) bool {
		return zipRe.MatchString(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("registering zipcode rule: %w", err)
	}

	return &service{
		repo:      deps.Repo,
		customers: deps.Customers,
		tx:        deps.Tx,
		locker:    deps.Locker,
		lockTTL:   deps.LockTTL,
		cart:      deps.Cart,
		buyNow:    deps.BuyNow,
		mailer:    deps.Mailer,
		metrics:   deps.Metrics,
		logg:      deps.Logger,
		validate:  validate,
		now:       time.Now,
	}, nil
}

// Submit records the order exactly once. Re-sending the same idempotency key
// returns the already-created order, and a second concurrent submit for the
// same session is rejected while the first is in flight.
func (s *service) Submit(ctx context.Context, sessionID string, session *checkout.Session, input SubmitOrderInput) (*models.Order, error) {
	started := s.now()

	if err := s.validateInput(input); err != nil {
		s.metrics.IncOrderFailed("validation")
		return nil, err
	}
	if session == nil || session.ItemCount() == 0 {
		s.metrics.IncOrderFailed("empty_source")
		return nil, pkgerrors.New(pkgerrors.CodeEmptySource, "nothing to submit")
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	if key != "" {
		existing, err := s.repo.FindByIdempotencyKey(ctx, key)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeSubmission, err, "checking idempotency key")
		}
		if existing != nil {
			return existing, nil
		}
	}

	lockKey := s.locker.SubmitLockKey(sessionID)
	acquired, err := s.locker.SetNX(ctx, lockKey, "1", s.lockTTL)
	if err != nil {
		s.metrics.IncOrderFailed("lock")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring submit lock")
	}
	if !acquired {
		s.metrics.IncOrderFailed("in_flight")
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an order submission is already in progress")
	}
	defer func() {
		if err := s.locker.Del(ctx, lockKey); err != nil {
			s.logg.Warn(s.logg.WithSessionID(ctx, sessionID), "releasing submit lock failed")
		}
	}()

	order, err := s.createOrder(ctx, session, input, key)
	if err != nil {
		s.metrics.IncOrderFailed("persistence")
		return nil, err
	}

	s.metrics.IncOrderSubmitted(string(session.Mode()))
	s.metrics.ObserveSubmitDuration(string(session.Mode()), s.now().Sub(started))

	s.cleanupSource(ctx, sessionID, session.Mode())
	s.notify(ctx, order)

	return order, nil
}

func (s *service) createOrder(ctx context.Context, session *checkout.Session, input SubmitOrderInput, key string) (*models.Order, error) {
	var lastErr error
	for attempt := 0; attempt < submitRetries; attempt++ {
		order := s.buildOrder(session, input, key)

		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if _, err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
				return err
			}
			return s.customers.WithTx(tx).UpsertOnOrder(ctx, order.CustomerEmail, order.CustomerName, order.CustomerPhone, order.Total)
		})
		if err == nil {
			return order, nil
		}
		lastErr = err

		if key != "" && db.IsUniqueViolation(err, "idempotency_key") {
			existing, findErr := s.repo.FindByIdempotencyKey(ctx, key)
			if findErr == nil && existing != nil {
				return existing, nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeSubmission, err, "resolving idempotency conflict")
		}
		if db.IsUniqueViolation(err, "order_number") {
			continue
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeSubmission, err, "saving order")
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeSubmission, lastErr, "could not mint a unique order number")
}

func (s *service) buildOrder(session *checkout.Session, input SubmitOrderInput, key string) *models.Order {
	return &models.Order{
		OrderNumber:     newOrderNumber(s.now()),
		IdempotencyKey:  optionalKey(key),
		CustomerEmail:   strings.ToLower(strings.TrimSpace(input.CustomerEmail)),
		CustomerName:    strings.TrimSpace(input.CustomerName),
		CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
		ShippingAddress: input.ShippingAddress(),
		Items:           itemsFromSession(session.Items()),
		Subtotal:        session.Totals().Subtotal,
		Tax:             session.Totals().Tax,
		Shipping:        session.Totals().Shipping,
		Total:           session.Totals().Total,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
	}
}

func (s *service) cleanupSource(ctx context.Context, sessionID string, mode checkout.Mode) {
	ctx = s.logg.WithSessionID(ctx, sessionID)
	switch mode {
	case checkout.ModeCart:
		if s.cart == nil {
			return
		}
		if err := s.cart.Delete(ctx, sessionID); err != nil {
			s.logg.Warn(ctx, "clearing cart after submit failed")
		}
	case checkout.ModeBuyNow:
		if s.buyNow == nil {
			return
		}
		if err := s.buyNow.Delete(ctx, sessionID); err != nil {
			s.logg.Warn(ctx, "dropping buy-now snapshot after submit failed")
		}
	}
}

func (s *service) notify(ctx context.Context, order *models.Order) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendOrderConfirmation(ctx, order); err != nil {
		s.logg.Error(s.logg.WithOrderNumber(ctx, order.OrderNumber), "order confirmation email failed", err)
	}
}

// Get returns the order for the given number.
func (s *service) Get(ctx context.Context, orderNumber string) (*models.Order, error) {
	order, err := s.repo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// Update patches status fields from the admin dashboard. Only provided fields
// change; any known status value may be set directly.
func (s *service) Update(ctx context.Context, orderNumber string, input UpdateOrderInput) (*models.Order, error) {
	if input.Empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if _, err := s.Get(ctx, orderNumber); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Status != nil {
		if !enums.ValidOrderStatus(string(*input.Status)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
				WithDetails(map[string]string{"status": string(*input.Status)})
		}
		updates["status"] = *input.Status
	}
	if input.PaymentStatus != nil {
		if !enums.ValidPaymentStatus(string(*input.PaymentStatus)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status").
				WithDetails(map[string]string{"payment_status": string(*input.PaymentStatus)})
		}
		updates["payment_status"] = *input.PaymentStatus
	}

	if err := s.repo.UpdateByOrderNumber(ctx, orderNumber, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order")
	}
	return s.Get(ctx, orderNumber)
}

// List returns orders for the admin dashboard.
func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderPage, error) {
	page, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}
	return page, nil
}

func (s *service) validateInput(input SubmitOrderInput) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order input")
	}

	details := map[string]string{}
	for _, fe := range fieldErrors {
		details[strings.ToLower(fe.Field())] = validationMessage(fe)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid order input").WithDetails(details)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "zipcode":
		return "must be a ZIP code like 12345 or 12345-6789"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "invalid value"
	}
}

func optionalKey(key string) *string {
	if key == "" {
		return nil
	}
	return &key
}

func itemsFromSession(lines []pricing.LineItem) types.OrderItems {
	items := make(types.OrderItems, 0, len(lines))
	for _, line := range lines {
		items = append(items, types.OrderItem{
			ProductID:  line.ProductID,
			Name:       line.Name,
			Price:      line.Price,
			Quantity:   line.Quantity,
			Size:       line.Size,
			Color:      line.Color,
			ImageURL:   line.ImageURL,
			OnSale:     line.OnSale,
			NewArrival: line.NewArrival,
			AddedAt:    line.AddedAt,
		})
	}
	return items
}
