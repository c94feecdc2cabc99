package orders

import (
	"time"

	"github.com/scentlane/storefront-backend/pkg/enums"
	"github.com/scentlane/storefront-backend/pkg/types"
)

// SubmitOrderInput carries everything the checkout form collects, plus the
// client-generated idempotency key for safe retries.
type SubmitOrderInput struct {
	CustomerName   string `json:"name" validate:"required,min=2,max=120"`
	CustomerEmail  string `json:"email" validate:"required,email"`
	CustomerPhone  string `json:"phone" validate:"required,min=7,max=20"`
	Address        string `json:"address" validate:"required,min=5"`
	City           string `json:"city" validate:"required"`
	State          string `json:"state" validate:"required"`
	Zip            string `json:"zip" validate:"required,zipcode"`
	IdempotencyKey string `json:"idempotency_key" validate:"omitempty,min=8,max=128"`
}

// ShippingAddress assembles the jsonb payload stored on the order.
func (i SubmitOrderInput) ShippingAddress() types.ShippingAddress {
	return types.ShippingAddress{
		Address: i.Address,
		City:    i.City,
		State:   i.State,
		Zip:     i.Zip,
	}
}

// UpdateOrderInput patches an order from the admin dashboard. Nil fields are
// left untouched.
type UpdateOrderInput struct {
	Status        *enums.OrderStatus   `json:"status" validate:"omitempty"`
	PaymentStatus *enums.PaymentStatus `json:"payment_status" validate:"omitempty"`
}

// Empty reports whether the patch changes nothing.
func (i UpdateOrderInput) Empty() bool {
	return i.Status == nil && i.PaymentStatus == nil
}

// ListFilters describe the inputs supported by the admin orders list.
type ListFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	CustomerEmail string
	DateFrom      *time.Time
	DateTo        *time.Time
}
