package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/scentlane/storefront-backend/pkg/enums"
	"github.com/scentlane/storefront-backend/pkg/types"
)

// Order is the persisted record of a submitted order. The server owns
// order_number, status, payment_status and both timestamps; the storefront
// never writes them directly after creation.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber     string                `gorm:"column:order_number;uniqueIndex;not null" json:"order_number"`
	IdempotencyKey  *string               `gorm:"column:idempotency_key;uniqueIndex" json:"-"`
	CustomerEmail   string                `gorm:"column:customer_email;not null" json:"customer_email"`
	CustomerName    string                `gorm:"column:customer_name;not null" json:"customer_name"`
	CustomerPhone   string                `gorm:"column:customer_phone" json:"customer_phone"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json" json:"shipping_address"`
	Items           types.OrderItems      `gorm:"column:items;type:jsonb;serializer:json" json:"items"`
	Subtotal        decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	Tax             decimal.Decimal       `gorm:"column:tax;type:numeric(12,2);not null" json:"tax"`
	Shipping        decimal.Decimal       `gorm:"column:shipping;type:numeric(12,2);not null" json:"shipping"`
	Total           decimal.Decimal       `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	Status          enums.OrderStatus     `gorm:"column:status;not null;default:'pending'" json:"status"`
	PaymentStatus   enums.PaymentStatus   `gorm:"column:payment_status;not null;default:'pending'" json:"payment_status"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}
