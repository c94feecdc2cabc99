package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer aggregates per-email purchase history, upserted on every
// successful order.
type Customer struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email       string          `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Name        string          `gorm:"column:name;not null" json:"name"`
	Phone       string          `gorm:"column:phone" json:"phone"`
	TotalOrders int             `gorm:"column:total_orders;not null;default:0" json:"total_orders"`
	TotalSpent  decimal.Decimal `gorm:"column:total_spent;type:numeric(14,2);not null;default:0" json:"total_spent"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}
