package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is one flattened line of a submitted order, stored as jsonb on
// the order row. Prices here are the presentation-rounded values the
// customer saw at submission time.
type OrderItem struct {
	ProductID  string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	Size       string          `json:"selectedSize,omitempty"`
	Color      string          `json:"selectedColor,omitempty"`
	ImageURL   string          `json:"imageUrl,omitempty"`
	OnSale     bool            `json:"onSale,omitempty"`
	NewArrival bool            `json:"newArrival,omitempty"`
	AddedAt    time.Time       `json:"addedAt"`
}

// OrderItems is the jsonb column payload.
type OrderItems []OrderItem
