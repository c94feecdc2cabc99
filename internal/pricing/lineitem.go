package pricing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/scentlane/storefront-backend/pkg/errors"
)

// LineItem is a single purchasable entry. Two items are the same line when
// product id, size and color all match; differing variants stay separate lines.
type LineItem struct {
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

// NewLineItem validates the fields that every stored line must satisfy and
// stamps the line with its creation time. The catalog flags default to false
// and are set from the product record by the caller.
func NewLineItem(productID, name string, price decimal.Decimal, quantity int, size, color, imageURL string) (LineItem, error) {
	item := LineItem{
		ProductID: strings.TrimSpace(productID),
		Name:      strings.TrimSpace(name),
		Price:     price,
		Quantity:  quantity,
		Size:      strings.TrimSpace(size),
		Color:     strings.TrimSpace(color),
		ImageURL:  strings.TrimSpace(imageURL),
		AddedAt:   time.Now().UTC(),
	}
	if err := item.Validate(); err != nil {
		return LineItem{}, err
	}
	return item, nil
}

// Validate reports whether the line is storable.
func (l LineItem) Validate() error {
	if l.ProductID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "line item product id is required")
	}
	if l.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "line item name is required")
	}
	if l.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "line item price must be non-negative")
	}
	if l.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "line item quantity must be at least 1")
	}
	return nil
}

// Key returns the variant identity used for merge and removal.
func (l LineItem) Key() string {
	return fmt.Sprintf("%s|%s|%s", l.ProductID, l.Size, l.Color)
}

// SameVariant reports whether the other line addresses the same variant.
func (l LineItem) SameVariant(other LineItem) bool {
	return l.ProductID == other.ProductID && l.Size == other.Size && l.Color == other.Color
}

// LineTotal returns price multiplied by quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
