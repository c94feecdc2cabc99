package catalog

import "github.com/shopspring/decimal"

// Category is a catalog grouping maintained in the upstream CMS.
type Category struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Banner string `json:"banner,omitempty"`
}

// Product mirrors the upstream catalog document. Prices are read-only here;
// carts snapshot them at add time.
type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty"`
	Images      []string         `json:"images"`
	Description string           `json:"description,omitempty"`
	Volumes     []string         `json:"volumes,omitempty"`
	OnSale      bool             `json:"on_sale"`
	NewArrival  bool             `json:"new_arrival"`
	InStock     bool             `json:"in_stock"`
	Featured    bool             `json:"featured"`
	Categories  []Category       `json:"categories,omitempty"`
}

// EffectivePrice returns the sale price while a sale is running.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.OnSale && p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}
