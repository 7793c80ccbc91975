package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcessResponse summarizes a catalog after an import.
type ProcessResponse struct {
	TotalItems      int             `json:"total_items"`
	TotalCategories int             `json:"total_categories"`
	TotalPrice      decimal.Decimal `json:"total_price"`
}

// Product is a catalog entry. Identity is ID.
type Product struct {
	ID          int              `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"salePrice,omitempty"`
	Image       string           `json:"image"`
	Images      []string         `json:"images,omitempty"`
	InStock     bool             `json:"inStock"`
	Rating      *float64         `json:"rating,omitempty"`
	Reviews     *int             `json:"reviews,omitempty"`
	Featured    bool             `json:"featured,omitempty"`
	Features    []string         `json:"features,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	CreatedAt   *time.Time       `json:"createdAt,omitempty"`
}

// EffectivePrice returns the sale price when one is set, otherwise the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// OnSale reports whether the product carries a sale price.
func (p Product) OnSale() bool {
	return p.SalePrice != nil
}

// Category groups products by name.
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Count       int    `json:"count"`
}

// CartLine is one product in the cart with its quantity.
type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}

// TaxRate is the sales tax applied on top of a cart or order subtotal.
var TaxRate = decimal.RequireFromString("0.08")

// Subtotal sums the line totals.
func Subtotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// LineTotal is the effective price multiplied by the quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// WithQuantity returns a copy of the line with only the quantity replaced.
func (l CartLine) WithQuantity(quantity int) CartLine {
	return CartLine{
		Product:  l.Product.clone(),
		Quantity: quantity,
	}
}

// Clone returns a deep copy of the line.
func (l CartLine) Clone() CartLine {
	return l.WithQuantity(l.Quantity)
}

func (p Product) clone() Product {
	c := p
	if p.SalePrice != nil {
		v := *p.SalePrice
		c.SalePrice = &v
	}
	if p.Rating != nil {
		v := *p.Rating
		c.Rating = &v
	}
	if p.Reviews != nil {
		v := *p.Reviews
		c.Reviews = &v
	}
	if p.CreatedAt != nil {
		v := *p.CreatedAt
		c.CreatedAt = &v
	}
	c.Images = cloneStrings(p.Images)
	c.Features = cloneStrings(p.Features)
	c.Tags = cloneStrings(p.Tags)
	return c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// CartSummary is the order summary shown next to the cart.
type CartSummary struct {
	Items    int             `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}
