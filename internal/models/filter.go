package models

import "github.com/shopspring/decimal"

// FilterCriteria is a sparse set of catalog predicates. A zero field is not applied.
//
// FreeShipping has no product data behind it: it is accepted and counted as
// active, but it does not remove any product.
type FilterCriteria struct {
	Category     string           `json:"category,omitempty"`
	MinPrice     *decimal.Decimal `json:"minPrice,omitempty"`
	MaxPrice     *decimal.Decimal `json:"maxPrice,omitempty"`
	OnSale       bool             `json:"onSale,omitempty"`
	InStock      bool             `json:"inStock,omitempty"`
	FreeShipping bool             `json:"freeShipping,omitempty"`
}

// ActiveCount returns the number of predicates that are set.
func (f FilterCriteria) ActiveCount() int {
	n := 0
	for _, set := range []bool{
		f.Category != "",
		f.MinPrice != nil,
		f.MaxPrice != nil,
		f.OnSale,
		f.InStock,
		f.FreeShipping,
	} {
		if set {
			n++
		}
	}
	return n
}

// Matches applies the category, price range, on-sale and in-stock predicates
// in that order. Price bounds are inclusive and compare the effective price.
func (f FilterCriteria) Matches(p Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	price := p.EffectivePrice()
	if f.MinPrice != nil && price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.OnSale && !p.OnSale() {
		return false
	}
	if f.InStock && !p.InStock {
		return false
	}
	return true
}
