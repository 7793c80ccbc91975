// Package catalog filters, sorts and pages product listings.
//
// Every function here is pure: inputs are never modified and results are
// always freshly allocated, so a listing can be recomputed whenever the
// criteria change.
package catalog

import (
	"strings"

	"github.com/drstein77/shopflow/internal/models"
)

// Apply runs the listing pipeline: search, category, price range, on-sale,
// in-stock, then sort.
func Apply(products []models.Product, criteria models.FilterCriteria, query string, key SortKey) []models.Product {
	out := make([]models.Product, 0, len(products))
	q := normalizeQuery(query)
	for _, p := range products {
		if q != "" && !matches(p, q) {
			continue
		}
		if !criteria.Matches(p) {
			continue
		}
		out = append(out, p)
	}
	Sort(out, key)
	return out
}

// Search keeps the products whose name, description or category contains the
// query, ignoring case. An empty query returns a copy of the input.
func Search(products []models.Product, query string) []models.Product {
	q := normalizeQuery(query)
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if q == "" || matches(p, q) {
			out = append(out, p)
		}
	}
	return out
}

// MatchesQuery reports whether p matches the search query.
func MatchesQuery(p models.Product, query string) bool {
	q := normalizeQuery(query)
	return q == "" || matches(p, q)
}

// Featured returns the featured products in input order.
func Featured(products []models.Product) []models.Product {
	return keep(products, func(p models.Product) bool { return p.Featured })
}

// OnSale returns the products carrying a sale price in input order.
func OnSale(products []models.Product) []models.Product {
	return keep(products, models.Product.OnSale)
}

// ByCategory returns the products of one category in input order.
func ByCategory(products []models.Product, category string) []models.Product {
	return keep(products, func(p models.Product) bool { return p.Category == category })
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func matches(p models.Product, q string) bool {
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Description), q) ||
		strings.Contains(strings.ToLower(p.Category), q)
}

func keep(products []models.Product, pred func(models.Product) bool) []models.Product {
	out := make([]models.Product, 0)
	for _, p := range products {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}
