package catalog

import (
	"slices"
	"time"

	"github.com/drstein77/shopflow/internal/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the listing order.
type SortKey string

const (
	SortName      SortKey = "name"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
	SortNewest    SortKey = "newest"
)

// DefaultRating stands in for products without a rating.
const DefaultRating = 4.5

// DefaultCreatedAt stands in for products without a creation date.
var DefaultCreatedAt = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// ParseSortKey maps user input to a SortKey, falling back to SortName.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortName, SortPriceLow, SortPriceHigh, SortRating, SortNewest:
		return k
	default:
		return SortName
	}
}

// Sort orders products in place. The sort is stable for every key.
func Sort(products []models.Product, key SortKey) {
	switch ParseSortKey(string(key)) {
	case SortPriceLow:
		slices.SortStableFunc(products, func(a, b models.Product) int {
			return a.EffectivePrice().Cmp(b.EffectivePrice())
		})
	case SortPriceHigh:
		slices.SortStableFunc(products, func(a, b models.Product) int {
			return b.EffectivePrice().Cmp(a.EffectivePrice())
		})
	case SortRating:
		slices.SortStableFunc(products, func(a, b models.Product) int {
			return compareFloat(rating(b), rating(a))
		})
	case SortNewest:
		slices.SortStableFunc(products, func(a, b models.Product) int {
			return createdAt(b).Compare(createdAt(a))
		})
	default:
		// a collator keeps per-call buffers
		c := collate.New(language.English)
		slices.SortStableFunc(products, func(a, b models.Product) int {
			return c.CompareString(a.Name, b.Name)
		})
	}
}

// Sorted returns a sorted copy of products.
func Sorted(products []models.Product, key SortKey) []models.Product {
	out := slices.Clone(products)
	Sort(out, key)
	return out
}

func rating(p models.Product) float64 {
	if p.Rating == nil {
		return DefaultRating
	}
	return *p.Rating
}

func createdAt(p models.Product) time.Time {
	if p.CreatedAt == nil {
		return DefaultCreatedAt
	}
	return *p.CreatedAt
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
