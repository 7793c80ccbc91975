// Package order turns a cart snapshot into an immutable order record and
// keeps the most recent one.
package order

import (
	"sync"
	"time"

	"github.com/drstein77/shopflow/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IDGenerator hands out timestamp-derived order ids (Unix milliseconds) that
// never repeat or go backwards within one process.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
}

// Next returns the next id for the given instant.
func (g *IDGenerator) Next(now time.Time) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := now.UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Builder assembles orders.
type Builder struct {
	ids *IDGenerator
	now func() time.Time
}

// NewBuilder creates a Builder using the wall clock.
func NewBuilder() *Builder {
	return NewBuilderWithClock(time.Now)
}

// NewBuilderWithClock creates a Builder reading time from now.
func NewBuilderWithClock(now func() time.Time) *Builder {
	return &Builder{
		ids: &IDGenerator{},
		now: now,
	}
}

// Build snapshots lines, shipping and payment into an order. The total is the
// subtotal plus models.TaxRate, rounded to cents. Only masked payment data is kept.
func (b *Builder) Build(lines []models.CartLine, shipping models.ShippingInfo, payment models.PaymentInfo) models.Order {
	items := make([]models.CartLine, len(lines))
	for i, l := range lines {
		items[i] = l.Clone()
	}

	subtotal, tax, total := Totals(items)
	createdAt := b.now().UTC()

	return models.Order{
		ID:        b.ids.Next(createdAt),
		Reference: uuid.NewString(),
		Items:     items,
		Shipping:  shipping,
		Payment:   payment.Masked(),
		Subtotal:  subtotal,
		Tax:       tax,
		Total:     total,
		CreatedAt: createdAt,
	}
}

// Totals returns subtotal, tax and total for lines. Total is
// subtotal × (1 + models.TaxRate) rounded to cents, tax is the difference.
func Totals(lines []models.CartLine) (subtotal, tax, total decimal.Decimal) {
	subtotal = models.Subtotal(lines)
	total = subtotal.Mul(decimal.NewFromInt(1).Add(models.TaxRate)).Round(2)
	tax = total.Sub(subtotal)
	return subtotal, tax, total
}
