// Package cart holds the shopper's cart and keeps it persisted in a
// key-value slot.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/drstein77/shopflow/internal/models"
	"github.com/drstein77/shopflow/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Log interface {
	Info(string, ...zap.Field)
	Warn(string, ...zap.Field)
	Error(string, ...zap.Field)
}

// Store owns the cart lines. Lines are kept in insertion order with at most
// one line per product id. Every mutation rewrites the persisted slot.
type Store struct {
	mx    sync.RWMutex
	lines []models.CartLine

	slots storage.Store
	key   string
	log   Log
}

// New creates an empty cart backed by slots. Call Load to rehydrate it.
func New(slots storage.Store, log Log) *Store {
	return &Store{
		slots: slots,
		key:   storage.CartKey,
		log:   log,
	}
}

// Load replaces the in-memory cart with the persisted one. A missing or
// malformed slot yields an empty cart; only a storage failure is returned.
func (s *Store) Load(ctx context.Context) error {
	raw, err := s.slots.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		s.reset(nil)
		return nil
	}
	if err != nil {
		s.reset(nil)
		return fmt.Errorf("failed to load cart: %w", err)
	}

	lines, err := decode(raw)
	if err != nil {
		s.log.Warn("Discarding malformed cart", zap.Error(err))
		s.reset(nil)
		return nil
	}

	s.reset(lines)
	s.log.Info("Cart loaded", zap.Int("lines", len(lines)))
	return nil
}

func (s *Store) reset(lines []models.CartLine) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.lines = lines
}

// decode drops lines that would break the cart invariants: non-positive
// quantities and repeated product ids.
func decode(raw []byte) ([]models.CartLine, error) {
	var lines []models.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(lines))
	out := make([]models.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			continue
		}
		if _, dup := seen[l.ID]; dup {
			continue
		}
		seen[l.ID] = struct{}{}
		out = append(out, l)
	}
	return out, nil
}

// AddToCart increments the line of product or appends a new line with quantity 1.
func (s *Store) AddToCart(ctx context.Context, product models.Product) error {
	return s.mutate(ctx, func(lines []models.CartLine) []models.CartLine {
		if i := indexOf(lines, product.ID); i >= 0 {
			lines[i] = lines[i].WithQuantity(lines[i].Quantity + 1)
			return lines
		}
		return append(lines, models.CartLine{Product: product, Quantity: 1}.Clone())
	})
}

// RemoveFromCart deletes the line of productID. Absent ids are ignored.
func (s *Store) RemoveFromCart(ctx context.Context, productID int) error {
	return s.mutate(ctx, func(lines []models.CartLine) []models.CartLine {
		if i := indexOf(lines, productID); i >= 0 {
			return append(lines[:i], lines[i+1:]...)
		}
		return lines
	})
}

// UpdateQuantity sets the quantity of productID. A quantity of zero or less
// removes the line; absent ids are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, productID, quantity int) error {
	if quantity <= 0 {
		return s.RemoveFromCart(ctx, productID)
	}
	return s.mutate(ctx, func(lines []models.CartLine) []models.CartLine {
		if i := indexOf(lines, productID); i >= 0 {
			lines[i] = lines[i].WithQuantity(quantity)
		}
		return lines
	})
}

// ClearCart empties the cart.
func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, func([]models.CartLine) []models.CartLine {
		return nil
	})
}

// RemoveLines takes the quantities of lines out of the cart and drops lines
// that reach zero. Units added since lines were read stay in the cart.
func (s *Store) RemoveLines(ctx context.Context, lines []models.CartLine) error {
	return s.mutate(ctx, func(current []models.CartLine) []models.CartLine {
		for _, l := range lines {
			i := indexOf(current, l.ID)
			if i < 0 {
				continue
			}
			left := current[i].Quantity - l.Quantity
			if left <= 0 {
				current = append(current[:i], current[i+1:]...)
				continue
			}
			current[i] = current[i].WithQuantity(left)
		}
		return current
	})
}

// mutate applies fn to the lines under the write lock and persists the
// result. The in-memory cart keeps the change even if persisting fails.
func (s *Store) mutate(ctx context.Context, fn func([]models.CartLine) []models.CartLine) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.lines = fn(s.lines)

	raw, err := json.Marshal(s.snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.slots.Set(ctx, s.key, raw); err != nil {
		s.log.Error("Failed to persist cart", zap.Error(err))
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}

// snapshot returns a deep copy; callers hold the lock.
func (s *Store) snapshot() []models.CartLine {
	out := make([]models.CartLine, len(s.lines))
	for i, l := range s.lines {
		out[i] = l.Clone()
	}
	return out
}

func indexOf(lines []models.CartLine, productID int) int {
	for i, l := range lines {
		if l.ID == productID {
			return i
		}
	}
	return -1
}

// Lines returns a copy of the cart in insertion order.
func (s *Store) Lines() []models.CartLine {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return s.snapshot()
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return len(s.lines) == 0
}

// TotalItems is the sum of all line quantities.
func (s *Store) TotalItems() int {
	s.mx.RLock()
	defer s.mx.RUnlock()

	total := 0
	for _, l := range s.lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice is the sum of effective price times quantity over all lines.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return models.Subtotal(s.lines)
}

// ItemQuantity returns the quantity of productID, or 0.
func (s *Store) ItemQuantity(productID int) int {
	s.mx.RLock()
	defer s.mx.RUnlock()

	if i := indexOf(s.lines, productID); i >= 0 {
		return s.lines[i].Quantity
	}
	return 0
}

// Summary returns the order summary: subtotal, free shipping, tax and total.
func (s *Store) Summary() models.CartSummary {
	s.mx.RLock()
	defer s.mx.RUnlock()

	items := 0
	for _, l := range s.lines {
		items += l.Quantity
	}
	subtotal := models.Subtotal(s.lines)
	tax := subtotal.Mul(models.TaxRate).Round(2)
	return models.CartSummary{
		Items:    items,
		Subtotal: subtotal,
		Shipping: decimal.Zero,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}
