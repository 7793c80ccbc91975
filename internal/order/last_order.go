package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/drstein77/shopflow/internal/models"
	"github.com/drstein77/shopflow/internal/storage"
	"go.uber.org/zap"
)

type Log interface {
	Info(string, ...zap.Field)
	Warn(string, ...zap.Field)
}

// LastOrderStore keeps exactly one order: the most recent.
type LastOrderStore struct {
	slots storage.Store
	log   Log
}

func NewLastOrderStore(slots storage.Store, log Log) *LastOrderStore {
	return &LastOrderStore{slots: slots, log: log}
}

// Save overwrites the resident order.
func (s *LastOrderStore) Save(ctx context.Context, o models.Order) error {
	raw, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}
	if err := s.slots.Set(ctx, storage.LastOrderKey, raw); err != nil {
		return fmt.Errorf("failed to persist order: %w", err)
	}
	s.log.Info("Order saved", zap.Int64("id", o.ID), zap.String("reference", o.Reference), zap.String("total", o.Total.StringFixed(2)))
	return nil
}

// Load returns the resident order. Missing or malformed data reports ok=false
// without an error.
func (s *LastOrderStore) Load(ctx context.Context) (models.Order, bool, error) {
	raw, err := s.slots.Get(ctx, storage.LastOrderKey)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Order{}, false, nil
	}
	if err != nil {
		return models.Order{}, false, fmt.Errorf("failed to load order: %w", err)
	}

	var o models.Order
	if err := json.Unmarshal(raw, &o); err != nil || o.ID == 0 {
		s.log.Warn("Ignoring malformed last order", zap.Error(err))
		return models.Order{}, false, nil
	}
	return o, true, nil
}
