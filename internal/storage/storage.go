package storage

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrNotFound indicates that a slot holds no value.
var ErrNotFound = errors.New("not found")

// Slot names used by the storefront.
const (
	CartKey      = "shopflow-cart"
	LastOrderKey = "lastOrder"
)

type Log interface {
	Info(string, ...zap.Field)
	Debug(string, ...zap.Field)
}

// Store is a durable key-value area holding serialized state.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryStorage represents an in-memory storage with locking mechanisms
type MemoryStorage struct {
	mx    sync.RWMutex
	slots map[string][]byte

	log Log
}

// NewMemoryStorage creates a new MemoryStorage instance
func NewMemoryStorage(log Log) *MemoryStorage {
	return &MemoryStorage{
		slots: make(map[string][]byte),
		log:   log,
	}
}

func (s *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	value, ok := s.slots[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.slots[key] = append([]byte(nil), value...)
	if s.log != nil {
		s.log.Debug("slot written", zap.String("key", key), zap.Int("bytes", len(value)))
	}
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	delete(s.slots, key)
	return nil
}
