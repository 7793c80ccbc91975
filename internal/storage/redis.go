package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultNamespace prefixes every slot key in Redis.
const DefaultNamespace = "shopflow"

// RedisStorage keeps slots in Redis under a key namespace.
type RedisStorage struct {
	client    *redis.Client
	namespace string
	log       Log
}

// NewRedisStorage connects to redisURL and verifies the connection.
func NewRedisStorage(ctx context.Context, redisURL string, log Log) (*RedisStorage, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Connected to redis", zap.Int("db", opts.DB))
	return NewRedisStorageWithClient(client, DefaultNamespace, log), nil
}

// NewRedisStorageWithClient wraps an existing client.
func NewRedisStorageWithClient(client *redis.Client, namespace string, log Log) *RedisStorage {
	return &RedisStorage{
		client:    client,
		namespace: namespace,
		log:       log,
	}
}

func (s *RedisStorage) key(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}

func (s *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	return value, nil
}

func (s *RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	s.log.Debug("slot written", zap.String("key", s.key(key)), zap.Int("bytes", len(value)))
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}

// Close releases the client connections.
func (s *RedisStorage) Close() bool {
	if err := s.client.Close(); err != nil {
		return false
	}
	s.log.Info("Redis connection closed")
	return true
}
