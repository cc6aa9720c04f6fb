// Package redis provides Redis-based implementations of the store interfaces.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"reliefwatch/internal/config"
	"reliefwatch/internal/domain"
)

// prefixOpenCrises namespaces the open-crisis candidate cache.
const prefixOpenCrises = "opencrises:"

// StateStore implements store.StateStore using Redis. The candidate list
// for each crisis type is stored as one JSON value with a TTL, matching
// the correlation engine's read-mostly access pattern.
type StateStore struct {
	client *redis.Client
}

// NewStateStore creates a new Redis-backed state store.
func NewStateStore(cfg *config.RedisConfig) (*StateStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &StateStore{client: client}, nil
}

// openCrisesKey generates the Redis key for a crisis type's candidate list.
func openCrisesKey(t domain.CrisisType) string {
	return prefixOpenCrises + string(t)
}

// GetOpenCrises retrieves the cached candidates for a type.
// Returns nil, nil when no cache entry exists.
func (s *StateStore) GetOpenCrises(ctx context.Context, t domain.CrisisType) ([]*domain.Crisis, error) {
	data, err := s.client.Get(ctx, openCrisesKey(t)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open crises: %w", err)
	}

	var crises []*domain.Crisis
	if err := json.Unmarshal(data, &crises); err != nil {
		return nil, fmt.Errorf("failed to unmarshal open crises: %w", err)
	}
	if crises == nil {
		crises = []*domain.Crisis{}
	}
	return crises, nil
}

// SetOpenCrises caches the candidate list for a type with the given TTL.
func (s *StateStore) SetOpenCrises(ctx context.Context, t domain.CrisisType, crises []*domain.Crisis, ttl time.Duration) error {
	if crises == nil {
		crises = []*domain.Crisis{}
	}
	data, err := json.Marshal(crises)
	if err != nil {
		return fmt.Errorf("failed to marshal open crises: %w", err)
	}

	if err := s.client.Set(ctx, openCrisesKey(t), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set open crises: %w", err)
	}
	return nil
}

// Invalidate drops the cache entry for a type.
func (s *StateStore) Invalidate(ctx context.Context, t domain.CrisisType) error {
	if err := s.client.Del(ctx, openCrisesKey(t)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate open crises: %w", err)
	}
	return nil
}

// Close closes the Redis client connection.
func (s *StateStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
