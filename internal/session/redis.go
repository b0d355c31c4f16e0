package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/catalogimport/internal/core"
)

// DefaultKeyPrefix namespaces plan keys.
const DefaultKeyPrefix = "catalogimport:plan:"

// RedisPlanStore keeps plans in redis as JSON. Expiry is left to redis.
type RedisPlanStore struct {
	client *redis.Client
	prefix string
}

// NewRedisClient parses url and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedisPlanStore creates a store using client. An empty prefix selects
// DefaultKeyPrefix.
func NewRedisPlanStore(client *redis.Client, prefix string) *RedisPlanStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisPlanStore{client: client, prefix: prefix}
}

func (s *RedisPlanStore) key(id string) string {
	return s.prefix + id
}

// Save stores plan with a redis TTL.
func (s *RedisPlanStore) Save(ctx context.Context, plan *core.Plan, ttl time.Duration) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	if err := s.client.Set(ctx, s.key(plan.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("save plan %s: %w", plan.ID, err)
	}
	return nil
}

// Load returns the plan, or core.ErrImportNotFound once redis has expired it.
func (s *RedisPlanStore) Load(ctx context.Context, id string) (*core.Plan, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrImportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", id, err)
	}

	var plan core.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("decode plan %s: %w", id, err)
	}
	return &plan, nil
}

// Delete removes the plan.
func (s *RedisPlanStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// PurgeExpired is a no-op: redis expires keys itself.
func (s *RedisPlanStore) PurgeExpired(ctx context.Context) (int, error) {
	return 0, nil
}
