package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/anjiri1684/wellness_booking/models"
)

func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

// ServiceCache stores active catalog entries as JSON under service:<id>.
type ServiceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewServiceCache(client *redis.Client, ttl time.Duration) *ServiceCache {
	return &ServiceCache{client: client, ttl: ttl}
}

func serviceKey(id uuid.UUID) string {
	return "service:" + id.String()
}

// Get reports a miss as (nil, nil).
func (c *ServiceCache) Get(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	raw, err := c.client.Get(ctx, serviceKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s models.Service
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode cached service: %w", err)
	}
	return &s, nil
}

func (c *ServiceCache) Set(ctx context.Context, s *models.Service) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, serviceKey(s.ID), raw, c.ttl).Err()
}

func (c *ServiceCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, serviceKey(id)).Err()
}
