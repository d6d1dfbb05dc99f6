package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"simreg/internal/domain"
)

// SessionSlotRepo persists sealed session ids as Redis strings with a TTL.
type SessionSlotRepo struct {
	client redis.Cmdable
}

// NewSessionSlotRepo creates a Redis-backed session slot.
func NewSessionSlotRepo(client redis.Cmdable) *SessionSlotRepo {
	return &SessionSlotRepo{client: client}
}

func (r *SessionSlotRepo) Load(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("redisSessionSlot.Load: %w", err)
	}
	return v, nil
}

// Save stores value under key. A zero ttl keeps the key until deleted.
func (r *SessionSlotRepo) Save(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redisSessionSlot.Save: %w", err)
	}
	return nil
}

func (r *SessionSlotRepo) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redisSessionSlot.Delete: %w", err)
	}
	return nil
}
