package notifxpg

import (
	"context"
	"fmt"

	"github.com/maix-platform/maix/pkg/kernel"
	"github.com/redis/go-redis/v9"
)

// UnreadCounter tracks per-user unread notification counts.
type UnreadCounter interface {
	Incr(ctx context.Context, user kernel.UserID) error
	Get(ctx context.Context, user kernel.UserID) (int64, error)
}

// RedisUnreadCounter implements UnreadCounter on Redis.
type RedisUnreadCounter struct {
	rdb *redis.Client
}

// NewRedisUnreadCounter creates a Redis-backed unread counter.
func NewRedisUnreadCounter(rdb *redis.Client) *RedisUnreadCounter {
	return &RedisUnreadCounter{rdb: rdb}
}

func unreadKey(user kernel.UserID) string {
	return fmt.Sprintf("maix:notifications:unread:%s", user)
}

// Incr bumps the unread count for a user.
func (c *RedisUnreadCounter) Incr(ctx context.Context, user kernel.UserID) error {
	return c.rdb.Incr(ctx, unreadKey(user)).Err()
}

// Get returns the unread count for a user. A missing key counts as zero.
func (c *RedisUnreadCounter) Get(ctx context.Context, user kernel.UserID) (int64, error) {
	n, err := c.rdb.Get(ctx, unreadKey(user)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

var _ UnreadCounter = (*RedisUnreadCounter)(nil)
