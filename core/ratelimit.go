package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter throttles login attempts per username with a fixed window
// counter in redis, so the limit holds across API replicas. It fails open:
// a redis error never blocks a login.
type LoginLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewLoginLimiter(client *redis.Client, limit int, window time.Duration) *LoginLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &LoginLimiter{client: client, limit: limit, window: window}
}

// Allow reports ErrTooManyRequests once the username exceeds the configured
// attempts inside the current window. A limit of 0 disables throttling.
func (l *LoginLimiter) Allow(ctx context.Context, username string) error {
	if l.limit <= 0 || l.client == nil {
		return nil
	}

	key := fmt.Sprintf("login_attempts:%s", strings.ToLower(username))
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return nil
	}
	if count == 1 {
		_ = l.client.Expire(ctx, key, l.window).Err()
	}
	if count > int64(l.limit) {
		return ErrTooManyRequests
	}
	return nil
}
