package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "pinn:lock:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lease never frees a lock that someone else acquired since.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisLocker shares locks across server replicas. ttl bounds how long a
// crashed holder can block a table.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *slog.Logger) Locker {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisLocker{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (l *redisLocker) Acquire(ctx context.Context, key string) (Unlock, error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrHeld
	}

	l.logger.DebugContext(ctx, "lock acquired", "key", key, "ttl", l.ttl)

	return func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int()
		if err != nil {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		if n == 0 {
			l.logger.WarnContext(ctx, "lock expired before release", "key", key, "ttl", l.ttl)
		}
		return nil
	}, nil
}
