package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// ErrLockHeld indicates another node currently holds the lock for this key.
var ErrLockHeld = errors.New("lock already held")

const (
	lockKeyPrefix   = "flowkit:publish-lock:"
	defaultLockTTL  = 30 * time.Second
	acquireInterval = 100 * time.Millisecond
)

// releaseScript deletes the key only when the stored token matches, so a
// node never releases a lock it lost to TTL expiry.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes publishes per flow across processes using a
// SET NX token with a TTL. The TTL bounds how long a crashed holder can
// block other publishers.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client, ttl: defaultLockTTL}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := lockKeyPrefix + key
	token := uuid.New().String()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire publish lock for %s: %w", key, err)
		}

		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", ErrLockHeld, key)
		case <-time.After(acquireInterval):
		}
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_, _ = releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Result()
	}

	return release, nil
}
