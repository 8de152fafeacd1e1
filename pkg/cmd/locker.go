package cmd

import (
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/dukex/flowkit/pkg/lock"
)

// NewLocker selects the publish lock implementation. With a Redis URL the
// lock holds across processes; without one it only serializes within this
// process, which is correct for single-node deployments.
func NewLocker(redisURL string) lock.Locker {
	if redisURL == "" {
		return lock.NewKeyedLocker()
	}

	options, err := redis.ParseURL(redisURL)
	if err != nil {
		panic(fmt.Errorf("failed to parse redis url: %w", err))
	}

	return lock.NewRedisLocker(redis.NewClient(options))
}
