package cmd

import (
	"github.com/redis/go-redis/v9"

	"github.com/symposiumhq/symposium/pkg/host"
)

// NewGuard builds the thread run guard. With a Redis URL the claim is shared
// across worker processes; without one it is process-local, which is only
// safe for a single worker or embedded mode.
func NewGuard(redisURL string) host.Guard {
	if redisURL == "" {
		return host.NewMemoryGuard()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		panic("invalid redis URL: " + err.Error())
	}

	return host.NewRedisGuard(redis.NewClient(opts))
}
