package host

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard enforces the at-most-once invariant: for one thread id, only one
// host ever starts the driver, no matter how many times the request event is
// delivered.
type Guard interface {
	// Acquire claims the thread for this host. Returns false when another
	// run already claimed it.
	Acquire(ctx context.Context, threadID string) (bool, error)

	// Release gives the claim back. Only called when the claim was acquired
	// but the driver never started.
	Release(ctx context.Context, threadID string) error
}

// MemoryGuard is the in-process guard for embedded mode and tests.
type MemoryGuard struct {
	claimed sync.Map
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{}
}

func (g *MemoryGuard) Acquire(_ context.Context, threadID string) (bool, error) {
	_, loaded := g.claimed.LoadOrStore(threadID, struct{}{})

	return !loaded, nil
}

func (g *MemoryGuard) Release(_ context.Context, threadID string) error {
	g.claimed.Delete(threadID)

	return nil
}

// claimTTL bounds how long a crashed worker's claim blocks a retried run.
const claimTTL = 30 * time.Minute

// RedisGuard coordinates the claim across worker processes.
type RedisGuard struct {
	client *redis.Client
}

func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{client: client}
}

func (g *RedisGuard) Acquire(ctx context.Context, threadID string) (bool, error) {
	return g.client.SetNX(ctx, claimKey(threadID), "1", claimTTL).Result()
}

func (g *RedisGuard) Release(ctx context.Context, threadID string) error {
	return g.client.Del(ctx, claimKey(threadID)).Err()
}

func claimKey(threadID string) string {
	return "symposium:thread-claim:" + threadID
}
