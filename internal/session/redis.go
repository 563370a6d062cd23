package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

const defaultLatchTTL = 30 * time.Second

// releaseScript deletes the key only while it still holds our token.
var releaseScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisLatch implements waitlist.Latch with SET NX PX so replicas share one
// in-flight flag per session. The TTL bounds a latch left by a crashed replica.
type RedisLatch struct {
	client backend.UniversalClient
	key    string
	ttl    time.Duration

	mu    sync.Mutex
	token string
}

// NewRedisLatch creates a latch stored under key.
func NewRedisLatch(client backend.UniversalClient, key string, ttl time.Duration) *RedisLatch {
	if ttl <= 0 {
		ttl = defaultLatchTTL
	}
	return &RedisLatch{client: client, key: key, ttl: ttl}
}

// TryAcquire sets the key if absent.
func (l *RedisLatch) TryAcquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", l.key, err)
	}
	if !ok {
		return false, nil
	}
	l.mu.Lock()
	l.token = token
	l.mu.Unlock()
	return true, nil
}

// Release deletes the key if this latch still owns it.
func (l *RedisLatch) Release(ctx context.Context) error {
	l.mu.Lock()
	token := l.token
	l.token = ""
	l.mu.Unlock()
	if token == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil && !errors.Is(err, backend.Nil) {
		return fmt.Errorf("redis release %s: %w", l.key, err)
	}
	return nil
}

// Held reports whether any replica holds the key.
func (l *RedisLatch) Held(ctx context.Context) (bool, error) {
	n, err := l.client.Exists(ctx, l.key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", l.key, err)
	}
	return n > 0, nil
}
