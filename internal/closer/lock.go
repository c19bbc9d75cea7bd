package closer

import (
	"context"
	"fmt"
	"time"

	"auction-market/utils"

	"github.com/redis/go-redis/v9"
)

// SweepLock keeps concurrent sweeps from running on several replicas.
// TryLock returns acquired=false without error when another holder owns it.
type SweepLock interface {
	TryLock(ctx context.Context) (unlock func(), acquired bool, err error)
}

// NoopLock always succeeds; it suits a single instance
type NoopLock struct{}

func (NoopLock) TryLock(context.Context) (func(), bool, error) {
	return func() {}, true, nil
}

// releaseScript deletes the key only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock is a SET NX PX lease with a token-checked release
type RedisLock struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

func NewRedisLock(client redis.UniversalClient, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{client: client, key: key, ttl: ttl}
}

func (l *RedisLock) TryLock(ctx context.Context) (func(), bool, error) {
	token := utils.GenerateID()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("closer: failed to acquire sweep lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			utils.Warn("closer: failed to release sweep lock", map[string]any{"key": l.key, "error": err.Error()})
		}
	}
	return unlock, true, nil
}
