package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"edu-chatbot-backend/internal/logger"
)

// RedisLease is a short-lived distributed lock keyed by an arbitrary
// string, renewed while held. The worker pool may span processes, so a
// language-level mutex cannot serialize per-document ingestion.
type RedisLease struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLease(rdb *redis.Client, ttl time.Duration) *RedisLease {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLease{rdb: rdb, ttl: ttl}
}

// Delete only if the stored token is ours; a lease that expired and was
// re-acquired elsewhere must not be released by the old holder.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Acquire attempts to take the lease. ok is false when another holder
// has it. The returned release function stops renewal and frees the
// lease; it is safe to call once.
func (l *RedisLease) Acquire(ctx context.Context, key string) (release func(), ok bool, err error) {
	token := uuid.NewString()

	ok, err = l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(l.ttl / 3)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				renewCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := l.rdb.Expire(renewCtx, key, l.ttl).Err(); err != nil {
					logger.Warn("Lease renewal failed", "key", key, "error", err)
				}
				cancel()
			}
		}
	}()

	release = func() {
		close(stop)
		relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(relCtx, l.rdb, []string{key}, token).Err(); err != nil && err != redis.Nil {
			logger.Warn("Lease release failed", "key", key, "error", err)
		}
	}
	return release, true, nil
}
