package lock

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockLost is returned by Unlock when the key expired, or was taken by
// someone else, before it was released.
var ErrLockLost = errors.New("lock expired before release")

// releaseScript deletes the key only if it still holds our token, so a
// holder whose TTL ran out cannot release somebody else's lock.
var releaseScript = redis.NewScript(`
    if redis.call('GET', KEYS[1]) == ARGV[1] then
        return redis.call('DEL', KEYS[1])
    end
    return 0
`)

// Redis is a Locker shared by every process talking to the same Redis.
// A lock is a key set with NX and a TTL; the TTL bounds how long a crashed
// holder can block a show and must comfortably exceed the time a
// reservation takes.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	poll   time.Duration
}

// NewRedis returns a Redis locker. Keys are stored as "<prefix>:<key>".
func NewRedis(rdb *redis.Client, prefix string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if prefix == "" {
		prefix = "lock"
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl, poll: 20 * time.Millisecond}
}

func (l *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	k := l.prefix + ":" + key
	token := uuid.NewString()
	for {
		ok, err := l.rdb.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("acquire lock %q: %w", key, err)
		}
		if ok {
			return l.unlockFunc(k, token), nil
		}

		// jitter keeps contending waiters from polling in lockstep
		wait := l.poll + rand.N(l.poll)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Redis) unlockFunc(k, token string) Unlock {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := releaseScript.Run(ctx, l.rdb, []string{k}, token).Int64()
		if err != nil {
			return fmt.Errorf("release lock %q: %w", k, err)
		}
		if n == 0 {
			return ErrLockLost
		}
		return nil
	}
}
