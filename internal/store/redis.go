package store

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// Redis stores each record as a plain string key. Prefix scans use SCAN
// with a MATCH pattern followed by MGET, so they are not a point-in-time
// snapshot; records written during the scan may or may not appear.
type Redis struct {
	rdb *redis.Client
}

// NewRedis returns a Redis store using the given client.
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (s *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, ioErr("redis get", key, err)
	}
	return v, nil
}

func (s *Redis) Put(ctx context.Context, key string, value []byte) error {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return ioErr("redis put", key, err)
	}
	return nil
}

func (s *Redis) PutIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, value, 0).Result()
	if err != nil {
		return false, ioErr("redis put-if-absent", key, err)
	}
	return ok, nil
}

func (s *Redis) ScanPrefix(ctx context.Context, prefix string) ([][]byte, error) {
	keys := make([]string, 0)
	iter := s.rdb.Scan(ctx, 0, globEscape(prefix)+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, ioErr("redis scan", prefix, err)
	}

	out := make([][]byte, 0, len(keys))
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		vals, err := s.rdb.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, ioErr("redis mget", prefix, err)
		}
		for _, v := range vals {
			// nil means the key vanished between SCAN and MGET.
			if str, ok := v.(string); ok {
				out = append(out, []byte(str))
			}
		}
	}
	return out, nil
}

func globEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)
	return r.Replace(s)
}
