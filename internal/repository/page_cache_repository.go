package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// PageCache keeps backend page data per session for a short while.
type PageCache interface {
	Get(ctx context.Context, sessionID, endpoint string) ([]byte, bool, error)
	Put(ctx context.Context, sessionID, endpoint string, data []byte) error
	Purge(ctx context.Context, sessionID string) error
}

type redisPageCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisPageCache returns a Redis-backed page cache. Each session also owns an index set
// listing its cached keys so Purge does not need to scan.
func NewRedisPageCache(client redis.UniversalClient, prefix string, ttl time.Duration) PageCache {
	return &redisPageCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *redisPageCache) entryKey(sessionID, endpoint string) string {
	return c.prefix + sessionID + ":" + endpoint
}

func (c *redisPageCache) indexKey(sessionID string) string {
	return c.prefix + sessionID
}

func (c *redisPageCache) Get(ctx context.Context, sessionID, endpoint string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.entryKey(sessionID, endpoint)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (c *redisPageCache) Put(ctx context.Context, sessionID, endpoint string, data []byte) error {
	if sessionID == "" || c.ttl <= 0 {
		return nil
	}
	key := c.entryKey(sessionID, endpoint)
	index := c.indexKey(sessionID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, c.ttl)
		pipe.SAdd(ctx, index, key)
		pipe.Expire(ctx, index, c.ttl)
		return nil
	})
	return err
}

func (c *redisPageCache) Purge(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	index := c.indexKey(sessionID)
	keys, err := c.client.SMembers(ctx, index).Result()
	if err != nil {
		return err
	}
	return c.client.Del(ctx, append(keys, index)...).Err()
}
