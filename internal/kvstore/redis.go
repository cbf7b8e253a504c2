package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisOpTimeout bounds every Redis round trip so the synchronous Store
// contract cannot hang the caller.
const redisOpTimeout = 3 * time.Second

// Verify RedisStore satisfies ClosableStore at compile time.
var _ ClosableStore = (*RedisStore)(nil)

// RedisStore keeps keys in Redis under a namespace prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to Redis at redisURL and verifies the connection.
// URL format: redis://[:password@]host:port/db
func OpenRedis(redisURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("kvstore: invalid redis URL: %w", err)
	}

	opts.PoolSize = 4
	opts.MinIdleConns = 1
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = redisOpTimeout
	opts.WriteTimeout = redisOpTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("kvstore: redis connection failed: %w", err)
	}

	return NewRedisStore(client, prefix), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(k string) string {
	return r.prefix + k
}

// Get returns the value stored under key.
func (r *RedisStore) Get(key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvstore: redis get %q: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key without expiry; expiration is the cache layer's job.
func (r *RedisStore) Set(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("kvstore: redis set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (r *RedisStore) Remove(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("kvstore: redis del %q: %w", key, err)
	}
	return nil
}

// KeysWithPrefix walks the keyspace with SCAN and returns the sorted keys
// (without the namespace prefix) starting with prefix.
func (r *RedisStore) KeysWithPrefix(prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	pattern := escapeGlob(r.key(prefix)) + "*"
	keys := make([]string, 0)
	seen := make(map[string]struct{})
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		// SCAN may return a key more than once.
		k := strings.TrimPrefix(iter.Val(), r.prefix)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("kvstore: redis scan %q: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// escapeGlob escapes Redis MATCH metacharacters so prefixes are literal.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
