package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix prefixes every status key written to Redis.
const DefaultKeyPrefix = "crawlytics:status:"

// DefaultTTL is how long a status record survives without updates.
const DefaultTTL = time.Hour

// redisClient is the subset of *redis.Client used by RedisReporter.
type redisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Close() error
}

// RedisReporter stores the latest status of each session in Redis.
type RedisReporter struct {
	client redisClient
	prefix string
	ttl    time.Duration
}

// NewRedisReporter connects to the Redis server at addr.
// An empty prefix or non-positive ttl falls back to the defaults.
func NewRedisReporter(addr, prefix string, ttl time.Duration) *RedisReporter {
	return newRedisReporter(redis.NewClient(&redis.Options{Addr: addr}), prefix, ttl)
}

func newRedisReporter(client redisClient, prefix string, ttl time.Duration) *RedisReporter {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisReporter{client: client, prefix: prefix, ttl: ttl}
}

// Close closes the Redis client.
func (r *RedisReporter) Close() error {
	return r.client.Close()
}

// Report writes s under its session id and points the domain key of
// s at that session.
func (r *RedisReporter) Report(ctx context.Context, s Status) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+s.SessionID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store status: %w", err)
	}
	if s.Domain == "" {
		return nil
	}
	if err := r.client.Set(ctx, r.domainKey(s.Domain), s.SessionID, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store domain index: %w", err)
	}
	return nil
}

// GetLatest reads the status of the most recent session that crawled
// domain. The second result is false when no record exists.
func (r *RedisReporter) GetLatest(ctx context.Context, domain string) (Status, bool, error) {
	sessionID, err := r.client.Get(ctx, r.domainKey(domain)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Status{}, false, nil
		}
		return Status{}, false, fmt.Errorf("failed to read domain index: %w", err)
	}
	return r.Get(ctx, sessionID)
}

func (r *RedisReporter) domainKey(domain string) string {
	return r.prefix + "domain:" + domain
}

// Get reads the latest status of a session. The second result is false
// when no record exists.
func (r *RedisReporter) Get(ctx context.Context, sessionID string) (Status, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Status{}, false, nil
		}
		return Status{}, false, fmt.Errorf("failed to read status: %w", err)
	}

	var s Status
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return Status{}, false, fmt.Errorf("failed to parse status: %w", err)
	}
	return s, true, nil
}
