package portal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const encodingKeyPrefix = "portal:encoding:"

// EncodingCache keeps recently served face encodings in Redis. It is strictly
// best-effort: every failure reads as a miss and the caller falls through to
// the database. A nil cache is valid and never hits.
type EncodingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEncodingCache wraps a redis client with the given entry TTL.
func NewEncodingCache(client *redis.Client, ttl time.Duration) *EncodingCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &EncodingCache{client: client, ttl: ttl}
}

// Get returns the cached encoding for a student, if any.
func (c *EncodingCache) Get(ctx context.Context, externalID string) (FaceEncoding, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, encodingKeyPrefix+externalID).Bytes()
	if err != nil {
		return nil, false
	}
	var enc FaceEncoding
	if err := json.Unmarshal(raw, &enc); err != nil || len(enc) != EncodingDim {
		return nil, false
	}
	return enc, true
}

// Set stores an encoding; errors are dropped.
func (c *EncodingCache) Set(ctx context.Context, externalID string, enc FaceEncoding) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(enc)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, encodingKeyPrefix+externalID, raw, c.ttl).Err()
}

// Invalidate drops the cached entry after a write.
func (c *EncodingCache) Invalidate(ctx context.Context, externalID string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, encodingKeyPrefix+externalID).Err()
}
