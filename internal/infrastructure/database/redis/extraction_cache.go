package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/internal/intelligence/entity_extractor"
	"github.com/Qubut/IP-Claim/pkg/errors"
)

// ExtractionCache stores finished mention lists keyed by the content of the
// extracted text, so re-processing an unchanged document is a cache hit.
type ExtractionCache struct {
	client *Client
	prefix string
	ttl    time.Duration
	log    logging.Logger
}

// NewExtractionCache builds an ExtractionCache on top of client.
func NewExtractionCache(client *Client, prefix string, ttl time.Duration, log logging.Logger) *ExtractionCache {
	if prefix == "" {
		prefix = "ipclaim"
	}
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ExtractionCache{client: client, prefix: prefix, ttl: ttl, log: log.Named("extraction_cache")}
}

// CacheKey derives the cache key for a text under an engine profile.  The
// profile participates in the digest so results from different annotation
// models never collide.
func CacheKey(prefix, text, profile string) string {
	h := sha256.New()
	h.Write([]byte(profile))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return prefix + ":extraction:" + hex.EncodeToString(h.Sum(nil))
}

// Get loads the cached mention list for text.  The second return value is
// false on a miss.
func (c *ExtractionCache) Get(ctx context.Context, text, profile string) ([]entity_extractor.Mention, bool, error) {
	key := CacheKey(c.prefix, text, profile)

	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeCacheError, "reading extraction cache")
	}

	var mentions []entity_extractor.Mention
	if err := json.Unmarshal(data, &mentions); err != nil {
		// A corrupt entry is treated as a miss; the caller recomputes and
		// overwrites it.
		c.log.Warn("corrupt extraction cache entry", logging.String("key", key), logging.Err(err))
		return nil, false, nil
	}
	return mentions, true, nil
}

// Set stores the mention list for text with the configured TTL.
func (c *ExtractionCache) Set(ctx context.Context, text, profile string, mentions []entity_extractor.Mention) error {
	key := CacheKey(c.prefix, text, profile)

	data, err := json.Marshal(mentions)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding mentions")
	}
	if err := c.client.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "writing extraction cache")
	}
	return nil
}

// Invalidate drops the cached result for text.
func (c *ExtractionCache) Invalidate(ctx context.Context, text, profile string) error {
	key := CacheKey(c.prefix, text, profile)
	if err := c.client.rdb.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "invalidating extraction cache")
	}
	return nil
}
