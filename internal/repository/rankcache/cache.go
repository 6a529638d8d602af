// Package rankcache caches composed ranking responses in the KV store.
package rankcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pemrank/internal/db"
	"github.com/kailas-cloud/pemrank/internal/domain"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/request"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/result"
	"github.com/kailas-cloud/pemrank/internal/logger"
)

var cacheKeyPrefix = domain.KeyPrefix + "rank:"

// store is the consumer interface for the response cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache stores composed responses. Storage failures are logged and behave as misses.
type Cache struct {
	store store
	ttl   time.Duration
}

// New creates a response cache. ttl <= 0 stores without expiry.
func New(s store, ttl time.Duration) *Cache {
	return &Cache{store: s, ttl: ttl}
}

// Get returns a cached response for the request under the given calibration fingerprint.
func (c *Cache) Get(ctx context.Context, fingerprint string, req request.Request) (result.Response, bool) {
	key, err := cacheKey(fingerprint, req)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to build rank cache key", zap.Error(err))
		return result.Response{}, false
	}

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			logger.FromContext(ctx).Warn("Failed to get cached response", zap.String("key", key), zap.Error(err))
		}
		return result.Response{}, false
	}
	if len(data) == 0 {
		return result.Response{}, false
	}

	var dto responseDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		logger.FromContext(ctx).Warn("Failed to parse cached response", zap.String("key", key), zap.Error(err))
		return result.Response{}, false
	}
	if !dto.Abstain && dto.Best == nil {
		logger.FromContext(ctx).Warn("Cached response has no best item", zap.String("key", key))
		return result.Response{}, false
	}
	return dto.toDomain(), true
}

// Put stores a response. Failures are logged and swallowed.
func (c *Cache) Put(ctx context.Context, fingerprint string, req request.Request, resp result.Response) {
	key, err := cacheKey(fingerprint, req)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to build rank cache key", zap.Error(err))
		return
	}
	data, err := json.Marshal(toResponseDTO(resp))
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to encode response for cache", zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		logger.FromContext(ctx).Warn("Failed to cache response", zap.String("key", key), zap.Error(err))
	}
}

func cacheKey(fingerprint string, req request.Request) (string, error) {
	data, err := json.Marshal(buildKeyDTO(req))
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	h := sha256.Sum256(data)
	return cacheKeyPrefix + fingerprint + ":" + hex.EncodeToString(h[:]), nil
}
