// Package cache provides cache-aside storage for rendered listing pages.
package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/taigrr/dirindex/internal/logging"
	"github.com/taigrr/dirindex/internal/metrics"
)

// KeyPrefix namespaces listing keys inside a shared store.
const KeyPrefix = "file-index-"

// Store persists opaque values by key. Expiry is the store's own business.
type Store interface {
	// Load returns the value stored under key and whether it was found.
	Load(ctx context.Context, key string) ([]byte, bool, error)
	// Save stores value under key, replacing any previous value.
	Save(ctx context.Context, key string, value []byte) error
	Close() error
}

// Render is a cache-aside cache of rendered HTML. Hits are returned as
// stored and never revalidated against the directory.
type Render struct {
	store Store
}

// NewRender creates a Render cache over store.
func NewRender(store Store) *Render {
	return &Render{store: store}
}

// Key derives the cache key for a directory path.
func Key(path string) string {
	sum := blake2b.Sum256([]byte(path))
	return KeyPrefix + hex.EncodeToString(sum[:])
}

// GetOrCompute returns the cached page for path, computing and storing it
// on a miss.
func (r *Render) GetOrCompute(ctx context.Context, path string, compute func() (string, error)) (string, error) {
	return r.Get(ctx, Key(path), compute)
}

// Get returns the value stored under key, computing and storing it on a
// miss. Store failures degrade to computing the value; compute failures are
// returned and nothing is stored.
func (r *Render) Get(ctx context.Context, key string, compute func() (string, error)) (string, error) {
	logger := logging.WithContext(ctx)

	raw, found, err := r.store.Load(ctx, key)
	if err != nil {
		metrics.RecordCacheError("load")
		logger.Warn("cache load failed", zap.String("key", key), zap.Error(err))
	}
	if found {
		var value string
		if err := json.Unmarshal(raw, &value); err == nil {
			metrics.RecordCacheLookup(true)
			return value, nil
		}
		metrics.RecordCacheError("decode")
		logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	}

	metrics.RecordCacheLookup(false)
	value, err := compute()
	if err != nil {
		return "", err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := r.store.Save(ctx, key, encoded); err != nil {
		metrics.RecordCacheError("save")
		logger.Warn("cache save failed", zap.String("key", key), zap.Error(err))
	}

	return value, nil
}

// Close releases the underlying store.
func (r *Render) Close() error {
	return r.store.Close()
}

// expired reports whether an entry created at createdAt has outlived ttl.
// A zero ttl never expires.
func expired(createdAt time.Time, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(createdAt) >= ttl
}
