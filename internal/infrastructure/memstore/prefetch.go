package memstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vidlink/vidlink/internal/domain/model"
	"github.com/vidlink/vidlink/internal/domain/repository"
	"github.com/vidlink/vidlink/internal/infrastructure/metrics"
)

// PrefetchCacheConfig bounds the cache and its warm-up fetches.
type PrefetchCacheConfig struct {
	TTL         time.Duration
	MaxEntries  int
	ChunkSize   int64
	WarmTimeout time.Duration
}

// PrefetchCache keeps the leading bytes of origin resources in memory so
// the first playback range never waits on the origin. It implements
// repository.PrefetchCache.
type PrefetchCache struct {
	mu     sync.Mutex
	chunks map[string]*model.Chunk
	order  []string // insertion order, oldest first

	fetcher repository.ChunkFetcher
	logger  *slog.Logger
	cfg     PrefetchCacheConfig
	now     func() time.Time
}

// NewPrefetchCache creates a cache that warms itself through fetcher.
func NewPrefetchCache(fetcher repository.ChunkFetcher, logger *slog.Logger, cfg PrefetchCacheConfig) *PrefetchCache {
	return &PrefetchCache{
		chunks:  make(map[string]*model.Chunk),
		fetcher: fetcher,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Warm buffers the leading bytes for originURL unless a live entry already
// exists. The fetch runs on its own goroutine with a detached deadline and
// swallows failures. The liveness check and the fetch are deliberately not
// covered by one lock: two concurrent warms for a key may both fetch, and
// the loser's store is an identical overwrite.
func (c *PrefetchCache) Warm(originURL, credential string) {
	key := DeriveKey(originURL)
	if c.live(key) {
		metrics.PrefetchWarmsTotal.WithLabelValues(metrics.WarmSkipped).Inc()
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.WarmTimeout)
		defer cancel()

		chunk, err := c.fetcher.FetchChunk(ctx, originURL, credential, c.cfg.ChunkSize)
		if err != nil {
			c.logger.Warn("prefetch warm failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			metrics.PrefetchWarmsTotal.WithLabelValues(metrics.WarmError).Inc()
			return
		}

		c.store(key, chunk)
		metrics.PrefetchWarmsTotal.WithLabelValues(metrics.WarmStored).Inc()
	}()
}

// Lookup returns the cached chunk for originURL's derived key. Expiry is
// checked only by the write-time sweep.
func (c *PrefetchCache) Lookup(originURL string) (*model.Chunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	chunk, ok := c.chunks[DeriveKey(originURL)]
	return chunk, ok
}

// Len reports the number of stored entries, including any not yet swept.
func (c *PrefetchCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.chunks)
}

// live reports whether an unexpired entry exists for key.
func (c *PrefetchCache) live(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	chunk, ok := c.chunks[key]
	return ok && !chunk.Expired(c.cfg.TTL, c.now())
}

// store sweeps and inserts the chunk under key. Re-storing an existing key
// overwrites in place and keeps its original order position.
func (c *PrefetchCache) store(key string, chunk *model.Chunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweep(now)

	chunk.Key = key
	chunk.CreatedAt = now

	if _, exists := c.chunks[key]; !exists {
		c.order = append(c.order, key)
	}
	c.chunks[key] = chunk
}

// sweep removes expired entries, then evicts oldest-inserted entries until
// one more insert fits within MaxEntries. Callers hold c.mu.
func (c *PrefetchCache) sweep(now time.Time) {
	kept := c.order[:0]
	for _, key := range c.order {
		chunk, ok := c.chunks[key]
		if !ok {
			continue
		}
		if chunk.Expired(c.cfg.TTL, now) {
			delete(c.chunks, key)
			metrics.StoreEvictionsTotal.WithLabelValues(metrics.StorePrefetch, metrics.EvictExpired).Inc()
			continue
		}
		kept = append(kept, key)
	}
	c.order = kept

	for len(c.order) >= c.cfg.MaxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.chunks, oldest)
		metrics.StoreEvictionsTotal.WithLabelValues(metrics.StorePrefetch, metrics.EvictCapacity).Inc()
	}
}
