package ftprobe

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

// Cache errors
var (
	ErrCacheInitFailed = fmt.Errorf("failed to initialize cache")
)

// ResultCache stores completed HostResults keyed by normalized host, so
// duplicate tokens in a host list (or repeated embedded runs within the TTL)
// reuse the first probe instead of hitting the network again.
type ResultCache struct {
	cache  *ristretto.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewResultCache creates a ResultCache with the given entry TTL.
func NewResultCache(ttl time.Duration, logger *zap.Logger) (*ResultCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000, // ~10x expected max host count
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheInitFailed, err)
	}

	return &ResultCache{
		cache:  cache,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "result_cache")),
	}, nil
}

// Get returns the cached result for a host, or nil on a miss.
func (c *ResultCache) Get(host string) *HostResult {
	value, found := c.cache.Get(host)
	if !found {
		return nil
	}
	result, ok := value.(*HostResult)
	if !ok {
		return nil
	}
	c.logger.Debug("Cache hit", zap.String("host", host))
	return result
}

// Set stores a result for a host. The write is flushed before returning so
// that duplicate tokens later in the same run observe it.
func (c *ResultCache) Set(host string, result *HostResult) {
	c.cache.SetWithTTL(host, result, 1, c.ttl)
	c.cache.Wait()
}

// Close releases the cache's internal goroutines.
func (c *ResultCache) Close() {
	c.cache.Close()
}
