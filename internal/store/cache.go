package store

import (
	"context"
	"time"

	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/goinginblind/lso-gateway/internal/pkg/metrics"
)

// CachingStore is a decorator that adds an in-memory LRU cache to Get.
// Every write goes through to the next store first and then refreshes
// or drops the cached copy.
type CachingStore struct {
	next   Store
	cache  *LRUCache
	logger logger.Logger
}

// NewCachingStore creates a caching decorator for Store
func NewCachingStore(next Store, logger logger.Logger, entryCountCap, entrySizeCap int) *CachingStore {
	return &CachingStore{
		next:   next,
		cache:  NewLRUCache(entryCountCap, entrySizeCap),
		logger: logger,
	}
}

func cacheKey(c Collection, key string) string {
	return string(c) + "/" + key
}

// Get checks the cache before asking the next store. If hit - early return,
// but if not - cache gets updated.
func (s *CachingStore) Get(ctx context.Context, c Collection, key string) ([]byte, error) {
	start := time.Now()
	doc, found := s.cache.Get(cacheKey(c, key))
	if found {
		metrics.CacheResponseTime.WithLabelValues("get").Observe(time.Since(start).Seconds())
		metrics.CacheHits.Inc()

		s.logger.Debugw("Cache hit", "collection", c, "key", key)
		return doc, nil
	}

	metrics.CacheMisses.Inc()
	s.logger.Debugw("Cache miss", "collection", c, "key", key)
	doc, err := s.next.Get(ctx, c, key)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	s.cache.Insert(cacheKey(c, key), doc)
	metrics.CacheResponseTime.WithLabelValues("insert").Observe(time.Since(start).Seconds())

	return doc, nil
}

func (s *CachingStore) Put(ctx context.Context, c Collection, key string, doc []byte) error {
	if err := s.next.Put(ctx, c, key, doc); err != nil {
		s.cache.Remove(cacheKey(c, key))
		return err
	}
	s.cache.Insert(cacheKey(c, key), doc)
	return nil
}

func (s *CachingStore) Update(ctx context.Context, c Collection, key string, fn UpdateFunc) error {
	var written []byte
	err := s.next.Update(ctx, c, key, func(doc []byte) ([]byte, error) {
		next, err := fn(doc)
		written = next
		return next, err
	})
	if err != nil {
		s.cache.Remove(cacheKey(c, key))
		return err
	}
	s.cache.Insert(cacheKey(c, key), written)
	return nil
}

// PutField drops the cached copy, the next Get reloads it.
func (s *CachingStore) PutField(ctx context.Context, c Collection, key string, path []string, value any) error {
	defer s.cache.Remove(cacheKey(c, key))
	return s.next.PutField(ctx, c, key, path, value)
}

// List always reads through, listings are filtered per request anyway.
func (s *CachingStore) List(ctx context.Context, c Collection) ([][]byte, error) {
	return s.next.List(ctx, c)
}

func (s *CachingStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}
