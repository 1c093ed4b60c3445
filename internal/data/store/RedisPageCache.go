package store

import (
	"context"
	"strconv"

	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/internal/data/redisStore"
	"github.com/akolanti/localrag/internal/domain/ragErrors"
	"github.com/akolanti/localrag/pkg/logger_i"
)

// HashSource lists the content hashes a collection's documents point at.
type HashSource interface {
	ListContentHashes(ctx context.Context, collection string) ([]string, error)
}

// RedisPageCache keeps one redis hash per content hash, one field per page.
type RedisPageCache struct {
	store  *redisStore.Store
	hashes HashSource
	logger *logger_i.Logger
}

// GetRedisPageCache returns nil when redis is unreachable.
func GetRedisPageCache(ctx context.Context, hashes HashSource) *RedisPageCache {
	store := redisStore.GetRedisStore(ctx, config.RedisPageCacheStore)
	if store == nil {
		return nil
	}
	return NewRedisPageCache(store, hashes)
}

func NewRedisPageCache(store *redisStore.Store, hashes HashSource) *RedisPageCache {
	return &RedisPageCache{
		store:  store,
		hashes: hashes,
		logger: logger_i.NewLogger("PageCache"),
	}
}

func pageCacheKey(contentHash string) string {
	return "pagecache:" + contentHash
}

func (s *RedisPageCache) Get(ctx context.Context, contentHash string, pageIndex int) (string, bool, error) {
	text, err := s.store.HashGet(ctx, pageCacheKey(contentHash), strconv.Itoa(pageIndex))
	if s.store.IsNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, ragErrors.Storage("get cached page", err)
	}
	return text, true, nil
}

func (s *RedisPageCache) Put(ctx context.Context, contentHash string, pageIndex int, text string) error {
	err := s.store.HashSet(ctx, pageCacheKey(contentHash), strconv.Itoa(pageIndex), text, config.RedisPageCacheTTL)
	if err != nil {
		s.logger.WithTrace(ctx).Error("Failed to cache page", "hash", contentHash, "page", pageIndex, "error", err)
	}
	return ragErrors.Storage("cache page", err)
}

func (s *RedisPageCache) Clear(ctx context.Context, contentHash string) (int, error) {
	n, err := s.store.HashDelete(ctx, pageCacheKey(contentHash))
	if err != nil {
		return 0, ragErrors.Storage("clear page cache", err)
	}
	return int(n), nil
}

func (s *RedisPageCache) ClearForCollection(ctx context.Context, collection string) (int, error) {
	hashes, err := s.hashes.ListContentHashes(ctx, collection)
	if err != nil {
		return 0, err
	}
	keys := make([]string, len(hashes))
	for i, h := range hashes {
		keys[i] = pageCacheKey(h)
	}
	n, err := s.store.HashDelete(ctx, keys...)
	if err != nil {
		return 0, ragErrors.Storage("clear page cache for collection", err)
	}
	s.logger.WithTrace(ctx).Debug("Cleared page cache for collection", "collection", collection, "pages", n)
	return int(n), nil
}
