package store

import (
	"context"
	"sync"
)

type pageKey struct {
	hash string
	page int
}

// InMemoryPageCache is the process-local page cache used in tests and when no
// persistent backend is available.
type InMemoryPageCache struct {
	pageLock *sync.RWMutex
	pageMap  map[pageKey]string
	hashes   HashSource
}

func InitInMemoryPageCache(hashes HashSource) *InMemoryPageCache {
	return &InMemoryPageCache{
		pageLock: new(sync.RWMutex),
		pageMap:  make(map[pageKey]string),
		hashes:   hashes,
	}
}

func (store *InMemoryPageCache) Get(ctx context.Context, contentHash string, pageIndex int) (string, bool, error) {
	store.pageLock.RLock()
	defer store.pageLock.RUnlock()
	text, ok := store.pageMap[pageKey{contentHash, pageIndex}]
	return text, ok, nil
}

func (store *InMemoryPageCache) Put(ctx context.Context, contentHash string, pageIndex int, text string) error {
	store.pageLock.Lock()
	defer store.pageLock.Unlock()
	store.pageMap[pageKey{contentHash, pageIndex}] = text
	return nil
}

func (store *InMemoryPageCache) Clear(ctx context.Context, contentHash string) (int, error) {
	store.pageLock.Lock()
	defer store.pageLock.Unlock()
	return store.clearLocked(contentHash), nil
}

func (store *InMemoryPageCache) ClearForCollection(ctx context.Context, collection string) (int, error) {
	if store.hashes == nil {
		return 0, nil
	}
	hashes, err := store.hashes.ListContentHashes(ctx, collection)
	if err != nil {
		return 0, err
	}
	store.pageLock.Lock()
	defer store.pageLock.Unlock()
	removed := 0
	for _, h := range hashes {
		removed += store.clearLocked(h)
	}
	return removed, nil
}

// Len reports the number of cached pages for a hash.
func (store *InMemoryPageCache) Len(contentHash string) int {
	store.pageLock.RLock()
	defer store.pageLock.RUnlock()
	n := 0
	for k := range store.pageMap {
		if k.hash == contentHash {
			n++
		}
	}
	return n
}

func (store *InMemoryPageCache) clearLocked(contentHash string) int {
	removed := 0
	for k := range store.pageMap {
		if k.hash == contentHash {
			delete(store.pageMap, k)
			removed++
		}
	}
	return removed
}
