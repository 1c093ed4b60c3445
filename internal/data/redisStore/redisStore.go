package redisStore

import (
	"context"
	"os"
	"strconv"
	"sync"

	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

var (
	mu     sync.Mutex
	stores = make(map[int]*Store)
	closer sync.Once
	logger = logger_i.NewLogger("Redis Store")
)

// Store is one redis logical database. Index job records and the OCR page
// cache each get their own, see config.RedisJobStore and config.RedisPageCacheStore.
type Store struct {
	client *redis.Client
	db     int
}

// GetRedisStore returns the shared store for db, connecting on first use.
// It returns nil while redis does not answer, so callers can fall back and a
// later call tries again.
func GetRedisStore(ctx context.Context, db int) *Store {
	mu.Lock()
	defer mu.Unlock()
	if s, ok := stores[db]; ok {
		return s
	}

	s, err := connect(ctx, db)
	if err != nil {
		logger.Error("Redis is offline", "db", dbName(db), "addr", redisAddr(), "error", err)
		return nil
	}
	stores[db] = s
	closer.Do(func() {
		go closeRedisStores(ctx)
	})
	logger.Info("Connected to redis", "db", dbName(db))
	return s
}

func connect(ctx context.Context, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  redisAddr(),
		Password:              config.RedisPassword,
		DB:                    db,
		ContextTimeoutEnabled: true,
		ReadTimeout:           config.RedisIOTimeout,
		WriteTimeout:          config.RedisIOTimeout,
	})
	pingCtx, cancel := context.WithTimeout(ctx, config.RedisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Store{client: client, db: db}, nil
}

func closeRedisStores(ctx context.Context) {
	<-ctx.Done()
	mu.Lock()
	defer mu.Unlock()
	for db, s := range stores {
		if err := s.client.Close(); err != nil {
			logger.Error("Error closing redis client", "db", dbName(db), "error", err)
		}
		delete(stores, db)
	}
	logger.Info("Redis stores closed")
}

func redisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return config.RedisAddr
}

func dbName(db int) string {
	switch db {
	case config.RedisJobStore:
		return "jobs"
	case config.RedisPageCacheStore:
		return "pages"
	}
	return strconv.Itoa(db)
}

// NewTestStore wraps a client pointed at miniredis.
func NewTestStore(client *redis.Client) *Store {
	return &Store{client: client}
}
