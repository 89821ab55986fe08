package service

import (
	"fmt"

	"github.com/okian/rankd/internal/adapters/store"
	"github.com/okian/rankd/internal/config"
)

// OpenStore builds the store selected by cfg. Redis clients connect lazily,
// so a bad address surfaces on the first command.
func OpenStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	case config.BackendRedis:
		return store.NewRedisStore(
			store.WithAddrs(cfg.Addrs()...),
			store.WithMasterName(cfg.RedisMasterName),
			store.WithCredentials(cfg.RedisUsername, cfg.RedisPassword),
			store.WithDB(cfg.RedisDB),
			store.WithPoolSize(cfg.RedisPoolSize),
			store.WithTimeouts(cfg.DialTimeout(), cfg.ReadTimeout(), cfg.WriteTimeout()),
		), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.StoreBackend)
	}
}
