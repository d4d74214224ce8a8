package backend

import (
	"context"
	"fmt"

	"moneylog/internal/cache"
	"moneylog/internal/log"
	"moneylog/internal/storage"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend. Database backends are wrapped
// in a CachedKV when a cache size is configured.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		kv  storage.KV
		err error
	)
	switch config.Type {
	case MemoryBackend:
		kv = storage.NewMemoryKV()
	case FileBackend:
		kv, err = storage.NewFileKV(config.DataDirectory)
	case SQLiteBackend:
		kv, err = storage.NewSQLiteKV(config.SQLiteDBPath)
	case PostgresBackend:
		kv, err = storage.NewPostgresKV(ctx, config.PostgresURL)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s backend: %w", config.Type, err)
	}

	result := &BackendResult{KV: kv, Cleanup: kv.Close}

	if config.CacheSize > 0 && (config.Type == SQLiteBackend || config.Type == PostgresBackend) {
		cached := storage.NewCachedKV(kv, config.CacheSize, config.CacheTTL)
		manager := cache.NewManager(f.logger)
		manager.Register(cached.Cache())
		manager.StartCleanup(config.CacheTTL)

		result.KV = cached
		result.Cleanup = func() error {
			manager.Stop()
			return cached.Close()
		}
		f.logger.Debug("Read-through cache enabled",
			"size", config.CacheSize,
			"ttl", config.CacheTTL.String())
	}

	f.logger.Info("Initialized storage backend",
		log.FieldBackend, config.Type.String(),
		"persistent", config.Type.Persistent())
	return result, nil
}
