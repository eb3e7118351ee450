package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/turing/pkg/adapters/file"
	"github.com/aretw0/turing/pkg/adapters/memory"
	"github.com/aretw0/turing/pkg/adapters/redis"
	"github.com/aretw0/turing/pkg/adapters/sqlite"
	"github.com/aretw0/turing/pkg/persistence/middleware"
	"github.com/aretw0/turing/pkg/ports"
)

// DefaultSQLitePath is used by --store sqlite when --store-path is empty.
var DefaultSQLitePath = filepath.Join(".turing", "sessions.db")

// Backend is an opened session store, plus a distributed locker when the
// store is shared between processes.
type Backend struct {
	Store  ports.StateStore
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases connections held by the backend.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenStore builds the backend selected by cfg.Store, sealing sessions
// when cfg.StoreKey is set.
func OpenStore(ctx context.Context, cfg Config) (*Backend, error) {
	b, err := openBackend(ctx, cfg)
	if err != nil || cfg.StoreKey == "" {
		return b, err
	}

	keys, err := middleware.ParseKeys(cfg.StoreKey)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	seal, err := middleware.NewEncryptionMiddleware(keys)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.Store = middleware.Chain(b.Store, seal)
	return b, nil
}

func openBackend(ctx context.Context, cfg Config) (*Backend, error) {
	switch cfg.Store {
	case StoreMemory:
		return &Backend{Store: memory.NewStore()}, nil

	case StoreFile, "":
		return &Backend{Store: file.New(cfg.StorePath)}, nil

	case StoreSQLite:
		path := cfg.StorePath
		if path == "" {
			path = DefaultSQLitePath
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		st, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: st, close: st.Close}, nil

	case StoreRedis:
		var opts []redis.Option
		if cfg.SessionTTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.SessionTTL))
		}
		st := redis.New(cfg.RedisAddr, cfg.RedisPassword, 0, opts...)

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := st.Client().Ping(pingCtx).Err(); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}
		return &Backend{
			Store:  st,
			Locker: redis.NewLocker(st.Client(), "turing:"),
			close:  st.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}
