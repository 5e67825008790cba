package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/annotate/internal/config"
	"github.com/aretw0/annotate/pkg/adapters/file"
	"github.com/aretw0/annotate/pkg/adapters/memory"
	redisadapter "github.com/aretw0/annotate/pkg/adapters/redis"
	"github.com/aretw0/annotate/pkg/persistence/middleware"
	"github.com/aretw0/annotate/pkg/ports"
	"github.com/aretw0/annotate/pkg/session"
	"github.com/redis/go-redis/v9"
)

// Persistence is the snapshot store selected by configuration, behind a session manager.
type Persistence struct {
	Manager *session.Manager
	closers []io.Closer
}

// OpenPersistence builds the configured store, wraps it with masking and encryption
// when configured, and puts a session manager in front of it.
func OpenPersistence(cfg config.Config, logger *slog.Logger) (*Persistence, error) {
	p := &Persistence{}

	var store ports.SnapshotStore
	managerOpts := []session.Option{session.WithLogger(logger)}

	switch cfg.Store.Backend {
	case config.BackendMemory:
		store = memory.NewStore()
	case config.BackendFile:
		store = file.New(cfg.Store.Dir)
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.Store.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid store.redis_url: %w", err)
		}
		client := redis.NewClient(opts)
		p.closers = append(p.closers, client)
		store = redisadapter.NewFromClient(client, redisadapter.WithTTL(cfg.Store.TTL))
		managerOpts = append(managerOpts, session.WithLocker(redisadapter.NewLocker(client, "annotate:")))
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	var mws []middleware.Middleware
	if len(cfg.Store.PIIPatterns) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.Store.PIIPatterns))
	}
	if cfg.Store.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.Store.EncryptionKey)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("invalid store.encryption_key: %w", err)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	store = middleware.Chain(store, mws...)

	p.Manager = session.NewManager(store, managerOpts...)
	logger.Debug("snapshot store ready", "backend", cfg.Store.Backend, "middlewares", len(mws))
	return p, nil
}

// Close releases backend connections.
func (p *Persistence) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
