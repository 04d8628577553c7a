package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/foundry/pkg/adapters/file"
	"github.com/aretw0/foundry/pkg/adapters/memory"
	"github.com/aretw0/foundry/pkg/adapters/redis"
	"github.com/aretw0/foundry/pkg/persistence/middleware"
	"github.com/aretw0/foundry/pkg/ports"
	"github.com/aretw0/foundry/pkg/run"
)

// LockPrefix namespaces the distributed run locks in Redis.
const LockPrefix = "foundry:lock:"

// createRunManager picks the run store: Redis with distributed locking, a
// directory of JSON files, or memory. Masking and encryption wrap the store
// when configured.
func createRunManager(ctx context.Context, opts Options, logger *slog.Logger) (*run.Manager, func(), error) {
	var (
		store    ports.RunStore
		runOpts  = []run.Option{run.WithLogger(logger)}
		closeAll = func() {}
	)

	switch {
	case opts.RedisURL != "":
		rs, err := redis.New(opts.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.InfoContext(ctx, "Using Redis run store", "addr", opts.RedisURL)
		store = rs
		runOpts = append(runOpts, run.WithLocker(redis.NewLocker(rs.Client(), LockPrefix)))
		closeAll = func() { rs.Client().Close() }
	case opts.RunsDir != "":
		logger.InfoContext(ctx, "Using file run store", "dir", opts.RunsDir)
		store = file.New(opts.RunsDir)
	default:
		store = memory.NewStore()
	}

	mws, err := storeMiddlewares(opts)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return run.NewManager(middleware.Chain(store, mws...), runOpts...), closeAll, nil
}

func storeMiddlewares(opts Options) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(opts.Mask) > 0 {
		pii, err := middleware.NewPIIMiddleware(opts.Mask)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}

	if encoded := os.Getenv(EnvEncryptionKey); encoded != "" {
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvEncryptionKey, err)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvEncryptionKey, err)
		}
		mws = append(mws, enc)
	}
	return mws, nil
}
