package backend

import (
	"context"
	"fmt"
	"log/slog"

	"royalties/internal/adapters"
	"royalties/internal/amqp"
	"royalties/internal/notify"
	"royalties/internal/sources/memory"
	"royalties/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	hub    *notify.Hub
}

// NewFactory creates a new backend factory. Seed reloads and updates from
// other instances are published on hub; a nil hub disables both.
func NewFactory(logger *slog.Logger, hub *notify.Hub) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		hub:    hub,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		result, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachUpdateBridge(result, config)
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store, err := memory.NewFromFiles(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory backend seed: %w", err)
	}

	result := &BackendResult{Backend: store}
	if config.WatchSeed {
		result.Runners = append(result.Runners, func(ctx context.Context) error {
			return store.Watch(ctx, dataDir, f.seedReloaded)
		})
	}

	f.logger.Info("Initialized memory backend",
		"data_directory", dataDir,
		"watch_seed", config.WatchSeed)

	return result, nil
}

// seedReloaded tells every listener that works and profiles may have changed.
func (f *DefaultFactory) seedReloaded() {
	if f.hub != nil {
		f.hub.Publish(notify.Update{Type: notify.TypeMusic})
	}
}

// attachUpdateBridge connects the hub to AMQP when configured. A broker that
// cannot be reached leaves the instance running on local updates only.
func (f *DefaultFactory) attachUpdateBridge(result *BackendResult, config Config) {
	if config.AMQPURL == "" || f.hub == nil {
		return
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without update fan-out", "error", err)
		return
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	bridge := adapters.NewUpdateBridge(f.hub, client)
	result.Runners = append(result.Runners, bridge.Run)

	cleanup := result.Cleanup
	result.Cleanup = func() error {
		var errs []error
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
		if cleanup != nil {
			if err := cleanup(); err != nil {
				errs = append(errs, fmt.Errorf("backend: %w", err))
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("close backend: %v", errs)
		}
		return nil
	}
}
