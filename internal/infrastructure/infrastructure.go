// Package infrastructure provides core service initialization for application startup.
// It assembles the shared dependencies (logging, database, storage, rate
// limiting, events) that the file and job systems require.
package infrastructure

import (
	"fmt"
	"log/slog"

	"github.com/JaimeStill/deck-translate/internal/config"
	"github.com/JaimeStill/deck-translate/internal/events"
	"github.com/JaimeStill/deck-translate/internal/ratelimit"
	"github.com/JaimeStill/deck-translate/pkg/database"
	"github.com/JaimeStill/deck-translate/pkg/lifecycle"
	"github.com/JaimeStill/deck-translate/pkg/logging"
	"github.com/JaimeStill/deck-translate/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Limiter   ratelimit.Checker
	Events    events.Publisher

	rateStore *ratelimit.MemoryStore
	cfg       *config.Config
}

// New creates an Infrastructure from the application configuration.
// A Redis rate-limit store is connected here so a bad address fails
// startup; everything else is started by Start.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := logging.New(&cfg.Logging)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Events:    events.NewPublisher(&cfg.Events, logger),
		cfg:       cfg,
	}

	if err := infra.initRateLimit(); err != nil {
		return nil, fmt.Errorf("rate limit init failed: %w", err)
	}

	return infra, nil
}

func (i *Infrastructure) initRateLimit() error {
	rl := &i.cfg.RateLimit
	opts := []ratelimit.Option{ratelimit.WithKeyPrefix(rl.KeyPrefix)}

	switch rl.Store {
	case ratelimit.StoreRedis:
		client, err := ratelimit.NewRedisClient(i.Lifecycle.Context(), &rl.Redis, i.Logger)
		if err != nil {
			return err
		}
		ratelimit.CloseOnShutdown(i.Lifecycle, client, i.Logger)
		i.Limiter = ratelimit.New(ratelimit.NewRedisStore(client), rl.Policies(), i.Logger, opts...)
	default:
		i.rateStore = ratelimit.NewMemoryStore()
		i.Limiter = ratelimit.New(i.rateStore, rl.Policies(), i.Logger, opts...)
	}
	return nil
}

// Start initializes all infrastructure systems and registers them with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if i.rateStore != nil {
		i.rateStore.Start(i.Lifecycle, i.cfg.RateLimit.SweepIntervalDuration())
	}
	events.Start(i.Events, i.Lifecycle)
	return nil
}
